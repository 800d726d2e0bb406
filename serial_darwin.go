//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"math"
	"unsafe"

	"golang.org/x/sys/unix"
)

// IOSSIOSPEED = _IOW('T', 2, speed_t)
const ioctlIOSSIOSPEED = 0x80085402

// FIONREAD, _IOR('f', 127, int)
const ioctlInq = 0x4004667f

// termios keeps the previous speed after IOSSIOSPEED
const readsBackSpecialBaudrate = false

func setTermSettingsBaudrate(speed int, settings *unix.Termios) (bool, error) {
	if speed <= 0 || speed > math.MaxInt32 {
		return false, &PortError{code: InvalidSpeed}
	}
	if !standardBaudrates[speed] {
		// applied with IOSSIOSPEED after the termios
		return true, nil
	}
	settings.Ispeed = uint64(speed)
	settings.Ospeed = uint64(speed)
	return false, nil
}

// setTermSettings applies settings and, for nonstandard rates, the speed
// with IOSSIOSPEED. If the speed is refused the previous settings are
// restored so that the port is left untouched.
func (port *unixPort) setTermSettings(settings *unix.Termios, speed int, special bool) error {
	if !special {
		return unix.IoctlSetTermios(port.handle, ioctlTcsetattr, settings)
	}
	previous, err := unix.IoctlGetTermios(port.handle, ioctlTcgetattr)
	if err != nil {
		return err
	}
	if err := unix.IoctlSetTermios(port.handle, ioctlTcsetattr, settings); err != nil {
		return err
	}
	if err := port.setSpecialBaudrate(speed); err != nil {
		unix.IoctlSetTermios(port.handle, ioctlTcsetattr, previous)
		return err
	}
	return nil
}

func (port *unixPort) setSpecialBaudrate(speed int) error {
	value := uint64(speed)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(port.handle), ioctlIOSSIOSPEED, uintptr(unsafe.Pointer(&value)))
	if errno != 0 {
		return errno
	}
	return nil
}
