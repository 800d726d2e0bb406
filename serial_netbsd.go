//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"math"

	"golang.org/x/sys/unix"
)

// FIONREAD, _IOR('f', 127, int)
const ioctlInq = 0x4004667f

const readsBackSpecialBaudrate = true

func setTermSettingsBaudrate(speed int, settings *unix.Termios) (bool, error) {
	// see https://nxr.netbsd.org/xref/src/lib/libc/termios/cfsetspeed.c
	if speed < 50 || speed > math.MaxInt32 {
		return false, &PortError{code: InvalidSpeed}
	}
	settings.Ispeed = int32(speed)
	settings.Ospeed = int32(speed)
	return !standardBaudrates[speed], nil
}

func (port *unixPort) setTermSettings(settings *unix.Termios, speed int, special bool) error {
	return unix.IoctlSetTermios(port.handle, ioctlTcsetattr, settings)
}
