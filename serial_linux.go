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

var baudrateMap = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

const tcCMSPAR = unix.CMSPAR
const tcIUCLC = unix.IUCLC
const tcCRTSCTS = unix.CRTSCTS

const hasMarkSpaceParity = true

const ioctlTcgetattr = unix.TCGETS
const ioctlTcsetattr = unix.TCSETS
const ioctlInq = unix.TIOCINQ

// TCGETS2 reports the speed applied with BOTHER
const readsBackSpecialBaudrate = true

// setTermSettingsBaudrate stores the speed in settings. Speeds without a
// Bxxx constant are reported as special and applied with termios2.
func setTermSettingsBaudrate(speed int, settings *unix.Termios) (bool, error) {
	baudrate, ok := baudrateMap[speed]
	if !ok {
		if speed <= 0 || int64(speed) > math.MaxUint32 {
			return false, &PortError{code: InvalidSpeed}
		}
		return true, nil
	}
	settings.Cflag &^= unix.CBAUD
	settings.Cflag |= baudrate
	settings.Ispeed = baudrate
	settings.Ospeed = baudrate
	return false, nil
}

func (port *unixPort) setTermSettings(settings *unix.Termios, speed int, special bool) error {
	if special {
		return port.setSpecialBaudrate(settings, uint32(speed))
	}
	return unix.IoctlSetTermios(port.handle, ioctlTcsetattr, settings)
}

func (port *unixPort) getTermSettingsBaudrate(settings *unix.Termios) (int, error) {
	cbaud := settings.Cflag & unix.CBAUD
	if isSpecialBaudrate(cbaud) {
		return port.getSpecialBaudrate()
	}
	for speed, baudrate := range baudrateMap {
		if baudrate == cbaud {
			return speed, nil
		}
	}
	return 0, &PortError{code: InvalidSpeed}
}

func (port *unixPort) drain() error {
	// It's not super well documented, but this is the same as calling tcdrain:
	// - https://git.musl-libc.org/cgit/musl/tree/src/termios/tcdrain.c
	// - https://elixir.bootlin.com/linux/v6.2.8/source/drivers/tty/tty_io.c#L2673
	return unix.IoctlSetInt(port.handle, unix.TCSBRK, 1)
}

func (port *unixPort) flush(queue int) error {
	return unix.IoctlSetInt(port.handle, unix.TCFLSH, queue)
}
