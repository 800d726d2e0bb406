//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build darwin || freebsd || netbsd || openbsd

package serial

import "golang.org/x/sys/unix"

// mark and space parity can not be expressed with the BSD termios
const tcCMSPAR = 0
const tcIUCLC = 0
const hasMarkSpaceParity = false

const tcCRTSCTS = unix.CRTSCTS

const ioctlTcgetattr = unix.TIOCGETA
const ioctlTcsetattr = unix.TIOCSETA

// On BSD the speed constants are the speed itself, the table only
// tells apart the rates every driver is expected to support.
var standardBaudrates = map[int]bool{
	50: true, 75: true, 110: true, 134: true, 150: true, 200: true,
	300: true, 600: true, 1200: true, 1800: true, 2400: true, 4800: true,
	9600: true, 19200: true, 38400: true, 57600: true, 115200: true,
	230400: true, 460800: true, 921600: true,
}

func (port *unixPort) getTermSettingsBaudrate(settings *unix.Termios) (int, error) {
	return int(settings.Ospeed), nil
}

func (port *unixPort) drain() error {
	return unix.IoctlSetInt(port.handle, unix.TIOCDRAIN, 0)
}

// flush takes TCIFLUSH or TCOFLUSH, which match FREAD and FWRITE
func (port *unixPort) flush(queue int) error {
	return unix.IoctlSetPointerInt(port.handle, unix.TIOCFLUSH, queue)
}
