//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux && !ppc64le

package serial

import "golang.org/x/sys/unix"

// setSpecialBaudrate applies the whole settings with the arbitrary speed
// in a single TCSETS2 call.
func (port *unixPort) setSpecialBaudrate(settings *unix.Termios, speed uint32) error {
	settings.Cflag &^= unix.CBAUD
	settings.Cflag |= unix.BOTHER
	settings.Ispeed = speed
	settings.Ospeed = speed
	return unix.IoctlSetTermios(port.handle, unix.TCSETS2, settings)
}

func (port *unixPort) getSpecialBaudrate() (int, error) {
	settings, err := unix.IoctlGetTermios(port.handle, unix.TCGETS2)
	if err != nil {
		return 0, newOSError(err)
	}
	return int(settings.Ospeed), nil
}

func isSpecialBaudrate(cbaud uint32) bool {
	return cbaud == unix.BOTHER
}
