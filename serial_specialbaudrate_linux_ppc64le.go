//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux && ppc64le

package serial

import "golang.org/x/sys/unix"

func (port *unixPort) setSpecialBaudrate(settings *unix.Termios, speed uint32) error {
	return &PortError{code: InvalidSpeed}
}

func (port *unixPort) getSpecialBaudrate() (int, error) {
	return 0, &PortError{code: InvalidSpeed}
}

func isSpecialBaudrate(cbaud uint32) bool {
	return false
}
