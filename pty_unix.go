//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package serial

import (
	"github.com/creack/pty"
	"github.com/sirhcel/go-serial/unixutils"
	"golang.org/x/sys/unix"
)

// OpenPair creates a pseudo terminal and returns its two ends as ports.
// Bytes written on one end are read on the other, which makes the pair a
// loopback device usable without hardware. The subordinate end is a real
// tty configured with mode, the controlling end keeps the kernel defaults
// and only shares the read timeout. Modem control lines are not available
// on a pseudo terminal.
func OpenPair(mode *Mode) (controller Port, subordinate Port, err error) {
	if mode == nil {
		mode = &Mode{}
	}
	if err := mode.validate(); err != nil {
		return nil, nil, err
	}
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, nil, newOSError(err)
	}
	defer ptmx.Close()
	defer tty.Close()

	sub, err := nativeOpen(tty.Name(), mode)
	if err != nil {
		return nil, nil, err
	}

	fd, err := unix.Dup(int(ptmx.Fd()))
	if err != nil {
		sub.Close()
		return nil, nil, newOSError(err)
	}
	unix.CloseOnExec(fd)
	ctrl := &unixPort{
		handle:      fd,
		name:        ptmx.Name(),
		readTimeout: mode.Timeout,
		opened:      1,
	}
	if ctrl.closeSignal, err = unixutils.NewPipe(); err != nil {
		unix.Close(fd)
		sub.Close()
		return nil, nil, newOSError(err)
	}
	return ctrl, sub, nil
}
