//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build !windows

package serial

import "syscall"

func codeFromErrno(errno syscall.Errno) (PortErrorCode, bool) {
	switch errno {
	case syscall.ENOENT, syscall.ENODEV, syscall.ENXIO:
		return PortNotFound, true
	case syscall.EBUSY:
		return PortBusy, true
	case syscall.EACCES, syscall.EPERM:
		return PermissionDenied, true
	case syscall.ENOTTY:
		return InvalidSerialPort, true
	}
	return 0, false
}

func ioKindFromErrno(errno syscall.Errno) (IoKind, bool) {
	switch errno {
	case syscall.ETIMEDOUT:
		return IoTimedOut, true
	case syscall.EINTR:
		return IoInterrupted, true
	case syscall.EAGAIN:
		return IoWouldBlock, true
	case syscall.EPIPE:
		return IoBrokenPipe, true
	case syscall.ECONNRESET:
		return IoConnectionReset, true
	case syscall.ECONNABORTED:
		return IoConnectionAborted, true
	case syscall.ENOTCONN:
		return IoNotConnected, true
	case syscall.EIO:
		return IoOther, true
	}
	return 0, false
}
