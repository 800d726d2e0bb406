//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func codeFromErrno(errno syscall.Errno) (PortErrorCode, bool) {
	switch errno {
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND, windows.ERROR_INVALID_NAME:
		return PortNotFound, true
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_SHARING_VIOLATION:
		return PortBusy, true
	case windows.ERROR_INVALID_HANDLE:
		return InvalidSerialPort, true
	}
	return 0, false
}

func ioKindFromErrno(errno syscall.Errno) (IoKind, bool) {
	switch errno {
	case windows.ERROR_SEM_TIMEOUT, windows.WAIT_TIMEOUT:
		return IoTimedOut, true
	case windows.ERROR_OPERATION_ABORTED:
		return IoInterrupted, true
	case windows.ERROR_IO_PENDING:
		return IoWouldBlock, true
	case windows.ERROR_BROKEN_PIPE, windows.ERROR_NO_DATA:
		return IoBrokenPipe, true
	case windows.ERROR_DEVICE_NOT_CONNECTED:
		return IoNotConnected, true
	}
	return 0, false
}
