//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"errors"
	"syscall"
)

// PortError is a platform independent error type for serial ports
type PortError struct {
	code     PortErrorCode
	causedBy error
}

// PortErrorCode is a code to easily identify the type of error
type PortErrorCode int

const (
	// PortBusy the serial port is already in used by another process
	PortBusy PortErrorCode = iota
	// PortNotFound the requested port doesn't exist
	PortNotFound
	// InvalidSerialPort the requested port is not a serial port
	InvalidSerialPort
	// PermissionDenied the user doesn't have enough priviledges
	PermissionDenied
	// InvalidSpeed the requested speed is not valid or not supported
	InvalidSpeed
	// InvalidDataBits the number of data bits is not valid or not supported
	InvalidDataBits
	// InvalidParity the selected parity is not valid or not supported
	InvalidParity
	// InvalidStopBits the selected number of stop bits is not valid or not supported
	InvalidStopBits
	// InvalidFlowControl the selected flow control is not valid or not supported
	InvalidFlowControl
	// InvalidTimeoutValue the timeout value is not valid or not supported
	InvalidTimeoutValue
	// InvalidArgument an argument other than the port mode is not valid
	InvalidArgument
	// UnsupportedMode the device rejected the requested combination of settings
	UnsupportedMode
	// ErrorEnumeratingPorts an error occurred while listing serial port
	ErrorEnumeratingPorts
	// PortClosed the port has been closed while the operation is in progress
	PortClosed
	// FunctionNotImplemented the requested function is not implemented
	FunctionNotImplemented
	// OsError operating system function error
	OsError
	// WriteFailed port write failed
	WriteFailed
	// ReadFailed port read failed
	ReadFailed
	// Timeout the read timeout expired before any data was received
	Timeout
)

// EncodedErrorString returns a string explaining the error code
func (e PortError) EncodedErrorString() string {
	switch e.code {
	case PortBusy:
		return "Serial port busy"
	case PortNotFound:
		return "Serial port not found"
	case InvalidSerialPort:
		return "Invalid serial port"
	case PermissionDenied:
		return "Permission denied"
	case InvalidSpeed:
		return "Port speed invalid or not supported"
	case InvalidDataBits:
		return "Port data bits invalid or not supported"
	case InvalidParity:
		return "Port parity invalid or not supported"
	case InvalidStopBits:
		return "Port stop bits invalid or not supported"
	case InvalidFlowControl:
		return "Port flow control invalid or not supported"
	case InvalidTimeoutValue:
		return "Timeout value invalid or not supported"
	case InvalidArgument:
		return "Invalid argument"
	case UnsupportedMode:
		return "Port mode not supported by the device"
	case ErrorEnumeratingPorts:
		return "Could not enumerate serial ports"
	case PortClosed:
		return "Port has been closed"
	case FunctionNotImplemented:
		return "Function not implemented"
	case OsError:
		return "Operating system error"
	case WriteFailed:
		return "Write failed"
	case ReadFailed:
		return "Read failed"
	case Timeout:
		return "Read timed out"
	default:
		return "Other error"
	}
}

// Error returns the complete error code with details on the cause of the error
func (e PortError) Error() string {
	if e.causedBy != nil {
		return e.EncodedErrorString() + ": " + e.causedBy.Error()
	}
	return e.EncodedErrorString()
}

// Code returns an identifier for the kind of error occurred
func (e PortError) Code() PortErrorCode {
	return e.code
}

// Unwrap returns the underlying native error, if any
func (e PortError) Unwrap() error {
	return e.causedBy
}

// Timeout reports whether the error is an expired read timeout
func (e PortError) Timeout() bool {
	return e.code == Timeout
}

// NativeCode returns the operating system error code (errno on unix,
// the Win32 error code on Windows) that caused the error.
func (e PortError) NativeCode() (int, bool) {
	return nativeCode(e.causedBy)
}

// Kind returns the portable classification of the error
func (e PortError) Kind() ErrorKind {
	switch e.code {
	case PortNotFound, PortBusy:
		return KindNoDevice
	case PermissionDenied:
		return KindPermissionDenied
	case InvalidSerialPort, InvalidSpeed, InvalidDataBits, InvalidParity, InvalidStopBits,
		InvalidFlowControl, InvalidTimeoutValue, InvalidArgument, UnsupportedMode, PortClosed:
		return KindInvalidInput
	case Timeout, ReadFailed, WriteFailed:
		return KindIo
	case OsError, ErrorEnumeratingPorts:
		if code, ok := nativeCode(e.causedBy); ok {
			if _, ok := ioKindFromErrno(syscall.Errno(code)); ok {
				return KindIo
			}
			return KindPlatformSpecific
		}
	}
	return KindUnknown
}

// IoKind returns the detail of an error of kind KindIo
func (e PortError) IoKind() IoKind {
	if e.code == Timeout {
		return IoTimedOut
	}
	if code, ok := nativeCode(e.causedBy); ok {
		if k, ok := ioKindFromErrno(syscall.Errno(code)); ok {
			return k
		}
	}
	return IoOther
}

// ErrorKind is the portable classification of serial port errors
type ErrorKind int

const (
	// KindUnknown is used when no better classification is available
	KindUnknown ErrorKind = iota
	// KindNoDevice the device is absent or not available (in use by another process)
	KindNoDevice
	// KindInvalidInput the settings or arguments can not be used on this platform
	KindInvalidInput
	// KindPermissionDenied the caller is not allowed to access the device
	KindPermissionDenied
	// KindIo is a transport failure, see IoKind for the detail
	KindIo
	// KindPlatformSpecific is a native error without a portable mapping
	KindPlatformSpecific
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoDevice:
		return "no device"
	case KindInvalidInput:
		return "invalid input"
	case KindPermissionDenied:
		return "permission denied"
	case KindIo:
		return "io"
	case KindPlatformSpecific:
		return "platform specific"
	default:
		return "unknown"
	}
}

// IoKind details errors of kind KindIo
type IoKind int

const (
	// IoOther is any transport failure without a more specific kind
	IoOther IoKind = iota
	// IoTimedOut the operation timed out
	IoTimedOut
	// IoInterrupted the operation was interrupted
	IoInterrupted
	// IoWouldBlock the operation would block a non blocking descriptor
	IoWouldBlock
	// IoBrokenPipe the other end of the channel is gone
	IoBrokenPipe
	// IoConnectionReset the connection was reset
	IoConnectionReset
	// IoConnectionAborted the connection was aborted
	IoConnectionAborted
	// IoNotConnected the device is not connected
	IoNotConnected
)

func (k IoKind) String() string {
	switch k {
	case IoTimedOut:
		return "timed out"
	case IoInterrupted:
		return "interrupted"
	case IoWouldBlock:
		return "would block"
	case IoBrokenPipe:
		return "broken pipe"
	case IoConnectionReset:
		return "connection reset"
	case IoConnectionAborted:
		return "connection aborted"
	case IoNotConnected:
		return "not connected"
	default:
		return "other"
	}
}

// KindOf classifies any error returned by this module. Errors that are not
// produced by this module are classified by their native code, if any.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var kinded interface{ Kind() ErrorKind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	if code, ok := nativeCode(err); ok {
		return kindFromErrno(syscall.Errno(code))
	}
	return KindUnknown
}

// NativeCode extracts the operating system error code from err, if any.
func NativeCode(err error) (int, bool) {
	return nativeCode(err)
}

func nativeCode(err error) (int, bool) {
	var errno syscall.Errno
	if err != nil && errors.As(err, &errno) {
		return int(errno), true
	}
	return 0, false
}

func kindFromErrno(errno syscall.Errno) ErrorKind {
	pe := newOSError(errno)
	return pe.Kind()
}

// newOSError wraps a native error into a PortError choosing the most
// specific code for it.
func newOSError(err error) *PortError {
	if pe, ok := err.(*PortError); ok {
		return pe
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if code, ok := codeFromErrno(errno); ok {
			return &PortError{code: code, causedBy: err}
		}
	}
	return &PortError{code: OsError, causedBy: err}
}

// IsTimeout reports whether err is an expired read timeout
func IsTimeout(err error) bool {
	var pe *PortError
	return errors.As(err, &pe) && pe.Timeout()
}
