//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cases := map[PortErrorCode]ErrorKind{
		PortNotFound:           KindNoDevice,
		PortBusy:               KindNoDevice,
		PermissionDenied:       KindPermissionDenied,
		InvalidSerialPort:      KindInvalidInput,
		InvalidSpeed:           KindInvalidInput,
		InvalidDataBits:        KindInvalidInput,
		InvalidParity:          KindInvalidInput,
		InvalidStopBits:        KindInvalidInput,
		InvalidFlowControl:     KindInvalidInput,
		InvalidTimeoutValue:    KindInvalidInput,
		InvalidArgument:        KindInvalidInput,
		UnsupportedMode:        KindInvalidInput,
		PortClosed:             KindInvalidInput,
		Timeout:                KindIo,
		ReadFailed:             KindIo,
		WriteFailed:            KindIo,
		OsError:                KindUnknown,
		FunctionNotImplemented: KindUnknown,
	}
	for code, kind := range cases {
		err := &PortError{code: code}
		require.Equal(t, kind, err.Kind(), "code %d (%s)", code, err)
		require.Equal(t, kind, KindOf(err))
		require.Equal(t, kind, KindOf(fmt.Errorf("wrapped: %w", err)))
	}
}

func TestErrorMessage(t *testing.T) {
	err := &PortError{code: InvalidParity}
	require.Equal(t, "Port parity invalid or not supported", err.Error())

	cause := errors.New("boom")
	err = &PortError{code: ReadFailed, causedBy: cause}
	require.Equal(t, "Read failed: boom", err.Error())
	require.ErrorIs(t, err, cause)
	require.Equal(t, ReadFailed, err.Code())
}

func TestTimeoutError(t *testing.T) {
	err := &PortError{code: Timeout}
	require.True(t, err.Timeout())
	require.True(t, IsTimeout(err))
	require.True(t, IsTimeout(fmt.Errorf("reading: %w", err)))
	require.False(t, IsTimeout(&PortError{code: ReadFailed}))
	require.False(t, IsTimeout(nil))
	require.Equal(t, IoTimedOut, err.IoKind())
}

func TestKindOfForeignErrors(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(nil))
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	_, ok := NativeCode(errors.New("plain"))
	require.False(t, ok)
}

func TestKindStrings(t *testing.T) {
	require.Equal(t, "no device", KindNoDevice.String())
	require.Equal(t, "platform specific", KindPlatformSpecific.String())
	require.Equal(t, "unknown", KindUnknown.String())
	require.Equal(t, "broken pipe", IoBrokenPipe.String())
	require.Equal(t, "other", IoOther.String())
}
