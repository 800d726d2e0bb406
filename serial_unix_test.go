//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package serial

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestPair(t *testing.T, mode *Mode) (Port, Port) {
	controller, subordinate, err := OpenPair(mode)
	require.NoError(t, err)
	t.Cleanup(func() {
		controller.Close()
		subordinate.Close()
	})
	return controller, subordinate
}

func requireCode(t *testing.T, err error, code PortErrorCode) {
	var portErr *PortError
	require.True(t, errors.As(err, &portErr), "expected a PortError, got %v", err)
	require.Equal(t, code, portErr.Code(), "unexpected error %v", err)
}

func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func TestOpenNonexistentPort(t *testing.T) {
	port, err := Open("/dev/serial-port-that-does-not-exist", &Mode{})
	require.Nil(t, port)
	requireCode(t, err, PortNotFound)
	require.Equal(t, KindNoDevice, KindOf(err))
	code, ok := NativeCode(err)
	require.True(t, ok)
	require.NotZero(t, code)
}

func TestOpenNotATerminal(t *testing.T) {
	port, err := Open("/dev/null", &Mode{})
	require.Nil(t, port)
	requireCode(t, err, InvalidSerialPort)
	require.Equal(t, KindInvalidInput, KindOf(err))
}

func TestOpenInvalidModeDoesNotTouchDevice(t *testing.T) {
	port, err := Open("/dev/serial-port-that-does-not-exist", &Mode{DataBits: 9})
	require.Nil(t, port)
	requireCode(t, err, InvalidDataBits)
}

func TestPairLoopback(t *testing.T) {
	controller, subordinate := openTestPair(t, &Mode{BaudRate: 115200, Timeout: 5 * time.Second})
	require.True(t, strings.HasPrefix(subordinate.Name(), "/dev/"))

	for _, size := range []int{1, 16, 1024, 64 * 1024} {
		data := make([]byte, size)
		rand.New(rand.NewSource(int64(size))).Read(data)

		written := make(chan error, 1)
		go func() {
			written <- writeAll(controller, data)
		}()
		received := make([]byte, size)
		_, err := io.ReadFull(subordinate, received)
		require.NoError(t, err, "size %d", size)
		require.NoError(t, <-written)
		require.True(t, bytes.Equal(data, received), "size %d: data mismatch", size)
	}

	// and the other way around
	go writeAll(subordinate, []byte("pong"))
	received := make([]byte, 4)
	_, err := io.ReadFull(controller, received)
	require.NoError(t, err)
	require.Equal(t, "pong", string(received))
}

func TestReadTimeout(t *testing.T) {
	_, subordinate := openTestPair(t, &Mode{Timeout: 100 * time.Millisecond})

	buf := make([]byte, 16)
	start := time.Now()
	n, err := subordinate.Read(buf)
	elapsed := time.Since(start)

	require.Zero(t, n)
	require.True(t, IsTimeout(err), "expected a timeout, got %v", err)
	require.Equal(t, KindIo, KindOf(err))
	var portErr *PortError
	require.True(t, errors.As(err, &portErr))
	require.Equal(t, IoTimedOut, portErr.IoKind())
	require.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	require.Less(t, elapsed, time.Second)
}

func TestReadTimeoutReturnsAvailableData(t *testing.T) {
	controller, subordinate := openTestPair(t, &Mode{Timeout: 2 * time.Second})
	require.NoError(t, writeAll(controller, []byte("x")))

	buf := make([]byte, 16)
	start := time.Now()
	n, err := subordinate.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Less(t, time.Since(start), time.Second)
}

func TestZeroTimeoutDoesNotBlock(t *testing.T) {
	_, subordinate := openTestPair(t, &Mode{})

	start := time.Now()
	_, err := subordinate.Read(make([]byte, 1))
	require.True(t, IsTimeout(err))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestSetReadTimeout(t *testing.T) {
	_, subordinate := openTestPair(t, &Mode{})

	requireCode(t, subordinate.SetReadTimeout(-time.Second), InvalidTimeoutValue)
	require.NoError(t, subordinate.SetReadTimeout(50*time.Millisecond))
	mode, err := subordinate.GetMode()
	require.NoError(t, err)
	require.Equal(t, 50*time.Millisecond, mode.Timeout)
}

func TestSetModeValidatesBeforeApplying(t *testing.T) {
	_, subordinate := openTestPair(t, &Mode{BaudRate: 57600})

	requireCode(t, subordinate.SetMode(&Mode{BaudRate: 57600, DataBits: 9}), InvalidDataBits)
	requireCode(t, subordinate.SetMode(&Mode{BaudRate: 57600, StopBits: OnePointFiveStopBits}), InvalidStopBits)
	requireCode(t, subordinate.SetMode(&Mode{BaudRate: -1}), InvalidSpeed)
	err := subordinate.SetMode(&Mode{BaudRate: 57600, FlowControl: FlowControl(7)})
	requireCode(t, err, InvalidFlowControl)
	require.Equal(t, KindInvalidInput, KindOf(err))

	mode, err := subordinate.GetMode()
	require.NoError(t, err)
	require.Equal(t, 57600, mode.BaudRate)
}

func TestBytesToReadAndClear(t *testing.T) {
	controller, subordinate := openTestPair(t, &Mode{})
	require.NoError(t, writeAll(controller, []byte("0123456789")))

	require.Eventually(t, func() bool {
		n, err := subordinate.BytesToRead()
		return err == nil && n == 10
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, subordinate.ClearBuffer(ClearInput))
	n, err := subordinate.BytesToRead()
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = subordinate.BytesToWrite()
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, subordinate.ClearBuffer(ClearAll))
	requireCode(t, subordinate.ClearBuffer(ClearBuffer(42)), InvalidArgument)
}

func TestDrain(t *testing.T) {
	controller, subordinate := openTestPair(t, &Mode{Timeout: time.Second})
	require.NoError(t, writeAll(subordinate, []byte("abc")))
	require.NoError(t, subordinate.Drain())

	buf := make([]byte, 3)
	_, err := io.ReadFull(controller, buf)
	require.NoError(t, err)
}

func TestClosedPortOperations(t *testing.T) {
	controller, subordinate, err := OpenPair(&Mode{})
	require.NoError(t, err)
	defer controller.Close()

	require.NoError(t, subordinate.Close())
	// closing twice is harmless
	require.NoError(t, subordinate.Close())

	_, err = subordinate.Read(make([]byte, 1))
	requireCode(t, err, PortClosed)
	require.Equal(t, KindInvalidInput, KindOf(err))
	_, err = subordinate.Write([]byte{1})
	requireCode(t, err, PortClosed)
	requireCode(t, subordinate.SetMode(&Mode{}), PortClosed)
	_, err = subordinate.GetMode()
	requireCode(t, err, PortClosed)
	requireCode(t, subordinate.SetReadTimeout(time.Second), PortClosed)
	requireCode(t, subordinate.Drain(), PortClosed)
	requireCode(t, subordinate.ResetInputBuffer(), PortClosed)
	requireCode(t, subordinate.ResetOutputBuffer(), PortClosed)
	_, err = subordinate.BytesToRead()
	requireCode(t, err, PortClosed)
	_, err = subordinate.BytesToWrite()
	requireCode(t, err, PortClosed)
	requireCode(t, subordinate.SetDTR(true), PortClosed)
	requireCode(t, subordinate.SetRTS(true), PortClosed)
	_, err = subordinate.GetModemStatusBits()
	requireCode(t, err, PortClosed)
	_, err = subordinate.ReadCTS()
	requireCode(t, err, PortClosed)
	requireCode(t, subordinate.SetBreak(), PortClosed)
	requireCode(t, subordinate.ClearBreak(), PortClosed)
}

func TestSerialReadAndCloseConcurrency(t *testing.T) {
	// Run this test with race detector to actually test that
	// the correct multitasking behaviour is happening.
	_, subordinate := openTestPair(t, &Mode{Timeout: NoTimeout})

	done := make(chan error, 1)
	go func() {
		_, err := subordinate.Read(make([]byte, 100))
		done <- err
	}()

	// let port.Read to start
	time.Sleep(10 * time.Millisecond)
	select {
	case err := <-done:
		require.Fail(t, "expected reading to be in-progress", "got %v", err)
	default:
	}

	require.NoError(t, subordinate.Close())
	select {
	case err := <-done:
		requireCode(t, err, PortClosed)
	case <-time.After(time.Second):
		require.Fail(t, "expected reading to be done")
	}
}

func TestReadAfterPeerClosed(t *testing.T) {
	controller, subordinate := openTestPair(t, &Mode{Timeout: time.Second})
	require.NoError(t, controller.Close())

	_, err := subordinate.Read(make([]byte, 1))
	require.Error(t, err)
	require.Equal(t, KindIo, KindOf(err))
}
