//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestGetModeRoundTrip(t *testing.T) {
	modes := []*Mode{
		{BaudRate: 19200, DataBits: 8, StopBits: TwoStopBits, FlowControl: SoftwareFlowControl, Timeout: time.Second},
		{BaudRate: 115200, DataBits: 8, StopBits: OneStopBit, FlowControl: HardwareFlowControl, Timeout: NoTimeout},
		{BaudRate: 9600, DataBits: 8},
	}
	_, subordinate := openTestPair(t, &Mode{})
	for _, mode := range modes {
		require.NoError(t, subordinate.SetMode(mode))
		got, err := subordinate.GetMode()
		require.NoError(t, err)
		require.Equal(t, mode, got)
	}
}

func TestSetModeRefusesDroppedSettings(t *testing.T) {
	// the pty driver forces 8 data bits and no parity
	_, subordinate := openTestPair(t, &Mode{})
	before := &Mode{BaudRate: 57600, StopBits: TwoStopBits, Timeout: time.Second}
	require.NoError(t, subordinate.SetMode(before))
	before.DataBits = 8

	refused := []*Mode{
		{BaudRate: 9600, DataBits: 7, Parity: EvenParity},
		{BaudRate: 9600, DataBits: 8, Parity: MarkParity},
		{BaudRate: 115200, DataBits: 5},
	}
	for _, mode := range refused {
		err := subordinate.SetMode(mode)
		requireCode(t, err, UnsupportedMode)
		require.Equal(t, KindInvalidInput, KindOf(err))

		got, err := subordinate.GetMode()
		require.NoError(t, err)
		require.Equal(t, before, got, "%s: the previous settings are restored", mode)
	}
}

func TestOpenRefusesDroppedSettings(t *testing.T) {
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	defer ptmx.Close()
	defer tty.Close()

	port, err := Open(tty.Name(), &Mode{DataBits: 7, Parity: OddParity})
	requireCode(t, err, UnsupportedMode)
	require.Nil(t, port)
}

func TestLinuxTermiosValues(t *testing.T) {
	settings := &unix.Termios{}
	special, err := setTermSettings(&Mode{BaudRate: 115200, DataBits: 7, Parity: MarkParity, StopBits: TwoStopBits, FlowControl: HardwareFlowControl}, settings)
	require.NoError(t, err)
	require.False(t, special)
	require.Equal(t, uint32(unix.B115200), settings.Cflag&unix.CBAUD)
	require.Equal(t, uint32(unix.CS7), settings.Cflag&unix.CSIZE)
	require.NotZero(t, settings.Cflag&unix.CMSPAR)
	require.NotZero(t, settings.Cflag&unix.PARODD)
	require.NotZero(t, settings.Cflag&unix.CSTOPB)
	require.NotZero(t, settings.Cflag&unix.CRTSCTS)

	mode := &Mode{}
	getTermSettings(settings, mode)
	require.Equal(t, MarkParity, mode.Parity)
	require.Equal(t, 7, mode.DataBits)
	require.Equal(t, HardwareFlowControl, mode.FlowControl)

	special, err = setTermSettings(&Mode{BaudRate: 250000}, settings)
	require.NoError(t, err)
	require.True(t, special)
}

// TestHardwareLoopback needs a real port with TX wired to RX, RTS to CTS
// and DTR to DSR, named by the SERIAL_LOOPBACK_PORT environment variable.
func TestHardwareLoopback(t *testing.T) {
	name := os.Getenv("SERIAL_LOOPBACK_PORT")
	if name == "" {
		t.Skip("SERIAL_LOOPBACK_PORT not set")
	}
	port, err := New(name).BaudRate(115200).Timeout(time.Second).Open()
	require.NoError(t, err)
	defer port.Close()

	_, err = port.Write([]byte("loopback"))
	require.NoError(t, err)
	require.NoError(t, port.Drain())
	buf := make([]byte, 8)
	_, err = io.ReadFull(port, buf)
	require.NoError(t, err)
	require.Equal(t, "loopback", string(buf))

	for _, level := range []bool{true, false, true} {
		require.NoError(t, port.SetRTS(level))
		require.NoError(t, port.SetDTR(level))
		time.Sleep(10 * time.Millisecond)
		cts, err := port.ReadCTS()
		require.NoError(t, err)
		require.Equal(t, level, cts)
		dsr, err := port.ReadDSR()
		require.NoError(t, err)
		require.Equal(t, level, dsr)
	}

	require.NoError(t, port.Break(10*time.Millisecond))
}
