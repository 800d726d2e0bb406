//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestModeFromString(t *testing.T) {
	goodCases := map[string]Mode{
		"8N1":   {DataBits: 8, Parity: NoParity, StopBits: OneStopBit},
		"7S2":   {DataBits: 7, Parity: SpaceParity, StopBits: TwoStopBits},
		"5e1.5": {DataBits: 5, Parity: EvenParity, StopBits: OnePointFiveStopBits},
	}
	for s, want := range goodCases {
		mode := Mode{BaudRate: 19200, Timeout: time.Second}
		require.NoError(t, ModeFromString(s, &mode), s)
		want.BaudRate = 19200
		want.Timeout = time.Second
		require.Equal(t, want, mode, s)
	}

	badCases := map[string]PortErrorCode{
		"9N1": InvalidDataBits,
		"8N3": InvalidStopBits,
		"8R1": InvalidParity,
		"8N":  InvalidArgument,
	}
	for s, code := range badCases {
		mode := Mode{}
		err := ModeFromString(s, &mode)
		require.Error(t, err, s)
		var portErr *PortError
		require.ErrorAs(t, err, &portErr, s)
		require.Equal(t, code, portErr.Code(), s)
		require.Equal(t, Mode{}, mode, "%s: a refused string leaves the mode untouched", s)
	}
}

func TestModeValidate(t *testing.T) {
	require.NoError(t, (&Mode{}).validate())
	require.NoError(t, (&Mode{BaudRate: 250000, DataBits: 5, Timeout: NoTimeout}).validate())

	invalid := map[PortErrorCode]Mode{
		InvalidSpeed:        {BaudRate: -1},
		InvalidDataBits:     {DataBits: 9},
		InvalidParity:       {Parity: SpaceParity + 1},
		InvalidStopBits:     {StopBits: TwoStopBits + 1},
		InvalidFlowControl:  {FlowControl: HardwareFlowControl + 1},
		InvalidTimeoutValue: {Timeout: -time.Second},
	}
	for code, mode := range invalid {
		err := mode.validate()
		var portErr *PortError
		require.ErrorAs(t, err, &portErr, "code %d", code)
		require.Equal(t, code, portErr.Code())
		require.Equal(t, KindInvalidInput, KindOf(err))
	}
}

func TestModeMismatch(t *testing.T) {
	want := &Mode{BaudRate: 250000, DataBits: 7, Parity: EvenParity, StopBits: TwoStopBits, FlowControl: HardwareFlowControl}
	applied := &Mode{BaudRate: 250000, DataBits: 7, Parity: EvenParity, StopBits: TwoStopBits, FlowControl: HardwareFlowControl}
	require.Empty(t, modeMismatch(want, applied, true))

	dropped := *applied
	dropped.DataBits = 8
	require.Equal(t, "data bits", modeMismatch(want, &dropped, true))
	dropped = *applied
	dropped.Parity = NoParity
	require.Equal(t, "parity", modeMismatch(want, &dropped, true))
	dropped = *applied
	dropped.StopBits = OneStopBit
	require.Equal(t, "stop bits", modeMismatch(want, &dropped, true))
	dropped = *applied
	dropped.FlowControl = NoFlowControl
	require.Equal(t, "flow control", modeMismatch(want, &dropped, true))

	dropped = *applied
	dropped.BaudRate = 9600
	require.Equal(t, "baud rate", modeMismatch(want, &dropped, true))
	// a rate that can not be read back is not compared
	dropped.BaudRate = 0
	require.Empty(t, modeMismatch(want, &dropped, false))

	// zero values stand for the defaults
	require.Empty(t, modeMismatch(&Mode{}, &Mode{BaudRate: 9600, DataBits: 8}, true))
}
