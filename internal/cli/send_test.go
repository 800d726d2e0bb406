//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHexString(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"48656c6c6f", []byte("Hello")},
		{"48 65 6C 6C 6F", []byte("Hello")},
		{"0x48 0x69", []byte("Hi")},
		{"de:ad:be:ef", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"", []byte{}},
	}
	for _, test := range tests {
		got, err := parseHexString(test.in)
		require.NoError(t, err, test.in)
		require.Equal(t, test.want, got, test.in)
	}

	for _, in := range []string{"123", "zz", "0xg1"} {
		_, err := parseHexString(in)
		require.Error(t, err, in)
		require.Contains(t, err.Error(), "invalid hex data")
	}
}

func TestEncodePayload(t *testing.T) {
	data, err := encodePayload("AT", false, true)
	require.NoError(t, err)
	require.Equal(t, []byte("AT\n"), data)

	data, err = encodePayload("AT", false, false)
	require.NoError(t, err)
	require.Equal(t, []byte("AT"), data)

	data, err = encodePayload("0d0a", true, true)
	require.NoError(t, err)
	require.Equal(t, []byte("\r\n"), data)
}

func TestParseSignalState(t *testing.T) {
	for _, s := range []string{"high", "ON", "true", "1"} {
		state, err := parseSignalState(s)
		require.NoError(t, err, s)
		require.True(t, state, s)
	}
	for _, s := range []string{"low", "Off", "false", "0"} {
		state, err := parseSignalState(s)
		require.NoError(t, err, s)
		require.False(t, state, s)
	}
	_, err := parseSignalState("maybe")
	require.EqualError(t, err, "invalid state: maybe (valid: high, low, on, off, true, false, 1, 0)")
}

func TestFirstMismatch(t *testing.T) {
	require.Equal(t, -1, firstMismatch([]byte("abc"), []byte("abc")))
	require.Equal(t, -1, firstMismatch([]byte("abc"), []byte("ab")))
	require.Equal(t, 1, firstMismatch([]byte("abc"), []byte("aXc")))
	require.Equal(t, -1, firstMismatch([]byte("abc"), nil))
}

func TestLoopbackResult(t *testing.T) {
	require.True(t, loopbackResult{Sent: 3, Received: 3, Mismatch: -1}.ok())
	require.False(t, loopbackResult{Sent: 3, Received: 2, Mismatch: -1}.ok())
	require.False(t, loopbackResult{Sent: 3, Received: 3, Mismatch: 0}.ok())
	require.Equal(t, "data mismatch at byte 7 (10 of 16 bytes received)",
		loopbackResult{Sent: 16, Received: 10, Mismatch: 7}.String())
	require.Equal(t, "16 bytes looped back in 0s",
		loopbackResult{Sent: 16, Received: 16, Mismatch: -1}.String())
}
