//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package unixutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitTimesOut(t *testing.T) {
	p, err := NewPipe()
	require.NoError(t, err)
	defer p.Close()

	start := time.Now()
	res, err := Wait(50*time.Millisecond, p.ReadFD())
	require.NoError(t, err)
	require.False(t, res.Readable(p.ReadFD()))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitWakesUpOnSignal(t *testing.T) {
	p, err := NewPipe()
	require.NoError(t, err)
	defer p.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		p.Signal()
	}()
	res, err := Wait(-1, p.ReadFD())
	require.NoError(t, err)
	require.True(t, res.Readable(p.ReadFD()))
}

func TestClosedPipe(t *testing.T) {
	p, err := NewPipe()
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.Equal(t, -1, p.ReadFD())
	require.ErrorIs(t, p.Signal(), ErrPipeClosed)
	require.ErrorIs(t, p.Close(), ErrPipeClosed)
}
