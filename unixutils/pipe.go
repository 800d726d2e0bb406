//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package unixutils

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrPipeClosed is returned by the operations on a closed Pipe
var ErrPipeClosed = errors.New("pipe not opened")

// Pipe is a self-pipe used to wake up a goroutine blocked in Wait: the read
// side becomes readable after Signal.
type Pipe struct {
	opened bool
	rd     int
	wr     int
}

// NewPipe creates a new pipe, both ends are closed on exec
func NewPipe() (*Pipe, error) {
	fds := []int{0, 0}
	if err := unix.Pipe(fds); err != nil {
		return nil, err
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	return &Pipe{rd: fds[0], wr: fds[1], opened: true}, nil
}

// ReadFD returns the descriptor to wait on, -1 once closed
func (p *Pipe) ReadFD() int {
	if !p.opened {
		return -1
	}
	return p.rd
}

// Signal makes the read side readable
func (p *Pipe) Signal() error {
	if !p.opened {
		return ErrPipeClosed
	}
	_, err := unix.Write(p.wr, []byte{0})
	return err
}

// Close releases both ends of the pipe
func (p *Pipe) Close() error {
	if !p.opened {
		return ErrPipeClosed
	}
	p.opened = false
	errRead := unix.Close(p.rd)
	errWrite := unix.Close(p.wr)
	if errRead != nil {
		return errRead
	}
	return errWrite
}
