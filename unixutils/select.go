//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package unixutils

import (
	"time"

	"github.com/creack/goselect"
)

// Readiness is the outcome of Wait
type Readiness struct {
	readable goselect.FDSet
	failed   goselect.FDSet
}

// Readable reports whether fd has data, or a pending error, to read
func (r *Readiness) Readable(fd int) bool {
	if fd < 0 {
		return false
	}
	return r.readable.IsSet(uintptr(fd)) || r.failed.IsSet(uintptr(fd))
}

// Wait blocks until one of fds is readable or in error, or until the
// timeout expires. A negative timeout waits forever. Interrupted calls
// return the EINTR error, the caller decides whether to retry.
func Wait(timeout time.Duration, fds ...int) (Readiness, error) {
	var res Readiness
	max := 0
	for _, fd := range fds {
		if fd < 0 {
			continue
		}
		res.readable.Set(uintptr(fd))
		res.failed.Set(uintptr(fd))
		if fd > max {
			max = fd
		}
	}
	if timeout < 0 {
		timeout = -1
	}
	err := goselect.Select(max+1, &res.readable, nil, &res.failed, timeout)
	return res, err
}
