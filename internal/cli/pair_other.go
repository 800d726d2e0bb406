//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd

package cli

import (
	"errors"

	"github.com/sirhcel/go-serial"
)

func openPair(mode *serial.Mode) (tx, rx serial.Port, err error) {
	return nil, nil, errors.New("pseudo terminals are not available on this system")
}
