//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package cli

import "github.com/sirhcel/go-serial"

// openPair opens a pseudo terminal pair, data written on tx is read on rx
func openPair(mode *serial.Mode) (tx, rx serial.Port, err error) {
	return serial.OpenPair(mode)
}
