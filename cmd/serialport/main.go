//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// serialport is a tool to list, configure and talk to serial ports.
//
//	$ serialport list
//	Port: /dev/ttyACM0
//	   USB ID     2341:0043
//	   USB serial 95530343834351A0C0A1
//	$ serialport send /dev/ttyACM0 "AT" --newline
package main

import (
	"os"

	"github.com/sirhcel/go-serial/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
