//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"github.com/sirhcel/go-serial/internal/tui"
	"github.com/spf13/cobra"
)

func newMonitorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor [<port>]",
		Short: "Watch the data and the modem lines of a serial port",
		Long: `Open a full screen view of the data received from a serial port
together with the state of its modem lines.

The RTS and DTR lines can be toggled with r and d, b sends a break and h
switches between text and hex dump. Press ? for all the keys.

Examples:
  serialport monitor /dev/ttyUSB0
  serialport monitor /dev/ttyACM0 --baud 115200`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.portName(args)
			if err != nil {
				return err
			}
			mode, err := a.mode()
			if err != nil {
				return err
			}
			port, err := a.open(name)
			if err != nil {
				return err
			}
			defer port.Close()
			return tui.RunMonitor(port, mode)
		},
	}
}
