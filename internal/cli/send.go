//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirhcel/go-serial"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("40"))
)

func newSendCmd(a *app) *cobra.Command {
	var hexData, newline bool
	cmd := &cobra.Command{
		Use:   "send <port> [<data>]",
		Short: "Send data to a serial port",
		Long: `Send data to a serial port and wait until it has been transmitted.

Without a data argument the data is read from the standard input, trailing
line endings removed.

Examples:
  serialport send /dev/ttyUSB0 "AT+GMR" --newline
  serialport send /dev/ttyUSB0 "48 65 6c 6c 6f" --hex
  echo "test" | serialport send /dev/ttyUSB0`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data string
			if len(args) == 2 {
				data = args[1]
			} else {
				in, err := io.ReadAll(a.in)
				if err != nil {
					return fmt.Errorf("reading standard input: %w", err)
				}
				data = strings.TrimRight(string(in), "\r\n")
			}
			payload, err := encodePayload(data, hexData, newline)
			if err != nil {
				return err
			}

			port, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer port.Close()

			if err := writeFull(port, payload); err != nil {
				return fmt.Errorf("sending to %s: %w", port.Name(), err)
			}
			if err := port.Drain(); err != nil {
				return fmt.Errorf("sending to %s: %w", port.Name(), err)
			}
			a.log.WithFields(logrus.Fields{"port": port.Name(), "bytes": len(payload)}).Debug("data sent")
			fmt.Fprintf(a.out, "%s Sent %d bytes to %s\n", successStyle.Render("✓"), len(payload), port.Name())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&hexData, "hex", "x", false, "Interpret data as hexadecimal (e.g. '48656c6c6f' for 'Hello')")
	cmd.Flags().BoolVarP(&newline, "newline", "n", false, "Add a newline after the data")
	return cmd
}

// encodePayload turns the command line data into the bytes to send. The
// newline is only added to text data.
func encodePayload(data string, hexData, newline bool) ([]byte, error) {
	if hexData {
		return parseHexString(data)
	}
	if newline {
		data += "\n"
	}
	return []byte(data), nil
}

// parseHexString decodes hex bytes, ignoring blanks, colons and 0x prefixes
func parseHexString(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", "\t", "", ":", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

// writeFull writes the whole buffer, a single Write may take only part of it
func writeFull(port serial.Port, data []byte) error {
	for len(data) > 0 {
		n, err := port.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
