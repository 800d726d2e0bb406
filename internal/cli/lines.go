//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirhcel/go-serial"
	"github.com/spf13/cobra"
)

var (
	highStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("40"))
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newSignalsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signals [<port>]",
		Short: "Display the modem status lines",
		Long: `Display the state of the modem status lines of a serial port.

Examples:
  serialport signals /dev/ttyUSB0

Lines:
  CTS - Clear To Send
  DSR - Data Set Ready
  RI  - Ring Indicator
  DCD - Data Carrier Detect`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.portName(args)
			if err != nil {
				return err
			}
			port, err := a.open(name)
			if err != nil {
				return err
			}
			defer port.Close()

			bits, err := port.GetModemStatusBits()
			if err != nil {
				return fmt.Errorf("reading modem status of %s: %w", name, err)
			}
			renderModemStatus(a.out, name, bits)
			return nil
		},
	}
}

func renderModemStatus(w io.Writer, name string, bits *serial.ModemStatusBits) {
	fmt.Fprintln(w, headerStyle.Render("Modem status lines of "+name+":"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  CTS (Clear To Send):       %s\n", formatSignalState(bits.CTS))
	fmt.Fprintf(w, "  DSR (Data Set Ready):      %s\n", formatSignalState(bits.DSR))
	fmt.Fprintf(w, "  RI  (Ring Indicator):      %s\n", formatSignalState(bits.RI))
	fmt.Fprintf(w, "  DCD (Data Carrier Detect): %s\n", formatSignalState(bits.DCD))
}

func formatSignalState(state bool) string {
	if state {
		return highStyle.Render("HIGH")
	}
	return lowStyle.Render("LOW")
}

func parseSignalState(state string) (bool, error) {
	switch strings.ToLower(state) {
	case "high", "on", "true", "1":
		return true, nil
	case "low", "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid state: %s (valid: high, low, on, off, true, false, 1, 0)", state)
}

// newLineCmd builds the command driving one modem control line
func newLineCmd(a *app, line, long string, set func(serial.Port, bool) error) *cobra.Command {
	var hold time.Duration
	upper := strings.ToUpper(line)
	cmd := &cobra.Command{
		Use:   line + " [<port>] on|off",
		Short: fmt.Sprintf("Set the %s (%s) line", upper, long),
		Long: fmt.Sprintf(`Set the %[1]s (%[2]s) line of a serial port.

Most drivers restore the line when the port is closed, use --hold to keep
the port open for a while.

Examples:
  serialport %[3]s /dev/ttyUSB0 on
  serialport %[3]s /dev/ttyUSB0 off --hold 2s

Valid states: high, low, on, off, true, false, 1, 0`, upper, long, line),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := parseSignalState(args[len(args)-1])
			if err != nil {
				return err
			}
			name, err := a.portName(args[:len(args)-1])
			if err != nil {
				return err
			}
			port, err := a.open(name)
			if err != nil {
				return err
			}
			defer port.Close()

			if err := set(port, state); err != nil {
				return fmt.Errorf("setting %s on %s: %w", upper, name, err)
			}
			fmt.Fprintf(a.out, "%s set to %s on %s\n", upper, formatSignalState(state), name)
			time.Sleep(hold)
			return nil
		},
	}
	cmd.Flags().DurationVar(&hold, "hold", 0, "Keep the port open for this time after setting the line")
	return cmd
}

func newBreakCmd(a *app) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "break [<port>]",
		Short: "Send a break condition",
		Long: `Hold the transmit line in the break state for the given duration.

Examples:
  serialport break /dev/ttyUSB0
  serialport break /dev/ttyUSB0 --duration 250ms`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.portName(args)
			if err != nil {
				return err
			}
			port, err := a.open(name)
			if err != nil {
				return err
			}
			defer port.Close()

			if err := port.Break(duration); err != nil {
				return fmt.Errorf("sending break on %s: %w", name, err)
			}
			fmt.Fprintf(a.out, "%s Break of %s sent on %s\n", successStyle.Render("✓"), duration, name)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 100*time.Millisecond, "Length of the break condition")
	return cmd
}
