//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirhcel/go-serial/enumerator"
	"github.com/sirhcel/go-serial/internal/tui"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var format string
	var watch, pick bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available serial ports",
		Long: `List the serial ports of the system with their USB details.

Ports are listed in natural order of their names (ttyUSB2 before ttyUSB10).

Examples:
  serialport list
  serialport list --format table
  serialport list --format json
  serialport list --watch
  serialport list --pick`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			render, err := portsRenderer(format)
			if err != nil {
				return err
			}
			if watch {
				return a.watchPorts(cmd.Context(), render)
			}
			ports, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return err
			}
			if pick {
				selected, err := tui.PickPort(ports)
				if err != nil {
					return err
				}
				if selected != nil {
					fmt.Fprintln(a.out, selected.Name)
				}
				return nil
			}
			return render(a.out, ports)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, table, json, yaml")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Print the list again every time a port appears or disappears")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose a port interactively and print its name")
	cmd.MarkFlagsMutuallyExclusive("watch", "pick")
	return cmd
}

func (a *app) watchPorts(ctx context.Context, render portsRenderFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := enumerator.Watch(ctx, func(ports []*enumerator.PortDetails, err error) {
		if err != nil {
			a.log.WithError(err).Warn("listing serial ports")
			return
		}
		fmt.Fprintln(a.out, headerStyle.Render(fmt.Sprintf("%d serial port(s)", len(ports))))
		if err := render(a.out, ports); err != nil {
			a.log.WithError(err).Warn("printing serial ports")
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type portsRenderFunc func(w io.Writer, ports []*enumerator.PortDetails) error

func portsRenderer(format string) (portsRenderFunc, error) {
	switch format {
	case "text", "":
		return renderPortsText, nil
	case "table":
		return renderPortsTable, nil
	case "json":
		return renderPortsJSON, nil
	case "yaml":
		return renderPortsYAML, nil
	}
	return nil, fmt.Errorf("unknown format %q (valid: text, table, json, yaml)", format)
}

func renderPortsText(w io.Writer, ports []*enumerator.PortDetails) error {
	if len(ports) == 0 {
		_, err := fmt.Fprintln(w, "No serial ports found")
		return err
	}
	for _, port := range ports {
		fmt.Fprintf(w, "Port: %s\n", port.Name)
		if port.IsUSB {
			fmt.Fprintf(w, "   USB ID     %s:%s\n", port.VID, port.PID)
			fmt.Fprintf(w, "   USB serial %s\n", port.SerialNumber)
		}
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("99")).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("240"))

	cellStyle = lipgloss.NewStyle().PaddingRight(2)
)

func renderPortsTable(w io.Writer, ports []*enumerator.PortDetails) error {
	fmt.Fprintf(w, "Found %d serial port(s):\n\n", len(ports))

	rows := [][]string{{"Port", "Type", "VID:PID", "Serial", "Description"}}
	for _, port := range ports {
		ids := ""
		if port.IsUSB {
			ids = port.VID + ":" + port.PID
		}
		rows = append(rows, []string{port.Name, port.Type.String(), ids, port.SerialNumber, describePort(port)})
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for i, row := range rows {
		line := ""
		for j, cell := range row {
			line += cellStyle.Width(widths[j] + 2).Render(cell)
		}
		if i == 0 {
			line = tableHeaderStyle.Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// describePort joins manufacturer and product, skipping the empty ones
func describePort(port *enumerator.PortDetails) string {
	switch {
	case port.Manufacturer != "" && port.Product != "":
		return port.Manufacturer + " " + port.Product
	case port.Product != "":
		return port.Product
	}
	return port.Manufacturer
}

func renderPortsJSON(w io.Writer, ports []*enumerator.PortDetails) error {
	if ports == nil {
		ports = []*enumerator.PortDetails{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ports)
}

func renderPortsYAML(w io.Writer, ports []*enumerator.PortDetails) error {
	if ports == nil {
		ports = []*enumerator.PortDetails{}
	}
	return writeYAML(w, ports)
}
