//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirhcel/go-serial/enumerator"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "info [<port>]",
		Short: "Display the details of a serial port",
		Long: `Display the details the system reports for one serial port: its type,
USB vendor and product ids, serial number, manufacturer, product and
interface number.

Examples:
  serialport info /dev/ttyUSB0
  serialport info COM3 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.portName(args)
			if err != nil {
				return err
			}
			ports, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return err
			}
			port := findPort(ports, name)
			if port == nil {
				return fmt.Errorf("serial port %s not found", name)
			}
			if format == "text" {
				return renderPortInfo(a.out, port)
			}
			render, err := portsRenderer(format)
			if err != nil {
				return err
			}
			return render(a.out, []*enumerator.PortDetails{port})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, yaml")
	return cmd
}

// findPort looks the port up by name. A bare name like ttyUSB0 matches
// /dev/ttyUSB0.
func findPort(ports []*enumerator.PortDetails, name string) *enumerator.PortDetails {
	for _, port := range ports {
		if port.Name == name {
			return port
		}
	}
	for _, port := range ports {
		if filepath.Base(port.Name) == name {
			return port
		}
	}
	return nil
}

func renderPortInfo(w io.Writer, port *enumerator.PortDetails) error {
	fmt.Fprintln(w, headerStyle.Render("Port Information: "+port.Name))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Type:         %s\n", port.Type)
	if port.Type != enumerator.USBPort {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("USB Device Information:"))
	fmt.Fprintf(w, "  Vendor ID:    %s\n", port.VID)
	fmt.Fprintf(w, "  Product ID:   %s\n", port.PID)
	if port.SerialNumber != "" {
		fmt.Fprintf(w, "  Serial:       %s\n", port.SerialNumber)
	}
	if port.Manufacturer != "" {
		fmt.Fprintf(w, "  Manufacturer: %s\n", port.Manufacturer)
	}
	if port.Product != "" {
		fmt.Fprintf(w, "  Product:      %s\n", port.Product)
	}
	if port.Interface != nil {
		fmt.Fprintf(w, "  Interface:    %d\n", *port.Interface)
	}
	return nil
}
