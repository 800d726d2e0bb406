//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"fmt"
	"io"

	"github.com/sirhcel/go-serial"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// profile is the layout of the profile file
type profile struct {
	Port        string `yaml:"port,omitempty"`
	Baud        int    `yaml:"baud"`
	DataBits    int    `yaml:"data-bits"`
	Parity      string `yaml:"parity"`
	StopBits    string `yaml:"stop-bits"`
	FlowControl string `yaml:"flow-control"`
	Timeout     string `yaml:"timeout"`
}

func newProfile(port string, mode *serial.Mode) profile {
	timeout := mode.Timeout.String()
	if mode.Timeout == serial.NoTimeout {
		timeout = "block"
	}
	return profile{
		Port:        port,
		Baud:        mode.BaudRate,
		DataBits:    mode.DataBits,
		Parity:      mode.Parity.String(),
		StopBits:    mode.StopBits.String(),
		FlowControl: mode.FlowControl.String(),
		Timeout:     timeout,
	}
}

func newConfigCmd(a *app) *cobra.Command {
	var asProfile bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective port settings",
		Long: `Print the port settings resulting from the flags, the environment and
the profile file.

With --profile the settings are printed in the layout of the profile file,
ready to be saved as $HOME/.serialport.yaml.

Examples:
  serialport config
  SERIALPORT_BAUD=115200 serialport config
  serialport config --baud 57600 --port /dev/ttyUSB0 --profile > ~/.serialport.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.mode()
			if err != nil {
				return err
			}
			port := a.v.GetString(keyPort)
			if asProfile {
				return writeYAML(a.out, newProfile(port, mode))
			}
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(a.out, "# profile: %s\n", used)
			}
			if port != "" {
				fmt.Fprintf(a.out, "# port: %s\n", port)
			}
			return serial.SaveMode(a.out, mode)
		},
	}
	cmd.Flags().BoolVar(&asProfile, "profile", false, "Print the settings in the profile file layout")
	return cmd
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
