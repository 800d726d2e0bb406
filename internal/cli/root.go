//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package cli implements the serialport command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirhcel/go-serial"
	"github.com/sirhcel/go-serial/enumerator"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "SERIALPORT"
	defaultConfigName = ".serialport"
)

// configuration keys, shared by flags, environment and profile file
const (
	keyPort        = "port"
	keyBaud        = "baud"
	keyDataBits    = "data-bits"
	keyParity      = "parity"
	keyStopBits    = "stop-bits"
	keyFlowControl = "flow-control"
	keyTimeout     = "timeout"
	keyVerbose     = "verbose"
	keyLogFormat   = "log-format"
)

// app carries the state shared by all the commands
type app struct {
	v      *viper.Viper
	log    *logrus.Logger
	out    io.Writer
	errOut io.Writer
	in     io.Reader

	configFile string
}

// Execute runs the tool with the process arguments and returns the exit
// status.
func Execute() int {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		a.log.WithError(err).Error("command failed")
		return 1
	}
	return 0
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	log := logrus.New()
	log.SetOutput(errOut)
	return &app{
		v:      viper.New(),
		log:    log,
		out:    out,
		errOut: errOut,
		in:     in,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "serialport",
		Short: "List, configure and talk to serial ports",
		Long: `serialport lists the serial ports of the system and exchanges data
with them.

Port settings are read, in order of precedence, from the command line flags,
from the SERIALPORT_* environment variables (SERIALPORT_BAUD,
SERIALPORT_FLOW_CONTROL, ...) and from the profile file ($HOME/.serialport.yaml
unless --config is given).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "profile file (default $HOME/.serialport.yaml)")
	flags.BoolP(keyVerbose, "v", false, "Enable debug logging")
	flags.String(keyLogFormat, "text", "Log format: text, json")
	flags.StringP(keyPort, "p", "", "Serial port, used when the command has no port argument")
	flags.IntP(keyBaud, "b", 9600, "Baud rate")
	flags.Int(keyDataBits, 8, "Data bits: 5, 6, 7, 8")
	flags.String(keyParity, "none", "Parity: none, odd, even, mark, space")
	flags.String(keyStopBits, "1", "Stop bits: 1, 1.5, 2")
	flags.StringP(keyFlowControl, "f", "none", "Flow control: none, software, hardware")
	flags.StringP(keyTimeout, "t", "100ms", "Read timeout, \"block\" waits forever")
	for _, key := range []string{keyVerbose, keyLogFormat, keyPort, keyBaud, keyDataBits, keyParity, keyStopBits, keyFlowControl, keyTimeout} {
		// the flag exists, binding can not fail
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(
		newListCmd(a),
		newInfoCmd(a),
		newSendCmd(a),
		newListenCmd(a),
		newSignalsCmd(a),
		newLineCmd(a, "rts", "Request To Send", serial.Port.SetRTS),
		newLineCmd(a, "dtr", "Data Terminal Ready", serial.Port.SetDTR),
		newBreakCmd(a),
		newLoopbackCmd(a),
		newMonitorCmd(a),
		newBridgeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// initialize loads the profile and sets up logging
func (a *app) initialize(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigName(defaultConfigName)
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading profile: %w", err)
		}
	}

	if a.v.GetBool(keyVerbose) {
		a.log.SetLevel(logrus.DebugLevel)
	}
	switch a.v.GetString(keyLogFormat) {
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		a.log.SetFormatter(&logrus.TextFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", a.v.GetString(keyLogFormat))
	}
	enumerator.SetLogger(a.log)

	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.WithField("file", filepath.Clean(used)).Debug("profile loaded")
	}
	a.log.WithField("command", cmd.Name()).Debug("starting")
	return nil
}

// mode builds the port settings from flags, environment and profile
func (a *app) mode() (*serial.Mode, error) {
	parity, err := serial.ParseParity(a.v.GetString(keyParity))
	if err != nil {
		return nil, err
	}
	stopBits, err := serial.ParseStopBits(a.v.GetString(keyStopBits))
	if err != nil {
		return nil, err
	}
	flowControl, err := serial.ParseFlowControl(a.v.GetString(keyFlowControl))
	if err != nil {
		return nil, err
	}
	timeout, err := serial.ParseTimeout(a.v.GetString(keyTimeout))
	if err != nil {
		return nil, err
	}
	return &serial.Mode{
		BaudRate:    a.v.GetInt(keyBaud),
		DataBits:    a.v.GetInt(keyDataBits),
		Parity:      parity,
		StopBits:    stopBits,
		FlowControl: flowControl,
		Timeout:     timeout,
	}, nil
}

// portName returns the port argument, or the configured port
func (a *app) portName(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if name := a.v.GetString(keyPort); name != "" {
		return name, nil
	}
	return "", errors.New("no serial port given, pass it as argument or with --port")
}

// open opens the port with the configured settings
func (a *app) open(name string) (serial.Port, error) {
	mode, err := a.mode()
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"port": name, "mode": mode.String()}).Debug("opening port")
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return port, nil
}
