//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"context"
	"encoding/hex"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirhcel/go-serial"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newListenCmd(a *app) *cobra.Command {
	var duration time.Duration
	var dump bool
	cmd := &cobra.Command{
		Use:   "listen [<port>]",
		Short: "Print the data received from a serial port",
		Long: `Print the data received from a serial port until interrupted with
Ctrl+C or until the given duration has elapsed.

Examples:
  serialport listen /dev/ttyUSB0
  serialport listen /dev/ttyUSB0 --duration 10s --hex`,
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

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			out := a.out
			var dumper io.WriteCloser
			if dump {
				dumper = hex.Dumper(a.out)
				out = dumper
			}
			total, err := copyFromPort(ctx, port, out)
			if dumper != nil {
				dumper.Close()
			}
			a.log.WithFields(logrus.Fields{"port": name, "bytes": total}).Debug("listen done")
			return err
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop listening after this time (0 listens until interrupted)")
	cmd.Flags().BoolVarP(&dump, "hex", "x", false, "Print a hex dump instead of the raw data")
	return cmd
}

// copyReadWait replaces a zero read timeout, that would make Read poll
const copyReadWait = 100 * time.Millisecond

// copyFromPort copies the received data to w until ctx is done. The port
// is closed when ctx is done to unblock a pending Read.
func copyFromPort(ctx context.Context, port serial.Port, w io.Writer) (int64, error) {
	if mode, err := port.GetMode(); err == nil && mode.Timeout == 0 {
		if err := port.SetReadTimeout(copyReadWait); err != nil {
			return 0, err
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			port.Close()
		case <-done:
		}
	}()

	var total int64
	buf := make([]byte, 4096)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return total, err
			}
			total += int64(n)
		}
		if err != nil {
			if ctx.Err() != nil {
				return total, nil
			}
			if serial.IsTimeout(err) {
				continue
			}
			return total, err
		}
	}
}
