//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirhcel/go-serial"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

// loopbackResult is the outcome of a loopback run. Mismatch is the offset
// of the first byte received wrong, -1 when all the received bytes match.
type loopbackResult struct {
	Sent     int
	Received int
	Mismatch int
	Elapsed  time.Duration
}

func (r loopbackResult) ok() bool {
	return r.Mismatch < 0 && r.Received == r.Sent
}

func newLoopbackCmd(a *app) *cobra.Command {
	var usePty bool
	var size int
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "loopback [<port>]",
		Short: "Check that the data written to a port is read back unchanged",
		Long: `Write random data and check that the same data is read back.

The port must have its TX and RX pins wired together. With --pty the test
runs on a pseudo terminal pair and needs no hardware.

Examples:
  serialport loopback /dev/ttyUSB0 --size 4096
  serialport loopback --pty`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size <= 0 {
				return fmt.Errorf("invalid size %d", size)
			}
			mode, err := a.mode()
			if err != nil {
				return err
			}

			var tx, rx serial.Port
			if usePty {
				if tx, rx, err = openPair(mode); err != nil {
					return err
				}
				defer tx.Close()
				defer rx.Close()
			} else {
				name, err := a.portName(args)
				if err != nil {
					return err
				}
				if tx, err = a.open(name); err != nil {
					return err
				}
				defer tx.Close()
				rx = tx
			}

			res, err := runLoopback(tx, rx, size, timeout)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"sent": res.Sent, "received": res.Received, "elapsed": res.Elapsed}).Debug("loopback done")
			if !res.ok() {
				fmt.Fprintf(a.out, "%s %s\n", errorStyle.Render("✗"), res)
				return errors.New("loopback test failed")
			}
			fmt.Fprintf(a.out, "%s %s\n", successStyle.Render("✓"), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&usePty, "pty", false, "Run on a pseudo terminal pair")
	cmd.Flags().IntVar(&size, "size", 1024, "Number of bytes to send")
	cmd.Flags().DurationVar(&timeout, "wait", 5*time.Second, "Maximum time to wait for the data")
	return cmd
}

func (r loopbackResult) String() string {
	switch {
	case r.Mismatch >= 0:
		return fmt.Sprintf("data mismatch at byte %d (%d of %d bytes received)", r.Mismatch, r.Received, r.Sent)
	case r.Received < r.Sent:
		return fmt.Sprintf("received %d of %d bytes in %s", r.Received, r.Sent, r.Elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("%d bytes looped back in %s", r.Sent, r.Elapsed.Round(time.Millisecond))
}

// runLoopback writes size random bytes on tx and reads them back from rx,
// waiting at most timeout for the data
func runLoopback(tx, rx serial.Port, size int, timeout time.Duration) (loopbackResult, error) {
	payload := make([]byte, size)
	if _, err := rand.Read(payload); err != nil {
		return loopbackResult{}, err
	}
	if err := rx.SetReadTimeout(100 * time.Millisecond); err != nil {
		return loopbackResult{}, err
	}

	start := time.Now()
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- writeFull(tx, payload)
	}()

	received := make([]byte, 0, size)
	buf := make([]byte, 4096)
	deadline := start.Add(timeout)
	for len(received) < size && time.Now().Before(deadline) {
		n, err := rx.Read(buf)
		received = append(received, buf[:n]...)
		if err != nil && !serial.IsTimeout(err) {
			return loopbackResult{}, err
		}
	}
	res := loopbackResult{
		Sent:     size,
		Received: len(received),
		Mismatch: firstMismatch(payload, received),
		Elapsed:  time.Since(start),
	}
	if len(received) > size {
		res.Received = size
		if res.Mismatch < 0 {
			res.Mismatch = size
		}
	}

	select {
	case err := <-writeErr:
		if err != nil {
			return res, fmt.Errorf("writing loopback data: %w", err)
		}
	case <-time.After(timeout):
		return res, errors.New("writing loopback data: timed out")
	}
	return res, nil
}

func firstMismatch(want, got []byte) int {
	n := min(len(want), len(got))
	if bytes.Equal(want[:n], got[:n]) {
		return -1
	}
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return i
		}
	}
	return -1
}
