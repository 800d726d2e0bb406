//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import "time"

// Builder accumulates the configuration of a serial port before opening it.
// Every setter returns an updated copy, so a Builder can be reused as a
// template:
//
//	port, err := serial.New("/dev/ttyUSB0").
//		BaudRate(115200).
//		FlowControl(serial.HardwareFlowControl).
//		Timeout(100 * time.Millisecond).
//		Open()
type Builder struct {
	path string
	mode Mode
}

// New returns a Builder for the port at path with the default settings:
// 9600 baud, 8 data bits, no parity, 1 stop bit, no flow control and a zero
// (non blocking) read timeout.
func New(path string) Builder {
	return Builder{
		path: path,
		mode: Mode{
			BaudRate: defaultBaudRate,
			DataBits: defaultDataBits,
		},
	}
}

// Path returns the port path
func (b Builder) Path() string {
	return b.path
}

// Mode returns the accumulated configuration
func (b Builder) Mode() Mode {
	return b.mode
}

// BaudRate sets the baud rate
func (b Builder) BaudRate(baudRate int) Builder {
	b.mode.BaudRate = baudRate
	return b
}

// DataBits sets the number of data bits
func (b Builder) DataBits(dataBits int) Builder {
	b.mode.DataBits = dataBits
	return b
}

// StopBits sets the number of stop bits
func (b Builder) StopBits(stopBits StopBits) Builder {
	b.mode.StopBits = stopBits
	return b
}

// Parity sets the parity
func (b Builder) Parity(parity Parity) Builder {
	b.mode.Parity = parity
	return b
}

// FlowControl sets the flow control
func (b Builder) FlowControl(flowControl FlowControl) Builder {
	b.mode.FlowControl = flowControl
	return b
}

// Timeout sets the read timeout
func (b Builder) Timeout(timeout time.Duration) Builder {
	b.mode.Timeout = timeout
	return b
}

// InitialStatusBits sets the RTS and DTR lines state applied at open
func (b Builder) InitialStatusBits(bits ModemOutputBits) Builder {
	b.mode.InitialStatusBits = &bits
	return b
}

// Open opens the port with the accumulated configuration
func (b Builder) Open() (Port, error) {
	mode := b.mode
	return Open(b.path, &mode)
}
