//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"math"
	"time"
)

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go syscall_windows.go

// Port is the interface for a serial Port
type Port interface {
	// SetMode sets all parameters of the serial port. The port is not
	// reopened and the whole configuration is validated before being applied.
	SetMode(mode *Mode) error

	// GetMode reads back the configuration currently applied to the port.
	GetMode() (*Mode, error)

	// SetReadTimeout sets the timeout for the Read operation:
	//   t == 0: Read returns immediately with the data already buffered.
	//   t > 0: Read waits up to t for the first byte.
	//   t == NoTimeout: Read blocks until at least one byte is received.
	SetReadTimeout(t time.Duration) error

	// Stores data received from the serial port into the provided byte array
	// buffer. The function returns the number of bytes read.
	//
	// The Read function blocks until (at least) one byte is received from
	// the serial port, the timeout expires or an error occurs. An expired
	// timeout with no data is reported as a PortError with code Timeout.
	Read(p []byte) (n int, err error)

	// Send the content of the data byte array to the serial port.
	// Returns the number of bytes written, that may be less than len(p).
	Write(p []byte) (n int, err error)

	// Wait until all data in the buffer are sent
	Drain() error

	// ResetInputBuffer Purges port read buffer
	ResetInputBuffer() error

	// ResetOutputBuffer Purges port write buffer
	ResetOutputBuffer() error

	// ClearBuffer purges the selected buffers
	ClearBuffer(which ClearBuffer) error

	// BytesToRead returns the number of bytes waiting in the input buffer
	BytesToRead() (int, error)

	// BytesToWrite returns the number of bytes waiting in the output buffer
	BytesToWrite() (int, error)

	// SetDTR sets the modem status bit DataTerminalReady
	SetDTR(dtr bool) error

	// SetRTS sets the modem status bit RequestToSend
	SetRTS(rts bool) error

	// GetModemStatusBits returns a ModemStatusBits structure containing the
	// modem status bits for the serial port (CTS, DSR, etc...)
	GetModemStatusBits() (*ModemStatusBits, error)

	// ReadCTS returns the ClearToSend line state
	ReadCTS() (bool, error)

	// ReadDSR returns the DataSetReady line state
	ReadDSR() (bool, error)

	// ReadRI returns the RingIndicator line state
	ReadRI() (bool, error)

	// ReadDCD returns the DataCarrierDetect line state
	ReadDCD() (bool, error)

	// SetBreak starts transmitting a break condition
	SetBreak() error

	// ClearBreak stops transmitting a break condition
	ClearBreak() error

	// Break sends a break for the given duration
	Break(d time.Duration) error

	// Name returns the path used to open the port
	Name() string

	// Close the serial port. Calling Close on a closed port is a no-op.
	Close() error
}

// NoTimeout should be used as a parameter to SetReadTimeout to disable timeout.
const NoTimeout time.Duration = math.MaxInt64

// ModemStatusBits contains all the modem input status bits for a serial port (CTS, DSR, etc...).
// It can be retrieved with the Port.GetModemStatusBits() method.
type ModemStatusBits struct {
	CTS bool // ClearToSend status
	DSR bool // DataSetReady status
	RI  bool // RingIndicator status
	DCD bool // DataCarrierDetect status
}

// ModemOutputBits contains all the modem output bits for a serial port.
// This is used in the Mode.InitialStatusBits struct to specify the initial status of the bits.
// Note: Linux and MacOSX (and basically all unix-based systems) can not set the status bits
// before opening the port, even if the initial state of the bit is set to false they will go
// anyway to true for a few milliseconds, resulting in a small pulse.
type ModemOutputBits struct {
	RTS bool `yaml:"rts" json:"rts"` // ReadyToSend status
	DTR bool `yaml:"dtr" json:"dtr"` // DataTerminalReady status
}

// Open opens the serial port using the specified modes
func Open(portName string, mode *Mode) (Port, error) {
	if mode == nil {
		mode = &Mode{}
	}
	if err := mode.validate(); err != nil {
		return nil, err
	}
	port, err := nativeOpen(portName, mode)
	if err != nil {
		// Return a nil interface, for which var==nil is true (instead of
		// a nil pointer to a struct that satisfies the interface).
		return nil, err
	}
	return port, err
}

// Mode describes a serial port configuration.
type Mode struct {
	// The serial port bitrate (aka Baudrate), 0 means 9600
	BaudRate int
	// Size of the character (must be 5, 6, 7 or 8), 0 means 8
	DataBits int
	// Parity (see Parity type for more info)
	Parity Parity
	// Stop bits (see StopBits type for more info)
	StopBits StopBits
	// Flow control (see FlowControl type for more info)
	FlowControl FlowControl
	// Read timeout, 0 means non-blocking and NoTimeout means blocking
	Timeout time.Duration
	// Initial output modem bits status (if nil the driver defaults are kept)
	InitialStatusBits *ModemOutputBits
}

const (
	defaultBaudRate = 9600
	defaultDataBits = 8
)

func (m *Mode) baudRate() int {
	if m.BaudRate == 0 {
		return defaultBaudRate
	}
	return m.BaudRate
}

func (m *Mode) dataBits() int {
	if m.DataBits == 0 {
		return defaultDataBits
	}
	return m.DataBits
}

// modeMismatch returns the name of the first setting of want that differs
// in applied, or "" if the device uses all of them. The baud rate is
// compared only when checkBaud is set.
func modeMismatch(want, applied *Mode, checkBaud bool) string {
	switch {
	case applied.DataBits != want.dataBits():
		return "data bits"
	case applied.Parity != want.Parity:
		return "parity"
	case applied.StopBits != want.StopBits:
		return "stop bits"
	case applied.FlowControl != want.FlowControl:
		return "flow control"
	case checkBaud && applied.BaudRate != want.baudRate():
		return "baud rate"
	}
	return ""
}

// validate checks the platform independent constraints of the mode, the
// backend rejects what the native layer can not represent.
func (m *Mode) validate() error {
	if m.BaudRate < 0 {
		return &PortError{code: InvalidSpeed}
	}
	if d := m.dataBits(); d < 5 || d > 8 {
		return &PortError{code: InvalidDataBits}
	}
	if m.Parity < NoParity || m.Parity > SpaceParity {
		return &PortError{code: InvalidParity}
	}
	if m.StopBits < OneStopBit || m.StopBits > TwoStopBits {
		return &PortError{code: InvalidStopBits}
	}
	if m.FlowControl < NoFlowControl || m.FlowControl > HardwareFlowControl {
		return &PortError{code: InvalidFlowControl}
	}
	if m.Timeout < 0 {
		return &PortError{code: InvalidTimeoutValue}
	}
	return nil
}

// Parity describes a serial port parity setting
type Parity int

const (
	// NoParity disable parity control (default)
	NoParity Parity = iota
	// OddParity enable odd-parity check
	OddParity
	// EvenParity enable even-parity check
	EvenParity
	// MarkParity enable mark-parity (always 1) check
	MarkParity
	// SpaceParity enable space-parity (always 0) check
	SpaceParity
)

// StopBits describe a serial port stop bits setting
type StopBits int

const (
	// OneStopBit sets 1 stop bit (default)
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits
	TwoStopBits
)

// FlowControl describes a serial port flow control setting.
// The three modes are mutually exclusive.
type FlowControl int

const (
	// NoFlowControl disables flow control (default)
	NoFlowControl FlowControl = iota
	// SoftwareFlowControl enables XON/XOFF in-band flow control
	SoftwareFlowControl
	// HardwareFlowControl enables RTS/CTS flow control
	HardwareFlowControl
)

// ClearBuffer selects the buffers discarded by Port.ClearBuffer
type ClearBuffer int

const (
	// ClearInput discards data received but not read
	ClearInput ClearBuffer = iota
	// ClearOutput discards data written but not transmitted
	ClearOutput
	// ClearAll discards both buffers
	ClearAll
)

func clearBuffer(port Port, which ClearBuffer) error {
	switch which {
	case ClearInput:
		return port.ResetInputBuffer()
	case ClearOutput:
		return port.ResetOutputBuffer()
	case ClearAll:
		if err := port.ResetInputBuffer(); err != nil {
			return err
		}
		return port.ResetOutputBuffer()
	}
	return &PortError{code: InvalidArgument}
}
