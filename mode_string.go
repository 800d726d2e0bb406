//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"fmt"
	"strings"
)

// ModeFromString parses the compact "data bits, parity, stop bits" notation
// (for example "8N1", "7E2" or "8M1.5") into mode. Only DataBits, Parity
// and StopBits are changed.
func ModeFromString(s string, mode *Mode) error {
	if len(s) < 3 {
		return &PortError{code: InvalidArgument}
	}
	var dataBits int
	switch s[0] {
	case '5', '6', '7', '8':
		dataBits = int(s[0] - '0')
	default:
		return &PortError{code: InvalidDataBits}
	}
	parity, err := parseParity(s[1:2])
	if err != nil {
		return err
	}
	stopBits, err := parseStopBits(s[2:])
	if err != nil {
		return err
	}
	mode.DataBits = dataBits
	mode.Parity = parity
	mode.StopBits = stopBits
	return nil
}

// String returns the compact representation of the mode, for example
// "115200 8N1" or "9600 7E2 hardware".
func (m Mode) String() string {
	s := fmt.Sprintf("%d %d%s%s", m.baudRate(), m.dataBits(), m.Parity.letter(), m.StopBits)
	if m.FlowControl != NoFlowControl {
		s += " " + m.FlowControl.String()
	}
	return s
}

func (p Parity) String() string {
	switch p {
	case NoParity:
		return "none"
	case OddParity:
		return "odd"
	case EvenParity:
		return "even"
	case MarkParity:
		return "mark"
	case SpaceParity:
		return "space"
	}
	return fmt.Sprintf("Parity(%d)", int(p))
}

func (p Parity) letter() string {
	switch p {
	case NoParity, OddParity, EvenParity, MarkParity, SpaceParity:
		return strings.ToUpper(p.String()[:1])
	}
	return "?"
}

func (s StopBits) String() string {
	switch s {
	case OneStopBit:
		return "1"
	case OnePointFiveStopBits:
		return "1.5"
	case TwoStopBits:
		return "2"
	}
	return fmt.Sprintf("StopBits(%d)", int(s))
}

func (f FlowControl) String() string {
	switch f {
	case NoFlowControl:
		return "none"
	case SoftwareFlowControl:
		return "software"
	case HardwareFlowControl:
		return "hardware"
	}
	return fmt.Sprintf("FlowControl(%d)", int(f))
}

func parseParity(s string) (Parity, error) {
	switch strings.ToLower(s) {
	case "n", "none":
		return NoParity, nil
	case "o", "odd":
		return OddParity, nil
	case "e", "even":
		return EvenParity, nil
	case "m", "mark":
		return MarkParity, nil
	case "s", "space":
		return SpaceParity, nil
	}
	return 0, &PortError{code: InvalidParity, causedBy: fmt.Errorf("unknown parity %q", s)}
}

func parseStopBits(s string) (StopBits, error) {
	switch s {
	case "1":
		return OneStopBit, nil
	case "1.5":
		return OnePointFiveStopBits, nil
	case "2":
		return TwoStopBits, nil
	}
	return 0, &PortError{code: InvalidStopBits, causedBy: fmt.Errorf("unknown stop bits %q", s)}
}

func parseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(s) {
	case "n", "none":
		return NoFlowControl, nil
	case "s", "sw", "software", "xonxoff":
		return SoftwareFlowControl, nil
	case "h", "hw", "hardware", "rtscts":
		return HardwareFlowControl, nil
	}
	return 0, &PortError{code: InvalidFlowControl, causedBy: fmt.Errorf("unknown flow control %q", s)}
}
