//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MarshalText implements encoding.TextMarshaler
func (p Parity) MarshalText() ([]byte, error) {
	if p < NoParity || p > SpaceParity {
		return nil, &PortError{code: InvalidParity}
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Parity) UnmarshalText(text []byte) error {
	v, err := parseParity(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (s StopBits) MarshalText() ([]byte, error) {
	if s < OneStopBit || s > TwoStopBits {
		return nil, &PortError{code: InvalidStopBits}
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *StopBits) UnmarshalText(text []byte) error {
	v, err := parseStopBits(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (f FlowControl) MarshalText() ([]byte, error) {
	if f < NoFlowControl || f > HardwareFlowControl {
		return nil, &PortError{code: InvalidFlowControl}
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *FlowControl) UnmarshalText(text []byte) error {
	v, err := parseFlowControl(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseParity parses a parity name ("none", "odd", "even", "mark", "space")
// or its initial letter.
func ParseParity(s string) (Parity, error) { return parseParity(s) }

// ParseStopBits parses "1", "1.5" or "2".
func ParseStopBits(s string) (StopBits, error) { return parseStopBits(s) }

// ParseFlowControl parses "none", "software" (or "sw", "s") and
// "hardware" (or "hw", "h").
func ParseFlowControl(s string) (FlowControl, error) { return parseFlowControl(s) }

// ParseTimeout parses a read timeout. "block" (or "none", "infinite") is
// NoTimeout, the empty string is 0, any other value is a Go duration.
func ParseTimeout(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "block", "none", "infinite":
		return NoTimeout, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, &PortError{code: InvalidTimeoutValue, causedBy: err}
	}
	return d, nil
}

func formatTimeout(d time.Duration) string {
	if d == NoTimeout {
		return "block"
	}
	return d.String()
}

// modeDocument is the external representation of a Mode
type modeDocument struct {
	BaudRate          int              `yaml:"baud_rate" json:"baud_rate"`
	DataBits          int              `yaml:"data_bits" json:"data_bits"`
	Parity            Parity           `yaml:"parity" json:"parity"`
	StopBits          StopBits         `yaml:"stop_bits" json:"stop_bits"`
	FlowControl       FlowControl      `yaml:"flow_control" json:"flow_control"`
	Timeout           string           `yaml:"timeout" json:"timeout"`
	InitialStatusBits *ModemOutputBits `yaml:"initial_status_bits,omitempty" json:"initial_status_bits,omitempty"`
}

func (m Mode) document() modeDocument {
	return modeDocument{
		BaudRate:          m.baudRate(),
		DataBits:          m.dataBits(),
		Parity:            m.Parity,
		StopBits:          m.StopBits,
		FlowControl:       m.FlowControl,
		Timeout:           formatTimeout(m.Timeout),
		InitialStatusBits: m.InitialStatusBits,
	}
}

func (d modeDocument) mode() (Mode, error) {
	timeout, err := ParseTimeout(d.Timeout)
	if err != nil {
		return Mode{}, err
	}
	return Mode{
		BaudRate:          d.BaudRate,
		DataBits:          d.DataBits,
		Parity:            d.Parity,
		StopBits:          d.StopBits,
		FlowControl:       d.FlowControl,
		Timeout:           timeout,
		InitialStatusBits: d.InitialStatusBits,
	}, nil
}

// MarshalYAML implements yaml.Marshaler
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.document(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var d modeDocument
	if err := value.Decode(&d); err != nil {
		return err
	}
	mode, err := d.mode()
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalJSON implements json.Marshaler
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.document())
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Mode) UnmarshalJSON(data []byte) error {
	var d modeDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	mode, err := d.mode()
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// LoadMode reads a YAML (or JSON, which is valid YAML) document describing a Mode.
func LoadMode(r io.Reader) (*Mode, error) {
	mode := &Mode{}
	if err := yaml.NewDecoder(r).Decode(mode); err != nil {
		if err == io.EOF {
			return mode, nil
		}
		return nil, fmt.Errorf("decoding serial mode: %w", err)
	}
	return mode, nil
}

// SaveMode writes mode as a YAML document.
func SaveMode(w io.Writer, mode *Mode) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(mode); err != nil {
		return err
	}
	return enc.Close()
}
