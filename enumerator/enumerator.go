//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fvbommel/sortorder"
	"github.com/sirhcel/go-serial"
)

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go syscall_windows.go

// PortType is the kind of bus the serial port is attached to
type PortType int

const (
	// UnknownPort the bus could not be determined
	UnknownPort PortType = iota
	// USBPort an USB CDC or USB-to-serial adapter
	USBPort
	// PCIPort a PCI or on-board UART
	PCIPort
	// BluetoothPort a Bluetooth RFCOMM link
	BluetoothPort
)

func (t PortType) String() string {
	switch t {
	case USBPort:
		return "usb"
	case PCIPort:
		return "pci"
	case BluetoothPort:
		return "bluetooth"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (t PortType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *PortType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "usb":
		*t = USBPort
	case "pci":
		*t = PCIPort
	case "bluetooth":
		*t = BluetoothPort
	case "unknown", "":
		*t = UnknownPort
	default:
		return fmt.Errorf("unknown port type %q", text)
	}
	return nil
}

// PortDetails contains detailed information about a serial port.
// Use GetDetailedPortsList function to retrieve it.
type PortDetails struct {
	// Name is the path to pass to serial.Open
	Name string `yaml:"name" json:"name"`
	Type PortType `yaml:"type" json:"type"`

	// The following fields are only set for USB ports
	IsUSB        bool   `yaml:"is_usb" json:"is_usb"`
	VID          string `yaml:"vid,omitempty" json:"vid,omitempty"`
	PID          string `yaml:"pid,omitempty" json:"pid,omitempty"`
	SerialNumber string `yaml:"serial_number,omitempty" json:"serial_number,omitempty"`
	Manufacturer string `yaml:"manufacturer,omitempty" json:"manufacturer,omitempty"`

	// Product is an OS-dependent string that describes the serial port, it may
	// be not always available and it may be different across OS.
	Product string `yaml:"product,omitempty" json:"product,omitempty"`

	// Interface is the USB interface number of composite devices
	Interface *uint8 `yaml:"interface,omitempty" json:"interface,omitempty"`
}

func (p *PortDetails) setUSB(vid, pid uint16) {
	p.Type = USBPort
	p.IsUSB = true
	p.VID = fmt.Sprintf("%04X", vid)
	p.PID = fmt.Sprintf("%04X", pid)
}

// parseInterfaceNumber parses the two hex digits of an USB interface number
func parseInterfaceNumber(s string) *uint8 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return nil
	}
	n := uint8(v)
	return &n
}

// GetDetailedPortsList retrieve ports details like USB VID/PID.
// The list is complete or an error is returned: metadata that can not be
// read only leaves the corresponding fields empty. Ports are listed once,
// in natural order of their names.
// Please note that this function may not be available on all OS:
// in that case an error of kind serial.KindUnknown is returned.
func GetDetailedPortsList() ([]*PortDetails, error) {
	ports, err := nativeGetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	return normalize(ports), nil
}

// GetPortsList retrieve the names of the available serial ports, in the
// same order as GetDetailedPortsList.
func GetPortsList() ([]string, error) {
	ports, err := GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, port := range ports {
		names[i] = port.Name
	}
	return names, nil
}

// normalize removes duplicated names, keeping the first occurrence, and
// sorts the list so that ttyUSB2 comes before ttyUSB10
func normalize(ports []*PortDetails) []*PortDetails {
	seen := map[string]bool{}
	res := make([]*PortDetails, 0, len(ports))
	for _, port := range ports {
		if seen[port.Name] {
			continue
		}
		seen[port.Name] = true
		res = append(res, port)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return sortorder.NaturalLess(res[i].Name, res[j].Name)
	})
	return res
}

// PortEnumerationError is the error type for serial ports enumeration
type PortEnumerationError struct {
	causedBy error
}

// Error returns the complete error code with details on the cause of the error
func (e PortEnumerationError) Error() string {
	reason := "Error while enumerating serial ports"
	if e.causedBy != nil {
		reason += ": " + e.causedBy.Error()
	}
	return reason
}

// Unwrap returns the cause of the error
func (e PortEnumerationError) Unwrap() error {
	return e.causedBy
}

// Kind classifies the error like serial.KindOf does for the port errors
func (e PortEnumerationError) Kind() serial.ErrorKind {
	if e.causedBy == nil {
		return serial.KindUnknown
	}
	return serial.KindOf(e.causedBy)
}

// NativeCode returns the operating system error code, if any
func (e PortEnumerationError) NativeCode() (int, bool) {
	return serial.NativeCode(e.causedBy)
}
