//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	class    string
	name     string
	strings  map[string]string
	ints     map[string]int64
	parent   *fakeNode
	released *int
}

func (n *fakeNode) Class() string { return n.class }
func (n *fakeNode) Name() string  { return n.name }

func (n *fakeNode) Parent() (registryNode, error) {
	if n.parent == nil {
		return nil, errors.New("no parent device available")
	}
	return n.parent, nil
}

func (n *fakeNode) StringProperty(key string) (string, error) {
	if s, ok := n.strings[key]; ok {
		return s, nil
	}
	return "", fmt.Errorf("property %q not found", key)
}

func (n *fakeNode) IntProperty(key string) (int64, error) {
	if v, ok := n.ints[key]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("property %q not found", key)
}

func (n *fakeNode) Release() {
	if n.released != nil {
		*n.released++
	}
}

func TestDescribeUSBCompositeDevice(t *testing.T) {
	released := 0
	device := &fakeNode{
		class: "IOUSBHostDevice",
		name:  "Pico",
		strings: map[string]string{
			"USB Serial Number": "E6616407E3496E28",
			"USB Vendor Name":   "Raspberry Pi",
			"USB Product Name":  "Pico",
		},
		ints:     map[string]int64{"idVendor": 0x2e8a, "idProduct": 0x000a},
		released: &released,
	}
	iface := &fakeNode{class: "IOUSBHostInterface", ints: map[string]int64{"bInterfaceNumber": 2}, parent: device, released: &released}
	driver := &fakeNode{class: "AppleUSBACMData", parent: iface, released: &released}
	service := &fakeNode{
		class:   "IOSerialBSDClient",
		strings: map[string]string{"IOCalloutDevice": "/dev/cu.usbmodem14101"},
		parent:  driver,
	}

	port, err := describe(service)
	require.NoError(t, err)
	require.Equal(t, "/dev/cu.usbmodem14101", port.Name)
	require.Equal(t, USBPort, port.Type)
	require.True(t, port.IsUSB)
	require.Equal(t, "2E8A", port.VID)
	require.Equal(t, "000A", port.PID)
	require.Equal(t, "E6616407E3496E28", port.SerialNumber)
	require.Equal(t, "Raspberry Pi", port.Manufacturer)
	require.Equal(t, "Pico", port.Product)
	require.NotNil(t, port.Interface)
	require.Equal(t, uint8(2), *port.Interface)
	require.Equal(t, 3, released)
}

func TestDescribeProductFallsBackToName(t *testing.T) {
	device := &fakeNode{
		class: "IOUSBDevice",
		name:  "FT232R USB UART",
		ints:  map[string]int64{"idVendor": 0x0403, "idProduct": 0x6001},
	}
	service := &fakeNode{
		strings: map[string]string{"IOCalloutDevice": "/dev/cu.usbserial-A50285BI"},
		parent:  device,
	}
	port, err := describe(service)
	require.NoError(t, err)
	require.Equal(t, "FT232R USB UART", port.Product)
	require.Empty(t, port.SerialNumber)
	require.Nil(t, port.Interface)
}

func TestDescribeBluetoothAndBuiltin(t *testing.T) {
	bt := &fakeNode{
		strings: map[string]string{"IOCalloutDevice": "/dev/cu.Bluetooth-Incoming-Port"},
		parent:  &fakeNode{class: "IOBluetoothSerialClient", parent: &fakeNode{class: "IOResources"}},
	}
	port, err := describe(bt)
	require.NoError(t, err)
	require.Equal(t, BluetoothPort, port.Type)
	require.False(t, port.IsUSB)

	builtin := &fakeNode{
		strings: map[string]string{"IOCalloutDevice": "/dev/cu.serial1"},
		parent:  &fakeNode{class: "AppleSerialDriver", parent: &fakeNode{class: "IOPCIDevice"}},
	}
	port, err = describe(builtin)
	require.NoError(t, err)
	require.Equal(t, PCIPort, port.Type)
}

func TestDescribeWithoutCalloutDevice(t *testing.T) {
	_, err := describe(&fakeNode{class: "IOSerialBSDClient"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "IOCalloutDevice")
}
