//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"fmt"
	"time"
)

// registryNode is an entry of the IOService plane of the IOKit registry
type registryNode interface {
	Class() string
	Name() string
	Parent() (registryNode, error)
	StringProperty(key string) (string, error)
	IntProperty(key string) (int64, error)
	Release()
}

func nativeGetDetailedPortsList() ([]*PortDetails, error) {
	if err := loadIOKit(); err != nil {
		return nil, &PortEnumerationError{causedBy: err}
	}
	services, err := matchingServices("IOSerialBSDClient")
	if err != nil {
		return nil, &PortEnumerationError{causedBy: err}
	}
	defer func() {
		for _, service := range services {
			service.Release()
		}
	}()

	var ports []*PortDetails
	for _, service := range services {
		port, err := describe(service)
		if err != nil {
			return nil, &PortEnumerationError{causedBy: err}
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func describe(service registryNode) (*PortDetails, error) {
	// If called too early the port may still not be ready or fully enumerated
	// so we retry 5 times before returning error.
	var name string
	var err error
	for retries := 0; retries < 5; retries++ {
		if name, err = service.StringProperty("IOCalloutDevice"); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("error extracting port info from device: %w", err)
	}

	port := &PortDetails{Name: name}
	describeAncestors(port, service)
	return port, nil
}

// describeAncestors walks up from the serial client to the device that
// provides it
func describeAncestors(port *PortDetails, service registryNode) {
	var parents []registryNode
	defer func() {
		for _, parent := range parents {
			parent.Release()
		}
	}()

	node := service
	for {
		switch node.Class() {
		case "IOUSBHostInterface", "IOUSBInterface":
			if n, err := node.IntProperty("bInterfaceNumber"); err != nil {
				logDegraded(port.Name, "interface number", err)
			} else if n >= 0 && n <= 0xFF {
				iface := uint8(n)
				port.Interface = &iface
			}
		case "IOUSBHostDevice", "IOUSBDevice":
			describeUSBDevice(port, node)
			return
		case "IOBluetoothSerialClient":
			port.Type = BluetoothPort
			return
		}
		parent, err := node.Parent()
		if err != nil {
			// reached the root: a built-in or PCI attached UART
			port.Type = PCIPort
			return
		}
		parents = append(parents, parent)
		node = parent
	}
}

func describeUSBDevice(port *PortDetails, device registryNode) {
	vid, errVID := device.IntProperty("idVendor")
	pid, errPID := device.IntProperty("idProduct")
	if errVID != nil || errPID != nil {
		logDegraded(port.Name, "usb id", fmt.Errorf("vid: %v, pid: %v", errVID, errPID))
	}
	port.setUSB(uint16(vid), uint16(pid))

	if serialNumber, err := device.StringProperty("USB Serial Number"); err == nil {
		port.SerialNumber = serialNumber
	}
	if manufacturer, err := device.StringProperty("USB Vendor Name"); err == nil {
		port.Manufacturer = manufacturer
	}
	if product, err := device.StringProperty("USB Product Name"); err == nil {
		port.Product = product
	} else {
		port.Product = device.Name()
	}
}
