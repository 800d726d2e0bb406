//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// setup classes holding serial ports: Ports (COM & LPT) and Modem
var setupClasses = []windows.GUID{
	{Data1: 0x4d36e978, Data2: 0xe325, Data3: 0x11ce, Data4: [8]byte{0xbf, 0xc1, 0x08, 0x00, 0x2b, 0xe1, 0x03, 0x18}},
	{Data1: 0x4d36e96d, Data2: 0xe325, Data3: 0x11ce, Data4: [8]byte{0xbf, 0xc1, 0x08, 0x00, 0x2b, 0xe1, 0x03, 0x18}},
}

// maximum number of ancestors inspected for the serial number of a
// composite device
const maxParentDepth = 4

var (
	usbDeviceIDRegexp  = regexp.MustCompile(`VID_([0-9A-Fa-f]{4})&PID_([0-9A-Fa-f]{4})(?:&MI_([0-9A-Fa-f]{2}))?(?:\\(\w+)$)?`)
	ftdiDeviceIDRegexp = regexp.MustCompile(`VID_([0-9A-Fa-f]{4})\+PID_([0-9A-Fa-f]{4})(?:\+(\w+))?`)
	friendlyNameSuffix = regexp.MustCompile(`\s*\(COM[0-9]+\)$`)
)

func nativeGetDetailedPortsList() ([]*PortDetails, error) {
	var res []*PortDetails
	for i := range setupClasses {
		ports, err := classPorts(&setupClasses[i])
		if err != nil {
			return nil, &PortEnumerationError{causedBy: err}
		}
		res = append(res, ports...)
	}
	return res, nil
}

func classPorts(class *windows.GUID) ([]*PortDetails, error) {
	devInfo, err := windows.SetupDiGetClassDevsEx(class, "", 0, windows.DIGCF_PRESENT, 0, "")
	if err != nil {
		return nil, err
	}
	defer devInfo.Close()

	var res []*PortDetails
	for i := 0; ; i++ {
		data, err := devInfo.EnumDeviceInfo(i)
		if errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
			break
		}
		if err != nil {
			return nil, err
		}
		name, err := portName(devInfo, data)
		if err != nil || !strings.HasPrefix(name, "COM") {
			// printer ports and modems without a COM port
			continue
		}
		res = append(res, describe(devInfo, data, name))
	}
	return res, nil
}

func portName(devInfo windows.DevInfo, data *windows.DevInfoData) (string, error) {
	h, err := devInfo.OpenDevRegKey(data, windows.DICS_FLAG_GLOBAL, 0, windows.DIREG_DEV, windows.KEY_READ)
	if err != nil {
		return "", err
	}
	key := registry.Key(h)
	defer key.Close()
	name, _, err := key.GetStringValue("PortName")
	return name, err
}

func describe(devInfo windows.DevInfo, data *windows.DevInfoData, name string) *PortDetails {
	port := &PortDetails{Name: name}

	if id, err := devInfo.DeviceInstanceID(data); err != nil {
		logDegraded(name, "instance id", err)
	} else {
		parseDeviceID(id, port)
	}
	if port.IsUSB && port.SerialNumber == "" {
		port.SerialNumber = parentSerialNumber(data.DevInst, port.VID, port.PID)
	}

	if friendly, err := registryString(devInfo, data, windows.SPDRP_FRIENDLYNAME); err != nil {
		logDegraded(name, "friendly name", err)
	} else {
		port.Product = friendlyNameSuffix.ReplaceAllString(friendly, "")
	}
	if mfg, err := registryString(devInfo, data, windows.SPDRP_MFG); err != nil {
		logDegraded(name, "manufacturer", err)
	} else {
		port.Manufacturer = mfg
	}
	return port
}

func registryString(devInfo windows.DevInfo, data *windows.DevInfoData, property windows.SPDRP) (string, error) {
	value, err := devInfo.DeviceRegistryProperty(data, property)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected registry value type %T", value)
	}
	return s, nil
}

// parseDeviceID fills details from a device instance ID like
// USB\VID_2341&PID_0043\64936333936351400000 or
// FTDIBUS\VID_0403+PID_6001+A6004CCFA\0000
func parseDeviceID(deviceID string, details *PortDetails) {
	switch {
	case strings.HasPrefix(deviceID, "USB"):
		// Windows stock USB-CDC driver
		m := usbDeviceIDRegexp.FindStringSubmatch(deviceID)
		if m == nil {
			// Silently ignore unparsable strings
			return
		}
		setUSBFromHex(details, m[1], m[2])
		details.Interface = parseInterfaceNumber(m[3])
		details.SerialNumber = m[4]
	case strings.HasPrefix(deviceID, "FTDIBUS"):
		m := ftdiDeviceIDRegexp.FindStringSubmatch(deviceID)
		if m == nil {
			return
		}
		setUSBFromHex(details, m[1], m[2])
		details.SerialNumber = m[3]
	case strings.HasPrefix(deviceID, "BTHENUM"):
		details.Type = BluetoothPort
	case strings.HasPrefix(deviceID, "PCI"), strings.HasPrefix(deviceID, "ACPI"):
		details.Type = PCIPort
	}
}

func setUSBFromHex(details *PortDetails, vid, pid string) {
	v, _ := strconv.ParseUint(vid, 16, 16)
	p, _ := strconv.ParseUint(pid, 16, 16)
	details.setUSB(uint16(v), uint16(p))
}

// parentSerialNumber looks for the serial number of a composite device in
// the instance ID of its parents
func parentSerialNumber(devInst windows.DEVINST, vid, pid string) string {
	inst := devInst
	for depth := 0; depth < maxParentDepth; depth++ {
		var parent windows.DEVINST
		if ret := cmGetParent(&parent, inst, 0); ret != windows.CR_SUCCESS {
			// no way to tell the root apart from a failure
			return ""
		}
		id, err := deviceID(parent)
		if err != nil {
			return ""
		}
		var details PortDetails
		parseDeviceID(id, &details)
		if details.IsUSB && details.VID == vid && details.PID == pid && details.SerialNumber != "" {
			return details.SerialNumber
		}
		inst = parent
	}
	return ""
}

func deviceID(inst windows.DEVINST) (string, error) {
	buf := make([]uint16, windows.MAX_DEVICE_ID_LEN+1)
	if ret := cmGetDeviceID(inst, &buf[0], uint32(len(buf)), 0); ret != windows.CR_SUCCESS {
		return "", ret
	}
	return windows.UTF16ToString(buf), nil
}
