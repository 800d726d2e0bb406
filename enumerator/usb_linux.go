//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// sysfsCatalog reads the tty class of sysfs and the udev database. The
// roots are fields so that a fake tree can be used in tests.
type sysfsCatalog struct {
	sysRoot  string
	udevRoot string
	devRoot  string
}

var hostCatalog = &sysfsCatalog{
	sysRoot:  "/sys",
	udevRoot: "/run/udev/data",
	devRoot:  "/dev",
}

// device node patterns used when sysfs is not mounted
var devicePatterns = []string{
	"ttyS*", "ttyUSB*", "ttyACM*", "ttyAMA*", "rfcomm*", "ttyO*",
	"ttymxc*", "ttySAC*", "ttyXRUSB*", "ttyGS*",
}

// maximum number of sysfs ancestors inspected to find the bus
const sysfsMaxDepth = 5

func nativeGetDetailedPortsList() ([]*PortDetails, error) {
	return hostCatalog.ports()
}

func (c *sysfsCatalog) ports() ([]*PortDetails, error) {
	classDir := filepath.Join(c.sysRoot, "class", "tty")
	entries, err := os.ReadDir(classDir)
	if errors.Is(err, fs.ErrNotExist) {
		return c.globDevices()
	}
	if err != nil {
		return nil, &PortEnumerationError{causedBy: err}
	}

	var ports []*PortDetails
	for _, entry := range entries {
		if port := c.describe(classDir, entry.Name()); port != nil {
			ports = append(ports, port)
		}
	}
	return ports, nil
}

func (c *sysfsCatalog) globDevices() ([]*PortDetails, error) {
	var ports []*PortDetails
	for _, pattern := range devicePatterns {
		matches, err := filepath.Glob(filepath.Join(c.devRoot, pattern))
		if err != nil {
			return nil, &PortEnumerationError{causedBy: err}
		}
		for _, match := range matches {
			ports = append(ports, &PortDetails{Name: match})
		}
	}
	return ports, nil
}

// describe returns nil for the ttys that are not serial ports
func (c *sysfsCatalog) describe(classDir, name string) *PortDetails {
	ttyDir := filepath.Join(classDir, name)
	deviceDir, err := filepath.EvalSymlinks(filepath.Join(ttyDir, "device"))
	if err != nil {
		// virtual terminals and ptys have no backing device
		return nil
	}
	node := filepath.Join(c.devRoot, name)
	if _, err := os.Stat(node); err != nil {
		return nil
	}
	if isPlaceholderUART(ttyDir, deviceDir) {
		return nil
	}

	port := &PortDetails{Name: node}
	if strings.HasPrefix(name, "rfcomm") {
		port.Type = BluetoothPort
		return port
	}
	props, err := c.udevProperties(ttyDir)
	if err != nil {
		logDegraded(node, "udev", err)
	}
	if !applyUdevProperties(port, props) {
		walkSysfs(port, deviceDir)
	}
	return port
}

// isPlaceholderUART tells apart the serial8250 ports registered by the
// kernel for UARTs that are not present on the board
func isPlaceholderUART(ttyDir, deviceDir string) bool {
	driver, err := filepath.EvalSymlinks(filepath.Join(deviceDir, "driver"))
	if err != nil || filepath.Base(driver) != "serial8250" {
		return false
	}
	return readAttribute(ttyDir, "type") == "0"
}

// udevProperties reads the "E:" records of the udev database entry of
// the character device
func (c *sysfsCatalog) udevProperties(ttyDir string) (map[string]string, error) {
	dev := readAttribute(ttyDir, "dev")
	if dev == "" {
		return nil, errors.New("missing device number")
	}
	f, err := os.Open(filepath.Join(c.udevRoot, "c"+dev))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	props := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line, ok := strings.CutPrefix(scanner.Text(), "E:")
		if !ok {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			props[key] = value
		}
	}
	return props, scanner.Err()
}

// applyUdevProperties fills port from the udev properties. It returns
// false if udev does not know the bus of the device.
func applyUdevProperties(port *PortDetails, props map[string]string) bool {
	switch props["ID_BUS"] {
	case "":
		return false
	case "usb":
		vid, errVID := parseHex16(props["ID_VENDOR_ID"])
		pid, errPID := parseHex16(props["ID_MODEL_ID"])
		if err := errors.Join(errVID, errPID); err != nil {
			logDegraded(port.Name, "usb id", err)
			return false
		}
		port.setUSB(vid, pid)
		port.SerialNumber = props["ID_SERIAL_SHORT"]
		port.Manufacturer = udevString(props, "ID_VENDOR_ENC", "ID_VENDOR", "ID_VENDOR_FROM_DATABASE")
		port.Product = udevString(props, "ID_MODEL_ENC", "ID_MODEL", "ID_MODEL_FROM_DATABASE")
		port.Interface = parseInterfaceNumber(props["ID_USB_INTERFACE_NUM"])
	case "pci":
		// USB adapters hosted by a PCI controller carry the ID_USB_ set
		for _, key := range []string{"ID_USB_VENDOR_ID", "ID_USB_MODEL_ID", "ID_USB_VENDOR", "ID_USB_MODEL", "ID_USB_SERIAL_SHORT"} {
			if _, ok := props[key]; !ok {
				port.Type = PCIPort
				return true
			}
		}
		vid, errVID := parseHex16(props["ID_USB_VENDOR_ID"])
		pid, errPID := parseHex16(props["ID_USB_MODEL_ID"])
		if err := errors.Join(errVID, errPID); err != nil {
			logDegraded(port.Name, "usb id", err)
			port.Type = PCIPort
			return true
		}
		port.setUSB(vid, pid)
		port.SerialNumber = props["ID_USB_SERIAL_SHORT"]
		port.Manufacturer = udevString(props, "ID_USB_VENDOR_ENC", "ID_USB_VENDOR", "")
		port.Product = udevString(props, "ID_USB_MODEL_ENC", "ID_USB_MODEL", "")
		port.Interface = parseInterfaceNumber(props["ID_USB_INTERFACE_NUM"])
	default:
		port.Type = UnknownPort
	}
	return true
}

// udevString prefers the encoded property, then the one with whitespace
// replaced by underscores, then the hardware database entry.
func udevString(props map[string]string, encodedKey, replacedKey, databaseKey string) string {
	if encoded, ok := props[encodedKey]; ok {
		if s, err := unescapeUdev(encoded); err == nil {
			return restoreSpaces(s)
		}
	}
	if replaced, ok := props[replacedKey]; ok {
		return restoreSpaces(replaced)
	}
	return props[databaseKey]
}

// unescapeUdev decodes the \xNN sequences used by udev for the characters
// that are not safe in property values
func unescapeUdev(s string) (string, error) {
	return strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
}

func restoreSpaces(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
}

// walkSysfs looks for the bus in the ancestry of the tty device
func walkSysfs(port *PortDetails, deviceDir string) {
	dir := deviceDir
	for depth := 0; depth < sysfsMaxDepth; depth++ {
		if port.Type != USBPort {
			if vid, pid, iface, ok := parseModalias(readAttribute(dir, "modalias")); ok {
				port.setUSB(vid, pid)
				port.Interface = iface
			}
		}
		if idVendor := readAttribute(dir, "idVendor"); idVendor != "" {
			vid, errVID := parseHex16(idVendor)
			pid, errPID := parseHex16(readAttribute(dir, "idProduct"))
			if err := errors.Join(errVID, errPID); err != nil {
				logDegraded(port.Name, "usb id", err)
				return
			}
			port.setUSB(vid, pid)
			port.SerialNumber = readAttribute(dir, "serial")
			port.Manufacturer = readAttribute(dir, "manufacturer")
			port.Product = readAttribute(dir, "product")
			return
		}
		if port.Type != USBPort && subsystem(dir) == "pci" {
			port.Type = PCIPort
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// parseModalias extracts the ids from an USB interface modalias like
// usb:v303Ap1001d0101dcEFdsc02dp01ic02isc02ip00in00
func parseModalias(modalias string) (vid, pid uint16, iface *uint8, ok bool) {
	start := strings.Index(modalias, "usb:v")
	if start < 0 {
		return 0, 0, nil, false
	}
	tail := modalias[start+len("usb:v"):]
	if len(tail) < 4 {
		return 0, 0, nil, false
	}
	vid, err := parseHex16(tail[:4])
	if err != nil {
		return 0, 0, nil, false
	}
	tail = tail[4:]
	p := strings.IndexByte(tail, 'p')
	if p < 0 || len(tail) < p+5 {
		return 0, 0, nil, false
	}
	pid, err = parseHex16(tail[p+1 : p+5])
	if err != nil {
		return 0, 0, nil, false
	}
	tail = tail[p+5:]
	if in := strings.Index(tail, "in"); in >= 0 && len(tail) >= in+4 {
		iface = parseInterfaceNumber(tail[in+2 : in+4])
	}
	return vid, pid, iface, true
}

func parseHex16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	return uint16(v), err
}

func subsystem(dir string) string {
	target, err := filepath.EvalSymlinks(filepath.Join(dir, "subsystem"))
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

func readAttribute(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
