//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

/*
Package serial opens, configures and exchanges data with serial ports on
Linux, macOS, the BSDs and Windows.

	import "github.com/sirhcel/go-serial"

The ports present on the system are listed by the enumerator package, that
also reports the USB vendor and product ids, the serial number and the
interface number of the USB adapters:

	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Fatal(err)
	}
	for _, port := range ports {
		fmt.Printf("%s %s %s:%s\n", port.Name, port.Type, port.VID, port.PID)
	}

A port is opened with a Mode. Zero fields take the defaults, 9600 baud and
8 data bits, no parity, one stop bit, no flow control and a non blocking
read:

	port, err := serial.Open("/dev/ttyUSB0", &serial.Mode{BaudRate: 115200})
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

The same settings can be accumulated on a Builder, a value type that can be
shared and extended without side effects:

	port, err := serial.New("/dev/ttyUSB0").
		BaudRate(57600).
		Parity(serial.EvenParity).
		DataBits(7).
		Timeout(500 * time.Millisecond).
		Open()

SetMode changes all the settings of an open port at once. The mode is
validated before anything is applied, so a refused mode leaves the port as
it was. GetMode reads back what the driver actually uses.

Port is an io.ReadWriteCloser. Read waits up to the read timeout for the
first byte and returns what is available; when nothing arrives in time it
fails with a PortError whose Timeout method returns true:

	buf := make([]byte, 128)
	n, err := port.Read(buf)
	if serial.IsTimeout(err) {
		// nothing received
	}

Errors carry a PortErrorCode, a portable ErrorKind (see KindOf) and, when
the operating system produced them, the native error code (see NativeCode).

On unix systems OpenPair returns the two ends of a pseudo terminal, a
loopback that needs no hardware.

The package uses no cgo and cross compiles to all the supported systems.
*/
package serial
