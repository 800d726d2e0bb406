//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial_test

import (
	"fmt"
	"log"
	"time"

	"github.com/sirhcel/go-serial"
	"github.com/sirhcel/go-serial/enumerator"
)

func Example_listPorts() {
	ports, err := enumerator.GetPortsList()
	if err != nil {
		log.Fatal(err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found!")
	} else {
		for _, port := range ports {
			fmt.Printf("Found port: %v\n", port)
		}
	}
}

func ExamplePort_SetMode() {
	port, err := serial.Open("/dev/ttyACM0", &serial.Mode{})
	if err != nil {
		log.Fatal(err)
	}
	mode := &serial.Mode{
		BaudRate: 9600,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	if err := port.SetMode(mode); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Port set to 9600 N81")
}

func ExampleOpen() {
	ports, err := enumerator.GetPortsList()
	if err != nil {
		log.Fatal(err)
	}
	if len(ports) == 0 {
		log.Fatal("No serial ports found!")
	}

	mode := &serial.Mode{
		BaudRate: 9600,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Timeout:  time.Second,
	}
	port, err := serial.Open(ports[0], mode)
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	n, err := port.Write([]byte("10,20,30\n\r"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Sent %v bytes\n", n)

	buff := make([]byte, 100)
	for {
		// Reads up to 100 bytes
		n, err := port.Read(buff)
		if serial.IsTimeout(err) {
			fmt.Println("\nNo more data")
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%v", string(buff[:n]))
	}
}

func ExampleNew() {
	port, err := serial.New("/dev/ttyUSB0").
		BaudRate(115200).
		FlowControl(serial.HardwareFlowControl).
		Timeout(100 * time.Millisecond).
		InitialStatusBits(serial.ModemOutputBits{DTR: false, RTS: true}).
		Open()
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()
	fmt.Println("Opened", port.Name())
}

func ExamplePort_GetModemStatusBits() {
	port, err := serial.Open("/dev/ttyACM1", &serial.Mode{})
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	for count := 1; count <= 25; count++ {
		status, err := port.GetModemStatusBits()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Status: %+v\n", status)

		time.Sleep(time.Second)
		switch count {
		case 5:
			err = port.SetDTR(false)
		case 10:
			err = port.SetDTR(true)
		case 15:
			err = port.SetRTS(false)
		case 20:
			err = port.SetRTS(true)
		}
		if err != nil {
			log.Fatal(err)
		}
	}
}

func ExampleModeFromString() {
	mode := &serial.Mode{BaudRate: 19200}
	if err := serial.ModeFromString("7E2", mode); err != nil {
		log.Fatal(err)
	}
	fmt.Println(mode)
	// Output: 19200 7E2
}
