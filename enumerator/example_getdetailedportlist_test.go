//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator_test

import (
	"fmt"
	"log"

	"github.com/sirhcel/go-serial/enumerator"
)

func ExampleGetDetailedPortsList() {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Fatal(err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found!")
		return
	}
	for _, port := range ports {
		fmt.Printf("Found port: %s (%s)\n", port.Name, port.Type)
		if port.IsUSB {
			fmt.Printf("   USB ID     %s:%s\n", port.VID, port.PID)
			fmt.Printf("   USB serial %s\n", port.SerialNumber)
			if port.Interface != nil {
				fmt.Printf("   Interface  %d\n", *port.Interface)
			}
		}
	}
}
