//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build freebsd || netbsd || openbsd

package enumerator

import (
	"os"
	"path/filepath"
	"regexp"
)

const devFolder = "/dev"

var portNameFilter = regexp.MustCompile(regexFilter)

// nativeGetDetailedPortsList lists the callout devices. The BSDs expose no
// bus metadata without libusb, so every port is of unknown type.
func nativeGetDetailedPortsList() ([]*PortDetails, error) {
	return listDevFolder(devFolder)
}

func listDevFolder(folder string) ([]*PortDetails, error) {
	files, err := os.ReadDir(folder)
	if err != nil {
		return nil, &PortEnumerationError{causedBy: err}
	}

	var ports []*PortDetails
	for _, f := range files {
		// Skip folders
		if f.IsDir() {
			continue
		}
		// Keep only devices with the correct name
		if !portNameFilter.MatchString(f.Name()) {
			continue
		}
		ports = append(ports, &PortDetails{Name: filepath.Join(folder, f.Name())})
	}
	return ports, nil
}
