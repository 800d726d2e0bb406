//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import "errors"

func nativeGetDetailedPortsList() ([]*PortDetails, error) {
	return nil, &PortEnumerationError{causedBy: errors.New("serial ports enumeration is not available on wasm")}
}
