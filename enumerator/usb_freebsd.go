//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

// USB (cuaU), on-board (cuau) and digi (cuad) callout devices. The .init
// and .lock control nodes are not ports.
const regexFilter = `^cua[Uud][0-9]+(\.[0-9]+)?$`
