//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

const regexFilter = `^(tty|cua)([0-9]{2}|U[0-9]+)$`
