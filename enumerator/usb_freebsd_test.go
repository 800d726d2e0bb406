//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListDevFolder(t *testing.T) {
	folder := t.TempDir()
	for _, name := range []string{"cuaU0", "cuaU0.init", "cuaU0.lock", "cuau1", "cuad2", "cuaU1.3", "ttyu0", "null"} {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(folder, "cuaU9"), 0o755))

	ports, err := listDevFolder(folder)
	require.NoError(t, err)
	var names []string
	for _, port := range normalize(ports) {
		require.Equal(t, UnknownPort, port.Type)
		names = append(names, filepath.Base(port.Name))
	}
	require.Equal(t, []string{"cuaU0", "cuaU1.3", "cuad2", "cuau1"}, names)

	_, err = listDevFolder(filepath.Join(folder, "missing"))
	var enumErr *PortEnumerationError
	require.ErrorAs(t, err, &enumErr)
}
