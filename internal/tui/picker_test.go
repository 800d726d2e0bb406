//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirhcel/go-serial/enumerator"
	"github.com/stretchr/testify/require"
)

func pickerPorts() []*enumerator.PortDetails {
	return []*enumerator.PortDetails{
		{Name: "/dev/ttyACM0", Type: enumerator.USBPort, IsUSB: true, VID: "2341", PID: "0043", Product: "Arduino Uno"},
		{Name: "/dev/ttyS4", Type: enumerator.PCIPort},
	}
}

func pick(t *testing.T, keys ...tea.KeyMsg) *enumerator.PortDetails {
	t.Helper()
	var m tea.Model = newPickerModel(pickerPorts())
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(k)
	}
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
	return m.(pickerModel).selected
}

func TestPickerView(t *testing.T) {
	view := newPickerModel(pickerPorts()).View()
	require.Contains(t, view, "Select a serial port")
	require.Contains(t, view, "/dev/ttyACM0")
	require.Contains(t, view, "2341:0043")
	require.Contains(t, view, "/dev/ttyS4")
	require.Contains(t, view, "enter")
}

func TestPickerSelect(t *testing.T) {
	selected := pick(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, selected)
	require.Equal(t, "/dev/ttyACM0", selected.Name)

	selected = pick(t, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, selected)
	require.Equal(t, "/dev/ttyS4", selected.Name)
}

func TestPickerCancel(t *testing.T) {
	require.Nil(t, pick(t, tea.KeyMsg{Type: tea.KeyEsc}))
	require.Nil(t, pick(t, tea.KeyMsg{Type: tea.KeyDown}, keyPress("q")))
}

func TestPickPortWithoutPorts(t *testing.T) {
	_, err := PickPort(nil)
	require.EqualError(t, err, "no serial ports found")
}
