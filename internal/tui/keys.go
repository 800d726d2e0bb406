//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package tui

import "github.com/charmbracelet/bubbles/key"

type monitorKeys struct {
	Quit      key.Binding
	Help      key.Binding
	Clear     key.Binding
	ToggleHex key.Binding
	ToggleRTS key.Binding
	ToggleDTR key.Binding
	Break     key.Binding
}

func newMonitorKeys() monitorKeys {
	return monitorKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear buffer"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hex"),
		),
		ToggleRTS: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle RTS"),
		),
		ToggleDTR: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle DTR"),
		),
		Break: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "send break"),
		),
	}
}

func (k monitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ToggleHex, k.Clear, k.Quit}
}

func (k monitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleHex, k.Clear},
		{k.ToggleRTS, k.ToggleDTR, k.Break},
		{k.Help, k.Quit},
	}
}

type pickerKeys struct {
	Select key.Binding
	Cancel key.Binding
}

func newPickerKeys() pickerKeys {
	return pickerKeys{
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "cancel"),
		),
	}
}

func (k pickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Cancel}
}

func (k pickerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
