//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"
	"github.com/sirhcel/go-serial/enumerator"
)

const (
	columnKeyIndex   = "index"
	columnKeyName    = "name"
	columnKeyType    = "type"
	columnKeyIDs     = "ids"
	columnKeySerial  = "serial"
	columnKeyProduct = "product"
)

type pickerModel struct {
	table    table.Model
	ports    []*enumerator.PortDetails
	keys     pickerKeys
	help     help.Model
	selected *enumerator.PortDetails
}

func newPickerModel(ports []*enumerator.PortDetails) pickerModel {
	columns := []table.Column{
		table.NewColumn(columnKeyName, "Port", 24),
		table.NewColumn(columnKeyType, "Type", 10),
		table.NewColumn(columnKeyIDs, "VID:PID", 10),
		table.NewColumn(columnKeySerial, "Serial", 20),
		table.NewColumn(columnKeyProduct, "Product", 30),
	}
	rows := make([]table.Row, 0, len(ports))
	for i, port := range ports {
		ids := ""
		if port.IsUSB {
			ids = fmt.Sprintf("%s:%s", port.VID, port.PID)
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyIndex:   i,
			columnKeyName:    port.Name,
			columnKeyType:    port.Type.String(),
			columnKeyIDs:     ids,
			columnKeySerial:  port.SerialNumber,
			columnKeyProduct: port.Product,
		}))
	}

	return pickerModel{
		table: table.New(columns).
			WithRows(rows).
			HeaderStyle(tableHeaderStyle).
			HighlightStyle(tableHighlightStyle).
			WithBaseStyle(tableBaseStyle).
			Focused(true),
		ports: ports,
		keys:  newPickerKeys(),
		help:  help.New(),
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.selected = nil
			return m, tea.Quit
		case key.Matches(msg, m.keys.Select):
			if i, ok := m.table.HighlightedRow().Data[columnKeyIndex].(int); ok && i < len(m.ports) {
				m.selected = m.ports[i]
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return titleStyle.Render("Select a serial port") + "\n\n" +
		m.table.View() + "\n" +
		m.help.View(m.keys) + "\n"
}

// PickPort shows the ports in a table and returns the one chosen by the
// user, or nil if the selection was cancelled.
func PickPort(ports []*enumerator.PortDetails) (*enumerator.PortDetails, error) {
	if len(ports) == 0 {
		return nil, errors.New("no serial ports found")
	}
	final, err := tea.NewProgram(newPickerModel(ports)).Run()
	if err != nil {
		return nil, err
	}
	return final.(pickerModel).selected, nil
}
