//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package tui contains the interactive terminal screens of the serialport
// tool: the port picker and the monitor.
package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha palette
var (
	colorSurface0 = lipgloss.Color("#313244")
	colorSurface1 = lipgloss.Color("#45475a")
	colorOverlay0 = lipgloss.Color("#6c7086")
	colorText     = lipgloss.Color("#cdd6f4")
	colorGreen    = lipgloss.Color("#a6e3a1")
	colorRed      = lipgloss.Color("#f38ba8")
	colorMauve    = lipgloss.Color("#cba6f7")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve).
			Background(colorSurface0).
			Padding(0, 1)

	settingsStyle = lipgloss.NewStyle().
			Foreground(colorOverlay0).
			Padding(0, 1)

	contentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colorSurface1)

	lineHighStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	lineLowStyle  = lipgloss.NewStyle().Foreground(colorOverlay0)
	counterStyle  = lipgloss.NewStyle().Foreground(colorText)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorRed)

	tableHeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorMauve)
	tableHighlightStyle = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface1)
	tableBaseStyle      = lipgloss.NewStyle().BorderForeground(colorSurface1).Align(lipgloss.Left)
)

// lineState renders a modem line as a filled or empty dot
func lineState(name string, state bool) string {
	if state {
		return lineHighStyle.Render(name + " ●")
	}
	return lineLowStyle.Render(name + " ○")
}
