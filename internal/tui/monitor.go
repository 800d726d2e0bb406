//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package tui

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirhcel/go-serial"
)

const (
	// maxBuffered bytes kept on screen, older data is dropped
	maxBuffered     = 64 * 1024
	readBufferSize  = 4096
	monitorReadWait = 100 * time.Millisecond
	statusPollEvery = 500 * time.Millisecond
	breakDuration   = 250 * time.Millisecond
)

type (
	dataMsg   []byte
	errMsg    struct{ err error }
	statusMsg struct {
		bits *serial.ModemStatusBits
		err  error
	}
)

// Monitor is the model of the monitor screen: the data received from the
// port and the state of its modem lines.
type Monitor struct {
	port     serial.Port
	settings string

	viewport      viewport.Model
	help          help.Model
	keys          monitorKeys
	ready         bool
	width, height int

	data     []byte
	received int
	hexView  bool

	status   *serial.ModemStatusBits
	rts, dtr bool
	err      error
}

// NewMonitor builds the monitor of an open port. RTS and DTR are assumed
// asserted, as most drivers do on open.
func NewMonitor(port serial.Port, mode *serial.Mode) *Monitor {
	settings := ""
	if mode != nil {
		settings = mode.String()
	}
	return &Monitor{
		port:     port,
		settings: settings,
		help:     help.New(),
		keys:     newMonitorKeys(),
		rts:      true,
		dtr:      true,
	}
}

// RunMonitor runs the monitor screen until the user quits. The read timeout
// of the port is shortened so that reads return periodically.
func RunMonitor(port serial.Port, mode *serial.Mode) error {
	if err := port.SetReadTimeout(monitorReadWait); err != nil {
		return err
	}
	_, err := tea.NewProgram(NewMonitor(port, mode), tea.WithAltScreen()).Run()
	return err
}

func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(m.read(), m.pollStatus(0))
}

func (m *Monitor) read() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		buf := make([]byte, readBufferSize)
		n, err := port.Read(buf)
		if err != nil && !serial.IsTimeout(err) {
			return errMsg{err}
		}
		return dataMsg(buf[:n])
	}
}

func (m *Monitor) pollStatus(after time.Duration) tea.Cmd {
	port := m.port
	poll := func(time.Time) tea.Msg {
		bits, err := port.GetModemStatusBits()
		return statusMsg{bits: bits, err: err}
	}
	if after == 0 {
		return func() tea.Msg { return poll(time.Now()) }
	}
	return tea.Tick(after, poll)
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case dataMsg:
		if len(msg) > 0 {
			m.append(msg)
		}
		return m, m.read()

	case errMsg:
		m.err = msg.err
		return m, nil

	case statusMsg:
		if msg.err != nil {
			// pseudo terminals and some adapters have no modem lines
			m.status = nil
		} else {
			m.status = msg.bits
		}
		return m, m.pollStatus(statusPollEvery)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Monitor) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
	case key.Matches(msg, m.keys.Clear):
		m.data = m.data[:0]
		m.refresh()
	case key.Matches(msg, m.keys.ToggleHex):
		m.hexView = !m.hexView
		m.refresh()
	case key.Matches(msg, m.keys.ToggleRTS):
		if err := m.port.SetRTS(!m.rts); err != nil {
			m.err = err
		} else {
			m.rts = !m.rts
		}
	case key.Matches(msg, m.keys.ToggleDTR):
		if err := m.port.SetDTR(!m.dtr); err != nil {
			m.err = err
		} else {
			m.dtr = !m.dtr
		}
	case key.Matches(msg, m.keys.Break):
		port := m.port
		return func() tea.Msg {
			if err := port.Break(breakDuration); err != nil {
				return errMsg{err}
			}
			return nil
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Monitor) append(data []byte) {
	m.received += len(data)
	m.data = append(m.data, data...)
	if extra := len(m.data) - maxBuffered; extra > 0 {
		m.data = append(m.data[:0], m.data[extra:]...)
	}
	m.refresh()
}

func (m *Monitor) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.content())
	m.viewport.GotoBottom()
}

// content renders the received data, as text with the control characters
// masked or as a hex dump
func (m *Monitor) content() string {
	if m.hexView {
		return hex.Dump(m.data)
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return '·'
		}
		return r
	}, string(m.data))
}

func (m *Monitor) resize(width, height int) {
	m.width, m.height = width, height
	bodyHeight := height - lipgloss.Height(m.header()) - lipgloss.Height(m.footer()) - 2
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width, bodyHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = bodyHeight
	}
	m.help.Width = width
	m.refresh()
}

func (m *Monitor) header() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("serialport monitor "+m.port.Name()),
		settingsStyle.Render(m.settings),
	)
}

func (m *Monitor) footer() string {
	lines := []string{
		lineState("RTS", m.rts),
		lineState("DTR", m.dtr),
	}
	if m.status != nil {
		lines = append(lines,
			lineState("CTS", m.status.CTS),
			lineState("DSR", m.status.DSR),
			lineState("RI", m.status.RI),
			lineState("DCD", m.status.DCD),
		)
	}
	lines = append(lines, counterStyle.Render(fmt.Sprintf("RX %d bytes", m.received)))
	footer := strings.Join(lines, "  ")
	if m.err != nil {
		footer += "\n" + errorStyle.Render(m.err.Error())
	}
	return footer + "\n" + m.help.View(m.keys)
}

func (m *Monitor) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.header() + "\n" +
		contentBorderStyle.Width(m.viewport.Width).Render(m.viewport.View()) + "\n" +
		m.footer()
}
