//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirhcel/go-serial"
	"github.com/stretchr/testify/require"
)

// fakePort implements the parts of serial.Port used by the monitor keys
type fakePort struct {
	serial.Port
	rts, dtr []bool
	setErr   error
}

func (p *fakePort) Name() string { return "/dev/ttyFAKE0" }

func (p *fakePort) SetRTS(rts bool) error {
	if p.setErr != nil {
		return p.setErr
	}
	p.rts = append(p.rts, rts)
	return nil
}

func (p *fakePort) SetDTR(dtr bool) error {
	if p.setErr != nil {
		return p.setErr
	}
	p.dtr = append(p.dtr, dtr)
	return nil
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestMonitor(port serial.Port) *Monitor {
	m := NewMonitor(port, &serial.Mode{BaudRate: 115200})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestMonitorReceivesData(t *testing.T) {
	m := newTestMonitor(&fakePort{})
	require.True(t, m.ready)
	require.Contains(t, m.View(), "/dev/ttyFAKE0")
	require.Contains(t, m.View(), "115200 8N1")

	_, cmd := m.Update(dataMsg("hello\x01\r\n"))
	require.NotNil(t, cmd, "reading continues")
	require.Equal(t, 8, m.received)
	require.Equal(t, "hello··\n", m.content())
	require.Contains(t, m.View(), "RX 8 bytes")

	_, cmd = m.Update(dataMsg(nil))
	require.NotNil(t, cmd, "a read timeout keeps reading")
	require.Equal(t, 8, m.received)
}

func TestMonitorHexAndClear(t *testing.T) {
	m := newTestMonitor(&fakePort{})
	m.Update(dataMsg("hello"))

	m.Update(keyPress("h"))
	require.True(t, m.hexView)
	require.Contains(t, m.content(), "68 65 6c 6c 6f")
	require.Contains(t, m.content(), "|hello|")

	m.Update(keyPress("c"))
	require.Empty(t, m.data)
	require.Equal(t, "", m.content())
	require.Equal(t, 5, m.received, "the counter is not reset")
}

func TestMonitorBufferLimit(t *testing.T) {
	m := newTestMonitor(&fakePort{})
	m.Update(dataMsg(bytes.Repeat([]byte{'a'}, maxBuffered)))
	m.Update(dataMsg("tail"))
	require.Len(t, m.data, maxBuffered)
	require.True(t, strings.HasSuffix(string(m.data), "tail"))
	require.Equal(t, maxBuffered+4, m.received)
}

func TestMonitorControlLines(t *testing.T) {
	port := &fakePort{}
	m := newTestMonitor(port)

	m.Update(keyPress("r"))
	m.Update(keyPress("d"))
	m.Update(keyPress("r"))
	require.Equal(t, []bool{false, true}, port.rts)
	require.Equal(t, []bool{false}, port.dtr)
	require.True(t, m.rts)
	require.False(t, m.dtr)

	port.setErr = errors.New("line not supported")
	m.Update(keyPress("d"))
	require.False(t, m.dtr)
	require.Contains(t, m.View(), "line not supported")
}

func TestMonitorStatusLines(t *testing.T) {
	m := newTestMonitor(&fakePort{})
	require.NotContains(t, m.View(), "CTS")

	_, cmd := m.Update(statusMsg{bits: &serial.ModemStatusBits{CTS: true, DCD: true}})
	require.NotNil(t, cmd, "polling continues")
	view := m.View()
	require.Contains(t, view, "CTS ●")
	require.Contains(t, view, "DSR ○")
	require.Contains(t, view, "DCD ●")

	m.Update(statusMsg{err: errors.New("no modem lines")})
	require.Nil(t, m.status)
	require.NotContains(t, m.View(), "CTS")
}

func TestMonitorReadError(t *testing.T) {
	m := newTestMonitor(&fakePort{})
	_, cmd := m.Update(errMsg{errors.New("device disconnected")})
	require.Nil(t, cmd, "reading stops")
	require.Contains(t, m.View(), "device disconnected")
}

func TestMonitorQuit(t *testing.T) {
	m := newTestMonitor(&fakePort{})
	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestMonitorNotReady(t *testing.T) {
	m := NewMonitor(&fakePort{}, nil)
	m.Update(dataMsg("early"))
	require.Equal(t, "Initializing...", m.View())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	require.Contains(t, m.View(), "early")
}
