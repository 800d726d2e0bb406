//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
	"github.com/sirhcel/go-serial"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func openTestPair(t *testing.T) (tx, rx serial.Port) {
	t.Helper()
	tx, rx, err := openPair(&serial.Mode{BaudRate: 115200, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() {
		tx.Close()
		rx.Close()
	})
	return tx, rx
}

func TestRunLoopback(t *testing.T) {
	for _, size := range []int{1, 4096, 64 * 1024} {
		tx, rx := openTestPair(t)
		res, err := runLoopback(tx, rx, size, 10*time.Second)
		require.NoError(t, err, size)
		require.True(t, res.ok(), "%d: %s", size, res)
		require.Equal(t, size, res.Received)
	}
}

func TestLoopbackCommandOnPty(t *testing.T) {
	out, err := execute(t, "loopback", "--pty", "--size", "2048")
	require.NoError(t, err)
	require.Contains(t, out, "2048 bytes looped back")

	_, err = execute(t, "loopback", "--pty", "--size", "0")
	require.Error(t, err)
}

func TestCopyFromPort(t *testing.T) {
	tx, rx := openTestPair(t)
	require.NoError(t, writeFull(tx, []byte("hello world")))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	var out bytes.Buffer
	n, err := copyFromPort(ctx, rx, &out)
	require.NoError(t, err)
	require.Equal(t, int64(11), n)
	require.Equal(t, "hello world", out.String())
}

// countingPort counts the calls to Read
type countingPort struct {
	serial.Port
	reads int
}

func (p *countingPort) Read(buf []byte) (int, error) {
	p.reads++
	return p.Port.Read(buf)
}

func TestCopyFromPortWithZeroTimeout(t *testing.T) {
	tx, rx, err := openPair(&serial.Mode{BaudRate: 115200})
	require.NoError(t, err)
	defer tx.Close()
	defer rx.Close()
	mode, err := rx.GetMode()
	require.NoError(t, err)
	require.Zero(t, mode.Timeout)
	require.NoError(t, writeFull(tx, []byte("ok")))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	port := &countingPort{Port: rx}
	var out bytes.Buffer
	_, err = copyFromPort(ctx, port, &out)
	require.NoError(t, err)
	require.Equal(t, "ok", out.String())
	// reads wait for data instead of polling
	require.Less(t, port.reads, 20)
}

func TestBridge(t *testing.T) {
	tx, rx := openTestPair(t)
	log, _ := test.NewNullLogger()
	b := newBridge(rx, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.broadcastWorker(ctx)
	go b.pump(ctx)

	server := httptest.NewServer(b.handler())
	defer server.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return b.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// port to client
	require.NoError(t, writeFull(tx, []byte("temperature=21.5")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var received []byte
	for len(received) < len("temperature=21.5") {
		messageType, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, messageType)
		received = append(received, msg...)
	}
	require.Equal(t, "temperature=21.5", string(received))

	// client to port
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("reset")))
	buf := make([]byte, 5)
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < len(buf) && time.Now().Before(deadline) {
		n, err := tx.Read(buf[got:])
		if err != nil && !serial.IsTimeout(err) {
			require.NoError(t, err)
		}
		got += n
	}
	require.Equal(t, "reset", string(buf[:got]))

	conn.Close()
	require.Eventually(t, func() bool { return b.clientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSendAndListenCommands(t *testing.T) {
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	defer ptmx.Close()
	defer tty.Close()

	out, err := execute(t, "send", tty.Name(), "68656c6c6f", "--hex")
	require.NoError(t, err)
	require.Contains(t, out, "Sent 5 bytes")
	buf := make([]byte, 5)
	_, err = io.ReadFull(ptmx, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))

	go func() {
		time.Sleep(200 * time.Millisecond)
		ptmx.Write([]byte("ping"))
	}()
	out, err = execute(t, "listen", tty.Name(), "--duration", "1s")
	require.NoError(t, err)
	require.Equal(t, "ping", out)
}
