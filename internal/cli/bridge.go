//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/sirhcel/go-serial"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// broadcastQueue is the number of port reads buffered for the clients
const broadcastQueue = 100

func newBridgeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "bridge [<port>]",
		Short: "Share a serial port with websocket clients",
		Long: `Serve a serial port over websocket on the /ws path.

The data received from the port is sent to all the connected clients, text
frames for valid UTF-8 and binary frames otherwise. The messages of the
clients are written to the port.

Examples:
  serialport bridge /dev/ttyUSB0
  serialport bridge /dev/ttyUSB0 --listen 0.0.0.0:17800`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.portName(args)
			if err != nil {
				return err
			}
			port, err := a.open(name)
			if err != nil {
				return err
			}
			defer port.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b := newBridge(port, a.log)
			fmt.Fprintf(a.out, "%s Bridging %s on ws://%s/ws\n", infoStyle.Render("⚡"), name, listen)
			return b.run(ctx, listen)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "127.0.0.1:17800", "Address of the websocket server")
	return cmd
}

// bridge forwards the data of a serial port to websocket clients, and the
// messages of the clients to the port
type bridge struct {
	port     serial.Port
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool

	// serializes the writes of the clients to the port
	writeMu   sync.Mutex
	broadcast chan []byte
}

func newBridge(port serial.Port, log logrus.FieldLogger) *bridge {
	return &bridge{
		port: port,
		log:  log.WithField("port", port.Name()),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   map[*websocket.Conn]bool{},
		broadcast: make(chan []byte, broadcastQueue),
	}
}

func (b *bridge) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.serveWS)
	return mux
}

// run serves the clients until ctx is done or the port fails
func (b *bridge) run(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{Addr: addr, Handler: b.handler()}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	go b.broadcastWorker(ctx)

	pumpErr := make(chan error, 1)
	go func() {
		pumpErr <- b.pump(ctx)
	}()

	var err error
	select {
	case err = <-serveErr:
	case err = <-pumpErr:
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	server.Shutdown(shutdownCtx)
	b.closeClients()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// pump reads the port until ctx is done and queues the data for the clients
func (b *bridge) pump(ctx context.Context) error {
	_, err := copyFromPort(ctx, b.port, b)
	return err
}

// Write queues a copy of p for the clients. Data is dropped when the queue
// is full so that reading the port never blocks.
func (b *bridge) Write(p []byte) (int, error) {
	msg := make([]byte, len(p))
	copy(msg, p)
	select {
	case b.broadcast <- msg:
	default:
		b.log.WithField("bytes", len(p)).Warn("clients too slow, data dropped")
	}
	return len(p), nil
}

func (b *bridge) broadcastWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.broadcast:
			messageType := websocket.BinaryMessage
			if utf8.Valid(msg) {
				messageType = websocket.TextMessage
			}
			b.clientsMu.Lock()
			for c := range b.clients {
				if err := c.WriteMessage(messageType, msg); err != nil {
					b.log.WithError(err).WithField("client", c.RemoteAddr().String()).Debug("dropping client")
					delete(b.clients, c)
					c.Close()
				}
			}
			b.clientsMu.Unlock()
		}
	}
}

func (b *bridge) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	log := b.log.WithField("client", c.RemoteAddr().String())
	b.clientsMu.Lock()
	b.clients[c] = true
	b.clientsMu.Unlock()
	log.Info("client connected")

	go func() {
		defer b.removeClient(c)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				log.WithError(err).Info("client disconnected")
				return
			}
			if err := b.writePort(msg); err != nil {
				log.WithError(err).Error("writing to the port")
				return
			}
		}
	}()
}

func (b *bridge) writePort(data []byte) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return writeFull(b.port, data)
}

func (b *bridge) removeClient(c *websocket.Conn) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	if b.clients[c] {
		delete(b.clients, c)
		c.Close()
	}
}

func (b *bridge) clientCount() int {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	return len(b.clients)
}

func (b *bridge) closeClients() {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	for c := range b.clients {
		c.Close()
		delete(b.clients, c)
	}
}
