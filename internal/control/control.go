// Package control implements the bidirectional control-plane channel: a
// PAIR-protocol socket over go.nanomsg.org/mangos/v3 carrying DesiredConfig
// documents in and PsdResult documents out.
package control

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pair"
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

const recvDeadline = 1 * time.Second
const reconnectTime = 100 * time.Millisecond
const maxReconnectTime = 1 * time.Second

// Channel is the PAIR socket wrapper used by the engine for both directions
// of the control protocol.
type Channel struct {
	sock    mangos.Socket
	running atomic.Bool
	done    chan struct{}
	logger  *log.Logger
}

// Start dials or listens on endpoint (an ipc:// or tcp:// URI) and launches
// a listener goroutine that delivers every received message to onMessage.
// The listener polls Recv with a bounded deadline so Close can join it
// without blocking. logger may be nil, in which case transient recv errors
// go unlogged.
func Start(endpoint string, onMessage func([]byte), logger *log.Logger) (*Channel, error) {
	sock, err := pair.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("control: creating socket: %w", err)
	}

	if err := sock.SetOption(mangos.OptionRecvDeadline, recvDeadline); err != nil {
		sock.Close()
		return nil, fmt.Errorf("control: setting recv deadline: %w", err)
	}
	if err := sock.SetOption(mangos.OptionReconnectTime, reconnectTime); err != nil {
		sock.Close()
		return nil, fmt.Errorf("control: setting reconnect time: %w", err)
	}
	if err := sock.SetOption(mangos.OptionMaxReconnectTime, maxReconnectTime); err != nil {
		sock.Close()
		return nil, fmt.Errorf("control: setting max reconnect time: %w", err)
	}
	if err := sock.SetOption(mangos.OptionLinger, time.Duration(0)); err != nil {
		sock.Close()
		return nil, fmt.Errorf("control: setting linger: %w", err)
	}

	if err := sock.Dial(endpoint); err != nil {
		if err := sock.Listen(endpoint); err != nil {
			sock.Close()
			return nil, fmt.Errorf("control: binding %s: %w", endpoint, err)
		}
	}

	c := &Channel{sock: sock, done: make(chan struct{}), logger: logger}
	c.running.Store(true)

	go c.listen(onMessage)

	return c, nil
}

func (c *Channel) listen(onMessage func([]byte)) {
	defer close(c.done)
	for c.running.Load() {
		msg, err := c.sock.Recv()
		if err != nil {
			if !errors.Is(err, mangos.ErrRecvTimeout) && c.logger != nil {
				c.logger.Warn("control recv error", "err", err)
			}
			continue // deadline expiry or transient error; poll again
		}
		onMessage(msg)
	}
}

// Send transmits payload with a non-blocking policy: if the socket buffer
// is full the send fails silently from the caller's perspective, since the
// DSP loop must never block on a slow or absent controller.
func (c *Channel) Send(payload []byte) error {
	if err := c.sock.SetOption(mangos.OptionSendDeadline, time.Duration(0)); err != nil {
		return fmt.Errorf("control: setting send deadline: %w", err)
	}
	if err := c.sock.Send(payload); err != nil {
		return fmt.Errorf("control: send: %w", err)
	}
	return nil
}

// Close flips the running flag, joins the listener goroutine and closes
// the socket.
func (c *Channel) Close() error {
	c.running.Store(false)
	<-c.done
	return c.sock.Close()
}
