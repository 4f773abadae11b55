package stream

// conn.go — persistent connection to the Exchange Stream API.
//
// Owns the full transport lifecycle: dial, authenticate, read, detect
// disconnects, reconnect after a fixed delay. All outbound protocol messages
// go through Send; no other component writes to the socket.

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected   State = "DISCONNECTED"
	StateConnecting     State = "CONNECTING"
	StateAuthenticating State = "AUTHENTICATING"
	StateSubscribed     State = "SUBSCRIBED"
)

// Handler receives decoded messages and connection-loss notifications.
// Both are called from the connection's read goroutine.
type Handler interface {
	// OnMessage delivers one decoded stream message, in arrival order.
	OnMessage(msg Message)

	// OnDisconnect reports that the connection died. Connection-scoped
	// state (authenticated, subscribed) must be re-established after the
	// next reconnect.
	OnDisconnect(err error)
}

// Dialer abre la conexión de transporte. Inyectable para tests.
type Dialer func(ctx context.Context) (net.Conn, error)

// TLSDialer returns the production dialer: TLS to the given host:port.
func TLSDialer(addr string) Dialer {
	return func(ctx context.Context) (net.Conn, error) {
		d := tls.Dialer{NetDialer: &net.Dialer{Timeout: 10 * time.Second}}
		return d.DialContext(ctx, "tcp", addr)
	}
}

// Config holds the connection parameters.
type Config struct {
	AppKey         string
	Session        string
	ReconnectDelay time.Duration
	Dial           Dialer
}

// Conn is the connection manager. Reconnects forever until the context ends.
type Conn struct {
	cfg     Config
	handler Handler

	mu    sync.Mutex
	conn  net.Conn
	state State
}

// New creates a connection manager. Run must be called to start it.
func New(cfg Config, h Handler) *Conn {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 20 * time.Second
	}
	return &Conn{cfg: cfg, handler: h, state: StateDisconnected}
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NoteSubscribed marks the state machine as fully subscribed. Called by the
// router once all subscription requests for this connection have been sent.
func (c *Conn) NoteSubscribed() {
	c.setState(StateSubscribed)
}

// Send marshals the message, appends the frame terminator and writes it to
// the active connection.
func (c *Conn) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stream.Send: marshal: %w", err)
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("stream.Send: not connected")
	}
	if _, err := conn.Write(append(b, crlf...)); err != nil {
		return fmt.Errorf("stream.Send: write: %w", err)
	}
	return nil
}

// Run drives the connect/authenticate/read/reconnect loop until the context
// is cancelled. Connection errors are never fatal: every failure path ends in
// a reconnect after the configured delay.
func (c *Conn) Run(ctx context.Context) error {
	// Closing the active socket unblocks the read loop on cancellation.
	go func() {
		<-ctx.Done()
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.setState(StateDisconnected)
		c.handler.OnDisconnect(err)
		slog.Warn("stream disconnected, reconnecting",
			"err", err, "delay", c.cfg.ReconnectDelay)

		select {
		case <-time.After(c.cfg.ReconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runOnce handles a single connection: dial, authenticate, then read frames
// until the transport fails. The frame decoder is created fresh here, so a
// partial frame from a previous connection can never leak into this one.
func (c *Conn) runOnce(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, err := c.cfg.Dial(ctx)
	if err != nil {
		return fmt.Errorf("stream.runOnce: dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateAuthenticating
	c.mu.Unlock()

	defer func() {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	// Authentication is the first write on every connection, before any
	// subscription is attempted.
	auth := AuthMessage{Op: OpAuthentication, AppKey: c.cfg.AppKey, Session: c.cfg.Session}
	if err := c.Send(auth); err != nil {
		return fmt.Errorf("stream.runOnce: send auth: %w", err)
	}
	slog.Info("stream connected, authentication sent")

	decoder := newFrameDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, frame := range decoder.Feed(buf[:n]) {
				c.dispatch(frame)
			}
		}
		if err != nil {
			return fmt.Errorf("stream.runOnce: read: %w", err)
		}
	}
}

// dispatch parses one frame and hands it to the handler. A frame that fails
// to parse is logged and skipped; the stream keeps going.
func (c *Conn) dispatch(frame []byte) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		slog.Warn("stream: dropping malformed frame", "err", err, "len", len(frame))
		return
	}
	c.handler.OnMessage(msg)
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
