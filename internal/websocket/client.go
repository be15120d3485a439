package websocket

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/johndosdos/chatrooms/internal/auth"
)

// State is the lifecycle stage of a connection.
type State int32

const (
	StateConnected State = iota
	StateActive
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateActive:
		return "active"
	default:
		return "disconnected"
	}
}

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

// Client is one websocket connection bound to an authenticated session.
type Client struct {
	ID      uuid.UUID
	Session auth.Session
	Hub     *Hub

	conn         *websocket.Conn
	send         chan []byte
	state        atomic.Int32
	pingInterval time.Duration
}

// NewClient wraps conn. readLimit caps inbound frame size; zero keeps the
// library default. pingInterval zero disables keepalive pings.
func NewClient(conn *websocket.Conn, s auth.Session, readLimit int64, pingInterval time.Duration) *Client {
	if conn != nil && readLimit > 0 {
		conn.SetReadLimit(readLimit)
	}
	return &Client{
		ID:           uuid.New(),
		Session:      s,
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		pingInterval: pingInterval,
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

// activate moves a Connected client to Active. Disconnected stays terminal.
func (c *Client) activate() {
	c.state.CompareAndSwap(int32(StateConnected), int32(StateActive))
}

func (c *Client) disconnect() {
	c.state.Store(int32(StateDisconnected))
}

// ReadMessage reads the incoming data from the websocket stream and
// dispatches each frame in arrival order.
func (c *Client) ReadMessage(ctx context.Context) {
	defer func() {
		c.disconnect()
		c.Hub.unregister(c)
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				slog.WarnContext(ctx, "websocket read failed",
					"error", err,
					"user_id", c.Session.UserID)
			}
			return
		}

		// Only text frames carry events.
		if msgType != websocket.MessageText {
			continue
		}

		slog.DebugContext(ctx, "received frame",
			"user_id", c.Session.UserID,
			"bytes", len(p))

		c.Hub.Dispatch(ctx, c, p)
	}
}

// WriteMessage drains the send buffer onto the websocket stream and keeps
// the connection alive with pings.
func (c *Client) WriteMessage(ctx context.Context) {
	var ping <-chan time.Time
	if c.pingInterval > 0 {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case frame, ok := <-c.send:
			// The hub closed our buffer; nothing more will arrive.
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				slog.WarnContext(ctx, "failed to write frame",
					"error", err,
					"user_id", c.Session.UserID,
					"username", c.Session.Username)
				c.conn.CloseNow()
				return
			}

		case <-ping:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.InfoContext(ctx, "ping failed, closing connection",
					"error", err,
					"user_id", c.Session.UserID)
				c.conn.CloseNow()
				return
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "context cancelled")
			return
		}
	}
}
