package websocket

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/johndosdos/chatrooms/internal/format"
	"github.com/johndosdos/chatrooms/internal/metrics"
	ratelimiter "github.com/johndosdos/chatrooms/internal/rate_limiter"
	"github.com/johndosdos/chatrooms/internal/room"
	"github.com/johndosdos/chatrooms/internal/store"
)

var errHubStopped = errors.New("internal/websocket: hub stopped")

type sanitizer interface {
	Sanitize(s string) string
}

type Registration struct {
	Client *Client
	Done   chan struct{}
}

// delivery is a frame waiting for the Run loop. A nil target means every
// connected client.
type delivery struct {
	to    *Client
	frame []byte
}

// Options tune a Hub. Zero values select the defaults.
type Options struct {
	Location         *time.Location
	MaxMessageLength int
	StoreTimeout     time.Duration
	Now              func() time.Time
}

// Hub owns the set of live connections and fans events out to them.
type Hub struct {
	store     store.MessageStore
	formatter *format.Formatter
	limiter   *ratelimiter.AuthorLimiter
	rooms     *room.Registry
	sanitizer sanitizer

	loc          *time.Location
	maxLen       int
	storeTimeout time.Duration
	now          func() time.Time

	clients    map[uuid.UUID]*Client
	Register   chan Registration
	Unregister chan *Client
	outbound   chan delivery
	done       chan struct{}
}

// NewHub returns a new instance of Hub.
func NewHub(s store.MessageStore, f *format.Formatter, l *ratelimiter.AuthorLimiter, rooms *room.Registry, opts Options) *Hub {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 2000
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Hub{
		store:        s,
		formatter:    f,
		limiter:      l,
		rooms:        rooms,
		sanitizer:    bluemonday.StrictPolicy(),
		loc:          opts.Location,
		maxLen:       opts.MaxMessageLength,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
		clients:      make(map[uuid.UUID]*Client),
		Register:     make(chan Registration),
		Unregister:   make(chan *Client),
		outbound:     make(chan delivery, 1024),
		done:         make(chan struct{}),
	}
}

// Run manages incoming and outgoing hub traffic. It is the only goroutine
// that touches the client set or writes into client buffers.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case reg := <-h.Register:
			client := reg.Client
			h.clients[client.ID] = client
			client.Hub = h
			metrics.Connections.Set(float64(len(h.clients)))
			close(reg.Done)

		case client := <-h.Unregister:
			h.remove(client)

		case d := <-h.outbound:
			if d.to != nil {
				if _, ok := h.clients[d.to.ID]; ok {
					h.deliver(d.to, d.frame)
				}
				continue
			}
			for _, client := range h.clients {
				h.deliver(client, d.frame)
			}

		case <-ctx.Done():
			log.Printf("hub stopping: %v", ctx.Err())
			for _, client := range h.clients {
				h.remove(client)
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.send)
	metrics.Connections.Set(float64(len(h.clients)))
}

func (h *Hub) deliver(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		metrics.DroppedFrames.Inc()
		slog.Warn("skipping frame - channel full or client slow",
			"client_id", client.ID.String(),
			"user_id", client.Session.UserID)
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) enqueue(ctx context.Context, d delivery) error {
	select {
	case h.outbound <- d:
		return nil
	case <-h.done:
		return errHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) broadcast(ctx context.Context, event string, data any) error {
	frame, err := encode(event, data)
	if err != nil {
		return err
	}
	return h.enqueue(ctx, delivery{frame: frame})
}

func (h *Hub) unicast(ctx context.Context, c *Client, event string, data any) error {
	frame, err := encode(event, data)
	if err != nil {
		return err
	}
	return h.enqueue(ctx, delivery{to: c, frame: frame})
}

// Join blocks until the Run loop has added c.
func (h *Hub) Join(ctx context.Context, c *Client) error {
	reg := Registration{Client: c, Done: make(chan struct{})}
	select {
	case h.Register <- reg:
	case <-h.done:
		return errHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-reg.Done
	return nil
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}
