package handler

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/johndosdos/chatrooms/internal/auth"
	ws "github.com/johndosdos/chatrooms/internal/websocket"
)

// WsOptions configure accepted websocket connections.
type WsOptions struct {
	// OriginPatterns lists extra origins allowed besides the request host.
	OriginPatterns []string
	ReadLimit      int64
	PingInterval   time.Duration
}

// ServeWs handles the client's websocket connection upgrade.
func ServeWs(h *ws.Hub, opts WsOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		s, err := auth.SessionFromContext(ctx)
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Printf("failed to accept websocket: %v", err)
			return
		}

		slog.InfoContext(ctx, "upgraded connection",
			"username", s.Username,
			"room_code", s.RoomCode)

		// We'll register our new client to the central hub.
		c := ws.NewClient(conn, s, opts.ReadLimit, opts.PingInterval)
		if err := h.Join(ctx, c); err != nil {
			conn.Close(websocket.StatusTryAgainLater, "server shutting down")
			return
		}

		// We block on c.ReadMessage() because the request context will be
		// canceled as soon we return from the ServeWs() handler.
		go c.WriteMessage(ctx)
		c.ReadMessage(ctx)
	}
}
