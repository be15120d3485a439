package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johndosdos/chatrooms/internal"
	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/claim"
	"github.com/johndosdos/chatrooms/internal/metrics"
	ratelimiter "github.com/johndosdos/chatrooms/internal/rate_limiter"
	"github.com/johndosdos/chatrooms/internal/room"
	"github.com/johndosdos/chatrooms/internal/store"
	ws "github.com/johndosdos/chatrooms/internal/websocket"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Store         store.Store
	Hub           *ws.Hub
	Rooms         *room.Registry
	Claims        *claim.Book
	Issuer        auth.TokenIssuer
	IPLimiter     *ratelimiter.IPRateLimiter
	SecureCookies bool
	WS            WsOptions
}

// NewRouter wires every route of the chat server.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTP)

	authed := func(h http.Handler) http.Handler {
		return internal.Middleware(h, d.Store, d.Issuer)
	}

	r.Get("/healthz", ServeHealth(d.Store))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/account", func(r chi.Router) {
		r.With(d.IPLimiter.Middleware).Post("/login", SubmitLoginForm(d.Store, d.Issuer, d.SecureCookies))
		r.With(d.IPLimiter.Middleware).Post("/claim", SubmitClaimForm(d.Store, d.Claims))
		r.Post("/logout", SubmitLogoutReq())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authed)
		r.Get("/user", ServeUser())
		r.Get("/room", ServeRoom())
		r.Post("/room", SwitchRoom(d.Issuer, d.SecureCookies))
		r.Get("/rooms/public", ServePublicRooms(d.Rooms))
	})

	r.With(authed).Get("/ws", ServeWs(d.Hub, d.WS))

	r.Route("/admin", func(r chi.Router) {
		r.Use(authed, internal.RequireSuperuser)
		r.Get("/users", ServeUsers(d.Store))
		r.Post("/claim-codes", CreateClaimCode(d.Claims))
	})

	return r
}
