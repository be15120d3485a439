package internal

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/store"
)

// Middleware validates the client's JWT and puts the session into the
// request context. Username and role are always read from the user store.
func Middleware(next http.Handler, users store.UserStore, issuer auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		jwtCookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		userID, room, err := issuer.ValidateJWT(jwtCookie.Value)
		if err != nil {
			slog.DebugContext(ctx, "rejected session token", "error", err)
			auth.ClearSessionCookie(w)
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		user, err := users.GetUserByID(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			auth.ClearSessionCookie(w)
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		case err != nil:
			slog.ErrorContext(ctx, "failed to load session user",
				"error", err,
				"user_id", userID)
			http.Error(w, "Service unavailable.", http.StatusServiceUnavailable)
			return
		}

		r = r.WithContext(auth.WithSession(ctx, auth.Session{
			UserID:   user.UserID,
			Username: user.Username,
			Role:     user.Role,
			RoomCode: room,
		}))
		next.ServeHTTP(w, r)
	}
}

// RequireSuperuser rejects sessions that are not superusers. It must run
// after Middleware.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := auth.SessionFromContext(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}
		if !s.IsSuperuser() {
			slog.WarnContext(r.Context(), "superuser route denied",
				"user_id", s.UserID,
				"path", r.URL.Path)
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
