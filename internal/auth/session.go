package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/johndosdos/chatrooms/internal/model"
)

type ContextKey string

const SessionKey ContextKey = "session"

// CookieName is the name of the cookie carrying the session token.
const CookieName = "jwt"

// Session is the authenticated identity of a request. The role always comes
// from the user store.
type Session struct {
	UserID   int64
	Username string
	Role     model.Role
	RoomCode string
}

func (s Session) IsSuperuser() bool {
	return s.Role == model.Superuser
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

func SessionFromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(SessionKey).(Session)
	if !ok {
		return Session{}, errors.New("internal/auth: no session in context")
	}
	if s.UserID == 0 {
		return Session{}, errors.New("internal/auth: empty session")
	}
	return s, nil
}

// SetSessionCookie stores token in the session cookie for ttl.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
