package handler

import (
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/claim"
	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

var strict = bluemonday.StrictPolicy()

// roomFromForm returns the sanitized room code of the form, or GLOBAL.
func roomFromForm(r *http.Request) string {
	return model.NormalizeRoom(strict.Sanitize(strings.TrimSpace(r.PostFormValue("room_code"))))
}

type sessionResponse struct {
	User     model.UserView `json:"user"`
	RoomCode string         `json:"room_code"`
}

// SubmitLoginForm handles user login.
func SubmitLoginForm(users store.UserStore, issuer auth.TokenIssuer, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := r.ParseForm()
		if err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			log.Printf("failed to parse form values: %v", err)
			return
		}

		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		room := roomFromForm(r)

		user, err := auth.Authenticate(ctx, users, username, password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			http.Error(w, "Invalid username or password.", http.StatusUnauthorized)
			return
		case err != nil:
			http.Error(w, "Server error.", http.StatusInternalServerError)
			log.Printf("failed to authenticate user: %v", err)
			return
		}

		token, err := issuer.MakeJWT(user.UserID, room)
		if err != nil {
			http.Error(w, "Server error.", http.StatusInternalServerError)
			log.Printf("failed to make JWT: %v", err)
			return
		}
		auth.SetSessionCookie(w, token, issuer.ExpiresIn, secure)

		slog.InfoContext(ctx, "user logged in",
			slog.String("username", user.Username),
			slog.String("room_code", room))

		respondJSON(w, r, http.StatusOK, sessionResponse{User: user.View(), RoomCode: room})
	}
}

// SubmitLogoutReq clears the session cookie.
func SubmitLogoutReq() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.ClearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)

		slog.InfoContext(r.Context(), "user logged out")
	}
}

// SubmitClaimForm turns a claim code into a regular account with the
// chosen password.
func SubmitClaimForm(users store.UserStore, book *claim.Book) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := r.ParseForm()
		if err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			log.Printf("failed to parse form values: %v", err)
			return
		}

		code := r.PostFormValue("claim_code")
		password := r.PostFormValue("password")
		confirmPw := r.PostFormValue("confirm_password")

		if _, ok := book.Peek(code); !ok {
			http.Error(w, "Invalid claim code.", http.StatusBadRequest)
			return
		}

		// Validate password by comparing main and confirm.
		if password == "" || password != confirmPw {
			http.Error(w, "Passwords do not match!", http.StatusBadRequest)
			return
		}

		username, err := book.Redeem(code)
		if err != nil {
			http.Error(w, "Invalid claim code.", http.StatusBadRequest)
			return
		}

		user, err := auth.CreateUser(ctx, users, username, password, model.Regular)
		if err != nil {
			book.Restore(model.ClaimCode{Code: strings.TrimSpace(code), Username: username})
			if errors.Is(err, store.ErrDuplicateUser) {
				http.Error(w, "Username is already taken.", http.StatusConflict)
				return
			}
			http.Error(w, "Server error.", http.StatusInternalServerError)
			log.Printf("failed to create claimed user: %v", err)
			return
		}

		slog.InfoContext(ctx, "account claimed",
			slog.String("username", user.Username))

		respondJSON(w, r, http.StatusCreated, user.View())
	}
}
