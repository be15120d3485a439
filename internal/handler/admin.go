package handler

import (
	"errors"
	"log"
	"log/slog"
	"net/http"

	"github.com/johndosdos/chatrooms/components/admin"
	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/claim"
	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

// ServeUsers renders every account, sorted by username.
func ServeUsers(users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := users.GetAllUsers(r.Context())
		if err != nil {
			http.Error(w, "Database error.", http.StatusServiceUnavailable)
			log.Printf("failed to list users: %v", err)
			return
		}

		views := make([]model.UserView, 0, len(all))
		for _, u := range all {
			views = append(views, u.View())
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := admin.UserList(views).Render(r.Context(), w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// CreateClaimCode issues a claim code for the posted username.
func CreateClaimCode(book *claim.Book) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		code, err := book.Create(strict.Sanitize(r.PostFormValue("username")))
		if errors.Is(err, claim.ErrEmptyUsername) {
			http.Error(w, "Username is required.", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Server error.", http.StatusInternalServerError)
			log.Printf("failed to create claim code: %v", err)
			return
		}

		s, _ := auth.SessionFromContext(r.Context())
		slog.InfoContext(r.Context(), "claim code created",
			"username", code.Username,
			"created_by", s.UserID)

		respondJSON(w, r, http.StatusCreated, code)
	}
}
