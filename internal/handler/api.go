package handler

import (
	"log"
	"net/http"

	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/room"
)

type roomResponse struct {
	RoomCode string `json:"room_code"`
}

type publicRoomsResponse struct {
	PublicRooms []string `json:"public_rooms"`
}

// ServeUser returns the current user without the password.
func ServeUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := auth.SessionFromContext(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		respondJSON(w, r, http.StatusOK, model.UserView{
			UserID:   s.UserID,
			Username: s.Username,
			UserType: s.Role,
		})
	}
}

func ServeRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := auth.SessionFromContext(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		respondJSON(w, r, http.StatusOK, roomResponse{RoomCode: s.RoomCode})
	}
}

// SwitchRoom re-issues the session cookie for another room code. An empty
// code switches to GLOBAL.
func SwitchRoom(issuer auth.TokenIssuer, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := auth.SessionFromContext(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}
		room := roomFromForm(r)

		token, err := issuer.MakeJWT(s.UserID, room)
		if err != nil {
			http.Error(w, "Server error.", http.StatusInternalServerError)
			log.Printf("failed to make JWT: %v", err)
			return
		}
		auth.SetSessionCookie(w, token, issuer.ExpiresIn, secure)

		respondJSON(w, r, http.StatusOK, roomResponse{RoomCode: room})
	}
}

func ServePublicRooms(rooms *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, publicRoomsResponse{PublicRooms: rooms.ListPublic()})
	}
}
