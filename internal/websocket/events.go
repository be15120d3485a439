package websocket

import (
	"encoding/json"
	"errors"

	"github.com/johndosdos/chatrooms/internal/model"
)

// Inbound events.
const (
	EventClientConnected  = "client-connected"
	EventSendMessage      = "send-message"
	EventMessageEdit      = "message-edit"
	EventMessageDelete    = "message-delete"
	EventRoomStatusUpdate = "room-status-update"
)

// Outbound events.
const (
	EventAfterConnection   = "after-connection"
	EventNewMessage        = "new-message"
	EventMessageEdited     = "message-edited"
	EventMessageDeleted    = "message-deleted"
	EventRoomStatusChanged = "room-status-changed"
	EventError             = "error"
)

// Error codes carried by error frames.
const (
	CodeValidation       = "validation_error"
	CodeStoreUnavailable = "store_unavailable"
)

// Room status actions.
const (
	ActionPublic  = "public"
	ActionPrivate = "private"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrRateLimited = errors.New("rate limited")
	ErrForbidden   = errors.New("forbidden")
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(outFrame{Event: event, Data: data})
}

// SendMessage is the data of a send-message event. AuthorID and
// AuthorUsername are accepted for compatibility but never trusted.
type SendMessage struct {
	Content        string `json:"content"`
	AuthorID       int64  `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	RoomCode       string `json:"room_code"`
	ReplyingTo     int64  `json:"replying_to"`
}

type MessageEdit struct {
	MsgID      int64  `json:"msg_id"`
	NewContent string `json:"new_content"`
}

type MessageDelete struct {
	MsgID int64 `json:"msg_id"`
}

type RoomStatusUpdate struct {
	Action   string `json:"action"`
	RoomCode string `json:"room_code"`
}

type AfterConnection struct {
	Messages    []model.MessageView `json:"messages"`
	PublicRooms []string            `json:"public_rooms"`
}

type MessageEdited struct {
	MsgID    int64  `json:"msg_id"`
	Content  string `json:"content"`
	RoomCode string `json:"room_code"`
}

type MessageDeleted struct {
	MsgID    int64  `json:"msg_id"`
	RoomCode string `json:"room_code"`
}

type RoomStatusChanged struct {
	Action      string   `json:"action"`
	RoomCode    string   `json:"room_code"`
	PublicRooms []string `json:"public_rooms"`
}

type ErrorNotice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
