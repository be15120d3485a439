package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/johndosdos/chatrooms/internal/metrics"
	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

// maxIDAttempts bounds how often a colliding message id is regenerated.
const maxIDAttempts = 5

// Dispatch handles one inbound frame from c. Failures are reported to c
// only; other connections are never affected.
func (h *Hub) Dispatch(ctx context.Context, c *Client, raw []byte) {
	// An event already read is completed even if its connection drops.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.storeTimeout)
	defer cancel()

	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		h.report(opCtx, c, "", fmt.Errorf("%w: malformed frame", ErrValidation))
		return
	}

	var err error
	if c.State() != StateActive && f.Event != EventClientConnected {
		err = fmt.Errorf("%w: %s before %s", ErrValidation, f.Event, EventClientConnected)
	} else {
		switch f.Event {
		case EventClientConnected:
			err = h.handleClientConnected(opCtx, c)
		case EventSendMessage:
			err = h.handleSendMessage(opCtx, c, f.Data)
		case EventMessageEdit:
			err = h.handleMessageEdit(opCtx, c, f.Data)
		case EventMessageDelete:
			err = h.handleMessageDelete(opCtx, c, f.Data)
		case EventRoomStatusUpdate:
			err = h.handleRoomStatusUpdate(opCtx, c, f.Data)
		default:
			err = fmt.Errorf("%w: unknown event %q", ErrValidation, f.Event)
		}
	}

	h.report(opCtx, c, f.Event, err)
}

// report records the outcome of an event and sends an error frame when
// the sender should see one.
func (h *Hub) report(ctx context.Context, c *Client, event string, err error) {
	label := event
	if label == "" {
		label = "malformed"
	}

	var notice *ErrorNotice
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrRateLimited):
		outcome = metrics.OutcomeRateLimited
		metrics.RateLimited.Inc()
		slog.DebugContext(ctx, "message dropped by cooldown",
			"user_id", c.Session.UserID)
	case errors.Is(err, ErrForbidden):
		outcome = metrics.OutcomeForbidden
		slog.WarnContext(ctx, "event rejected",
			"event", event,
			"user_id", c.Session.UserID,
			"error", err)
	case errors.Is(err, ErrValidation):
		outcome = metrics.OutcomeInvalid
		notice = &ErrorNotice{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, store.ErrUnavailable):
		outcome = metrics.OutcomeStoreError
		notice = &ErrorNotice{Code: CodeStoreUnavailable, Message: "message store is unavailable, try again"}
		slog.ErrorContext(ctx, "store failure",
			"event", event,
			"user_id", c.Session.UserID,
			"error", err)
	default:
		outcome = metrics.OutcomeStoreError
		slog.ErrorContext(ctx, "event failed",
			"event", event,
			"user_id", c.Session.UserID,
			"error", err)
	}
	metrics.Events.WithLabelValues(label, outcome).Inc()

	if notice == nil {
		return
	}
	if err := h.unicast(ctx, c, EventError, notice); err != nil {
		slog.WarnContext(ctx, "failed to queue error frame", "error", err)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: bad data: %v", ErrValidation, err)
	}
	return nil
}

func (h *Hub) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is empty", ErrValidation)
	}
	if n := utf8.RuneCountInString(content); n > h.maxLen {
		return fmt.Errorf("%w: content is %d characters, limit is %d", ErrValidation, n, h.maxLen)
	}
	return nil
}

func (h *Hub) handleClientConnected(ctx context.Context, c *Client) error {
	c.activate()

	msgs, err := h.store.RoomMessages(ctx, model.NormalizeRoom(c.Session.RoomCode))
	if err != nil {
		return fmt.Errorf("internal/websocket: load history: %w", err)
	}

	return h.unicast(ctx, c, EventAfterConnection, AfterConnection{
		Messages:    model.Views(msgs, h.loc),
		PublicRooms: h.rooms.ListPublic(),
	})
}

func (h *Hub) handleSendMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var in SendMessage
	if err := decode(data, &in); err != nil {
		return err
	}
	if err := h.validateContent(in.Content); err != nil {
		return err
	}

	now := h.now()
	if !h.limiter.Allow(c.Session.UserID, c.Session.Role, now) {
		return ErrRateLimited
	}

	roomCode := h.sanitizer.Sanitize(strings.TrimSpace(in.RoomCode))
	if roomCode == "" {
		roomCode = c.Session.RoomCode
	}

	msg := model.Message{
		Content:        h.formatter.Format(in.Content, c.Session.Role),
		AuthorID:       c.Session.UserID,
		AuthorUsername: h.sanitizer.Sanitize(c.Session.Username),
		Timestamp:      now.UTC(),
		RoomCode:       model.NormalizeRoom(roomCode),
		ReplyingTo:     in.ReplyingTo,
	}
	if err := h.persist(ctx, &msg); err != nil {
		return err
	}

	if err := h.broadcast(ctx, EventNewMessage, msg.View(h.loc)); err != nil {
		return err
	}

	if n, ok := parsePurge(in.Content); ok && c.Session.IsSuperuser() {
		return h.purge(ctx, msg.RoomCode, n+1)
	}
	return nil
}

// persist stores msg under a fresh id, regenerating it on collision.
func (h *Hub) persist(ctx context.Context, msg *model.Message) error {
	var err error
	for range maxIDAttempts {
		msg.MsgID = model.NewID(msg.Timestamp)
		err = h.store.AddMessage(ctx, *msg)
		if !errors.Is(err, store.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("internal/websocket: persist message: %w", err)
	}
	return nil
}

// authorize loads the target message and checks that c may change it.
// A missing target yields ok == false and no error.
func (h *Hub) authorize(ctx context.Context, c *Client, id int64) (model.Message, bool, error) {
	if id == 0 {
		return model.Message{}, false, fmt.Errorf("%w: msg_id is required", ErrValidation)
	}

	msg, err := h.store.GetMessage(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Message{}, false, nil
	}
	if err != nil {
		return model.Message{}, false, fmt.Errorf("internal/websocket: load message %d: %w", id, err)
	}

	if msg.AuthorID != c.Session.UserID && !c.Session.IsSuperuser() {
		return model.Message{}, false, fmt.Errorf("%w: user %d may not change message %d", ErrForbidden, c.Session.UserID, id)
	}
	return msg, true, nil
}

func (h *Hub) handleMessageEdit(ctx context.Context, c *Client, data json.RawMessage) error {
	var in MessageEdit
	if err := decode(data, &in); err != nil {
		return err
	}
	if err := h.validateContent(in.NewContent); err != nil {
		return err
	}

	msg, ok, err := h.authorize(ctx, c, in.MsgID)
	if err != nil || !ok {
		return err
	}

	content := markEdited(h.formatter.Format(in.NewContent, c.Session.Role))
	if err := h.store.EditMessage(ctx, msg.MsgID, content); err != nil {
		return fmt.Errorf("internal/websocket: edit message %d: %w", msg.MsgID, err)
	}

	return h.broadcast(ctx, EventMessageEdited, MessageEdited{
		MsgID:    msg.MsgID,
		Content:  content,
		RoomCode: msg.RoomCode,
	})
}

// markEdited appends the edit marker, keeping it inside a trailing
// paragraph produced by markdown rendering.
func markEdited(content string) string {
	const marker = " (edited)"
	if body, ok := strings.CutSuffix(content, "</p>"); ok {
		return body + marker + "</p>"
	}
	return content + marker
}

func (h *Hub) handleMessageDelete(ctx context.Context, c *Client, data json.RawMessage) error {
	var in MessageDelete
	if err := decode(data, &in); err != nil {
		return err
	}

	msg, ok, err := h.authorize(ctx, c, in.MsgID)
	if err != nil || !ok {
		return err
	}

	return h.deleteAndAnnounce(ctx, msg)
}

func (h *Hub) deleteAndAnnounce(ctx context.Context, msg model.Message) error {
	if err := h.store.DeleteMessage(ctx, msg.MsgID); err != nil {
		return fmt.Errorf("internal/websocket: delete message %d: %w", msg.MsgID, err)
	}
	return h.broadcast(ctx, EventMessageDeleted, MessageDeleted{
		MsgID:    msg.MsgID,
		RoomCode: msg.RoomCode,
	})
}

func (h *Hub) handleRoomStatusUpdate(ctx context.Context, c *Client, data json.RawMessage) error {
	var in RoomStatusUpdate
	if err := decode(data, &in); err != nil {
		return err
	}

	code := h.sanitizer.Sanitize(strings.TrimSpace(in.RoomCode))
	if code == "" {
		return fmt.Errorf("%w: room_code is required", ErrValidation)
	}

	switch in.Action {
	case ActionPublic:
		h.rooms.SetPublic(code)
	case ActionPrivate:
		h.rooms.SetPrivate(code)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrValidation, in.Action)
	}

	slog.InfoContext(ctx, "room status changed",
		"room_code", code,
		"action", in.Action,
		"user_id", c.Session.UserID)

	return h.broadcast(ctx, EventRoomStatusChanged, RoomStatusChanged{
		Action:      in.Action,
		RoomCode:    code,
		PublicRooms: h.rooms.ListPublic(),
	})
}
