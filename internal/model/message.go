// Package model defines data structure.
package model

import (
	"math/rand/v2"
	"time"
)

// GlobalRoom is the room every client can reach without a code.
const GlobalRoom = "GLOBAL"

// DisplayLayout is the layout used for the timestamp sent to clients,
// e.g. "03:04 PM on Monday, January 02 2006".
const DisplayLayout = "03:04 PM on Monday, January 02 2006"

// Message holds information about a single chat message.
type Message struct {
	MsgID          int64
	Content        string
	AuthorID       int64
	AuthorUsername string
	Timestamp      time.Time
	RoomCode       string
	ReplyingTo     int64
}

// MessageView is the wire form of a Message.
type MessageView struct {
	Content        string `json:"content"`
	AuthorID       int64  `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	Timestamp      string `json:"timestamp"`
	MsgID          int64  `json:"msg_id"`
	RoomCode       string `json:"room_code"`
	ReplyingTo     int64  `json:"replying_to"`
}

// View converts m into its wire form with the timestamp rendered in loc.
// A nil loc renders in UTC.
func (m Message) View(loc *time.Location) MessageView {
	if loc == nil {
		loc = time.UTC
	}

	return MessageView{
		Content:        m.Content,
		AuthorID:       m.AuthorID,
		AuthorUsername: m.AuthorUsername,
		Timestamp:      m.Timestamp.In(loc).Format(DisplayLayout),
		MsgID:          m.MsgID,
		RoomCode:       m.RoomCode,
		ReplyingTo:     m.ReplyingTo,
	}
}

// Views converts a slice of messages, keeping their order.
func Views(msgs []Message, loc *time.Location) []MessageView {
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, m.View(loc))
	}
	return views
}

// NormalizeRoom maps an empty room code to GlobalRoom.
func NormalizeRoom(code string) string {
	if code == "" {
		return GlobalRoom
	}
	return code
}

// NewID builds an id from the seconds since epoch followed by a random
// four digit suffix. Two ids minted within the same second collide with
// probability 1/9000.
func NewID(now time.Time) int64 {
	return now.Unix()*10000 + int64(1000+rand.IntN(9000))
}
