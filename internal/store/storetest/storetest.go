// Package storetest holds the behavior every store backend must satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func msg(id int64, room string, offset time.Duration) model.Message {
	return model.Message{
		MsgID:          id,
		Content:        "message",
		AuthorID:       99,
		AuthorUsername: "tester",
		Timestamp:      base.Add(offset),
		RoomCode:       room,
	}
}

func ids(msgs []model.Message) []int64 {
	out := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.MsgID)
	}
	return out
}

// Run exercises the full store contract against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("room_messages_sorted_and_filtered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		// Inserted out of timestamp order on purpose.
		for _, m := range []model.Message{
			msg(3, "R1", 3*time.Second),
			msg(1, "R1", 1*time.Second),
			msg(4, "R2", 2*time.Second),
			msg(2, "R1", 2*time.Second),
			msg(5, model.GlobalRoom, 0),
		} {
			require.NoError(t, s.AddMessage(ctx, m))
		}

		r1, err := s.RoomMessages(ctx, "R1")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids(r1))

		r2, err := s.RoomMessages(ctx, "R2")
		require.NoError(t, err)
		assert.Equal(t, []int64{4}, ids(r2))

		none, err := s.RoomMessages(ctx, "nobody-here")
		require.NoError(t, err)
		assert.Empty(t, none)

		all, err := s.AllMessages(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].Timestamp.Before(all[i-1].Timestamp),
				"messages out of order at %d", i)
		}
		assert.Equal(t, int64(5), all[0].MsgID)
	})

	t.Run("fields_round_trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := msg(10, "R9", time.Second)
		in.Content = "<b>hi</b> :)"
		in.ReplyingTo = 12345
		require.NoError(t, s.AddMessage(ctx, in))

		got, err := s.GetMessage(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, in.Content, got.Content)
		assert.Equal(t, in.AuthorID, got.AuthorID)
		assert.Equal(t, in.AuthorUsername, got.AuthorUsername)
		assert.Equal(t, in.RoomCode, got.RoomCode)
		assert.Equal(t, in.ReplyingTo, got.ReplyingTo)
		assert.True(t, in.Timestamp.Equal(got.Timestamp), "want %v, got %v", in.Timestamp, got.Timestamp)
	})

	t.Run("empty_room_defaults_to_global", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddMessage(ctx, msg(20, "", 0)))

		got, err := s.RoomMessages(ctx, model.GlobalRoom)
		require.NoError(t, err)
		assert.Equal(t, []int64{20}, ids(got))
	})

	t.Run("duplicate_id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddMessage(ctx, msg(30, "R1", 0)))
		err := s.AddMessage(ctx, msg(30, "R1", time.Second))
		assert.ErrorIs(t, err, store.ErrDuplicateID)
	})

	t.Run("edit_message", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddMessage(ctx, msg(40, "R1", 0)))
		require.NoError(t, s.EditMessage(ctx, 40, "changed (edited)"))

		room, err := s.RoomMessages(ctx, "R1")
		require.NoError(t, err)
		require.Len(t, room, 1)
		assert.Equal(t, "changed (edited)", room[0].Content)

		all, err := s.AllMessages(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "changed (edited)", all[0].Content)

		// Unknown ids are a no-op.
		assert.NoError(t, s.EditMessage(ctx, 404, "nothing"))
	})

	t.Run("delete_message", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddMessage(ctx, msg(50, "R1", 0)))
		require.NoError(t, s.AddMessage(ctx, msg(51, "R1", time.Second)))
		require.NoError(t, s.DeleteMessage(ctx, 50))

		room, err := s.RoomMessages(ctx, "R1")
		require.NoError(t, err)
		assert.Equal(t, []int64{51}, ids(room))

		_, err = s.GetMessage(ctx, 50)
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.NoError(t, s.DeleteMessage(ctx, 50))
		assert.NoError(t, s.DeleteMessage(ctx, 404))
	})

	t.Run("delete_all_keeps_users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddUser(ctx, model.User{UserID: 1, Username: "keep", PasswordHash: "h"}))
		require.NoError(t, s.AddMessage(ctx, msg(60, "R1", 0)))
		require.NoError(t, s.AddMessage(ctx, msg(61, "R2", 0)))
		require.NoError(t, s.DeleteAllMessages(ctx))

		all, err := s.AllMessages(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = s.GetUserByID(ctx, 1)
		assert.NoError(t, err)

		// The schema survives; the store is still writable.
		assert.NoError(t, s.AddMessage(ctx, msg(62, "R1", 0)))
	})

	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		zed := model.User{UserID: 2, Username: "zed", PasswordHash: "hash-z", Role: model.Regular}
		amy := model.User{UserID: 1, Username: "amy", PasswordHash: "hash-a", Role: model.Superuser}
		require.NoError(t, s.AddUser(ctx, zed))
		require.NoError(t, s.AddUser(ctx, amy))

		err := s.AddUser(ctx, model.User{UserID: 3, Username: "amy", PasswordHash: "x"})
		assert.ErrorIs(t, err, store.ErrDuplicateUser)

		got, err := s.GetUserByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, amy, got)

		got, err = s.GetUserByUsername(ctx, "zed")
		require.NoError(t, err)
		assert.Equal(t, zed, got)

		_, err = s.GetUserByID(ctx, 404)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)

		users, err := s.GetAllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "amy", users[0].Username)
		assert.Equal(t, "zed", users[1].Username)

		require.NoError(t, s.UpdatePassword(ctx, 2, "hash-z2"))
		got, err = s.GetUserByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "hash-z2", got.PasswordHash)

		assert.ErrorIs(t, s.UpdatePassword(ctx, 404, "x"), store.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}
