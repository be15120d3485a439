package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/testutil"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	s := testutil.MemoryStore(t)

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"create-user", "-username", "root", "-password", "toor", "-superuser"}, &out, s))
	assert.Contains(t, out.String(), `created superuser user "root"`)

	require.NoError(t, run(ctx, []string{"create-user", "-username", "alice", "-password", "pw"}, &out, s))

	out.Reset()
	require.NoError(t, run(ctx, []string{"list-users"}, &out, s))
	assert.Regexp(t, `(?s)\talice\tregular\n.*\troot\tsuperuser\n`, out.String())

	require.NoError(t, run(ctx, []string{"reset-password", "-username", "alice", "-password", "new"}, &out, s))
	_, err := auth.Authenticate(ctx, s, "alice", "new")
	assert.NoError(t, err)

	require.NoError(t, s.AddMessage(ctx, model.Message{MsgID: 1, Content: "x", Timestamp: time.Now()}))
	require.NoError(t, run(ctx, []string{"clear-messages"}, &out, s))
	msgs, err := s.AllMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	users, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestRun_Usage(t *testing.T) {
	s := testutil.MemoryStore(t)
	var out bytes.Buffer

	tests := [][]string{
		nil,
		{"launch-rockets"},
		{"create-user", "-bogus"},
	}
	for _, args := range tests {
		assert.ErrorIs(t, run(context.Background(), args, &out, s), errUsage, "%v", args)
	}

	assert.ErrorIs(t, run(context.Background(), []string{"create-user"}, &out, s), auth.ErrEmptyField)
}
