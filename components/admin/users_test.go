package admin

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatrooms/internal/model"
)

func TestUserList(t *testing.T) {
	var buf bytes.Buffer
	err := UserList([]model.UserView{
		{UserID: 1, Username: "admin", UserType: model.Superuser},
		{UserID: 2, Username: "<script>", UserType: model.Regular},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<h1>Users (2)</h1>")
	assert.Contains(t, out, "<td>admin</td><td>superuser</td>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<td><script>")
}
