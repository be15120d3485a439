package redisstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/johndosdos/chatrooms/internal/store"
	"github.com/johndosdos/chatrooms/internal/store/storetest"
	"github.com/johndosdos/chatrooms/internal/testutil"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		client := testutil.RedisClient(t)
		prefix := fmt.Sprintf("test:%s:", uuid.NewString())

		s := New(client, prefix)
		t.Cleanup(func() {
			_ = s.DeleteAllMessages(context.Background())
			_ = s.deletePattern(context.Background(), prefix+"*")
		})
		return s
	})
}
