package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatrooms/internal/store"
	"github.com/johndosdos/chatrooms/internal/store/postgres"
	"github.com/johndosdos/chatrooms/internal/store/storetest"
	"github.com/johndosdos/chatrooms/internal/testutil"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		pool := testutil.DbInit(t, postgres.Migrations, postgres.MigrationsDir)
		return postgres.NewStore(pool)
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := testutil.DbInit(t, postgres.Migrations, postgres.MigrationsDir)

	require.NoError(t, postgres.Migrate(pool))
	require.NoError(t, postgres.Migrate(pool))
	require.NoError(t, postgres.NewStore(pool).Ping(context.Background()))
}
