// Package testutil provides shared fixtures for tests that need a store.
package testutil

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/johndosdos/chatrooms/internal/store/sqlite"
)

func ProjectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "../../")
	return root
}

// MemoryStore returns an empty in-memory SQLite store closed at test end.
func MemoryStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open() error = %+v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// DbInit connects to TEST_DB_URL and resets the schema described by the
// goose migrations in migDir of fsys. The test is skipped when TEST_DB_URL
// is not set.
func DbInit(t *testing.T, fsys fs.FS, migDir string) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load(filepath.Join(ProjectRoot(), ".env"))

	testURL := os.Getenv("TEST_DB_URL")
	if testURL == "" {
		t.Skip("TEST_DB_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbPool, err := pgxpool.New(ctx, testURL)
	if err != nil {
		t.Fatalf("could not connect to the postgresql database: %v", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		t.Skipf("postgres not reachable: %v", err)
	}

	goose.SetBaseFS(fsys)
	_ = goose.SetDialect("postgres")

	dbForGoose := stdlib.OpenDBFromPool(dbPool)
	if err := goose.Reset(dbForGoose, migDir); err != nil {
		dbForGoose.Close()
		t.Fatalf("goose.Reset() error = %+v", err)
	}
	if err := goose.Up(dbForGoose, migDir); err != nil {
		dbForGoose.Close()
		t.Fatalf("goose.Up() error = %+v", err)
	}

	t.Cleanup(func() {
		if err := goose.Reset(dbForGoose, migDir); err != nil {
			t.Logf("goose.Reset() error = %+v", err)
		}
		_ = dbForGoose.Close()
		dbPool.Close()
	})

	return dbPool
}

// RedisClient connects to TEST_REDIS_ADDR. When it is not set, an
// in-process miniredis server is started for the test.
func RedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
