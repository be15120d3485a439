// Package backend opens the store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/johndosdos/chatrooms/internal/config"
	"github.com/johndosdos/chatrooms/internal/store"
	"github.com/johndosdos/chatrooms/internal/store/postgres"
	"github.com/johndosdos/chatrooms/internal/store/redisstore"
	"github.com/johndosdos/chatrooms/internal/store/sqlite"
)

// Open connects to the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (store.Store, error) {
	slog.InfoContext(ctx, "opening store", "driver", cfg.StoreDriver)

	var (
		s   store.Store
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err = sqlite.Open(cfg.SQLitePath)
	case config.DriverPostgres:
		s, err = postgres.Open(ctx, cfg.DatabaseURL)
	case config.DriverRedis:
		s, err = redisstore.Open(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("internal/store: unknown driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
