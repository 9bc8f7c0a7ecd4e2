// Package drivers selects a revocation.Store implementation from config.
package drivers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tokentrust/internal/config"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/memory"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/redis"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/sqlite"
)

// Open builds the store named by cfg.Driver and checks it is reachable.
// A redis store that fails its ping is closed and the error returned.
func Open(ctx context.Context, cfg config.Revocation, logger *slog.Logger) (revocation.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory revocation store; entries are lost on restart and not shared between processes")
		return memory.New(), nil

	case config.DriverRedis:
		store := redis.New(redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.RedisTimeout,
		})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("revocation store ready", "driver", cfg.Driver, "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return store, nil

	case config.DriverSQLite, "":
		store, err := sqlite.NewStore(sqlite.DSN(cfg.SQLiteFile))
		if err != nil {
			return nil, fmt.Errorf("open sqlite revocation store: %w", err)
		}
		logger.Info("revocation store ready", "driver", config.DriverSQLite, "file", cfg.SQLiteFile)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown revocation driver %q", cfg.Driver)
	}
}
