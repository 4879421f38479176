package store

import (
	"context"
	"fmt"
	"log/slog"

	"pepeboard/internal/config"

	"github.com/redis/go-redis/v9"
)

// Open builds the backend selected by cfg.StoreBackend and returns it
// instrumented. rdb is only used by the redis backend and may be nil
// otherwise.
func Open(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		s   Store
		err error
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		s = NewMemoryStore(nil)
	case config.BackendFile:
		s = NewFileStore(cfg.DataFile)
	case config.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis store requires a redis connection")
		}
		s = NewRedisStore(rdb, cfg.StoreKey)
	case config.BackendPostgres, config.BackendSQLite:
		s, err = openDocumentStore(cfg, logger)
	case config.BackendGCS:
		s, err = NewObjectStore(ctx, cfg.GCSBucket, cfg.GCSObject, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("store opened", slog.String("backend", s.Name()))
	return Instrument(s, logger), nil
}

func openDocumentStore(cfg *config.Config, logger *slog.Logger) (*DocumentStore, error) {
	if cfg.StoreBackend == config.BackendSQLite {
		db, err := OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if err := Migrate(db); err != nil {
			return nil, err
		}
		return NewDocumentStore(db, cfg.StoreKey), nil
	}

	db, err := OpenPostgres(cfg.PostgresDSN(), logger)
	if err != nil {
		return nil, err
	}
	// The production schema is managed outside the app.
	if !cfg.IsProduction() {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return NewDocumentStore(db, cfg.StoreKey), nil
}
