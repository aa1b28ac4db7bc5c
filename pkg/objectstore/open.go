package objectstore

import (
	"context"
	"fmt"

	"license-server/pkg/database"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// Open builds the store selected by STORAGE_DRIVER. The returned func
// releases any connection the backend holds.
func Open(ctx context.Context, config *utils.Config, log *zap.Logger) (Store, func(), error) {
	noop := func() {}

	switch config.Storage.Driver {
	case "", "file":
		store, err := NewFileStore(config.Storage.Dir)
		if err != nil {
			return nil, noop, err
		}
		log.Info("Using file object store", zap.String("dir", config.Storage.Dir))
		return store, noop, nil

	case "memory":
		log.Warn("Using in-memory object store, state is lost on restart")
		return NewMemoryStore(), noop, nil

	case "postgres":
		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			return nil, noop, err
		}
		store, err := NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		log.Info("Using postgres object store")
		return store, db.Close, nil

	case "redis":
		client, err := database.InitRedis(ctx, config.Redis)
		if err != nil {
			return nil, noop, err
		}
		log.Info("Using redis object store")
		return NewRedisStore(client), func() { client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}
}
