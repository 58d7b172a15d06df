package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/cloudant"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/iam"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/mongodb"
	"go.uber.org/fx"
)

func newStore(lc fx.Lifecycle, conf *config.Config) (docstore.Store, error) {
	store, closeStore, err := OpenStore(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: closeStore,
	})
	return store, nil
}

// OpenStore connects the configured document store backend. The returned
// func releases its resources.
func OpenStore(ctx context.Context, conf *config.Config) (docstore.Store, func(context.Context) error, error) {
	if err := conf.ValidateStore(); err != nil {
		return nil, nil, err
	}

	switch conf.Store.Backend {
	case config.BackendMongoDB:
		timeout := conf.Mongo.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		db, err := mongodb.NewConnection(ctx, conf.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("init mongo client: %w", err)
		}
		if err := db.Client.Ping(ctx, nil); err != nil {
			_ = db.Close(context.Background())
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		return mongodb.NewStore(db), db.Close, nil
	default:
		tokens, err := iam.NewTokenProvider(conf)
		if err != nil {
			return nil, nil, err
		}
		store, err := cloudant.NewStore(conf, tokens)
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return nil }, nil
	}
}
