package db

import (
	"context"
	"fmt"

	"github.com/shawgichan/lucid/internal/util"
)

// Open builds the Store selected by config.StoreDriver. The returned func
// releases its connections.
func Open(ctx context.Context, config util.Config) (Store, func(), error) {
	switch config.StoreDriver {
	case util.StoreDriverPostgres:
		pool, err := ConnectDB(config.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		sqlDB := SQLFromPool(pool)
		if err := RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			pool.Close()
			return nil, nil, err
		}
		closer := func() {
			sqlDB.Close()
			pool.Close()
		}
		return NewPostgresStore(sqlDB), closer, nil

	case util.StoreDriverMongo:
		client, err := ConnectMongo(ctx, config.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewMongoStore(ctx, client.Database(config.MongoDatabase))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closer := func() {
			_ = client.Disconnect(context.Background())
		}
		return store, closer, nil

	case util.StoreDriverMemory:
		return NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", config.StoreDriver)
	}
}
