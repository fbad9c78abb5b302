// FilePath: server/monitor/internal/database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/config"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// DB is the key-value connection the repositories build on.
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetClient() redis.UniversalClient
}

// RedisDB represents a Redis connection
type RedisDB struct {
	client redis.UniversalClient
}

// NewRedisDB connects to Redis and verifies the connection.
func NewRedisDB(cfg config.RedisConfig) (DB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to Redis at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	nuts.L.Infof("[RedisDB] Connected to %s:%d/%d", cfg.Host, cfg.Port, cfg.DB)
	return &RedisDB{client: client}, nil
}

// WrapClient adapts an existing client, for tests and embedded setups.
func WrapClient(client redis.UniversalClient) DB {
	return &RedisDB{client: client}
}

func (db *RedisDB) Close() error {
	return db.client.Close()
}

func (db *RedisDB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx).Err()
}

func (db *RedisDB) GetClient() redis.UniversalClient {
	return db.client
}
