package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// BlobStore persists the catalog snapshot blob under a fixed key.
type BlobStore interface {
	Put(ctx context.Context, key string, blob []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}

type blobStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewBlobStore(log *logger.Logger) (BlobStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &blobStore{log: log.With("client", "RedisBlobStore"), rdb: rdb}, nil
}

func (b *blobStore) Put(ctx context.Context, key string, blob []byte) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("blob store not initialized")
	}
	return b.rdb.Set(ctx, key, blob, 0).Err()
}

// Get returns (nil, nil) when the key holds nothing.
func (b *blobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if b == nil || b.rdb == nil {
		return nil, fmt.Errorf("blob store not initialized")
	}
	raw, err := b.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (b *blobStore) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
