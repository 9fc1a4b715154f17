package profilestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps each profile as a JSON string under
// "<project>:<collection>:<phone>". Batches run inside MULTI/EXEC.
type RedisBackend struct {
	client *redis.Client
	ns     Namespace
}

func NewRedisBackend(client *redis.Client, ns Namespace) *RedisBackend {
	return &RedisBackend{client: client, ns: ns}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Key(docKey string) string {
	return b.ns.keyPrefix() + docKey
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (b *RedisBackend) SetBatch(ctx context.Context, docs []Document) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range docs {
			pipe.Set(ctx, b.Key(d.Key), d.Body, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis batch of %d: %w", len(docs), err)
	}
	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
