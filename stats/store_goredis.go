package stats

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// GoRedisStore 基于go-redis的Store
type GoRedisStore struct {
	client redis.UniversalClient
}

// NewGoRedisStore 创建GoRedisStore
func NewGoRedisStore(client redis.UniversalClient) *GoRedisStore {
	return &GoRedisStore{client: client}
}

// Incr implements Store
func (p *GoRedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return p.client.Incr(ctx, key).Result()
}

// IncrBy implements Store
func (p *GoRedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return p.client.IncrBy(ctx, key, delta).Result()
}

// Get implements Store
func (p *GoRedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	val, err := p.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// GetSet implements Store
func (p *GoRedisStore) GetSet(ctx context.Context, key string, value int64) (int64, error) {
	val, err := p.client.GetSet(ctx, key, value).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// Del implements Store
func (p *GoRedisStore) Del(ctx context.Context, key string) error {
	return p.client.Del(ctx, key).Err()
}

// SAdd implements Store
func (p *GoRedisStore) SAdd(ctx context.Context, setKey, member string) error {
	return p.client.SAdd(ctx, setKey, member).Err()
}

// SPop implements Store
func (p *GoRedisStore) SPop(ctx context.Context, setKey string) (string, bool, error) {
	member, err := p.client.SPop(ctx, setKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return member, true, nil
}

// SCard implements Store
func (p *GoRedisStore) SCard(ctx context.Context, setKey string) (int64, error) {
	return p.client.SCard(ctx, setKey).Result()
}

// RecordUpdate implements UpdateRecorder with a MULTI/EXEC pipeline
func (p *GoRedisStore) RecordUpdate(ctx context.Context, key, setKey, totalKey string) error {
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.SAdd(ctx, setKey, key)
		pipe.Incr(ctx, totalKey)
		return nil
	})
	return err
}
