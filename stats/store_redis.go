package stats

import (
	"context"

	"github.com/d0ngw/daystat/cache"
	"github.com/gomodule/redigo/redis"
)

// RedisStore 基于redigo的Store,所有的key路由到同一个Redis实例
type RedisStore struct {
	client *cache.RedisClient
	route  cache.Param
}

// NewRedisStore 创建RedisStore,route决定统计的key使用group中的哪个实例
func NewRedisStore(client *cache.RedisClient, group, route string) *RedisStore {
	return &RedisStore{
		client: client,
		route:  cache.NewParamConf(group, "", 0).NewParamKey(route),
	}
}

func (p *RedisStore) do(ctx context.Context, cmd string, args ...interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.client.Do(p.route, func(conn redis.Conn) (interface{}, error) {
		return redis.DoContext(conn, ctx, cmd, args...)
	})
}

// Incr implements Store
func (p *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return redis.Int64(p.do(ctx, cache.INCR, key))
}

// IncrBy implements Store
func (p *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return redis.Int64(p.do(ctx, cache.INCRBY, key, delta))
}

// Get implements Store
func (p *RedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	val, err := redis.Int64(p.do(ctx, cache.GET, key))
	if err == redis.ErrNil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// GetSet implements Store
func (p *RedisStore) GetSet(ctx context.Context, key string, value int64) (int64, error) {
	val, err := redis.Int64(p.do(ctx, cache.GETSET, key, value))
	if err == redis.ErrNil {
		return 0, nil
	}
	return val, err
}

// Del implements Store
func (p *RedisStore) Del(ctx context.Context, key string) error {
	_, err := p.do(ctx, cache.DEL, key)
	return err
}

// SAdd implements Store
func (p *RedisStore) SAdd(ctx context.Context, setKey, member string) error {
	_, err := p.do(ctx, cache.SADD, setKey, member)
	return err
}

// SPop implements Store
func (p *RedisStore) SPop(ctx context.Context, setKey string) (string, bool, error) {
	member, err := redis.String(p.do(ctx, cache.SPOP, setKey))
	if err == redis.ErrNil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return member, true, nil
}

// SCard implements Store
func (p *RedisStore) SCard(ctx context.Context, setKey string) (int64, error) {
	return redis.Int64(p.do(ctx, cache.SCARD, setKey))
}

// RecordUpdate implements UpdateRecorder with MULTI/EXEC
func (p *RedisStore) RecordUpdate(ctx context.Context, key, setKey, totalKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.client.Do(p.route, func(conn redis.Conn) (interface{}, error) {
		if err := conn.Send(cache.MULTI); err != nil {
			return nil, err
		}
		if err := conn.Send(cache.INCR, key); err != nil {
			return nil, err
		}
		if err := conn.Send(cache.SADD, setKey, key); err != nil {
			return nil, err
		}
		if err := conn.Send(cache.INCR, totalKey); err != nil {
			return nil, err
		}
		return redis.Values(redis.DoContext(conn, ctx, cache.EXEC))
	})
	return err
}
