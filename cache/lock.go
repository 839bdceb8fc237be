package cache

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

// 只有持有者才能释放锁
var unlockScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock 基于SET NX EX的互斥锁
type RedisLock struct {
	client *RedisClient
	param  Param
	token  string
}

// NewRedisLock 创建锁,param.Expire()是锁的过期时间,单位秒
func NewRedisLock(client *RedisClient, param Param) (*RedisLock, error) {
	if client == nil || param == nil {
		return nil, fmt.Errorf("client and param must not be nil")
	}
	if param.Expire() <= 0 {
		return nil, fmt.Errorf("lock %s must have expire", param.Key())
	}
	return &RedisLock{client: client, param: param}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// TryLock 尝试加锁,已经被其他持有者锁定时返回false
func (p *RedisLock) TryLock() (locked bool, err error) {
	token, err := newToken()
	if err != nil {
		return false, err
	}
	reply, err := redis.String(p.client.Do(p.param, func(conn redis.Conn) (interface{}, error) {
		return conn.Do(SET, p.param.Key(), token, "NX", "EX", p.param.Expire())
	}))
	if err == redis.ErrNil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if reply != ReplyOK {
		return false, nil
	}
	p.token = token
	return true, nil
}

// Unlock 释放锁,锁已过期或者被其他持有者获得时返回false
func (p *RedisLock) Unlock() (unlocked bool, err error) {
	if p.token == "" {
		return false, nil
	}
	token := p.token
	p.token = ""
	return redis.Bool(p.client.Do(p.param, func(conn redis.Conn) (interface{}, error) {
		return unlockScript.Do(conn, p.param.Key(), token)
	}))
}
