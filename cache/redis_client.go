package cache

import (
	"errors"
	"fmt"

	c "github.com/d0ngw/daystat/common"
	"github.com/gomodule/redigo/redis"
)

// Redis命令
const (
	GET     = "GET"
	SET     = "SET"
	GETSET  = "GETSET"
	DEL     = "DEL"
	EXISTS  = "EXISTS"
	EXPIRE  = "EXPIRE"
	INCR    = "INCR"
	INCRBY  = "INCRBY"
	SADD    = "SADD"
	SPOP    = "SPOP"
	SCARD   = "SCARD"
	MULTI   = "MULTI"
	EXEC    = "EXEC"
	PING    = "PING"
	ReplyOK = "OK"
)

// ConnFunc 使用conn执行的操作
type ConnFunc func(conn redis.Conn) (interface{}, error)

// RedisClient 按照Group和Key路由到Redis实例的客户端
type RedisClient struct {
	groups map[string][]*RedisServer
}

// NewRedisClient create RedisClient with groups
func NewRedisClient(groups map[string][]*RedisServer) *RedisClient {
	return &RedisClient{groups: groups}
}

// NewRedisClientWithConf create RedisClient with parsed RedisConf
func NewRedisClientWithConf(conf *RedisConf) *RedisClient {
	return NewRedisClient(conf.groups)
}

// GetGroupServers 取得group中的所有实例
func (p *RedisClient) GetGroupServers(group string) ([]*RedisServer, error) {
	servers := p.groups[group]
	if len(servers) == 0 {
		return nil, fmt.Errorf("can't find redis group %s", group)
	}
	return servers, nil
}

// GetServer 根据param的Group和Key取得对应的实例,key使用MurmurHash2取模
func (p *RedisClient) GetServer(param Param) (*RedisServer, error) {
	if param == nil {
		return nil, errors.New("nil param")
	}
	servers, err := p.GetGroupServers(param.Group())
	if err != nil {
		return nil, err
	}
	if len(servers) == 1 {
		return servers[0], nil
	}
	return servers[murmurHash32([]byte(param.Key()), 0)%uint32(len(servers))], nil
}

// Do 在param路由到的实例上执行connFunc
func (p *RedisClient) Do(param Param, connFunc ConnFunc) (reply interface{}, err error) {
	server, err := p.GetServer(param)
	if err != nil {
		return nil, err
	}
	conn, err := server.GetConn()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			c.Errorf("close redis conn %s fail,err:%v", server.Addr(), closeErr)
		}
	}()
	return connFunc(conn)
}

// Del 删除param对应的key
func (p *RedisClient) Del(param Param) (deleted bool, err error) {
	return redis.Bool(p.Do(param, func(conn redis.Conn) (interface{}, error) {
		return conn.Do(DEL, param.Key())
	}))
}

// Exists 检查param对应的key是否存在
func (p *RedisClient) Exists(param Param) (exist bool, err error) {
	return redis.Bool(p.Do(param, func(conn redis.Conn) (interface{}, error) {
		return conn.Do(EXISTS, param.Key())
	}))
}

// Set 设置值,如果param.Expire()>0,同时设置过期时间
func (p *RedisClient) Set(param Param, value interface{}) error {
	_, err := p.Do(param, func(conn redis.Conn) (interface{}, error) {
		if param.Expire() > 0 {
			return conn.Do(SET, param.Key(), value, "EX", param.Expire())
		}
		return conn.Do(SET, param.Key(), value)
	})
	return err
}

// GetInt64 取得int64值,ok为false表示不存在
func (p *RedisClient) GetInt64(param Param) (val int64, ok bool, err error) {
	val, err = redis.Int64(p.Do(param, func(conn redis.Conn) (interface{}, error) {
		return conn.Do(GET, param.Key())
	}))
	if err == redis.ErrNil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// SetObject 使用msgpack编码后保存obj
func (p *RedisClient) SetObject(param Param, obj interface{}) error {
	bytes, err := MsgPackEncodeBytes(obj)
	if err != nil {
		return err
	}
	return p.Set(param, bytes)
}

// GetObject 取得msgpack编码的对象并解码到dest,ok为false表示不存在
func (p *RedisClient) GetObject(param Param, dest interface{}) (ok bool, err error) {
	bytes, err := redis.Bytes(p.Do(param, func(conn redis.Conn) (interface{}, error) {
		return conn.Do(GET, param.Key())
	}))
	if err == redis.ErrNil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = MsgPackDecodeBytes(bytes, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Ping 检查group中的所有实例是否可用
func (p *RedisClient) Ping(group string) error {
	servers, err := p.GetGroupServers(group)
	if err != nil {
		return err
	}
	for _, server := range servers {
		conn, err := server.GetConn()
		if err != nil {
			return err
		}
		_, err = conn.Do(PING)
		conn.Close()
		if err != nil {
			return fmt.Errorf("ping redis %s fail,err:%w", server.Addr(), err)
		}
	}
	return nil
}

// Close 关闭所有的连接池
func (p *RedisClient) Close() error {
	var lastErr error
	for _, servers := range p.groups {
		for _, server := range servers {
			if err := server.close(); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}
