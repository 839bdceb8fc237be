package cache

import (
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, servers ...*miniredis.Miniredis) *RedisClient {
	conf := &RedisConf{Groups: map[string][]string{}}
	for i, mr := range servers {
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)
		id := "s" + strconv.Itoa(i)
		conf.Servers = append(conf.Servers, &RedisServer{ID: id, Host: mr.Host(), Port: port})
		conf.Groups["test"] = append(conf.Groups["test"], id)
	}
	require.NoError(t, conf.Parse())
	client := NewRedisClientWithConf(conf)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisConfParse(t *testing.T) {
	conf := &RedisConf{
		Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 6379}},
		Groups:  map[string][]string{"g": {"a", "a"}},
	}
	assert.Error(t, conf.Parse())

	conf = &RedisConf{
		Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 6379}, {ID: "b", Host: "127.0.0.1", Port: 6379}},
	}
	assert.Error(t, conf.Parse())

	conf = &RedisConf{
		Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 6379}},
		Groups:  map[string][]string{"g": {"b"}},
	}
	assert.Error(t, conf.Parse())

	conf = &RedisConf{
		Servers: []*RedisServer{{ID: "a", Host: "", Port: 6379}},
	}
	assert.Error(t, conf.Parse())

	conf = &RedisConf{
		Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 6379}},
		Groups:  map[string][]string{"g": {"a"}},
	}
	assert.NoError(t, conf.Parse())
	servers, err := NewRedisClientWithConf(conf).GetGroupServers("g")
	assert.NoError(t, err)
	assert.Len(t, servers, 1)
	_, err = NewRedisClientWithConf(conf).GetGroupServers("none")
	assert.Error(t, err)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := newTestClient(t, mr)

	param := NewParamConf("test", "test_", 0)
	ageParam := param.NewParamKey("age")
	assert.Nil(t, r.Set(ageParam, 10))
	v, ok, err := r.GetInt64(ageParam)
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 10, v)

	expireParam := NewParamConf("test", "test_ex_", 20)
	confKey := expireParam.NewParamKey("server")
	server := &RedisServer{ID: "test", Host: "127.0.0.1", Port: 6379}
	assert.Nil(t, r.SetObject(confKey, server))
	assert.Equal(t, 20, int(mr.TTL("test_ex_server").Seconds()))

	decoded := RedisServer{}
	ok, err = r.GetObject(confKey, &decoded)
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, server.ID, decoded.ID)

	ok, err = r.GetObject(expireParam.NewParamKey("not_exist"), &decoded)
	assert.Nil(t, err)
	assert.False(t, ok)

	exist, err := r.Exists(ageParam)
	assert.Nil(t, err)
	assert.True(t, exist)
	deleted, err := r.Del(ageParam)
	assert.Nil(t, err)
	assert.True(t, deleted)
	exist, err = r.Exists(ageParam)
	assert.Nil(t, err)
	assert.False(t, exist)
	_, ok, err = r.GetInt64(ageParam)
	assert.Nil(t, err)
	assert.False(t, ok)

	deleted, err = r.Del(ageParam)
	assert.Nil(t, err)
	assert.False(t, deleted)

	assert.NoError(t, r.Ping("test"))
	assert.Error(t, r.Ping("none"))

	_, err = r.Do(NewParamConf("none", "", 0).NewParamKey("a"), func(conn redis.Conn) (interface{}, error) {
		return conn.Do(PING)
	})
	assert.Error(t, err)
}

func TestRedisRoute(t *testing.T) {
	mr1 := miniredis.RunT(t)
	mr2 := miniredis.RunT(t)
	r := newTestClient(t, mr1, mr2)

	param := NewParamConf("test", "route:", 0)
	for i := 0; i < 20; i++ {
		key := param.NewParamKey(strconv.Itoa(i))
		assert.NoError(t, r.Set(key, i))
		server, err := r.GetServer(key)
		assert.NoError(t, err)
		again, err := r.GetServer(key)
		assert.NoError(t, err)
		assert.Same(t, server, again)
	}
	assert.Equal(t, 20, len(mr1.Keys())+len(mr2.Keys()))
}

func TestRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	r := newTestClient(t, mr)

	param := NewParamConf("test", "lock:", 30).NewParamKey("migrate")
	_, err := NewRedisLock(r, NewParamConf("test", "lock:", 0).NewParamKey("migrate"))
	assert.Error(t, err)

	lock1, err := NewRedisLock(r, param)
	require.NoError(t, err)
	lock2, err := NewRedisLock(r, param)
	require.NoError(t, err)

	locked, err := lock1.TryLock()
	assert.NoError(t, err)
	assert.True(t, locked)

	locked, err = lock2.TryLock()
	assert.NoError(t, err)
	assert.False(t, locked)

	unlocked, err := lock2.Unlock()
	assert.NoError(t, err)
	assert.False(t, unlocked)

	unlocked, err = lock1.Unlock()
	assert.NoError(t, err)
	assert.True(t, unlocked)

	locked, err = lock2.TryLock()
	assert.NoError(t, err)
	assert.True(t, locked)

	mr.FastForward(31 * time.Second)
	unlocked, err = lock2.Unlock()
	assert.NoError(t, err)
	assert.False(t, unlocked)
}
