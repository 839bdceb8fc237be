package stats

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/d0ngw/daystat/cache"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T, mr *miniredis.Miniredis) *cache.RedisClient {
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	conf := &cache.RedisConf{
		Servers: []*cache.RedisServer{{ID: "s1", Host: mr.Host(), Port: port}},
		Groups:  map[string][]string{"stats": {"s1"}},
	}
	require.NoError(t, conf.Parse())
	client := cache.NewRedisClientWithConf(conf)
	t.Cleanup(func() { client.Close() })
	return client
}

func newGoRedisClient(t *testing.T, mr *miniredis.Miniredis) goredis.UniversalClient {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { client.Close() })
	return client
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	val, err := store.Incr(ctx, "k")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, val)
	val, err = store.IncrBy(ctx, "k", 4)
	assert.NoError(t, err)
	assert.EqualValues(t, 5, val)

	val, ok, err := store.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 5, val)

	val, err = store.GetSet(ctx, "k", 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 5, val)
	val, _, err = store.Get(ctx, "k")
	assert.NoError(t, err)
	assert.EqualValues(t, 0, val)

	val, err = store.GetSet(ctx, "missing", 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, val)

	assert.NoError(t, store.Del(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.SAdd(ctx, "s", "a"))
	assert.NoError(t, store.SAdd(ctx, "s", "b"))
	assert.NoError(t, store.SAdd(ctx, "s", "a"))
	card, err := store.SCard(ctx, "s")
	assert.NoError(t, err)
	assert.EqualValues(t, 2, card)

	popped := map[string]bool{}
	for i := 0; i < 2; i++ {
		member, ok, err := store.SPop(ctx, "s")
		assert.NoError(t, err)
		assert.True(t, ok)
		popped[member] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, popped)
	_, ok, err = store.SPop(ctx, "s")
	assert.NoError(t, err)
	assert.False(t, ok)
	card, err = store.SCard(ctx, "s")
	assert.NoError(t, err)
	assert.EqualValues(t, 0, card)

	recorder, ok := store.(UpdateRecorder)
	require.True(t, ok)
	assert.NoError(t, recorder.RecordUpdate(ctx, "p:x", "p:set", "p:total"))
	assert.NoError(t, recorder.RecordUpdate(ctx, "p:x", "p:set", "p:total"))
	val, _, err = store.Get(ctx, "p:x")
	assert.NoError(t, err)
	assert.EqualValues(t, 2, val)
	val, _, err = store.Get(ctx, "p:total")
	assert.NoError(t, err)
	assert.EqualValues(t, 2, val)
	card, err = store.SCard(ctx, "p:set")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, card)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	testStore(t, NewRedisStore(newRedisClient(t, mr), "stats", "views"))
}

func TestGoRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	testStore(t, NewGoRedisStore(newGoRedisClient(t, mr)))
}

func TestMigrateRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	testMigrateScenario(t, NewRedisStore(newRedisClient(t, mr), "stats", "views"))
	assert.Equal(t, []string{"views:total"}, mr.Keys())
}

func TestMigrateGoRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	testMigrateScenario(t, NewGoRedisStore(newGoRedisClient(t, mr)))
	assert.Equal(t, []string{"views:total"}, mr.Keys())
}

func TestMigrateRedisLock(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := newRedisClient(t, mr)
	lockParam := cache.NewParamConf("stats", "lock:", 60).NewParamKey("views")
	lock, err := cache.NewRedisLock(client, lockParam)
	require.NoError(t, err)

	stat := newTestStatistic(t, NewRedisStore(client, "stats", "views"), newVideoRecords(), WithMigrateLock(lock))
	require.NoError(t, stat.Update(ctx, Fields{"video": "v1"}))

	other, err := cache.NewRedisLock(client, lockParam)
	require.NoError(t, err)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	_, err = stat.Migrate(ctx, 0)
	assert.ErrorIs(t, err, ErrMigrationLocked)

	_, err = other.Unlock()
	require.NoError(t, err)
	count, err := stat.Migrate(ctx, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.False(t, mr.Exists("lock:views"))
}

func TestViewsCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := newRedisClient(t, mr)
	records := newVideoRecords()
	stat := newTestStatistic(t, NewMemoryStore(), records,
		WithViewsCache(client, cache.NewParamConf("stats", "views_cache:", 60)))
	records.put("v1", stat.Today(), 3)

	views, err := stat.GetViews(ctx, Fields{"video": "v1"})
	assert.NoError(t, err)
	assert.Equal(t, &Views{Week: 3, Month: 3, Year: 3}, views)
	assert.True(t, mr.Exists("views_cache:views:2024-3-15:video=v1"))

	// 缓存有效期内返回缓存的结果
	records.put("v1", stat.Today(), 10)
	views, err = stat.GetViews(ctx, Fields{"video": "v1"})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, views.Week)

	mr.FastForward(61 * time.Second)
	views, err = stat.GetViews(ctx, Fields{"video": "v1"})
	assert.NoError(t, err)
	assert.EqualValues(t, 10, views.Week)
}
