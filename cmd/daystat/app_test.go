package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/d0ngw/daystat/statistic"
	"github.com/d0ngw/daystat/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConf = `
redis:
  servers:
    - id: s1
      host: %s
      port: %s
  groups:
    stats: [s1]
db:
  driver: sqlite
  url: %s
stats:
  group: stats
  client: %s
  lock_expire: 60
  views_cache_expire: 60
http:
  addr: "127.0.0.1:0"
`

func writeTestConf(t *testing.T, mr *miniredis.Miniredis, client string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "daystat.yaml")
	content := fmt.Sprintf(testConf, mr.Host(), mr.Port(), filepath.Join(dir, "daystat.db"), client)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	conf, err := loadConfig(writeTestConf(t, mr, ""))
	require.NoError(t, err)
	assert.Equal(t, ClientRedigo, conf.Stats.Client)
	assert.Equal(t, "vv", conf.Stats.VideoViewsPrefix)
	assert.Equal(t, "sf", conf.Stats.SubtitleFetchesPrefix)
	assert.Equal(t, 300, conf.Stats.Interval)
	assert.Equal(t, "127.0.0.1:0", conf.HTTP.Addr)

	_, err = loadConfig(writeTestConf(t, mr, "memcache"))
	assert.Error(t, err)
	_, err = loadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)

	t.Run("env", func(t *testing.T) {
		t.Setenv("DAYSTAT_STATS_CLIENT", "goredis")
		conf, err := loadConfig(writeTestConf(t, mr, "redigo"))
		require.NoError(t, err)
		assert.Equal(t, ClientGoRedis, conf.Stats.Client)
	})

	// 子测试结束后环境变量恢复
	_, err = loadConfig(writeTestConf(t, mr, "memcache"))
	assert.Error(t, err)
}

func TestStatsConfParse(t *testing.T) {
	assert.Error(t, (&StatsConf{}).Parse())
	assert.Error(t, (&StatsConf{Group: "g", VideoViewsPrefix: "x", SubtitleFetchesPrefix: "x"}).Parse())
	assert.Error(t, (&StatsConf{Group: "g", MigrateQPS: -1}).Parse())
	conf := &StatsConf{Group: "g", Client: " GoRedis "}
	assert.NoError(t, conf.Parse())
	assert.Equal(t, ClientGoRedis, conf.Client)
}

func testRun(t *testing.T, client string) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	confPath := writeTestConf(t, mr, client)

	var out bytes.Buffer
	require.NoError(t, run("migrate", []string{"-conf", confPath, "-init-schema"}, &out))
	assert.JSONEq(t, `{"subtitle_fetches":0,"video_views":0}`, out.String())

	conf, err := loadConfig(confPath)
	require.NoError(t, err)
	app, err := NewApp(conf)
	require.NoError(t, err)
	vv, err := app.Registry().Get(statistic.VideoViewsName)
	require.NoError(t, err)
	sf, err := app.Registry().Get(statistic.SubtitleFetchesName)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, vv.Update(ctx, stats.Fields{statistic.FieldVideo: 7}))
	}
	require.NoError(t, sf.Update(ctx, stats.Fields{statistic.FieldVideo: 7, statistic.FieldLanguage: "en"}))
	app.Close()
	assert.True(t, mr.Exists("vv:set"))

	out.Reset()
	require.NoError(t, run("migrate", []string{"-conf", confPath, "-stat", statistic.VideoViewsName, "-verbosity", "1"}, &out))
	assert.JSONEq(t, `{"video_views":1}`, out.String())
	assert.False(t, mr.Exists("vv:set"))
	assert.True(t, mr.Exists("sf:set"))
	assert.False(t, mr.Exists("vv:migrate_lock"))

	out.Reset()
	require.NoError(t, run("views", []string{"-conf", confPath, "-video", "7"}, &out))
	assert.JSONEq(t, `{"week":2,"month":2,"year":2}`, out.String())

	out.Reset()
	require.NoError(t, run("migrate", []string{"-conf", confPath}, &out))
	assert.JSONEq(t, `{"subtitle_fetches":1,"video_views":0}`, out.String())

	out.Reset()
	require.NoError(t, run("views", []string{"-conf", confPath, "-stat", statistic.SubtitleFetchesName, "-video", "7", "-language", "en"}, &out))
	assert.JSONEq(t, `{"week":1,"month":1,"year":1}`, out.String())

	assert.Error(t, run("views", []string{"-conf", confPath, "-stat", "none"}, &out))
	assert.Error(t, run("migrate", []string{"-conf", confPath, "-stat", "none"}, &out))
}

func TestRunRedigo(t *testing.T) {
	testRun(t, ClientRedigo)
}

func TestRunGoRedis(t *testing.T) {
	testRun(t, ClientGoRedis)
}

func TestRunInvalid(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run("unknown", nil, &out))
	assert.Contains(t, out.String(), "usage")
	assert.Error(t, run("migrate", nil, &out))
	assert.Error(t, run("views", []string{"-bad"}, &out))
}

func TestServices(t *testing.T) {
	mr := miniredis.RunT(t)
	conf, err := loadConfig(writeTestConf(t, mr, ClientRedigo))
	require.NoError(t, err)
	app, err := NewApp(conf)
	require.NoError(t, err)
	defer app.Close()

	services, err := app.Services()
	require.NoError(t, err)
	require.True(t, services.Init())
	require.True(t, services.Start())
	assert.True(t, services.Stop())
}
