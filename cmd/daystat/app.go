package main

import (
	"context"
	"fmt"

	"github.com/d0ngw/daystat/cache"
	c "github.com/d0ngw/daystat/common"
	"github.com/d0ngw/daystat/http"
	"github.com/d0ngw/daystat/orm"
	"github.com/d0ngw/daystat/statistic"
	"github.com/d0ngw/daystat/stats"
	goredis "github.com/redis/go-redis/v9"
)

// App 根据配置组装的统计、存储和服务
type App struct {
	conf     *AppConfig
	redis    *cache.RedisClient
	goRedis  map[string]goredis.UniversalClient
	db       *orm.SimpleDBService
	registry *statistic.Registry
}

// NewApp 创建App,连接Redis和数据库
func NewApp(conf *AppConfig) (*App, error) {
	app := &App{
		conf:    conf,
		redis:   cache.NewRedisClientWithConf(conf.Redis),
		goRedis: map[string]goredis.UniversalClient{},
		db:      orm.NewSimpleDBService(conf, nil),
	}
	if err := app.redis.Ping(conf.Stats.Group); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.db.Init(); err != nil {
		app.Close()
		return nil, err
	}

	vv, err := app.newStatistic(conf.Stats.VideoViewsPrefix, statistic.NewVideoViews)
	if err != nil {
		app.Close()
		return nil, err
	}
	sf, err := app.newStatistic(conf.Stats.SubtitleFetchesPrefix, statistic.NewSubtitleFetches)
	if err != nil {
		app.Close()
		return nil, err
	}
	if app.registry, err = statistic.NewRegistry(vv, sf); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

type statisticFunc func(store stats.Store, prefix string, ops orm.OpCreator, opts ...stats.Option) (*stats.PerDayStatistic, error)

// store 创建prefix的快速存储,同一个统计的所有key路由到同一个Redis实例
func (p *App) store(prefix string) (stats.Store, error) {
	group := p.conf.Stats.Group
	if p.conf.Stats.Client != ClientGoRedis {
		return stats.NewRedisStore(p.redis, group, prefix), nil
	}
	server, err := p.redis.GetServer(cache.NewParamConf(group, "", 0).NewParamKey(prefix))
	if err != nil {
		return nil, err
	}
	client, ok := p.goRedis[server.Addr()]
	if !ok {
		client = goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:    []string{server.Addr()},
			Password: server.Auth,
			DB:       server.DB,
		})
		p.goRedis[server.Addr()] = client
	}
	return stats.NewGoRedisStore(client), nil
}

func (p *App) newStatistic(prefix string, newFunc statisticFunc) (*stats.PerDayStatistic, error) {
	store, err := p.store(prefix)
	if err != nil {
		return nil, err
	}
	conf := p.conf.Stats
	opts := []stats.Option{stats.WithMigrateRate(conf.MigrateQPS)}
	if conf.LockExpire > 0 {
		param := cache.NewParamConf(conf.Group, "", conf.LockExpire).NewParamKey(prefix + ":migrate_lock")
		lock, err := cache.NewRedisLock(p.redis, param)
		if err != nil {
			return nil, err
		}
		opts = append(opts, stats.WithMigrateLock(lock))
	}
	if conf.ViewsCacheExpire > 0 {
		opts = append(opts, stats.WithViewsCache(p.redis, cache.NewParamConf(conf.Group, "views:", conf.ViewsCacheExpire)))
	}
	return newFunc(store, prefix, p.db, opts...)
}

// Registry 所有的统计
func (p *App) Registry() *statistic.Registry {
	return p.registry
}

// InitSchema 创建统计表
func (p *App) InitSchema(ctx context.Context) error {
	return statistic.InitSchema(ctx, p.db.Pool())
}

// Migrate 迁移名称为name的统计,name为空时迁移所有的统计
func (p *App) Migrate(ctx context.Context, name string, verbosity int) (map[string]int64, error) {
	names := p.registry.Names()
	if name != "" {
		names = []string{name}
	}
	migrated := map[string]int64{}
	for _, n := range names {
		s, err := p.registry.Get(n)
		if err != nil {
			return migrated, err
		}
		count, err := s.Migrate(ctx, verbosity)
		if err != nil {
			return migrated, fmt.Errorf("migrate %s: %w", n, err)
		}
		migrated[n] = count
	}
	return migrated, nil
}

// Services 定期迁移和Http服务
func (p *App) Services() (*c.Services, error) {
	schedule, err := stats.NewMigrateSchedule("migrate_schedule", p.registry.Migrators(),
		secondsDuration(p.conf.Stats.Interval), p.conf.Stats.Verbosity)
	if err != nil {
		return nil, err
	}

	httpConf := p.conf.HTTP
	if err = httpConf.RegMiddleware(http.Recover); err != nil {
		return nil, err
	}
	if err = httpConf.RegMiddleware(http.AccessLog); err != nil {
		return nil, err
	}
	if err = httpConf.RegController(http.NewStatsController("/stats", p.registry)); err != nil {
		return nil, err
	}
	return c.NewServices(schedule, http.NewService(httpConf)), nil
}

// Close 关闭所有的连接
func (p *App) Close() {
	for addr, client := range p.goRedis {
		if err := client.Close(); err != nil {
			c.Warnf("close go-redis client %s fail,err:%v", addr, err)
		}
	}
	p.db.Stop()
	if err := p.redis.Close(); err != nil {
		c.Warnf("close redis fail,err:%v", err)
	}
}
