package stats

import (
	"time"

	"github.com/d0ngw/daystat/cache"
	"golang.org/x/time/rate"
)

// Locker 互斥锁,用于避免多个进程同时迁移
type Locker interface {
	TryLock() (bool, error)
	Unlock() (bool, error)
}

// Option PerDayStatistic的可选配置
type Option func(p *PerDayStatistic)

// WithMigrateLock 迁移前先获取locker
func WithMigrateLock(locker Locker) Option {
	return func(p *PerDayStatistic) {
		p.locker = locker
	}
}

// WithMigrateRate 限制每秒迁移的key数,qps<=0表示不限制
func WithMigrateRate(qps float64) Option {
	return func(p *PerDayStatistic) {
		if qps <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(qps)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithViewsCache 使用Redis缓存GetViews的结果,param.Expire()为缓存的秒数
func WithViewsCache(client *cache.RedisClient, param *cache.ParamConf) Option {
	return func(p *PerDayStatistic) {
		p.viewsClient = client
		p.viewsParam = param
	}
}

// WithClock 指定取得当前时间的函数
func WithClock(now func() time.Time) Option {
	return func(p *PerDayStatistic) {
		if now != nil {
			p.now = now
		}
	}
}

// WithAtomicUpdate 是否使用Store的UpdateRecorder原子的更新,默认为true
func WithAtomicUpdate(atomic bool) Option {
	return func(p *PerDayStatistic) {
		p.atomicUpdate = atomic
	}
}
