package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/d0ngw/daystat/cache"
	c "github.com/d0ngw/daystat/common"
	"golang.org/x/time/rate"
)

// PerDayStatistic 按天统计,计数先写入Store,Migrate时保存到记录中
type PerDayStatistic struct {
	name         string
	store        Store
	prefix       string
	setKey       string
	totalKey     string
	policy       Policy
	saver        RecordSaver
	now          func() time.Time
	atomicUpdate bool
	locker       Locker
	limiter      *rate.Limiter
	viewsClient  *cache.RedisClient
	viewsParam   *cache.ParamConf
	migrating    sync.Mutex
}

// New 创建PerDayStatistic,model必须实现Record
func New(name string, store Store, prefix string, model interface{}, policy *Policy, saver RecordSaver, opts ...Option) (*PerDayStatistic, error) {
	if c.IsNil(store) {
		return nil, ErrNoStore
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, ErrNoPrefix
	}
	if c.IsNil(model) {
		return nil, ErrNoModel
	}
	if _, ok := model.(Record); !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidModel, model)
	}
	if err := policy.check(); err != nil {
		return nil, err
	}
	if c.IsNil(saver) {
		return nil, fmt.Errorf("%w: saver", ErrNotImplemented)
	}
	if name == "" {
		name = prefix
	}

	p := &PerDayStatistic{
		name:         name,
		store:        store,
		prefix:       prefix,
		setKey:       prefix + ":set",
		totalKey:     prefix + ":total",
		policy:       *policy,
		saver:        saver,
		now:          time.Now,
		atomicUpdate: true,
		limiter:      rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name 统计的名称
func (p *PerDayStatistic) Name() string {
	return p.name
}

// Prefix key的前缀
func (p *PerDayStatistic) Prefix() string {
	return p.prefix
}

// SetKey 待迁移key的集合
func (p *PerDayStatistic) SetKey() string {
	return p.setKey
}

// TotalKey 总计数的key
func (p *PerDayStatistic) TotalKey() string {
	return p.totalKey
}

// Today 当天零点
func (p *PerDayStatistic) Today() time.Time {
	return c.TruncateDay(p.now())
}

// Update 对fields对应的key计数加1,fields中没有date时使用当天
func (p *PerDayStatistic) Update(ctx context.Context, fields Fields) error {
	date, ok, err := fields.Date()
	if err != nil {
		return err
	}
	if !ok {
		date = p.Today()
	}
	date = c.TruncateDay(date)

	key, ok, err := p.policy.Key(date, fields)
	if err != nil {
		return fmt.Errorf("%s get key: %w", p.name, err)
	}
	if !ok || key == "" {
		return nil
	}
	if key == p.setKey || key == p.totalKey {
		return fmt.Errorf("%w: %s", ErrReservedKey, key)
	}

	if recorder, ok := p.store.(UpdateRecorder); ok && p.atomicUpdate {
		return recorder.RecordUpdate(ctx, key, p.setKey, p.totalKey)
	}
	if _, err = p.store.Incr(ctx, key); err != nil {
		return err
	}
	if err = p.store.SAdd(ctx, p.setKey, key); err != nil {
		return err
	}
	_, err = p.store.Incr(ctx, p.totalKey)
	return err
}

// Migrate 将待迁移集合中的计数保存到记录中,返回开始迁移时集合的大小
func (p *PerDayStatistic) Migrate(ctx context.Context, verbosity int) (int64, error) {
	if !p.migrating.TryLock() {
		return 0, ErrMigrationLocked
	}
	defer p.migrating.Unlock()

	if p.locker != nil {
		locked, err := p.locker.TryLock()
		if err != nil {
			return 0, err
		}
		if !locked {
			return 0, ErrMigrationLocked
		}
		defer func() {
			if _, err := p.locker.Unlock(); err != nil {
				c.Errorf("%s unlock migration fail,err:%v", p.name, err)
			}
		}()
	}

	count, err := p.store.SCard(ctx, p.setKey)
	if err != nil {
		return 0, err
	}

	st := c.UnixMills(time.Now())
	var migrated, discarded int64
	for i := count; i > 0; i-- {
		if err = ctx.Err(); err != nil {
			return count, err
		}
		if err = p.limiter.Wait(ctx); err != nil {
			return count, err
		}
		if verbosity >= 1 {
			c.Infof("%s >>> migrate key: %d", p.name, i)
		}

		key, ok, err := p.store.SPop(ctx, p.setKey)
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}

		saved, err := p.migrateKey(ctx, key)
		if err != nil {
			return count, err
		}
		if saved {
			migrated++
		} else {
			discarded++
		}
	}
	if verbosity >= 1 || count > 0 {
		c.Infof("%s migrated %d keys in %d ms,saved:%d,discarded:%d", p.name, count, c.UnixMills(time.Now())-st, migrated, discarded)
	}
	return count, nil
}

// migrateKey 保存一个key的计数,没有对应的记录时丢弃
func (p *PerDayStatistic) migrateKey(ctx context.Context, key string) (saved bool, err error) {
	record, err := p.policy.Record(ctx, key)
	if err != nil {
		p.restoreKey(key, 0)
		return false, fmt.Errorf("%s get record %s: %w", p.name, key, err)
	}

	if !c.IsNil(record) {
		delta, err := p.store.GetSet(ctx, key, 0)
		if err != nil {
			p.restoreKey(key, 0)
			return false, err
		}
		record.AddCount(delta)
		if err = p.saver.Save(ctx, record); err != nil {
			p.restoreKey(key, delta)
			return false, fmt.Errorf("%s save %s: %w", p.name, key, err)
		}
		saved = true
	} else {
		c.Debugf("%s no record for key %s,discard", p.name, key)
	}

	if err = p.store.Del(ctx, key); err != nil {
		return saved, err
	}
	return saved, nil
}

// restoreKey 迁移失败时把计数和key放回去,留给下一次迁移
func (p *PerDayStatistic) restoreKey(key string, delta int64) {
	ctx := context.Background()
	if delta != 0 {
		if _, err := p.store.IncrBy(ctx, key, delta); err != nil {
			c.Errorf("%s restore %s by %d fail,err:%v", p.name, key, delta, err)
		}
	}
	if err := p.store.SAdd(ctx, p.setKey, key); err != nil {
		c.Errorf("%s restore %s to set fail,err:%v", p.name, key, err)
	}
}

// GetViews 取得最近7天、30天、365天的计数和,包括今天
func (p *PerDayStatistic) GetViews(ctx context.Context, fields Fields) (*Views, error) {
	cacheKey := p.viewsCacheKey(fields)
	if cacheKey != nil {
		views := &Views{}
		ok, err := p.viewsClient.GetObject(cacheKey, views)
		if err != nil {
			c.Warnf("%s get views cache %s fail,err:%v", p.name, cacheKey.Key(), err)
		} else if ok {
			return views, nil
		}
	}

	rs, err := p.policy.Query(fields)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", p.name, err)
	}
	if c.IsNil(rs) {
		return &Views{}, nil
	}

	today := p.Today()
	views := &Views{}
	windows := []struct {
		days int
		dest *int64
	}{
		{WeekDays, &views.Week},
		{MonthDays, &views.Month},
		{YearDays, &views.Year},
	}
	for _, w := range windows {
		sum, err := rs.SumCount(ctx, c.AddDays(today, -w.days), today)
		if err != nil {
			return nil, fmt.Errorf("%s sum %d days: %w", p.name, w.days, err)
		}
		*w.dest = sum
	}

	if cacheKey != nil {
		if err := p.viewsClient.SetObject(cacheKey, views); err != nil {
			c.Warnf("%s set views cache %s fail,err:%v", p.name, cacheKey.Key(), err)
		}
	}
	return views, nil
}

func (p *PerDayStatistic) viewsCacheKey(fields Fields) *cache.ParamKey {
	if p.viewsClient == nil || p.viewsParam == nil {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == DateField {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+2)
	parts = append(parts, p.prefix, DateFormat(p.Today()))
	for _, name := range names {
		parts = append(parts, name+"="+fields.String(name))
	}
	return p.viewsParam.NewParamKey(JoinKey(parts...))
}

// Total 总计数
func (p *PerDayStatistic) Total(ctx context.Context) (int64, error) {
	total, _, err := p.store.Get(ctx, p.totalKey)
	return total, err
}

// Pending 待迁移的key数
func (p *PerDayStatistic) Pending(ctx context.Context) (int64, error) {
	return p.store.SCard(ctx, p.setKey)
}
