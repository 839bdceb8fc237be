package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	c "github.com/d0ngw/daystat/common"
)

// Migrator 可以迁移的统计
type Migrator interface {
	Name() string
	Migrate(ctx context.Context, verbosity int) (int64, error)
}

// MigrateSchedule 定期执行统计的迁移
type MigrateSchedule struct {
	c.BaseService
	migrators []Migrator
	interval  time.Duration
	verbosity int
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	rounds    int64
	roundsMu  sync.Mutex
}

// NewMigrateSchedule 创建MigrateSchedule
func NewMigrateSchedule(name string, migrators []Migrator, interval time.Duration, verbosity int) (*MigrateSchedule, error) {
	if len(migrators) == 0 || interval <= 0 {
		return nil, errors.New("invalid params")
	}
	return &MigrateSchedule{
		BaseService: c.BaseService{SName: name},
		migrators:   migrators,
		interval:    interval,
		verbosity:   verbosity,
	}, nil
}

// Init implements Initable.Init
func (p *MigrateSchedule) Init() error {
	if len(p.migrators) == 0 || p.interval <= 0 {
		return errors.New("invalid migrators or interval")
	}
	for _, m := range p.migrators {
		if c.IsNil(m) {
			return errors.New("nil migrator")
		}
	}
	return nil
}

// Start implements Service.Start
func (p *MigrateSchedule) Start() bool {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		c.Infof("start migrate task %s", p.Name())
		timer := time.NewTimer(p.interval)
		defer timer.Stop()
		for {
			select {
			case <-p.ctx.Done():
				c.Infof("finish migrate task %s", p.Name())
				return
			case <-timer.C:
			}
			p.RunOnce(p.ctx)
			timer.Reset(p.interval)
		}
	}()
	return true
}

// RunOnce 迁移所有的统计一次,单个统计失败不影响其他统计
func (p *MigrateSchedule) RunOnce(ctx context.Context) {
	for _, m := range p.migrators {
		if ctx.Err() != nil {
			return
		}
		count, err := m.Migrate(ctx, p.verbosity)
		if err != nil {
			if errors.Is(err, ErrMigrationLocked) {
				c.Infof("migrate %s is running elsewhere,skip", m.Name())
			} else {
				c.Errorf("migrate %s fail,err:%v", m.Name(), err)
			}
			continue
		}
		c.Debugf("migrate %s finished,keys:%d", m.Name(), count)
	}
	p.roundsMu.Lock()
	p.rounds++
	p.roundsMu.Unlock()
}

// Rounds 已经完成的迁移轮数
func (p *MigrateSchedule) Rounds() int64 {
	p.roundsMu.Lock()
	defer p.roundsMu.Unlock()
	return p.rounds
}

// Stop implements Service.Stop
func (p *MigrateSchedule) Stop() bool {
	if p.cancel != nil {
		p.cancel()
	}
	c.Infof("wait migrate task %s finish...", p.Name())
	p.wg.Wait()
	return true
}
