package statistic

import (
	"fmt"
	"sort"

	"github.com/d0ngw/daystat/stats"
)

// Registry 按名称管理统计
type Registry struct {
	stats map[string]*stats.PerDayStatistic
}

// NewRegistry 创建Registry,名称重复时返回错误
func NewRegistry(statistics ...*stats.PerDayStatistic) (*Registry, error) {
	r := &Registry{stats: map[string]*stats.PerDayStatistic{}}
	for _, s := range statistics {
		if s == nil {
			return nil, fmt.Errorf("nil statistic")
		}
		if _, ok := r.stats[s.Name()]; ok {
			return nil, fmt.Errorf("duplicate statistic %s", s.Name())
		}
		r.stats[s.Name()] = s
	}
	return r, nil
}

// Get 取得名称为name的统计
func (p *Registry) Get(name string) (*stats.PerDayStatistic, error) {
	s, ok := p.stats[name]
	if !ok {
		return nil, fmt.Errorf("unknown statistic %s", name)
	}
	return s, nil
}

// Names 所有统计的名称,按字母排序
func (p *Registry) Names() []string {
	names := make([]string, 0, len(p.stats))
	for name := range p.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Migrators 所有统计,按名称排序
func (p *Registry) Migrators() []stats.Migrator {
	names := p.Names()
	migrators := make([]stats.Migrator, 0, len(names))
	for _, name := range names {
		migrators = append(migrators, p.stats[name])
	}
	return migrators
}
