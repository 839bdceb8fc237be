package stats

import (
	"context"
	"sync"
)

// MemoryStore 进程内的Store,用于测试和单机部署
type MemoryStore struct {
	mu      sync.Mutex
	counter map[string]int64
	sets    map[string]map[string]struct{}
}

// NewMemoryStore 创建MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counter: map[string]int64{},
		sets:    map[string]map[string]struct{}{},
	}
}

// Incr implements Store
func (p *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	return p.IncrBy(ctx, key, 1)
}

// IncrBy implements Store
func (p *MemoryStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter[key] += delta
	return p.counter[key], nil
}

// Get implements Store
func (p *MemoryStore) Get(ctx context.Context, key string) (int64, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	val, ok := p.counter[key]
	return val, ok, nil
}

// GetSet implements Store
func (p *MemoryStore) GetSet(ctx context.Context, key string, value int64) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.counter[key]
	p.counter[key] = value
	return old, nil
}

// Del implements Store
func (p *MemoryStore) Del(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.counter, key)
	delete(p.sets, key)
	return nil
}

// SAdd implements Store
func (p *MemoryStore) SAdd(ctx context.Context, setKey, member string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sadd(setKey, member)
	return nil
}

func (p *MemoryStore) sadd(setKey, member string) {
	set := p.sets[setKey]
	if set == nil {
		set = map[string]struct{}{}
		p.sets[setKey] = set
	}
	set[member] = struct{}{}
}

// SPop implements Store
func (p *MemoryStore) SPop(ctx context.Context, setKey string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set := p.sets[setKey]
	for member := range set {
		delete(set, member)
		if len(set) == 0 {
			delete(p.sets, setKey)
		}
		return member, true, nil
	}
	return "", false, nil
}

// SCard implements Store
func (p *MemoryStore) SCard(ctx context.Context, setKey string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(len(p.sets[setKey])), nil
}

// RecordUpdate implements UpdateRecorder
func (p *MemoryStore) RecordUpdate(ctx context.Context, key, setKey, totalKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter[key]++
	p.sadd(setKey, key)
	p.counter[totalKey]++
	return nil
}

// Exists key是否存在
func (p *MemoryStore) Exists(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.counter[key]
	return ok
}
