package stats

import (
	"context"
)

// Store 缓冲计数的快速存储,所有操作都是原子的
type Store interface {
	// Incr 将key的值加1,返回新值
	Incr(ctx context.Context, key string) (int64, error)
	// IncrBy 将key的值加delta,返回新值
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	// Get 取得key的值,ok为false表示不存在
	Get(ctx context.Context, key string) (val int64, ok bool, err error)
	// GetSet 设置key的值为value,返回旧值,不存在时返回0
	GetSet(ctx context.Context, key string, value int64) (int64, error)
	// Del 删除key
	Del(ctx context.Context, key string) error
	// SAdd 添加member到集合setKey
	SAdd(ctx context.Context, setKey, member string) error
	// SPop 从集合setKey中随机弹出一个成员,ok为false表示集合为空
	SPop(ctx context.Context, setKey string) (member string, ok bool, err error)
	// SCard 集合setKey的大小
	SCard(ctx context.Context, setKey string) (int64, error)
}

// UpdateRecorder 可以原子的完成一次计数更新的Store
type UpdateRecorder interface {
	// RecordUpdate 原子的执行 INCR key; SADD setKey key; INCR totalKey
	RecordUpdate(ctx context.Context, key, setKey, totalKey string) error
}
