// Package stats 按天统计计数:计数先累加在Redis中,定期迁移到数据库
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	c "github.com/d0ngw/daystat/common"
)

// 构建统计时的错误
var (
	ErrNoStore         = errors.New("stats: store undefined")
	ErrNoPrefix        = errors.New("stats: prefix undefined")
	ErrNoModel         = errors.New("stats: model undefined")
	ErrInvalidModel    = errors.New("stats: model must have date and count")
	ErrNotImplemented  = errors.New("stats: not implemented")
	ErrReservedKey     = errors.New("stats: reserved key")
	ErrMigrationLocked = errors.New("stats: migration is running")
)

// DateField 保留的字段名,指定计数的日期,默认为当天
const DateField = "date"

// Fields 调用方提供的标识字段
type Fields map[string]interface{}

// Date 取得date字段
func (f Fields) Date() (date time.Time, ok bool, err error) {
	v, exist := f[DateField]
	if !exist || v == nil {
		return time.Time{}, false, nil
	}
	switch d := v.(type) {
	case time.Time:
		return d, true, nil
	case *time.Time:
		if d == nil {
			return time.Time{}, false, nil
		}
		return *d, true, nil
	case string:
		date, err = ParseDate(d)
		if err != nil {
			return time.Time{}, false, err
		}
		return date, true, nil
	default:
		return time.Time{}, false, fmt.Errorf("invalid date field %T", v)
	}
}

// String 取得字符串字段
func (f Fields) String(name string) string {
	v, ok := f[name]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int64 取得整数字段,ok为false表示不存在或者格式不对
// 支持各种整数、没有小数部分的浮点数(JSON解码的数字)、json.Number和十进制字符串
func (f Fields) Int64(name string) (val int64, ok bool) {
	v, exist := f[name]
	if !exist || v == nil {
		return 0, false
	}
	switch i := v.(type) {
	case int:
		return int64(i), true
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case int64:
		return i, true
	case uint:
		return uint64ToInt64(uint64(i))
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint64:
		return uint64ToInt64(i)
	case float32:
		return floatToInt64(float64(i))
	case float64:
		return floatToInt64(i)
	case interface{ Int64() (int64, error) }:
		parsed, err := i.Int64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(i), 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func uint64ToInt64(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// floatToInt64 只接受int64范围内没有小数部分的值
func floatToInt64(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// Record 按天统计的记录
type Record interface {
	GetDate() time.Time
	GetCount() int64
	AddCount(delta int64)
}

// RecordSet 按条件过滤后的记录集
type RecordSet interface {
	// SumCount 计算[from,to]日期范围内count的和,没有记录时返回0
	SumCount(ctx context.Context, from, to time.Time) (int64, error)
}

// RecordSaver 保存记录
type RecordSaver interface {
	Save(ctx context.Context, record Record) error
}

// RecordSaverFunc 函数形式的RecordSaver
type RecordSaverFunc func(ctx context.Context, record Record) error

// Save implements RecordSaver
func (f RecordSaverFunc) Save(ctx context.Context, record Record) error {
	return f(ctx, record)
}

// Policy 统计的三个扩展点,都必须提供
type Policy struct {
	// Key 根据日期和字段生成计数的key,ok为false表示不记录
	Key func(date time.Time, fields Fields) (key string, ok bool, err error)
	// Record 根据key取得要保存的记录,返回nil表示丢弃该计数
	Record func(ctx context.Context, key string) (Record, error)
	// Query 根据字段取得记录集
	Query func(fields Fields) (RecordSet, error)
}

func (p *Policy) check() error {
	if p == nil {
		return fmt.Errorf("%w: policy", ErrNotImplemented)
	}
	if p.Key == nil {
		return fmt.Errorf("%w: key", ErrNotImplemented)
	}
	if p.Record == nil {
		return fmt.Errorf("%w: record", ErrNotImplemented)
	}
	if p.Query == nil {
		return fmt.Errorf("%w: query", ErrNotImplemented)
	}
	return nil
}

// Views 最近一周、一月、一年的统计
type Views struct {
	Week  int64 `json:"week" codec:"week"`
	Month int64 `json:"month" codec:"month"`
	Year  int64 `json:"year" codec:"year"`
}

// 统计窗口的天数,包括今天
const (
	WeekDays  = 7
	MonthDays = 30
	YearDays  = 365
)

// DateFormat 生成key中的日期部分,年月日不补零,如2010-3-7
func DateFormat(date time.Time) string {
	return fmt.Sprintf("%d-%d-%d", date.Year(), int(date.Month()), date.Day())
}

// ParseDate 解析DateFormat生成的日期,使用本地时区
func ParseDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	var ymd [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		ymd[i] = v
	}
	if ymd[1] < 1 || ymd[1] > 12 || ymd[2] < 1 || ymd[2] > 31 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	date := time.Date(ymd[0], time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, c.LocalLocation)
	if date.Day() != ymd[2] {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return date, nil
}

// JoinKey 用":"连接key的各部分
func JoinKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// SplitKey 拆分key,n为期望的部分数
func SplitKey(key string, n int) ([]string, error) {
	parts := strings.Split(key, ":")
	if len(parts) != n {
		return nil, fmt.Errorf("invalid key %q, expect %d parts", key, n)
	}
	return parts, nil
}
