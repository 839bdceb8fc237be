package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/d0ngw/daystat/orm"
)

// DayCount 按天统计的日期和计数,嵌入到实体中使用
type DayCount struct {
	Date  time.Time `column:"date" json:"date"`
	Count int64     `column:"count" json:"count"`
}

// GetDate implements Record
func (p *DayCount) GetDate() time.Time {
	return p.Date
}

// GetCount implements Record
func (p *DayCount) GetCount() int64 {
	return p.Count
}

// AddCount implements Record
func (p *DayCount) AddCount(delta int64) {
	p.Count += delta
}

// Entity 保存到数据库的统计记录
type Entity interface {
	orm.Entity
	Record
}

type identified interface {
	GetID() int64
}

// ORMSaver 使用orm保存记录,没有主键的记录会被插入
type ORMSaver struct {
	ops orm.OpCreator
}

// NewORMSaver 创建ORMSaver
func NewORMSaver(ops orm.OpCreator) *ORMSaver {
	return &ORMSaver{ops: ops}
}

// Save implements RecordSaver
func (p *ORMSaver) Save(ctx context.Context, record Record) error {
	entity, ok := record.(orm.Entity)
	if !ok {
		return fmt.Errorf("%w: %T is not entity", ErrInvalidModel, record)
	}
	op, err := p.ops.NewOp()
	if err != nil {
		return err
	}
	op = op.WithContext(ctx)
	if id, ok := record.(identified); ok && id.GetID() == 0 {
		return orm.Add(op, entity)
	}
	// 计数没有变化时MySQL返回的影响行数为0
	_, err = orm.Update(op, entity)
	return err
}

// ORMRecordSet 按条件过滤的数据库记录集
type ORMRecordSet struct {
	ops       orm.OpCreator
	entity    orm.Entity
	condition string
	params    []interface{}
}

// NewORMRecordSet 创建ORMRecordSet,condition是不含WHERE的过滤条件,可以为空
func NewORMRecordSet(ops orm.OpCreator, entity orm.Entity, condition string, params ...interface{}) *ORMRecordSet {
	return &ORMRecordSet{ops: ops, entity: entity, condition: condition, params: params}
}

// SumCount implements RecordSet
func (p *ORMRecordSet) SumCount(ctx context.Context, from, to time.Time) (int64, error) {
	op, err := p.ops.NewOp()
	if err != nil {
		return 0, err
	}
	condition := "WHERE date >= ? AND date <= ?"
	params := []interface{}{from, to}
	if p.condition != "" {
		condition += " AND " + p.condition
		params = append(params, p.params...)
	}
	return orm.QuerySum(op.WithContext(ctx), p.entity, "count", condition, params...)
}
