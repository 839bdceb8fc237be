package orm

import (
	"context"
	"database/sql"

	c "github.com/d0ngw/daystat/common"
)

// OpTxFunc 在事务中处理的函数
type OpTxFunc func(tx *sql.Tx) (interface{}, error)

// OpCreator Op
type OpCreator interface {
	//NewOp create a new Op
	NewOp() (*Op, error)
}

// Op 数据库操作接口,与sql.DB对应,封装了事务等
type Op struct {
	pool         *Pool           //数据连接
	ctx          context.Context //执行sql的上下文
	tx           *sql.Tx         //事务
	txDone       bool            //事务是否结束
	rollbackOnly bool            //是否只回滚
	transDepth   int             //调用的深度
}

// DB sql.DB
func (p *Op) DB() *sql.DB {
	return p.pool.db
}

// Pool pool
func (p *Op) Pool() *Pool {
	return p.pool
}

// PoolName name of pool
func (p *Op) PoolName() string {
	return p.pool.name
}

// WithContext 返回使用ctx执行sql的Op,事务状态不共享
func (p *Op) WithContext(ctx context.Context) *Op {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Op{pool: p.pool, ctx: ctx}
}

// Context 执行sql的上下文
func (p *Op) Context() context.Context {
	if p.ctx == nil {
		return context.Background()
	}
	return p.ctx
}

func (p *Op) executor() executor {
	if p.tx != nil {
		return p.tx
	}
	return p.pool.db
}

func (p *Op) close() {
	p.tx = nil
	p.rollbackOnly = false
	p.transDepth = 0
}

//检查事务的状态
func (p *Op) checkTransStatus() error {
	if p.txDone {
		return sql.ErrTxDone
	}
	if p.tx == nil {
		return NewDBError(nil, "Not begin transaction")
	}
	return nil
}

func (p *Op) incrTransDepth() {
	p.transDepth = p.transDepth + 1
}

func (p *Op) decrTransDepth() error {
	p.transDepth = p.transDepth - 1
	if p.transDepth < 0 {
		return NewDBError(nil, "Too many invoke commit or rollback")
	}
	return nil
}

//结束事务
func (p *Op) finishTrans() error {
	if err := p.checkTransStatus(); err != nil {
		return err
	}
	if err := p.decrTransDepth(); err != nil {
		return err
	}
	if p.transDepth > 0 {
		return nil
	}
	defer p.close()
	p.txDone = true
	if p.rollbackOnly {
		return p.tx.Rollback()
	}
	return p.tx.Commit()
}

// BeginTx 开始事务,支持简单的嵌套调用,如果已经开始了事务,则直接返回成功
func (p *Op) BeginTx() error {
	p.incrTransDepth()
	if p.tx != nil {
		return nil //事务已经开启
	}
	tx, err := p.DB().BeginTx(p.Context(), nil)
	if err != nil {
		p.transDepth = 0
		return err
	}
	p.tx = tx
	p.txDone = false
	return nil
}

// Commit 提交事务
func (p *Op) Commit() error {
	return p.finishTrans()
}

// Rollback 回滚事务
func (p *Op) Rollback() error {
	p.SetRollbackOnly(true)
	return p.finishTrans()
}

// SetRollbackOnly 设置只回滚
func (p *Op) SetRollbackOnly(rollback bool) {
	p.rollbackOnly = rollback
}

// IsRollbackOnly 是否只回滚
func (p *Op) IsRollbackOnly() bool {
	return p.rollbackOnly
}

// DoInTrans 在事务中执行
func (p *Op) DoInTrans(operation OpTxFunc) (rt interface{}, err error) {
	if err := p.BeginTx(); err != nil {
		return nil, err
	}
	var succ = false
	//结束事务
	defer func() {
		if !succ {
			p.SetRollbackOnly(true)
		}
		transErr := p.finishTrans()
		if transErr != nil {
			c.Errorf("Finish transaction err:%v", transErr)
			rt = nil
			err = transErr
		}
	}()
	rt, err = operation(p.tx)
	if err != nil {
		c.Errorf("Operation fail:%v", err)
		succ = false
	} else {
		succ = true
	}
	return
}

//查找实体对应的模型元
func findEntityMeta(entity Entity) *meta {
	_, _, typ := extract(entity)
	modelMeta := findMeta(typ)
	if modelMeta == nil {
		panic(NewDBErrorf(nil, "Can't find modelMeta for:%v ", typ))
	}
	return modelMeta
}

// Add 添加实体
func Add(op *Op, entity Entity) error {
	modelMeta := findEntityMeta(entity)
	return modelMeta.insertFunc(op.Context(), op.executor(), entity)
}

// Update 更新实体
func Update(op *Op, entity Entity) (bool, error) {
	modelMeta := findEntityMeta(entity)
	return modelMeta.updateFunc(op.Context(), op.executor(), entity)
}

// UpdateColumns 更新列
func UpdateColumns(op *Op, entity Entity, columns string, condition string, params ...interface{}) (int64, error) {
	modelMeta := findEntityMeta(entity)
	return modelMeta.updateColumnsFunc(op.Context(), op.executor(), entity, columns, condition, params)
}

// Get 根据ID查询实体
func Get(op *Op, entity Entity, id interface{}) (Entity, error) {
	modelMeta := findEntityMeta(entity)
	return modelMeta.getFunc(op.Context(), op.executor(), entity, id)
}

// Query 根据条件查询实体
func Query(op *Op, entity Entity, condition string, params ...interface{}) ([]Entity, error) {
	modelMeta := findEntityMeta(entity)
	return modelMeta.entityQueryFunc(op.Context(), op.executor(), entity, condition, params)
}

type count struct {
	Count int64
}

// QueryCount 根据条件查询条数
func QueryCount(op *Op, entity Entity, column string, condition string, params ...interface{}) (num int64, err error) {
	var counts []*count
	if err = QueryColumnsForDestSlice(op, entity, &counts, []string{"count(" + column + ")"}, condition, params...); err != nil {
		return
	}
	if len(counts) > 0 {
		num = counts[0].Count
	}
	return
}

type sum struct {
	Sum sql.NullInt64
}

// QuerySum 根据条件对column求和,没有记录时返回0
func QuerySum(op *Op, entity Entity, column string, condition string, params ...interface{}) (total int64, err error) {
	var sums []*sum
	if err = QueryColumnsForDestSlice(op, entity, &sums, []string{"sum(" + column + ")"}, condition, params...); err != nil {
		return
	}
	if len(sums) > 0 && sums[0].Sum.Valid {
		total = sums[0].Sum.Int64
	}
	return
}

// QueryColumnsForDestSlice 根据条件查询数据,结果保存到destSlicePtr
func QueryColumnsForDestSlice(op *Op, entity Entity, destSlicePtr interface{}, columns []string, condition string, params ...interface{}) error {
	modelMeta := findEntityMeta(entity)
	return modelMeta.columnsQueryFunc(op.Context(), op.executor(), entity, destSlicePtr, columns, condition, params)
}

// Del 根据ID删除实体
func Del(op *Op, entity Entity, id interface{}) (bool, error) {
	modelMeta := findEntityMeta(entity)
	return modelMeta.delEFunc(op.Context(), op.executor(), entity, id)
}

// DelByCondition 根据条件删除
func DelByCondition(op *Op, entity Entity, condition string, params ...interface{}) (int64, error) {
	modelMeta := findEntityMeta(entity)
	return modelMeta.delFunc(op.Context(), op.executor(), entity, condition, params)
}
