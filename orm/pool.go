package orm

import (
	"context"
	"database/sql"
	"fmt"
)

// Pool 数据库连接池
type Pool struct {
	name   string
	driver string
	db     *sql.DB
}

// PoolFunc 根据配置创建连接池
type PoolFunc func(config *DBConfig) (*Pool, error)

// NewDBPool 根据config.Driver创建连接池
func NewDBPool(config *DBConfig) (*Pool, error) {
	if config == nil {
		return nil, NewDBError(nil, "Not found config")
	}
	switch config.Driver {
	case DriverMySQL, "":
		return NewMySQLDBPool(config)
	case DriverSQLite:
		return NewSQLiteDBPool(config)
	default:
		return nil, NewDBErrorf(nil, "unsupported driver %s", config.Driver)
	}
}

// Name 连接池的名称
func (p *Pool) Name() string {
	return p.name
}

// Driver 数据库驱动
func (p *Pool) Driver() string {
	return p.driver
}

// DB sql.DB
func (p *Pool) DB() *sql.DB {
	return p.db
}

// NewOp create a new Op
func (p *Pool) NewOp() *Op {
	return &Op{pool: p, ctx: context.Background()}
}

// Exec 执行ddl等语句
func (p *Pool) Exec(ctx context.Context, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return NewDBErrorf(err, "exec %s", stmt)
		}
	}
	return nil
}

// Close 关闭连接池
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close pool %s: %w", p.name, err)
	}
	return nil
}
