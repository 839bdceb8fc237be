package orm

import (
	"fmt"

	c "github.com/d0ngw/daystat/common"
)

// DBService is the service that supply Op
type DBService interface {
	c.Service
	OpCreator
}

// SimpleDBService implements DBService interface
type SimpleDBService struct {
	c.BaseService
	config   DBConfigurer
	poolFunc PoolFunc
	pool     *Pool
}

// NewSimpleDBService build simple db service
func NewSimpleDBService(config DBConfigurer, poolFunc PoolFunc) *SimpleDBService {
	if poolFunc == nil {
		poolFunc = NewDBPool
	}
	return &SimpleDBService{
		BaseService: c.BaseService{SName: "db"},
		config:      config,
		poolFunc:    poolFunc,
	}
}

// Init implements Initable.Init()
func (p *SimpleDBService) Init() error {
	if p.pool != nil {
		return fmt.Errorf("inited")
	}
	if p.config == nil || p.config.DBConfig() == nil {
		return fmt.Errorf("no db config")
	}

	pool, err := p.poolFunc(p.config.DBConfig())
	if err != nil {
		return err
	}
	p.pool = pool
	return nil
}

// Stop implements Service.Stop()
func (p *SimpleDBService) Stop() bool {
	if p.pool == nil {
		return true
	}
	if err := p.pool.Close(); err != nil {
		c.Errorf("close db pool fail,err:%v", err)
		return false
	}
	return true
}

// Pool 连接池
func (p *SimpleDBService) Pool() *Pool {
	return p.pool
}

// NewOp implements DBService.NewOp()
func (p *SimpleDBService) NewOp() (*Op, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("please init db pool")
	}
	return p.pool.NewOp(), nil
}
