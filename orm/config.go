package orm

import (
	"fmt"

	c "github.com/d0ngw/daystat/common"
)

// 支持的数据库驱动
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DBConfig 数据库配置
type DBConfig struct {
	Driver        string `yaml:"driver" env:"DAYSTAT_DB_DRIVER"`
	User          string `yaml:"user" env:"DAYSTAT_DB_USER"`
	Pass          string `yaml:"pass" env:"DAYSTAT_DB_PASS"`
	URL           string `yaml:"url" env:"DAYSTAT_DB_URL"`
	Schema        string `yaml:"schema" env:"DAYSTAT_DB_SCHEMA"`
	MaxConn       int    `yaml:"maxConn"`
	MaxIdle       int    `yaml:"maxIdle"`
	MaxTimeSecond int    `yaml:"maxTimeSecond"`
	Charset       string `yaml:"charset"`
}

// Parse implements DBConfigurer
func (p *DBConfig) Parse() error {
	if p == nil {
		return fmt.Errorf("no db config")
	}
	if p.Driver == "" {
		p.Driver = DriverMySQL
	}
	switch p.Driver {
	case DriverMySQL:
		if p.URL == "" {
			return fmt.Errorf("need url")
		}
		if p.Schema == "" {
			return fmt.Errorf("need schema")
		}
	case DriverSQLite:
		if p.URL == "" {
			return fmt.Errorf("need url")
		}
	default:
		return fmt.Errorf("unsupported driver %s", p.Driver)
	}
	return nil
}

// DBConfig implements DBConfigurer
func (p *DBConfig) DBConfig() *DBConfig {
	return p
}

// DBConfigurer DB配置器
type DBConfigurer interface {
	c.Configurer
	DBConfig() *DBConfig
}
