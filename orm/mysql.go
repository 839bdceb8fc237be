package orm

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	c "github.com/d0ngw/daystat/common"
	_ "github.com/go-sql-driver/mysql"
)

// NewMySQLDBPool 构建MySQL数据库连接池
func NewMySQLDBPool(config *DBConfig) (*Pool, error) {
	if config == nil {
		return nil, NewDBError(nil, "Not found config")
	}

	if len(config.User) == 0 || len(config.URL) == 0 || len(config.Schema) == 0 {
		return nil, NewDBError(nil, "Invalid config")
	}

	charset := config.Charset
	if charset == "" {
		charset = "utf8mb4"
	}

	connectURL := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&loc=%s&parseTime=true", config.User, config.Pass, config.URL, config.Schema, charset, url.QueryEscape(time.Local.String()))
	db, err := sql.Open(DriverMySQL, connectURL)
	if err != nil {
		c.Errorf("Error on initializing database connection,%v", err)
		return nil, NewDBError(err, "Can't open connection")
	}
	db.SetMaxIdleConns(config.MaxIdle)
	db.SetMaxOpenConns(config.MaxConn)
	if config.MaxTimeSecond > 0 {
		db.SetConnMaxLifetime(time.Duration(config.MaxTimeSecond) * time.Second)
	}
	return &Pool{name: config.Schema, driver: DriverMySQL, db: db}, nil
}
