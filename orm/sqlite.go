package orm

import (
	"database/sql"
	"strings"

	c "github.com/d0ngw/daystat/common"
	_ "modernc.org/sqlite"
)

// NewSQLiteDBPool 构建SQLite数据库连接池,URL是数据库文件的路径
func NewSQLiteDBPool(config *DBConfig) (*Pool, error) {
	if config == nil {
		return nil, NewDBError(nil, "Not found config")
	}
	path := strings.TrimSpace(config.URL)
	if path == "" {
		return nil, NewDBError(nil, "Invalid config")
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	// 日期按照sqlite的格式写入,才能按字符串比较范围
	if !strings.Contains(dsn, "_time_format=") {
		dsn += "&_time_format=sqlite"
	}
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		c.Errorf("Error on initializing sqlite %s,%v", path, err)
		return nil, NewDBError(err, "Can't open sqlite")
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, NewDBError(err, "Can't ping sqlite")
	}
	// sqlite只允许一个写连接
	maxConn := config.MaxConn
	if maxConn <= 0 || maxConn > 1 {
		maxConn = 1
	}
	db.SetMaxOpenConns(maxConn)
	return &Pool{name: path, driver: DriverSQLite, db: db}, nil
}
