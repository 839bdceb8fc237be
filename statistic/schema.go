// Package statistic 具体的按天统计:视频播放数和字幕获取数
package statistic

import (
	"context"
	"fmt"

	"github.com/d0ngw/daystat/orm"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS video_view_stats (
	id BIGINT NOT NULL AUTO_INCREMENT,
	video_id BIGINT NOT NULL,
	date DATE NOT NULL,
	count BIGINT UNSIGNED NOT NULL DEFAULT 0,
	PRIMARY KEY (id),
	UNIQUE KEY uk_video_date (video_id, date)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS subtitle_fetch_stats (
	id BIGINT NOT NULL AUTO_INCREMENT,
	video_id BIGINT NOT NULL,
	language VARCHAR(16) NOT NULL,
	date DATE NOT NULL,
	count BIGINT UNSIGNED NOT NULL DEFAULT 0,
	PRIMARY KEY (id),
	UNIQUE KEY uk_video_language_date (video_id, language, date)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS video_view_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id INTEGER NOT NULL,
	date DATE NOT NULL,
	count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0)
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uk_video_date ON video_view_stats (video_id, date)`,
	`CREATE TABLE IF NOT EXISTS subtitle_fetch_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id INTEGER NOT NULL,
	language TEXT NOT NULL,
	date DATE NOT NULL,
	count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0)
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uk_video_language_date ON subtitle_fetch_stats (video_id, language, date)`,
}

// Schema 取得driver对应的建表语句
func Schema(driver string) ([]string, error) {
	switch driver {
	case orm.DriverMySQL, "":
		return mysqlSchema, nil
	case orm.DriverSQLite:
		return sqliteSchema, nil
	default:
		return nil, fmt.Errorf("unsupported driver %s", driver)
	}
}

// InitSchema 在pool上创建统计表
func InitSchema(ctx context.Context, pool *orm.Pool) error {
	stmts, err := Schema(pool.Driver())
	if err != nil {
		return err
	}
	return pool.Exec(ctx, stmts...)
}
