package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d0ngw/daystat/cache"
	c "github.com/d0ngw/daystat/common"
	"github.com/d0ngw/daystat/http"
	"github.com/d0ngw/daystat/orm"
)

// 快速存储使用的Redis客户端
const (
	ClientRedigo  = "redigo"
	ClientGoRedis = "goredis"
)

// StatsConf 统计的配置
type StatsConf struct {
	Group                 string  `yaml:"group"`                                      //Redis组
	Client                string  `yaml:"client" env:"DAYSTAT_STATS_CLIENT"`          //redigo或goredis
	VideoViewsPrefix      string  `yaml:"video_views_prefix"`                         //视频播放统计的key前缀
	SubtitleFetchesPrefix string  `yaml:"subtitle_fetches_prefix"`                    //字幕获取统计的key前缀
	Interval              int     `yaml:"interval" env:"DAYSTAT_STATS_INTERVAL"`      //定期迁移的间隔,单位秒
	Verbosity             int     `yaml:"verbosity"`                                  //定期迁移的日志级别
	MigrateQPS            float64 `yaml:"migrate_qps" env:"DAYSTAT_STATS_MIGRATE_QPS"` //每秒迁移的key数,0表示不限制
	LockExpire            int     `yaml:"lock_expire"`                                //迁移锁的过期时间,单位秒,0表示不使用分布式锁
	ViewsCacheExpire      int     `yaml:"views_cache_expire"`                         //views缓存的过期时间,单位秒,0表示不缓存
}

// Parse implements common.Configurer
func (p *StatsConf) Parse() error {
	if p.Group == "" {
		return errors.New("stats: no redis group")
	}
	p.Client = strings.ToLower(strings.TrimSpace(p.Client))
	if p.Client == "" {
		p.Client = ClientRedigo
	}
	if p.Client != ClientRedigo && p.Client != ClientGoRedis {
		return fmt.Errorf("stats: unsupported client %s", p.Client)
	}
	if p.VideoViewsPrefix == "" {
		p.VideoViewsPrefix = "vv"
	}
	if p.SubtitleFetchesPrefix == "" {
		p.SubtitleFetchesPrefix = "sf"
	}
	if p.VideoViewsPrefix == p.SubtitleFetchesPrefix {
		return fmt.Errorf("stats: duplicate prefix %s", p.VideoViewsPrefix)
	}
	if p.Interval <= 0 {
		p.Interval = 300
	}
	if p.MigrateQPS < 0 || p.LockExpire < 0 || p.ViewsCacheExpire < 0 {
		return errors.New("stats: invalid qps or expire")
	}
	return nil
}

// AppConfig daystat的配置
type AppConfig struct {
	c.AppConfig `yaml:",inline"`
	Redis       *cache.RedisConf `yaml:"redis"`
	DB          *orm.DBConfig    `yaml:"db"`
	Stats       *StatsConf       `yaml:"stats"`
	HTTP        *http.Config     `yaml:"http"`
}

// Parse implements common.Configurer
func (p *AppConfig) Parse() error {
	if p.Redis == nil || p.DB == nil || p.Stats == nil {
		return errors.New("redis,db and stats must be configured")
	}
	if p.HTTP == nil {
		p.HTTP = &http.Config{}
	}
	return c.Parse(p)
}

// RedisConfig implements cache.RedisConfigurer
func (p *AppConfig) RedisConfig() *cache.RedisConf {
	return p.Redis
}

// DBConfig implements orm.DBConfigurer
func (p *AppConfig) DBConfig() *orm.DBConfig {
	return p.DB
}

func loadConfig(path string) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := c.LoadConfig(conf, "", "", path); err != nil {
		return nil, err
	}
	if err := conf.Parse(); err != nil {
		return nil, err
	}
	return conf, nil
}
