// Package http 提供统计的http服务
package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	c "github.com/d0ngw/daystat/common"
)

// Config Http配置
type Config struct {
	Addr         string `yaml:"addr" env:"DAYSTAT_HTTP_ADDR"` //Http监听地址
	ReadTimeout  int    `yaml:"read_timeout"`                 //读超时,单位秒
	WriteTimeout int    `yaml:"write_timeout"`                //写超时,单位秒
	MaxConns     int    `yaml:"max_conns"`                    //最大的并发连接数,0表示不限制
	middlewares  []Middleware
	handles      map[string]http.HandlerFunc
	mu           sync.Mutex
}

// NewConfig 创建配置
func NewConfig(addr string) *Config {
	conf := &Config{Addr: addr}
	conf.init()
	return conf
}

func (p *Config) init() {
	if p.handles == nil {
		p.handles = map[string]http.HandlerFunc{}
	}
}

// Parse implements common.Configurer
func (p *Config) Parse() error {
	if p.Addr == "" {
		p.Addr = ":8080"
	}
	if p.ReadTimeout < 0 || p.WriteTimeout < 0 || p.MaxConns < 0 {
		return fmt.Errorf("invalid http conf")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.init()
	return nil
}

// RegController 注册controller中的所有处理方法,路径为controller.GetPath()+处理方法路径
func (p *Config) RegController(controller Controller) error {
	if c.IsNil(controller) {
		return fmt.Errorf("can't reg nil controller")
	}

	path := controller.GetPath()
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	handlers, err := controller.GetHandlers()
	if err != nil {
		return err
	}
	if len(handlers) == 0 {
		c.Warnf("can't find handler in %T", controller)
		return nil
	}

	methods := controller.GetMethods()
	for handlerPath, h := range handlers {
		pattern := path + strings.TrimPrefix(handlerPath, "/")
		if method := methods[handlerPath]; method != "" {
			pattern = method + " " + pattern
		}
		if err := p.RegHandleFunc(pattern, h); err != nil {
			return err
		}
		c.Infof("register controller %T#%s,pattern:%s", controller, controller.GetName(), pattern)
	}
	return nil
}

// RegHandleFunc 注册pattern的处理方法
func (p *Config) RegHandleFunc(pattern string, handlerFunc http.HandlerFunc) error {
	if handlerFunc == nil {
		return fmt.Errorf("can't bind nil handler to %s", pattern)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.init()
	if _, ok := p.handles[pattern]; ok {
		return fmt.Errorf("duplicate pattern %s", pattern)
	}
	p.handles[pattern] = handlerFunc
	return nil
}

// RegMiddleware 注册middleware,按注册的顺序由外向内执行
func (p *Config) RegMiddleware(middleware Middleware) error {
	if c.IsNil(middleware) {
		return fmt.Errorf("invalid middleware")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = append(p.middlewares, middleware)
	return nil
}
