package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	c "github.com/d0ngw/daystat/common"
	"golang.org/x/net/netutil"
)

type tcpKeepAliveListener struct {
	*net.TCPListener
}

// Accept 接受连接并开启keepalive
func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	if err = tc.SetKeepAlive(true); err != nil {
		return nil, err
	}
	if err = tc.SetKeepAlivePeriod(3 * time.Minute); err != nil {
		return nil, err
	}
	return tc, nil
}

// Service Http服务
type Service struct {
	c.BaseService
	Conf     *Config
	handler  http.Handler
	listener net.Listener
	server   *http.Server
	serveWg  sync.WaitGroup
	lock     sync.Mutex
}

// NewService 创建Http服务
func NewService(conf *Config) *Service {
	return &Service{
		BaseService: c.BaseService{SName: "http", Order: 100},
		Conf:        conf,
	}
}

// Init 根据配置构建处理器
func (p *Service) Init() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.Conf == nil {
		return errors.New("no http conf")
	}
	if err := p.Conf.Parse(); err != nil {
		return err
	}

	serveMux := http.NewServeMux()
	p.Conf.mu.Lock()
	for pattern, handler := range p.Conf.handles {
		serveMux.HandleFunc(pattern, p.handleWithMiddleware(handler))
	}
	p.Conf.mu.Unlock()

	p.handler = serveMux
	p.server = &http.Server{
		Addr:         p.Conf.Addr,
		ReadTimeout:  time.Duration(p.Conf.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(p.Conf.WriteTimeout) * time.Second,
		Handler:      serveMux,
	}
	return nil
}

// Handler 返回Init后的处理器
func (p *Service) Handler() http.Handler {
	return p.handler
}

// handleWithMiddleware 依次调用各个middleware
func (p *Service) handleWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	h := handler
	for i := len(p.Conf.middlewares) - 1; i >= 0; i-- {
		h = p.Conf.middlewares[i].Handle(h)
	}
	return h
}

// Start 启动Http服务,开始端口监听和服务处理
func (p *Service) Start() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.server == nil {
		c.Errorf("http service not inited")
		return false
	}

	ln, err := net.Listen("tcp", p.Conf.Addr)
	if err != nil {
		c.Errorf("listen at %s fail,error:%v", p.Conf.Addr, err)
		return false
	}
	c.Infof("listen at %s", ln.Addr())

	var listener net.Listener = tcpKeepAliveListener{ln.(*net.TCPListener)}
	if p.Conf.MaxConns > 0 {
		listener = netutil.LimitListener(listener, p.Conf.MaxConns)
	}
	p.listener = listener

	server := p.server
	p.serveWg.Add(1)
	go func() {
		defer p.serveWg.Done()
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Errorf("server.Serve return with %v", err)
		}
	}()
	return true
}

// ListenAddr 实际监听的地址,未启动时返回nil
func (p *Service) ListenAddr() net.Addr {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop 停止Http服务,等待正在处理的请求完成
func (p *Service) Stop() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.server == nil {
		return true
	}
	c.Infof("waiting shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ok := true
	if err := p.server.Shutdown(ctx); err != nil {
		c.Errorf("shutdown http server error:%v", err)
		ok = false
	}
	p.serveWg.Wait()
	c.Infof("finish shutdown")

	p.listener = nil
	p.server = nil
	return ok
}
