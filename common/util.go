package common

import (
	"os"
	"os/signal"
	"reflect"
	"strings"
	"sync"
	"syscall"
)

// ExtractRefTuple 抽取反射的val:ValueOf ,ind:Indirect,typ:ind.Type
func ExtractRefTuple(obj interface{}) (val reflect.Value, ind reflect.Value, typ reflect.Type) {
	val = reflect.ValueOf(obj)
	ind = reflect.Indirect(val)
	typ = ind.Type()
	return
}

// IsNil 判断v是否为nil,包括值为nil的指针、map、slice、func等
func IsNil(v interface{}) bool {
	if v == nil {
		return true
	}
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return val.IsNil()
	}
	return false
}

// IsEmpty 检查字符串参数中是否有去掉空白后为空的
func IsEmpty(strs ...string) bool {
	for _, s := range strs {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

// Shutdownhook 进程退出时的钩子
type Shutdownhook struct {
	ch    chan os.Signal
	hooks []func()
	sync.Mutex
}

// NewShutdownhook 创建一个Shutdownhook,sig是要监听的信号,默认会监听syscall.SIGINT,syscall.SIGTERM
func NewShutdownhook(sig ...os.Signal) *Shutdownhook {
	if len(sig) == 0 {
		sig = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, len(sig))
	signal.Notify(ch, sig...)
	return &Shutdownhook{ch: ch}
}

// AddHook 增加一个Hook函数
func (p *Shutdownhook) AddHook(hookFunc func()) {
	p.Lock()
	defer p.Unlock()
	p.hooks = append(p.hooks, hookFunc)
}

// WaitShutdown 等待进程退出的信号,当收到进程退出的信号后,依次执行注册的hook函数
func (p *Shutdownhook) WaitShutdown() {
	s, ok := <-p.ch
	signal.Stop(p.ch)

	p.Lock()
	defer p.Unlock()
	if !ok {
		Warnf("receive signal fail")
		return
	}
	Infof("Receive signal:%v,Run hooks", s)
	for _, f := range p.hooks {
		f()
	}
	Infof("Finished run hooks")
}
