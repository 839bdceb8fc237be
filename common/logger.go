// Package common 提供日志、配置、服务生命周期等基础功能
package common

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// LogLevel 日志级别
type LogLevel string

// 日志级别定义
const (
	Debug    LogLevel = "debug"
	Info     LogLevel = "info"
	Warn     LogLevel = "warn"
	Error    LogLevel = "error"
	Critical LogLevel = "critical"
)

func (p LogLevel) zapLevel() (zapcore.Level, bool) {
	switch LogLevel(strings.ToLower(string(p))) {
	case Debug:
		return zapcore.DebugLevel, true
	case Info:
		return zapcore.InfoLevel, true
	case Warn:
		return zapcore.WarnLevel, true
	case Error:
		return zapcore.ErrorLevel, true
	case Critical:
		return zapcore.DPanicLevel, true
	}
	return zapcore.InfoLevel, false
}

// Logger 日志接口
type Logger interface {
	Debugf(format string, params ...interface{})
	Infof(format string, params ...interface{})
	Warnf(format string, params ...interface{})
	Errorf(format string, params ...interface{})
	Criticalf(format string, params ...interface{})

	DebugEnabled() bool
	InfoEnabled() bool
	ErrorEnabled() bool

	SetLevel(level LogLevel)
	Sync()
}

var (
	loggerLock sync.RWMutex
	logger     Logger = NewZapLogger(&LogConfig{})
)

func currentLogger() Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return logger
}

// SetLogger 替换全局的logger
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	loggerLock.Lock()
	old := logger
	logger = l
	loggerLock.Unlock()
	old.Sync()
}

func initLogger(config *LogConfig) error {
	SetLogger(NewZapLogger(config))
	return nil
}

// SetLogLevel 设置日志级别,无效的级别将被忽略
func SetLogLevel(level LogLevel) {
	currentLogger().SetLevel(level)
}

// Debugf debug
func Debugf(format string, params ...interface{}) {
	currentLogger().Debugf(format, params...)
}

// Infof info
func Infof(format string, params ...interface{}) {
	currentLogger().Infof(format, params...)
}

// Warnf warn
func Warnf(format string, params ...interface{}) {
	currentLogger().Warnf(format, params...)
}

// Errorf error
func Errorf(format string, params ...interface{}) {
	currentLogger().Errorf(format, params...)
}

// Criticalf critical
func Criticalf(format string, params ...interface{}) {
	currentLogger().Criticalf(format, params...)
}

// Logf 按照指定的级别记录日志
func Logf(level LogLevel, format string, params ...interface{}) {
	switch level {
	case Debug:
		Debugf(format, params...)
	case Warn:
		Warnf(format, params...)
	case Error:
		Errorf(format, params...)
	case Critical:
		Criticalf(format, params...)
	default:
		Infof(format, params...)
	}
}

// DebugEnabled 是否开启了debug
func DebugEnabled() bool {
	return currentLogger().DebugEnabled()
}

// InfoEnabled 是否开启了info
func InfoEnabled() bool {
	return currentLogger().InfoEnabled()
}

// ErrorEnabled 是否开启了error
func ErrorEnabled() bool {
	return currentLogger().ErrorEnabled()
}

// SyncLog 刷新日志缓冲
func SyncLog() {
	currentLogger().Sync()
}
