package common

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZapLogger 使用zap实现Logger,日志级别可以在运行期调整
type ZapLogger struct {
	logEnable zap.AtomicLevel
	logger    *zap.SugaredLogger
}

// Debugf debug
func (l *ZapLogger) Debugf(format string, params ...interface{}) {
	l.logger.Debugf(format, params...)
}

// DebugEnabled 是否输出debug日志
func (l *ZapLogger) DebugEnabled() bool {
	return l.logEnable.Enabled(zap.DebugLevel)
}

// Infof info
func (l *ZapLogger) Infof(format string, params ...interface{}) {
	l.logger.Infof(format, params...)
}

// InfoEnabled 是否输出info日志
func (l *ZapLogger) InfoEnabled() bool {
	return l.logEnable.Enabled(zap.InfoLevel)
}

// Warnf warn
func (l *ZapLogger) Warnf(format string, params ...interface{}) {
	l.logger.Warnf(format, params...)
}

// Errorf error
func (l *ZapLogger) Errorf(format string, params ...interface{}) {
	l.logger.Errorf(format, params...)
}

// ErrorEnabled 是否输出error日志
func (l *ZapLogger) ErrorEnabled() bool {
	return l.logEnable.Enabled(zap.ErrorLevel)
}

// Criticalf 以error级别输出,带[CRITICAL]前缀,不会panic
func (l *ZapLogger) Criticalf(format string, params ...interface{}) {
	l.logger.Errorf("[CRITICAL] "+format, params...)
}

// Sync impls Logger.Sync
func (l *ZapLogger) Sync() {
	_ = l.logger.Sync()
}

// SetLevel 调整日志级别,无效的level被忽略
func (l *ZapLogger) SetLevel(level LogLevel) {
	zapl, ok := level.zapLevel()
	if ok {
		l.logEnable.SetLevel(zapl)
	}
}

// newZapEncoder production环境使用ISO8601时间和info级别,其他环境使用debug级别
func newZapEncoder(env string) (zapcore.Encoder, zap.AtomicLevel) {
	if env == EnvProduction {
		config := zap.NewProductionEncoderConfig()
		config.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(config), zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zap.NewAtomicLevelAt(zapcore.DebugLevel)
}

// newZapWriter 配置了文件名时写入由lumberjack轮转的文件,否则写stderr
func newZapWriter(logConfig *LogConfig) zapcore.WriteSyncer {
	if logConfig.FileName == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logConfig.FileName,
		MaxSize:    logConfig.MaxSize,
		MaxBackups: logConfig.MaxBackups,
		MaxAge:     logConfig.MaxAge,
		LocalTime:  true,
	})
}

// NewZapLogger 根据log配置创建logger,serve模式下迁移进度和请求日志都经由它输出
func NewZapLogger(logConfig *LogConfig) *ZapLogger {
	encoder, logEnable := newZapEncoder(logConfig.Env)
	if zapl, ok := LogLevel(logConfig.Level).zapLevel(); ok && logConfig.Level != "" {
		logEnable.SetLevel(zapl)
	}

	logger := zap.New(zapcore.NewCore(encoder, newZapWriter(logConfig), logEnable))
	if !logConfig.NoCaller {
		logger = logger.WithOptions(zap.AddCaller(), zap.AddCallerSkip(2))
	}
	return &ZapLogger{logger: logger.Sugar(), logEnable: logEnable}
}
