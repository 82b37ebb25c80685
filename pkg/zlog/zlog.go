package zlog

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// Init 初始化全局日志器：控制台输出 + 按大小滚动的文件输出
// logPath 为空时只输出到控制台
func Init(logPath string) {
	once.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder := zapcore.NewJSONEncoder(encCfg)

		cores := []zapcore.Core{
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		}

		if logPath != "" {
			// 业务日志与错误日志分文件写入，便于外部采集器分别消费
			outWriter := &lumberjack.Logger{
				Filename:   filepath.Join(logPath, "WSpeicher_Archiv.log"),
				MaxSize:    64, // MB
				MaxBackups: 7,
				MaxAge:     30,
			}
			errWriter := &lumberjack.Logger{
				Filename:   filepath.Join(logPath, "WSpeicher_Error.log"),
				MaxSize:    64,
				MaxBackups: 7,
				MaxAge:     30,
			}
			cores = append(cores,
				zapcore.NewCore(encoder, zapcore.AddSync(outWriter), zapcore.DebugLevel),
				zapcore.NewCore(encoder, zapcore.AddSync(errWriter), zapcore.ErrorLevel),
			)
		}

		logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	})
}

func get() *zap.Logger {
	if logger == nil {
		Init("")
	}
	return logger
}

func Debug(msg string, fields ...zap.Field) { get().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { get().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { get().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { get().Error(msg, fields...) }

// Fatal 记录日志后退出进程，仅用于启动阶段的不可恢复错误
func Fatal(msg string, fields ...zap.Field) { get().Fatal(msg, fields...) }

// Sync 刷新缓冲区，进程退出前调用
func Sync() { _ = get().Sync() }
