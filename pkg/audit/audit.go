package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
)

// Logger 入库失败审计日志：每个事件追加一行，供外部采集器消费。
// 写入失败只能吞掉，绝不能因为日志问题阻塞入库流程。
type Logger struct {
	mu sync.Mutex
	w  *lumberjack.Logger
}

// New 创建审计日志器，filename 为空时返回 nil（调用方按 nil 安全处理）
func New(filename string) *Logger {
	if filename == "" {
		return nil
	}
	return &Logger{
		w: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    32, // MB
			MaxBackups: 10,
		},
	}
}

// Failure 追加一条结构化失败记录：时间戳、文件名、错误数、原因
func (l *Logger) Failure(filename string, errorCount int, reason string) {
	if l == nil {
		return
	}
	line := fmt.Sprintf("%s\t%s\t%d\t%s\n",
		time.Now().Format(time.RFC3339), filename, errorCount, reason)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write([]byte(line))
}

// Close 关闭底层文件
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.w.Close()
}
