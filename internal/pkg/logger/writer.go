package logger

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// LogWriter 供 gorm logger 使用的 Printf 适配
type LogWriter struct {
	zapcore.WriteSyncer
}

func (l *LogWriter) Printf(format string, args ...interface{}) {
	_, _ = l.WriteSyncer.Write([]byte(fmt.Sprintf(format, args...) + "\n"))
	_ = l.WriteSyncer.Sync()
}

func GetWriter() *LogWriter {
	return logWriter
}
