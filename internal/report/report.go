// Package report is the leveled log sink handed to every entity. It forwards to
// zap and keeps a running count per level for the end-of-run summary.
package report

import (
	"fmt"

	"go.uber.org/zap"
)

// Counts is the number of entries logged per level.
type Counts struct {
	Info  int
	Warn  int
	Error int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d errors, %d warnings, %d information logs", c.Error, c.Warn, c.Info)
}

// Logger counts what it forwards. It is not safe for concurrent use.
type Logger struct {
	zl     *zap.Logger
	counts Counts
}

// New wraps zl; a nil zl discards output but still counts.
func New(zl *zap.Logger) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{zl: zl}
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.counts.Info++
	l.zl.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.counts.Warn++
	l.zl.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.counts.Error++
	l.zl.Error(msg, fields...)
}

// Counts returns a copy of the counters.
func (l *Logger) Counts() Counts {
	return l.counts
}
