package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowDocumentQuery = 200 * time.Millisecond

// gormLogger sends GORM output to slog, tagged with the document backend.
// A missing document row is the empty board, not an error.
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(l *slog.Logger, backend string) *gormLogger {
	if l == nil {
		l = slog.Default()
	}
	return &gormLogger{
		log:   l.With(slog.String("backend", backend)),
		level: logger.Warn,
		slow:  slowDocumentQuery,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) emit(ctx context.Context, at logger.LogLevel, lvl slog.Level, msg string, data []interface{}) {
	if l.level < at {
		return
	}
	l.log.Log(ctx, lvl, fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Error, slog.LevelError, msg, data)
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	query, rows := fc()
	attrs := []any{
		slog.String("sql", query),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		if l.level >= logger.Error {
			l.log.ErrorContext(ctx, "document query failed", append(attrs, slog.String("error", err.Error()))...)
		}
	case elapsed > l.slow && l.level >= logger.Warn:
		l.log.WarnContext(ctx, "slow document query", attrs...)
	case l.level >= logger.Info:
		l.log.DebugContext(ctx, "document query", attrs...)
	}
}
