package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowThreshold is when a statement counts as slow
const DefaultSlowThreshold = 200 * time.Millisecond

// GormLogger sends GORM output to zap, tagged with the request ID when the
// context carries one.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel

	// SlowThreshold of zero turns slow statement warnings off.
	SlowThreshold time.Duration
	// LogNotFound also reports lookups that found nothing. Repositories map
	// those to domain errors, so they are quiet by default.
	LogNotFound bool
}

// NewGormLogger names the logger "gorm" and uses DefaultSlowThreshold
func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{log: log.Named("gorm"), level: level, SlowThreshold: DefaultSlowThreshold}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, data []any) {
	if l.level < at {
		return
	}
	s := Enrich(ctx, l.log).Sugar()
	switch at {
	case gormlogger.Error:
		s.Errorf(msg, data...)
	case gormlogger.Warn:
		s.Warnf(msg, data...)
	default:
		s.Infof(msg, data...)
	}
}

// Trace logs one statement. A failure beats a slow statement, which beats
// plain statement logging at debug.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	slow := l.SlowThreshold > 0 && elapsed > l.SlowThreshold

	var (
		emit  func(string, ...zap.Field)
		msg   string
		extra zap.Field
	)
	log := Enrich(ctx, l.log)
	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.LogNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		emit, msg, extra = log.Error, "SQL error", zap.Error(err)
	case slow && l.level >= gormlogger.Warn:
		emit, msg, extra = log.Warn, "Slow SQL", zap.Duration("threshold", l.SlowThreshold)
	case l.level >= gormlogger.Info:
		emit, msg, extra = log.Debug, "SQL", zap.Skip()
	default:
		return
	}

	sql, rows := fc()
	emit(msg, zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql), extra)
}

// MapGormLogLevel maps log.level onto GORM. Only debug shows every
// statement.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

var _ gormlogger.Interface = (*GormLogger)(nil)
