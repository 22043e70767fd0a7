// pkg/db/gorm_logger.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hydrapp/hydration-reminder/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	defaultGormLogLevel  = gormlogger.Warn
)

// gormBridge routes gorm's logging through the application logger so SQL
// output honors the same level gate as everything else.
type gormBridge struct {
	slowThreshold time.Duration
	skipNotFound  bool
	level         gormlogger.LogLevel
}

func newGormLogger(levelValue string) (gormlogger.Interface, error) {
	level := defaultGormLogLevel
	var levelErr error
	if strings.TrimSpace(levelValue) != "" {
		level, levelErr = parseGormLogLevel(levelValue)
	}
	return &gormBridge{
		slowThreshold: defaultSlowThreshold,
		skipNotFound:  true,
		level:         level,
	}, levelErr
}

func parseGormLogLevel(value string) (gormlogger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "silent":
		return gormlogger.Silent, nil
	case "error":
		return gormlogger.Error, nil
	case "warn":
		return gormlogger.Warn, nil
	case "info":
		return gormlogger.Info, nil
	default:
		return defaultGormLogLevel, fmt.Errorf("invalid gorm log level %q", value)
	}
}

func (b *gormBridge) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *b
	clone.level = level
	return &clone
}

func (b *gormBridge) Info(ctx context.Context, msg string, data ...interface{}) {
	if b.enabled(gormlogger.Info) {
		logger.Logger.Log(ctx, slog.LevelInfo, fmt.Sprintf(msg, data...))
	}
}

func (b *gormBridge) Warn(ctx context.Context, msg string, data ...interface{}) {
	if b.enabled(gormlogger.Warn) {
		logger.Logger.Log(ctx, slog.LevelWarn, fmt.Sprintf(msg, data...))
	}
}

func (b *gormBridge) Error(ctx context.Context, msg string, data ...interface{}) {
	if b.enabled(gormlogger.Error) {
		logger.Logger.Log(ctx, slog.LevelError, fmt.Sprintf(msg, data...))
	}
}

func (b *gormBridge) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if b.level == gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil:
		if b.skipNotFound && errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}
		if b.enabled(gormlogger.Error) {
			logger.Logger.Log(ctx, slog.LevelError, "query failed",
				"elapsed", elapsed, "rows", rows, "sql", sql, "error", err)
		}
	case b.slowThreshold > 0 && elapsed > b.slowThreshold:
		if b.enabled(gormlogger.Warn) {
			logger.Logger.Log(ctx, slog.LevelWarn, "slow query",
				"elapsed", elapsed, "rows", rows, "sql", sql, "threshold", b.slowThreshold)
		}
	default:
		if b.enabled(gormlogger.Info) {
			logger.Logger.Log(ctx, slog.LevelInfo, "query",
				"elapsed", elapsed, "rows", rows, "sql", sql)
		}
	}
}

// enabled requires both the gorm-side level and the application level to
// admit the message.
func (b *gormBridge) enabled(level gormlogger.LogLevel) bool {
	if b.level == gormlogger.Silent || b.level < level {
		return false
	}
	switch level {
	case gormlogger.Info:
		return logger.Enabled(logger.INFO)
	case gormlogger.Warn:
		return logger.Enabled(logger.WARN)
	case gormlogger.Error:
		return logger.Enabled(logger.ERROR)
	default:
		return false
	}
}
