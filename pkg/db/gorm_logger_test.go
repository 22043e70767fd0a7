package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hydrapp/hydration-reminder/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func captureGormBridge(t *testing.T, levelValue string) (*gormBridge, *bytes.Buffer) {
	t.Helper()
	originalLogger := logger.Logger
	t.Cleanup(func() {
		logger.Logger = originalLogger
		logger.SetLogLevel(logger.INFO)
	})

	var buf bytes.Buffer
	logger.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	lg, err := newGormLogger(levelValue)
	if err != nil {
		t.Fatalf("failed to create gorm logger: %v", err)
	}
	return lg.(*gormBridge), &buf
}

func TestGormBridgeTraceClassification(t *testing.T) {
	b, buf := captureGormBridge(t, "info")
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	b.slowThreshold = time.Nanosecond
	b.Trace(ctx, time.Now().Add(-time.Millisecond), query, nil)
	if !strings.Contains(buf.String(), "slow query") {
		t.Fatalf("expected slow query warning, got: %s", buf.String())
	}

	buf.Reset()
	b.slowThreshold = time.Hour
	b.Trace(ctx, time.Now().Add(-time.Millisecond), query, nil)
	if !strings.Contains(buf.String(), "query") {
		t.Fatalf("expected plain query log, got: %s", buf.String())
	}

	buf.Reset()
	b.Trace(ctx, time.Now().Add(-time.Millisecond), query, errors.New("boom"))
	if !strings.Contains(buf.String(), "query failed") {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestGormBridgeSkipsRecordNotFound(t *testing.T) {
	b, buf := captureGormBridge(t, "info")

	b.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record-not-found must not be logged, got: %s", buf.String())
	}
}

func TestGormBridgeHonorsApplicationLevel(t *testing.T) {
	b, buf := captureGormBridge(t, "info")

	// At application level ERROR, slow-query warnings are suppressed even
	// though the gorm-side level admits them.
	logger.SetLogLevel(logger.ERROR)
	b.slowThreshold = time.Nanosecond
	b.Trace(context.Background(), time.Now().Add(-time.Millisecond), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected suppressed output at ERROR level, got: %s", buf.String())
	}
}

func TestNewGormLoggerLevelDefaults(t *testing.T) {
	for _, input := range []string{"", "nope"} {
		lg, err := newGormLogger(input)
		if input == "" && err != nil {
			t.Fatalf("unexpected error for empty level: %v", err)
		}
		if input != "" && err == nil {
			t.Fatalf("expected error for invalid level %q", input)
		}
		if b := lg.(*gormBridge); b.level != gormlogger.Warn {
			t.Fatalf("expected default gorm level warn for %q, got %v", input, b.level)
		}
	}
}
