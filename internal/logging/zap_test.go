package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLoggerFromZap(zap.New(core)), logs
}

func TestZapLogger_Levels(t *testing.T) {
	log, logs := newObservedLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	tests := []struct {
		level zapcore.Level
		msg   string
		key   string
		val   int64
	}{
		{zapcore.DebugLevel, "dbg", "a", 1},
		{zapcore.InfoLevel, "inf", "b", 2},
		{zapcore.WarnLevel, "wrn", "c", 3},
		{zapcore.ErrorLevel, "err", "d", 4},
	}
	for i, tc := range tests {
		e := entries[i]
		assert.Equal(t, tc.level, e.Level)
		assert.Equal(t, tc.msg, e.Message)
		assert.Equal(t, tc.val, e.ContextMap()[tc.key])
	}
}

func TestZapLogger_With_AddsAttributes(t *testing.T) {
	log, logs := newObservedLogger(t)

	log.With("module", "http", "user", "alice").Info(context.Background(), "hello", "k", "v")

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "http", fields["module"])
	assert.Equal(t, "alice", fields["user"])
	assert.Equal(t, "v", fields["k"])
}

func TestZapLogger_RequestIDFromContext(t *testing.T) {
	log, logs := newObservedLogger(t)

	ctx := WithRequestID(context.Background(), "req-42")
	log.Info(ctx, "with id")
	log.Info(context.Background(), "without id")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	_, ok := entries[1].ContextMap()["request_id"]
	assert.False(t, ok)
}

func TestNewZapLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	log, err := NewZapLogger(Options{Level: "info", Path: path})
	require.NoError(t, err)

	log.Info(context.Background(), "to file", "n", 1)
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"to file"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := NewNop()
	ctx := context.TODO()
	l.Debug(ctx, "x")
	l.Info(ctx, "x")
	l.Warn(ctx, "x")
	l.Error(ctx, "x")
	l.With("a", 1).Info(ctx, "y")
}
