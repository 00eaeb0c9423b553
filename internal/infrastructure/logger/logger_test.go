package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	l, err := NewLogger("not-a-level")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestWithRequest_AddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := (&Logger{Logger: zap.New(core)}).WithComponent("analysis").WithRequest("req-1", "0xToken")

	l.Info("analysis finished")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "analysis", fields["component"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "0xToken", fields["token"])
}

func TestWithFields_AddsEachField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := (&Logger{Logger: zap.New(core)}).WithFields(map[string]interface{}{
		"worker_id":  3,
		"request_id": "req-2",
	})

	l.Warn("reply failed")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(3), fields["worker_id"])
	assert.Equal(t, "req-2", fields["request_id"])
}
