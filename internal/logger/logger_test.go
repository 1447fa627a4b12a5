package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{"plain", []any{"student_id", 7}, []any{"student_id", 7}},
		{"password", []any{"password", "hunter2"}, []any{"password", redacted}},
		{"api key case-insensitive", []any{"OpenAI_API_KEY", "sk"}, []any{"OpenAI_API_KEY", redacted}},
		{"odd trailing key", []any{"a", 1, "dangling"}, []any{"a", 1, "dangling"}},
		{
			"nested map",
			[]any{"params", map[string]any{"login": "bob", "password": "x"}},
			[]any{"params", map[string]any{"login": "bob", "password": redacted}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeKVs(tt.in))
		})
	}
}

func TestLoggerRedactsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Info("login", "login", "bob", "password", "secret")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "bob", ctx["login"])
	assert.Equal(t, redacted, ctx["password"])
	assert.Equal(t, "test", ctx["component"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("dev", "loud")
	require.Error(t, err)

	l, err := New("production", "warn")
	require.NoError(t, err)
	assert.NotNil(t, l.SugaredLogger)
}
