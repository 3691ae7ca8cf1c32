package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewWithWriter_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("cart", "info", &buf)

	l.Info("cart hydrated", slog.Int("items", 2))

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "cart", got[0]["service"])
	assert.Equal(t, "cart hydrated", got[0]["msg"])
	assert.Equal(t, "INFO", got[0]["level"])
	assert.EqualValues(t, 2, got[0]["items"])
	assert.NotContains(t, got[0], "source")
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"d", "i", "w", "e"}},
		{"info", []string{"i", "w", "e"}},
		{"WARN", []string{"w", "e"}},
		{"error", []string{"e"}},
		{"verbose", []string{"i", "w", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter("cart", tt.level, &buf)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")

			var msgs []string
			for _, m := range lines(t, &buf) {
				msgs = append(msgs, m["msg"].(string))
			}
			assert.Equal(t, tt.want, msgs)
		})
	}
}

func TestNewWithWriter_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("cart", "debug", &buf).Debug("x")

	assert.Contains(t, lines(t, &buf)[0], "source")
}

func TestContextFieldsAreInjected(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("cart", "info", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithUserID(ctx, "user-7")

	l.InfoContext(ctx, "item added")
	l.With(slog.String("op", "add")).WarnContext(ctx, "slow write")
	l.Info("no context")

	got := lines(t, &buf)
	require.Len(t, got, 3)
	for _, m := range got[:2] {
		assert.Equal(t, "corr-1", m["correlation_id"])
		assert.Equal(t, "user-7", m["user_id"])
		assert.Equal(t, traceID.String(), m["trace_id"])
		assert.Equal(t, spanID.String(), m["span_id"])
	}
	assert.Equal(t, "add", got[1]["op"])
	assert.NotContains(t, got[2], "correlation_id")
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))
	assert.Empty(t, UserIDFromContext(ctx))
	assert.Empty(t, Attrs(ctx))
	assert.Same(t, slog.Default(), FromContext(ctx))

	l := slog.New(slog.DiscardHandler)
	ctx = NewContext(WithCorrelationID(ctx, "c"), l)
	assert.Same(t, l, FromContext(ctx))
	assert.Equal(t, "c", CorrelationIDFromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("Warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
