package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/logger"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg.Headers).Get(key)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "deskly.cart.updated", Topic("cart", "updated"))
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"k1:9092", "k2:9092"})
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Positive(t, cfg.WriteTimeout)
}

func TestNewEvent(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-7")
	ev, err := NewEvent(ctx, "deskly.cart.updated", "deskly:cart", "cart", "cart-service",
		map[string]int{"item_count": 3})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EnvelopeVersion, ev.Version)
	assert.Equal(t, "corr-7", ev.CorrelationID)
	assert.WithinDuration(t, time.Now(), ev.OccurredAt, time.Second)

	var data map[string]int
	require.NoError(t, ev.Decode(&data))
	assert.Equal(t, 3, data["item_count"])

	_, err = NewEvent(context.Background(), "bad", "a", "b", "c", make(chan int))
	assert.ErrorContains(t, err, "marshal bad payload")
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "source", Value: []byte("cart-service")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "cart-service", c.Get("source"))
	assert.Empty(t, c.Get("missing"))

	c.Set("source", "checkout")
	c.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	require.Len(t, headers, 2)
	assert.Equal(t, "checkout", c.Get("source"))
	assert.ElementsMatch(t, []string{"source", "traceparent"}, c.Keys())
}

func TestPublish_WritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, quietLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ev, err := NewEvent(ctx, "deskly.cart.updated", "deskly:cart", "cart", "cart-service", map[string]string{"k": "v"})
	require.NoError(t, err)

	ok := publishTotal.WithLabelValues("deskly.cart.updated", outcomeOK)
	before := testutil.ToFloat64(ok)

	require.NoError(t, p.Publish(ctx, "deskly.cart.updated", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "deskly.cart.updated", msg.Topic)
	assert.Equal(t, "deskly:cart", string(msg.Key))
	assert.Equal(t, "deskly.cart.updated", header(msg, "event_type"))
	assert.Equal(t, "cart-service", header(msg, "source"))
	assert.Equal(t, "corr-1", header(msg, "correlation_id"))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.JSONEq(t, `{"k":"v"}`, string(got.Data))

	assert.InDelta(t, before+1, testutil.ToFloat64(ok), 0)
}

func TestPublish_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, nil, quietLogger())
	ev, err := NewEvent(context.Background(), "deskly.cart.cleared", "deskly:cart", "cart", "cart-service", struct{}{})
	require.NoError(t, err)

	failed := publishTotal.WithLabelValues("deskly.cart.cleared", outcomeError)
	before := testutil.ToFloat64(failed)

	err = p.Publish(context.Background(), "deskly.cart.cleared", ev)
	require.Error(t, err)
	assert.ErrorContains(t, err, "write to deskly.cart.cleared")
	assert.ErrorIs(t, err, w.err)
	assert.InDelta(t, before+1, testutil.ToFloat64(failed), 0)
}

func TestPublish_SpanAndPropagation(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	w := &fakeWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, nil, quietLogger())
	ev, err := NewEvent(context.Background(), "deskly.cart.updated", "deskly:cart", "cart", "cart-service", 1)
	require.NoError(t, err)

	require.Error(t, p.Publish(context.Background(), "deskly.cart.updated", ev))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "deskly.cart.updated publish", spans[0].Name)
	assert.Equal(t, trace.SpanKindProducer, spans[0].SpanKind)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	w.err = nil
	require.NoError(t, p.Publish(context.Background(), "deskly.cart.updated", ev))
	spans = exp.GetSpans()
	require.Len(t, spans, 2)

	tp2 := propagation.TraceContext{}
	carried := tp2.Extract(context.Background(), NewHeaderCarrier(&w.msgs[0].Headers))
	assert.Equal(t, spans[1].SpanContext.TraceID(), trace.SpanContextFromContext(carried).TraceID())
}

func TestPing_NoBrokers(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, nil, quietLogger())
	assert.ErrorContains(t, p.Ping(t.Context()), "no brokers configured")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w, nil, quietLogger()).Close())
	assert.True(t, w.closed)
}
