package xcqrs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/trickstertwo/xcqrs"
)

func newTracedBus(t *testing.T) (*xcqrs.Bus, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	bus := newBus(t, func(b *xcqrs.BusBuilder) {
		b.WithMiddleware(xcqrs.TracingMiddleware(tp))
	})
	return bus, rec
}

func TestTracingMiddleware_CommandSpan(t *testing.T) {
	t.Parallel()
	bus, rec := newTracedBus(t)
	require.NoError(t, bus.RegisterCommandHandler("User.CreateUser", echoCommand("ok")))

	_, err := bus.ExecuteCommand(context.Background(), "User.CreateUser", nil, "user-1", nil)
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "command User.CreateUser", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("cqrs.aggregate.id", "user-1"))
}

func TestTracingMiddleware_RecordsError(t *testing.T) {
	t.Parallel()
	bus, rec := newTracedBus(t)
	errBoom := errors.New("boom")
	require.NoError(t, bus.RegisterEventHandler("Order.Placed", xcqrs.EventHandlerFunc(
		func(ctx context.Context, evt xcqrs.Event) error { return errBoom })))

	err := bus.PublishEvent(context.Background(), "Order.Placed", nil, "o-1", 3, nil)
	require.ErrorIs(t, err, errBoom)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "event Order.Placed", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("cqrs.event.version", 3))
}
