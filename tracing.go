package xcqrs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/trickstertwo/xcqrs"

// TracingMiddleware opens one span per dispatch named "<kind> <type>". A nil
// provider means the global one registered with otel.SetTracerProvider.
func TracingMiddleware(tp trace.TracerProvider) Middleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)

	return MiddlewareFunc(func(ctx context.Context, env Envelope, next Next) (any, error) {
		h := env.Header()
		attrs := []attribute.KeyValue{
			attribute.String("cqrs.kind", string(env.Kind())),
			attribute.String("cqrs.message.type", h.Type),
			attribute.String("cqrs.message.id", h.ID),
		}
		switch e := env.(type) {
		case Command:
			attrs = append(attrs, attribute.String("cqrs.aggregate.id", e.AggregateID))
		case Event:
			attrs = append(attrs,
				attribute.String("cqrs.aggregate.id", e.AggregateID),
				attribute.Int64("cqrs.event.version", e.Version),
			)
		}

		ctx, span := tracer.Start(ctx, string(env.Kind())+" "+h.Type,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		res, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}
		span.SetStatus(codes.Ok, "")
		return res, nil
	})
}
