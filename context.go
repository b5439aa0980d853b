package xcqrs

import (
	"context"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// ctxKey is the base for all context keys in xcqrs (prevents collisions).
type ctxKey string

const (
	envelopeCtxKey ctxKey = "xcqrs:envelope"
	loggerCtxKey   ctxKey = "xcqrs:logger"
	clockCtxKey    ctxKey = "xcqrs:clock"
)

// EnvelopeFromContext returns the envelope currently being dispatched.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(envelopeCtxKey).(Envelope)
	return env, ok && env != nil
}

func LoggerFromContext(ctx context.Context) (*xlog.Logger, bool) {
	l, ok := ctx.Value(loggerCtxKey).(*xlog.Logger)
	return l, ok && l != nil
}

func ClockFromContext(ctx context.Context) (xclock.Clock, bool) {
	c, ok := ctx.Value(clockCtxKey).(xclock.Clock)
	return c, ok && c != nil
}

// InjectAll attaches the envelope, logger and clock for downstream middleware and
// handlers. Nil values are skipped.
func InjectAll(ctx context.Context, env Envelope, logger *xlog.Logger, clock xclock.Clock) context.Context {
	if env != nil {
		ctx = context.WithValue(ctx, envelopeCtxKey, env)
	}
	if logger != nil {
		ctx = context.WithValue(ctx, loggerCtxKey, logger)
	}
	if clock != nil {
		ctx = context.WithValue(ctx, clockCtxKey, clock)
	}
	return ctx
}
