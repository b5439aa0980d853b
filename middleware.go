package xcqrs

import (
	"context"
	"fmt"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// Next continues the pipeline: the next middleware, or the handler itself when
// called from the innermost middleware.
type Next func(ctx context.Context) (any, error)

// Middleware composes processing concerns around a handler. It may work before
// and after next, skip next entirely (short-circuit), call it more than once, or
// wrap the error it returns.
type Middleware interface {
	Execute(ctx context.Context, env Envelope, next Next) (any, error)
}

// MiddlewareFunc is an Adapter that lets a plain function satisfy Middleware.
type MiddlewareFunc func(ctx context.Context, env Envelope, next Next) (any, error)

func (f MiddlewareFunc) Execute(ctx context.Context, env Envelope, next Next) (any, error) {
	return f(ctx, env, next)
}

// Chain composes middlewares around terminal for one envelope. The first
// middleware is the outermost: pre-work runs in slice order, post-work in
// reverse. Nil entries are skipped.
func Chain(env Envelope, terminal Next, mws ...Middleware) Next {
	next := terminal
	// Fold from the innermost so mws[0] ends up wrapping everything.
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		next = wrap(mws[i], env, next)
	}
	return next
}

func wrap(mw Middleware, env Envelope, inner Next) Next {
	return func(ctx context.Context) (any, error) {
		return mw.Execute(ctx, env, inner)
	}
}

// RecoveryMiddleware converts panics further down the chain into errors
// wrapping ErrHandlerPanic, so outer middlewares observe them as failures.
func RecoveryMiddleware() Middleware {
	return MiddlewareFunc(func(ctx context.Context, env Envelope, next Next) (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				res, err = nil, fmt.Errorf("%w: %s %s: %v", ErrHandlerPanic, env.Kind(), env.Header().Type, r)
			}
		}()
		return next(ctx)
	})
}

// LoggingMiddleware writes one line before and one after each dispatch at the
// given level. Failures are always logged at warn and passed through unchanged.
// A nil logger falls back to the one the bus injects into ctx.
func LoggingMiddleware(l *xlog.Logger, level LogLevel) Middleware {
	return MiddlewareFunc(func(ctx context.Context, env Envelope, next Next) (any, error) {
		lg := l
		if lg == nil {
			var ok bool
			if lg, ok = LoggerFromContext(ctx); !ok {
				return next(ctx)
			}
		}
		clk, ok := ClockFromContext(ctx)
		if !ok {
			clk = xclock.Default()
		}

		h := env.Header()
		lg = lg.With(
			xlog.Str("kind", string(env.Kind())),
			xlog.Str("type", h.Type),
			xlog.Str("message_id", h.ID),
		)
		logAt(lg, level, "xcqrs dispatch start")

		start := clk.Now()
		res, err := next(ctx)
		lg = lg.With(xlog.Dur("duration", clk.Since(start)))
		if err != nil {
			lg.Warn().Err(err).Msg("xcqrs dispatch failed")
			return res, err
		}
		logAt(lg, level, "xcqrs dispatch done")
		return res, nil
	})
}

func logAt(l *xlog.Logger, level LogLevel, msg string) {
	switch level {
	case LevelDebug:
		l.Debug().Msg(msg)
	case LevelWarn:
		l.Warn().Msg(msg)
	case LevelError:
		l.Error().Msg(msg)
	default:
		l.Info().Msg(msg)
	}
}
