package xcqrs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ExecuteCommand dispatches a command to its handler through the middleware
// chain and waits at most CommandTimeout for the outcome.
//
// The timeout only stops the wait: the handler is not cancelled and keeps
// running in the background; whatever it returns later is discarded.
func (b *Bus) ExecuteCommand(ctx context.Context, typ string, data any, aggregateID string, meta Metadata) (any, error) {
	b.metrics.commands.Add(1)

	b.stateMu.RLock()
	h, ok := b.registry.Command(typ)
	mws := slices.Clone(b.middlewares)
	b.stateMu.RUnlock()
	if !ok {
		b.metrics.failures.Add(1)
		return nil, &HandlerNotFoundError{Kind: KindCommand, Type: typ}
	}

	cmd := Command{Message: b.header(typ, meta), Data: data, AggregateID: aggregateID}
	terminal := func(ctx context.Context) (any, error) {
		return h.HandleCommand(ctx, cmd)
	}
	return b.dispatch(ctx, cmd, Chain(cmd, terminal, mws...), b.cfg.CommandTimeout)
}

// ExecuteQuery dispatches a query to its handler and waits at most QueryTimeout,
// with the same advisory timeout semantics as ExecuteCommand.
func (b *Bus) ExecuteQuery(ctx context.Context, typ string, params any, meta Metadata) (any, error) {
	b.metrics.queries.Add(1)

	b.stateMu.RLock()
	h, ok := b.registry.Query(typ)
	mws := slices.Clone(b.middlewares)
	b.stateMu.RUnlock()
	if !ok {
		b.metrics.failures.Add(1)
		return nil, &HandlerNotFoundError{Kind: KindQuery, Type: typ}
	}

	q := Query{Message: b.header(typ, meta), Params: params}
	terminal := func(ctx context.Context) (any, error) {
		return h.HandleQuery(ctx, q)
	}
	return b.dispatch(ctx, q, Chain(q, terminal, mws...), b.cfg.QueryTimeout)
}

// PublishEvent delivers one event envelope to every subscriber of typ
// concurrently, each through its own middleware chain and CommandTimeout.
//
// Publishing to no subscribers succeeds. Otherwise it succeeds only when every
// subscriber does; the first failure observed is returned right away and the
// remaining subscribers run on unobserved.
func (b *Bus) PublishEvent(ctx context.Context, typ string, data any, aggregateID string, version int64, meta Metadata) error {
	b.metrics.events.Add(1)

	b.stateMu.RLock()
	handlers := b.registry.Events(typ)
	mws := slices.Clone(b.middlewares)
	b.stateMu.RUnlock()
	if len(handlers) == 0 {
		b.logger.Debug().Str("type", typ).Msg("xcqrs: no handlers for event")
		return nil
	}

	evt := Event{Message: b.header(typ, meta), Data: data, AggregateID: aggregateID, Version: version}
	hctx := InjectAll(ctx, evt, b.logger, b.clock)

	b.notifyAsync(Notice{Type: NoticeDispatchStart, Kind: KindEvent, MessageType: typ, MessageID: evt.ID, Handlers: len(handlers)})
	start := b.clock.Now()

	// Buffered so late finishers never block once we stop reading.
	errCh := make(chan error, len(handlers))
	for _, h := range handlers {
		terminal := func(ctx context.Context) (any, error) {
			return nil, h.HandleEvent(ctx, evt)
		}
		run := Chain(evt, terminal, mws...)
		go func() {
			_, err := b.race(hctx, evt, run, b.cfg.CommandTimeout)
			errCh <- err
		}()
	}

	var err error
	for range handlers {
		if err = <-errCh; err != nil {
			break
		}
	}

	b.settle(evt, len(handlers), b.clock.Since(start), err)
	return err
}

// dispatch runs a composed chain for a single-owner envelope under timeout and
// records the outcome.
func (b *Bus) dispatch(ctx context.Context, env Envelope, run Next, timeout time.Duration) (any, error) {
	h := env.Header()
	b.notifyAsync(Notice{Type: NoticeDispatchStart, Kind: env.Kind(), MessageType: h.Type, MessageID: h.ID, Handlers: 1})

	start := b.clock.Now()
	res, err := b.race(InjectAll(ctx, env, b.logger, b.clock), env, run, timeout)
	b.settle(env, 1, b.clock.Since(start), err)
	return res, err
}

type outcome struct {
	res any
	err error
}

// race runs the chain in its own goroutine and returns whichever comes first:
// the chain's outcome, the timeout, or the caller giving up via ctx. The losing
// goroutine is left to finish on its own.
func (b *Bus) race(ctx context.Context, env Envelope, run Next, timeout time.Duration) (any, error) {
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o = outcome{err: fmt.Errorf("%w: %s %s: %v", ErrHandlerPanic, env.Kind(), env.Header().Type, r)}
			}
			done <- o
		}()
		o.res, o.err = run(ctx)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case o := <-done:
		return o.res, o.err
	case <-t.C:
		return nil, &TimeoutError{Kind: env.Kind(), Type: env.Header().Type, Timeout: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Bus) settle(env Envelope, handlers int, d time.Duration, err error) {
	b.recordDispatchTime(d)

	h := env.Header()
	n := Notice{
		Type:        NoticeDispatchDone,
		Kind:        env.Kind(),
		MessageType: h.Type,
		MessageID:   h.ID,
		Handlers:    handlers,
		Duration:    d,
		Err:         err,
	}
	if err != nil {
		b.metrics.failures.Add(1)
		if errors.Is(err, ErrTimeout) {
			b.metrics.timeouts.Add(1)
			n.Type = NoticeDispatchTimeout
			b.logger.Warn().Err(err).Str("type", h.Type).Msg("xcqrs: dispatch timed out")
		}
	}
	b.notifyAsync(n)
}
