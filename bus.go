package xcqrs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

var _ API = (*Bus)(nil)
var _ HealthChecker = (*Bus)(nil)

// Bus is the central Facade: it owns the handler registry and the middleware
// list and dispatches commands, queries and events through them.
//
// A Bus is usable as soon as it is built; Clear returns it to empty, not to an
// unusable state.
type Bus struct {
	cfg      Config
	registry *Registry
	clock    xclock.Clock
	logger   *xlog.Logger
	newID    func() string

	// stateMu makes Clear atomic with respect to dispatch snapshots.
	stateMu     sync.RWMutex
	middlewares []Middleware

	observersMu  sync.RWMutex
	observers    []Observer
	observerPool *ObserverPool
	poolWorkers  int
	poolBuffer   int
	baseCtx      context.Context

	metrics   *busMetrics
	closed    atomic.Bool
	closeOnce sync.Once
}

// busMetrics uses lock-free atomics for telemetry.
type busMetrics struct {
	commands   atomic.Uint64
	queries    atomic.Uint64
	events     atomic.Uint64
	failures   atomic.Uint64
	timeouts   atomic.Uint64
	dispatchNs atomic.Int64
}

// RegisterCommandHandler binds h as the only handler of command type typ.
func (b *Bus) RegisterCommandHandler(typ string, h CommandHandler) error {
	if err := b.registry.RegisterCommand(typ, h); err != nil {
		return err
	}
	b.notifyAsync(Notice{Type: NoticeRegistered, Kind: KindCommand, MessageType: typ})
	return nil
}

// RegisterQueryHandler binds h as the only handler of query type typ.
func (b *Bus) RegisterQueryHandler(typ string, h QueryHandler) error {
	if err := b.registry.RegisterQuery(typ, h); err != nil {
		return err
	}
	b.notifyAsync(Notice{Type: NoticeRegistered, Kind: KindQuery, MessageType: typ})
	return nil
}

// RegisterEventHandler adds h to the subscribers of event type typ.
func (b *Bus) RegisterEventHandler(typ string, h EventHandler) error {
	if err := b.registry.RegisterEvent(typ, h); err != nil {
		return err
	}
	b.notifyAsync(Notice{Type: NoticeRegistered, Kind: KindEvent, MessageType: typ})
	return nil
}

// Use appends mw to the middleware list. Dispatches already in flight keep the
// list they started with.
func (b *Bus) Use(mw Middleware) error {
	if mw == nil {
		return ErrNilMiddleware
	}
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if len(b.middlewares) >= b.cfg.MaxMiddlewares {
		return &MiddlewareLimitError{Limit: b.cfg.MaxMiddlewares}
	}
	b.middlewares = append(b.middlewares, mw)
	return nil
}

// Clear drops every handler binding and every middleware in one step.
func (b *Bus) Clear() {
	b.stateMu.Lock()
	b.registry.Clear()
	b.middlewares = nil
	b.stateMu.Unlock()

	b.logger.Debug().Msg("xcqrs: bus cleared")
	b.notifyAsync(Notice{Type: NoticeCleared})
}

// Stats returns current registration counts.
func (b *Bus) Stats() Stats {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	commands, queries, events := b.registry.Counts()
	return Stats{
		CommandHandlers: commands,
		QueryHandlers:   queries,
		EventHandlers:   events,
		Middlewares:     len(b.middlewares),
	}
}

// RegisteredHandlers lists the registered type names, not the handlers.
func (b *Bus) RegisteredHandlers() HandlerTypes {
	return b.registry.Types()
}

// Config returns the settings the bus was built with.
func (b *Bus) Config() Config { return b.cfg }

// GetMetrics returns current dispatch metrics.
func (b *Bus) GetMetrics() Metrics {
	m := Metrics{
		Commands:          b.metrics.commands.Load(),
		Queries:           b.metrics.queries.Load(),
		Events:            b.metrics.events.Load(),
		Failures:          b.metrics.failures.Load(),
		Timeouts:          b.metrics.timeouts.Load(),
		AvgDispatchTimeMs: float64(b.metrics.dispatchNs.Load()) / 1e6,
	}
	if pool := b.pool(); pool != nil {
		m.NoticesDropped = pool.Stats().Dropped
	}
	return m
}

// Health checks bus health for Kubernetes probes. The bus is degraded when more
// than 5% of dispatches failed.
func (b *Bus) Health(_ context.Context) HealthStatus {
	m := b.GetMetrics()
	hs := HealthStatus{Status: "healthy", Metrics: m, Timestamp: b.clock.Now()}

	total := m.Commands + m.Queries + m.Events
	if m.Failures > 0 && total > 0 {
		rate := float64(m.Failures) / float64(total)
		if rate > 0.05 {
			hs.Status = "degraded"
			hs.Message = fmt.Sprintf("failure rate %.1f%%", rate*100)
		}
	}
	return hs
}

// Close drains queued observer notices. Registration and dispatch keep working
// afterwards; only notices stop. Idempotent.
func (b *Bus) Close(ctx context.Context) error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		pool := b.pool()
		if pool == nil {
			return
		}
		timeout := 5 * time.Second
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		if err := pool.Close(timeout); err != nil {
			b.logger.Warn().Err(err).Msg("xcqrs: observer pool shutdown timeout")
			closeErr = err
		}
	})
	return closeErr
}

// AddObserver registers an observer (thread-safe). The observer pool is started
// on first use.
func (b *Bus) AddObserver(obs Observer) {
	if obs == nil || b.closed.Load() {
		return
	}
	b.observersMu.Lock()
	defer b.observersMu.Unlock()
	if b.observerPool == nil {
		b.observerPool = NewObserverPool(b.baseCtx, b.poolWorkers, b.poolBuffer)
	}
	b.observers = append(b.observers, obs)
}

// RemoveObserver removes an observer. obs must be comparable; removing an
// ObserverFunc panics, so keep a pointer observer when it needs removing.
func (b *Bus) RemoveObserver(obs Observer) {
	if obs == nil {
		return
	}
	b.observersMu.Lock()
	defer b.observersMu.Unlock()
	for i, o := range b.observers {
		if o == obs {
			b.observers = slices.Delete(slices.Clone(b.observers), i, i+1)
			break
		}
	}
}

func (b *Bus) pool() *ObserverPool {
	b.observersMu.RLock()
	defer b.observersMu.RUnlock()
	return b.observerPool
}

// notifyAsync hands n to the observer pool without blocking.
func (b *Bus) notifyAsync(n Notice) {
	if b.closed.Load() {
		return
	}
	b.observersMu.RLock()
	pool, observers := b.observerPool, b.observers
	b.observersMu.RUnlock()
	if pool == nil || len(observers) == 0 {
		return
	}
	// observers is replaced, never mutated in place, so sharing it is safe.
	pool.Notify(n, observers)
}

// recordDispatchTime keeps an exponential moving average of dispatch time.
func (b *Bus) recordDispatchTime(d time.Duration) {
	const alpha = 0.2
	ns := d.Nanoseconds()
	current := b.metrics.dispatchNs.Load()
	if current == 0 {
		b.metrics.dispatchNs.Store(ns)
		return
	}
	b.metrics.dispatchNs.Store(int64(float64(ns)*alpha + float64(current)*(1-alpha)))
}
