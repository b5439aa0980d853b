package xcqrs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// BusBuilder constructs Bus instances (Builder pattern).
type BusBuilder struct {
	cfg         Config
	middlewares []Middleware
	observers   []Observer
	logger      *xlog.Logger
	clock       xclock.Clock
	idGen       func() string
	baseCtx     context.Context

	poolWorkers int
	poolBuffer  int
}

// NewBusBuilder returns a new builder seeded with Defaults().
func NewBusBuilder() *BusBuilder {
	return &BusBuilder{
		cfg:         Defaults(),
		poolWorkers: 4,
		poolBuffer:  1024,
	}
}

// WithConfig replaces the whole configuration, e.g. with ConfigFromEnv().
func (bb *BusBuilder) WithConfig(cfg Config) *BusBuilder {
	bb.cfg = cfg
	return bb
}

func (bb *BusBuilder) WithCommandTimeout(d time.Duration) *BusBuilder {
	if d > 0 {
		bb.cfg.CommandTimeout = d
	}
	return bb
}

func (bb *BusBuilder) WithQueryTimeout(d time.Duration) *BusBuilder {
	if d > 0 {
		bb.cfg.QueryTimeout = d
	}
	return bb
}

func (bb *BusBuilder) WithMaxMiddlewares(n int) *BusBuilder {
	bb.cfg.MaxMiddlewares = n
	return bb
}

// WithLogging installs LoggingMiddleware at the given level on Build.
func (bb *BusBuilder) WithLogging(level LogLevel) *BusBuilder {
	bb.cfg.EnableLogging = true
	bb.cfg.LogLevel = level
	return bb
}

func (bb *BusBuilder) WithMiddleware(mw ...Middleware) *BusBuilder {
	bb.middlewares = append(bb.middlewares, mw...)
	return bb
}

func (bb *BusBuilder) WithObserver(obs ...Observer) *BusBuilder {
	for _, o := range obs {
		if o != nil {
			bb.observers = append(bb.observers, o)
		}
	}
	return bb
}

// WithObserverPool sizes the async notice pool (started with the first observer).
func (bb *BusBuilder) WithObserverPool(workers, bufferSize int) *BusBuilder {
	bb.poolWorkers = workers
	bb.poolBuffer = bufferSize
	return bb
}

func (bb *BusBuilder) WithLogger(l *xlog.Logger) *BusBuilder {
	bb.logger = l
	return bb
}

func (bb *BusBuilder) WithClock(c xclock.Clock) *BusBuilder {
	bb.clock = c
	return bb
}

// WithIDGenerator overrides message ID generation (default: random UUIDs).
func (bb *BusBuilder) WithIDGenerator(gen func() string) *BusBuilder {
	bb.idGen = gen
	return bb
}

// WithContext sets the parent context of the observer pool workers.
func (bb *BusBuilder) WithContext(ctx context.Context) *BusBuilder {
	bb.baseCtx = ctx
	return bb
}

func (bb *BusBuilder) Build() (*Bus, error) {
	if err := bb.cfg.Validate(); err != nil {
		return nil, err
	}

	clk := bb.clock
	if clk == nil {
		clk = xclock.Default()
	}
	lg := bb.logger
	if lg == nil {
		lg = xlog.Default()
	}
	gen := bb.idGen
	if gen == nil {
		gen = uuid.NewString
	}
	ctx := bb.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}

	b := &Bus{
		cfg:         bb.cfg,
		registry:    NewRegistry(),
		clock:       clk,
		logger:      lg,
		newID:       gen,
		poolWorkers: bb.poolWorkers,
		poolBuffer:  bb.poolBuffer,
		baseCtx:     ctx,
		metrics:     &busMetrics{},
	}

	// Logging goes first so it sees every other middleware's effect.
	if bb.cfg.EnableLogging {
		if err := b.Use(LoggingMiddleware(lg, bb.cfg.LogLevel)); err != nil {
			return nil, err
		}
	}
	for _, mw := range bb.middlewares {
		if mw == nil {
			continue
		}
		if err := b.Use(mw); err != nil {
			return nil, err
		}
	}
	for _, o := range bb.observers {
		b.AddObserver(o)
	}
	return b, nil
}

// New constructs a Bus via Builder and returns a close func for convenience.
func New(init func(b *BusBuilder)) (*Bus, func() error, error) {
	bb := NewBusBuilder()
	if init != nil {
		init(bb)
	}
	bus, err := bb.Build()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error { return bus.Close(context.Background()) }
	return bus, closeFn, nil
}
