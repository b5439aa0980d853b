package xcqrs

import (
	"context"
	"fmt"
	"sync"
)

var (
	defaultBus   *Bus
	defaultBusMu sync.Mutex
)

// Default returns the process-wide singleton Bus, building it from XCQRS_*
// environment variables on first use.
func Default() *Bus {
	defaultBusMu.Lock()
	defer defaultBusMu.Unlock()

	if defaultBus != nil {
		return defaultBus
	}

	cfg, err := ConfigFromEnv()
	if err != nil {
		panic(fmt.Sprintf("xcqrs: failed to load default bus config: %v", err))
	}
	bus, err := NewBusBuilder().WithConfig(cfg).Build()
	if err != nil {
		panic(fmt.Sprintf("xcqrs: failed to initialize default bus: %v", err))
	}
	defaultBus = bus
	return defaultBus
}

// SetDefault replaces the process-wide default Bus.
func SetDefault(b *Bus) {
	if b == nil {
		panic("xcqrs: SetDefault called with nil Bus")
	}
	defaultBusMu.Lock()
	defaultBus = b
	defaultBusMu.Unlock()
}

// ExecuteCommand is the Facade using the default bus.
func ExecuteCommand(ctx context.Context, typ string, data any, aggregateID string, meta Metadata) (any, error) {
	return Default().ExecuteCommand(ctx, typ, data, aggregateID, meta)
}

// ExecuteQuery is the Facade using the default bus.
func ExecuteQuery(ctx context.Context, typ string, params any, meta Metadata) (any, error) {
	return Default().ExecuteQuery(ctx, typ, params, meta)
}

// PublishEvent is the Facade using the default bus.
func PublishEvent(ctx context.Context, typ string, data any, aggregateID string, version int64, meta Metadata) error {
	return Default().PublishEvent(ctx, typ, data, aggregateID, version, meta)
}
