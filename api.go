package xcqrs

import (
	"context"
)

// HealthChecker provides health status for production monitoring.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// API represents the complete xcqrs surface for extensibility.
type API interface {
	RegisterCommandHandler(typ string, h CommandHandler) error
	RegisterQueryHandler(typ string, h QueryHandler) error
	RegisterEventHandler(typ string, h EventHandler) error
	Use(mw Middleware) error

	ExecuteCommand(ctx context.Context, typ string, data any, aggregateID string, meta Metadata) (any, error)
	ExecuteQuery(ctx context.Context, typ string, params any, meta Metadata) (any, error)
	PublishEvent(ctx context.Context, typ string, data any, aggregateID string, version int64, meta Metadata) error

	Clear()
	Stats() Stats
	RegisteredHandlers() HandlerTypes
	GetMetrics() Metrics
	Health(ctx context.Context) HealthStatus
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	Close(ctx context.Context) error
}
