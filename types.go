package xcqrs

import (
	"time"
)

// Stats reports what is currently registered on a Bus.
type Stats struct {
	CommandHandlers int
	QueryHandlers   int
	EventHandlers   int // bindings summed over all event types
	Middlewares     int
}

// HandlerTypes lists registered type names per kind (sorted).
type HandlerTypes struct {
	Commands []string
	Queries  []string
	Events   []string
}

// Metrics defines observable dispatch telemetry for the bus.
type Metrics struct {
	Commands          uint64 // ExecuteCommand calls
	Queries           uint64 // ExecuteQuery calls
	Events            uint64 // PublishEvent calls
	Failures          uint64 // dispatches that returned an error, timeouts included
	Timeouts          uint64
	NoticesDropped    uint64
	AvgDispatchTimeMs float64
}

// HealthStatus indicates bus health for Kubernetes probes.
type HealthStatus struct {
	Status    string // "healthy", "degraded"
	Metrics   Metrics
	Timestamp time.Time
	Message   string
}

// PoolStats returns telemetry about the observer pool.
type PoolStats struct {
	Dropped    uint64 // notices dropped due to full buffer
	Processed  uint64
	Queued     int
	Workers    int
	BufferSize int
}
