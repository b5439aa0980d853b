package xcqrs

import "context"

// CommandHandler owns a single command type.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd Command) (any, error)
}

// QueryHandler owns a single query type.
type QueryHandler interface {
	HandleQuery(ctx context.Context, q Query) (any, error)
}

// EventHandler is one of possibly many subscribers of an event type.
type EventHandler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// CommandHandlerFunc is an Adapter that lets a plain function satisfy CommandHandler.
type CommandHandlerFunc func(ctx context.Context, cmd Command) (any, error)

func (f CommandHandlerFunc) HandleCommand(ctx context.Context, cmd Command) (any, error) {
	return f(ctx, cmd)
}

// QueryHandlerFunc is an Adapter that lets a plain function satisfy QueryHandler.
type QueryHandlerFunc func(ctx context.Context, q Query) (any, error)

func (f QueryHandlerFunc) HandleQuery(ctx context.Context, q Query) (any, error) {
	return f(ctx, q)
}

// EventHandlerFunc is an Adapter that lets a plain function satisfy EventHandler.
type EventHandlerFunc func(ctx context.Context, evt Event) error

func (f EventHandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}
