package xcqrs

import (
	"context"
	"fmt"
	"reflect"
)

// CommandDef ties a command type name to its payload type T and result type R.
// Registration and dispatch go through the untyped Bus; the definition only
// adds the compile-time pairing and the type checks at the boundary.
//
//	var CreateUser = xcqrs.DefineCommand[CreateUserInput, UserID]("User.CreateUser")
//
//	_ = CreateUser.Register(bus, func(ctx context.Context, cmd xcqrs.Command, in CreateUserInput) (UserID, error) { ... })
//	id, err := CreateUser.Execute(ctx, bus, in, "user-42", nil)
type CommandDef[T, R any] struct{ name string }

// QueryDef ties a query type name to its parameter type P and result type R.
type QueryDef[P, R any] struct{ name string }

// EventDef ties an event type name to its payload type T.
type EventDef[T any] struct{ name string }

func DefineCommand[T, R any](name string) CommandDef[T, R] { return CommandDef[T, R]{name: name} }
func DefineQuery[P, R any](name string) QueryDef[P, R]     { return QueryDef[P, R]{name: name} }
func DefineEvent[T any](name string) EventDef[T]           { return EventDef[T]{name: name} }

func (d CommandDef[T, R]) Name() string { return d.name }
func (d QueryDef[P, R]) Name() string   { return d.name }
func (d EventDef[T]) Name() string      { return d.name }

// Register binds fn as the handler of d on b.
func (d CommandDef[T, R]) Register(b *Bus, fn func(ctx context.Context, cmd Command, data T) (R, error)) error {
	if fn == nil {
		return ErrNilHandler
	}
	return b.RegisterCommandHandler(d.name, CommandHandlerFunc(func(ctx context.Context, cmd Command) (any, error) {
		data, err := as[T](d.name, cmd.Data)
		if err != nil {
			return nil, err
		}
		return fn(ctx, cmd, data)
	}))
}

// Execute dispatches data as command d and converts the result to R.
func (d CommandDef[T, R]) Execute(ctx context.Context, b *Bus, data T, aggregateID string, meta Metadata) (R, error) {
	res, err := b.ExecuteCommand(ctx, d.name, data, aggregateID, meta)
	if err != nil {
		var zero R
		return zero, err
	}
	return as[R](d.name, res)
}

// Register binds fn as the handler of d on b.
func (d QueryDef[P, R]) Register(b *Bus, fn func(ctx context.Context, q Query, params P) (R, error)) error {
	if fn == nil {
		return ErrNilHandler
	}
	return b.RegisterQueryHandler(d.name, QueryHandlerFunc(func(ctx context.Context, q Query) (any, error) {
		params, err := as[P](d.name, q.Params)
		if err != nil {
			return nil, err
		}
		return fn(ctx, q, params)
	}))
}

// Ask dispatches params as query d and converts the result to R.
func (d QueryDef[P, R]) Ask(ctx context.Context, b *Bus, params P, meta Metadata) (R, error) {
	res, err := b.ExecuteQuery(ctx, d.name, params, meta)
	if err != nil {
		var zero R
		return zero, err
	}
	return as[R](d.name, res)
}

// Subscribe adds fn to the subscribers of d on b.
func (d EventDef[T]) Subscribe(b *Bus, fn func(ctx context.Context, evt Event, data T) error) error {
	if fn == nil {
		return ErrNilHandler
	}
	return b.RegisterEventHandler(d.name, EventHandlerFunc(func(ctx context.Context, evt Event) error {
		data, err := as[T](d.name, evt.Data)
		if err != nil {
			return err
		}
		return fn(ctx, evt, data)
	}))
}

// Publish broadcasts data as event d.
func (d EventDef[T]) Publish(ctx context.Context, b *Bus, data T, aggregateID string, version int64, meta Metadata) error {
	return b.PublishEvent(ctx, d.name, data, aggregateID, version, meta)
}

// Payload returns the payload of env (Data for commands and events, Params for
// queries) as T.
func Payload[T any](env Envelope) (T, error) {
	switch e := env.(type) {
	case Command:
		return as[T](e.Type, e.Data)
	case Query:
		return as[T](e.Type, e.Params)
	case Event:
		return as[T](e.Type, e.Data)
	}
	var zero T
	return zero, fmt.Errorf("%w: unsupported envelope %T", ErrPayloadType, env)
}

// as converts v to T. A nil v is accepted only when T itself can be nil.
func as[T any](typ string, v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	want := reflect.TypeFor[T]()
	if v == nil && nilable(want.Kind()) {
		return zero, nil
	}
	return zero, &PayloadTypeError{Type: typ, Want: want.String(), Got: fmt.Sprintf("%T", v)}
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
