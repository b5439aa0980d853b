package xcqrs

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrHandlerNotFound         = errors.New("xcqrs: handler not found")
	ErrDuplicateRegistration   = errors.New("xcqrs: handler already registered")
	ErrMiddlewareLimitExceeded = errors.New("xcqrs: middleware limit exceeded")
	ErrTimeout                 = errors.New("xcqrs: dispatch timed out")
	ErrHandlerPanic            = errors.New("xcqrs: handler panic")
	ErrInvalidMessageType      = errors.New("xcqrs: message type must not be empty")
	ErrNilHandler              = errors.New("xcqrs: handler must not be nil")
	ErrNilMiddleware           = errors.New("xcqrs: middleware must not be nil")
	ErrPayloadType             = errors.New("xcqrs: unexpected payload type")
	ErrInvalidConfig           = errors.New("xcqrs: invalid config")
)

var ErrObserverPoolShutdownTimeout = errors.New("xcqrs: observer pool shutdown timed out")

// HandlerNotFoundError reports a command or query type without a bound handler.
type HandlerNotFoundError struct {
	Kind Kind
	Type string
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("no handler registered for %s: %s", e.Kind, e.Type)
}

func (e *HandlerNotFoundError) Is(target error) bool { return target == ErrHandlerNotFound }

// DuplicateRegistrationError reports a second command or query handler for one type.
type DuplicateRegistrationError struct {
	Kind Kind
	Type string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s handler already registered: %s", e.Kind, e.Type)
}

func (e *DuplicateRegistrationError) Is(target error) bool { return target == ErrDuplicateRegistration }

// MiddlewareLimitError is returned by Use once the configured cap is reached.
type MiddlewareLimitError struct {
	Limit int
}

func (e *MiddlewareLimitError) Error() string {
	return fmt.Sprintf("middleware limit of %d reached", e.Limit)
}

func (e *MiddlewareLimitError) Is(target error) bool { return target == ErrMiddlewareLimitExceeded }

// TimeoutError is returned when a dispatch did not settle in time. The handler
// behind it may still be running.
type TimeoutError struct {
	Kind    Kind
	Type    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %s", e.Kind, e.Type, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// PayloadTypeError is returned by typed definitions when an envelope carries a
// payload of a different dynamic type than the definition expects.
type PayloadTypeError struct {
	Type string
	Want string
	Got  string
}

func (e *PayloadTypeError) Error() string {
	return fmt.Sprintf("%s: expected payload %s, got %s", e.Type, e.Want, e.Got)
}

func (e *PayloadTypeError) Is(target error) bool { return target == ErrPayloadType }
