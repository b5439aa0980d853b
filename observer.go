package xcqrs

import (
	"time"

	"github.com/trickstertwo/xlog"
)

// NoticeType enumerates bus lifecycle notices for the Observer pattern.
type NoticeType string

const (
	NoticeDispatchStart   NoticeType = "dispatch_start"
	NoticeDispatchDone    NoticeType = "dispatch_done"
	NoticeDispatchTimeout NoticeType = "dispatch_timeout"
	NoticeRegistered      NoticeType = "registered"
	NoticeCleared         NoticeType = "cleared"
)

// Notice carries telemetry for observers.
type Notice struct {
	Type        NoticeType
	Kind        Kind
	MessageType string
	MessageID   string
	Handlers    int // subscribers reached by an event publish
	Duration    time.Duration
	Err         error
}

// Observer receives bus notices. Calls come from ObserverPool workers, never
// from the dispatching goroutine.
type Observer interface {
	OnNotice(n Notice)
}

// ObserverFunc is an Adapter that lets a plain function satisfy Observer.
type ObserverFunc func(n Notice)

func (f ObserverFunc) OnNotice(n Notice) { f(n) }

// LoggingObserver is an Adapter that emits notices via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnNotice(n Notice) {
	if o.Logger == nil {
		return
	}
	lg := o.Logger.With(
		xlog.Str("notice", string(n.Type)),
		xlog.Str("kind", string(n.Kind)),
		xlog.Str("type", n.MessageType),
		xlog.Str("message_id", n.MessageID),
	)
	if n.Duration > 0 {
		lg = lg.With(xlog.Dur("duration", n.Duration))
	}
	switch {
	case n.Type == NoticeDispatchTimeout:
		lg.Warn().Err(n.Err).Msg("xcqrs notice")
	case n.Err != nil:
		lg.Debug().Err(n.Err).Msg("xcqrs notice")
	default:
		lg.Debug().Msg("xcqrs notice")
	}
}
