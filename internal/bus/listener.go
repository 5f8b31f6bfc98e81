package bus

import (
	"time"

	"github.com/JakeFAU/statusbus/internal/milestone"
)

// State is a listener's position in its lifecycle.
type State string

// Listener lifecycle states. Stopped is terminal.
const (
	StateIdle    State = "IDLE"
	StateActive  State = "ACTIVE"
	StateStopped State = "STOPPED"
)

// Handler is an optional per-listener callback invoked after each delivery
// with the event and the listener's freshly rendered status text. A handler
// that returns an error or panics stops the listener; other listeners are
// unaffected.
type Handler func(evt Event, statusText string) error

// listener is the registry-owned subscriber state. Every field is read and
// written only while holding the bus lock.
type listener struct {
	id       string
	state    State
	filter   Filter
	handler  Handler
	table    milestone.Table
	cursor   int
	progress int
	received uint64
	text     string
	// holdUntil gates rendering: updates applied before this instant must
	// not become visible until it passes.
	holdUntil time.Time
}

// Status is a point-in-time snapshot of a listener.
type Status struct {
	ID       string
	State    State
	Text     string
	Received uint64
}

func (l *listener) statusLocked() Status {
	return Status{
		ID:       l.id,
		State:    l.state,
		Text:     l.text,
		Received: l.received,
	}
}

// Handle is the caller-facing view of a registered listener.
type Handle struct {
	bus *Bus
	id  string
}

// ID returns the listener id the handle was registered under.
func (h *Handle) ID() string {
	return h.id
}

// Stop moves the listener to Stopped. It is idempotent and safe to call
// concurrently; deliveries already in flight complete, later ones are
// ignored.
func (h *Handle) Stop() {
	if h == nil || h.bus == nil {
		return
	}
	h.bus.stopListener(h.id)
}

// Status returns the listener's current state, status text, and delivered
// event count.
func (h *Handle) Status() Status {
	if h == nil || h.bus == nil {
		return Status{}
	}
	return h.bus.listenerStatus(h.id)
}

// Option customizes a listener at registration time.
type Option func(*listener)

// WithFilter restricts the kinds of events delivered to the listener.
func WithFilter(f Filter) Option {
	return func(l *listener) {
		l.filter = f
	}
}

// WithMilestones attaches a milestone table evaluated against the listener's
// progress counter.
func WithMilestones(t milestone.Table) Option {
	return func(l *listener) {
		l.table = t
	}
}

// WithHandler attaches a per-delivery callback.
func WithHandler(fn Handler) Option {
	return func(l *listener) {
		l.handler = fn
	}
}
