package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind denotes the category of occurrence an Event describes.
type Kind string

// Supported event kinds.
const (
	KindProgress  Kind = "PROGRESS"
	KindMilestone Kind = "MILESTONE"
	KindLifecycle Kind = "LIFECYCLE"
	KindError     Kind = "ERROR"
)

// Well-known payload keys.
const (
	// PayloadPhase carries the lifecycle phase for KindLifecycle events.
	PayloadPhase = "phase"
	// PayloadMessage carries free-form display text for milestone and
	// error events.
	PayloadMessage = "message"
)

// PhaseCompleted is the lifecycle phase that moves a listener to Stopped.
const PhaseCompleted = "completed"

// Event captures a single occurrence reported by a producer. It is immutable
// once constructed; Sequence is assigned by the Bus under its lock.
type Event struct {
	// ID uniquely identifies the event.
	ID uuid.UUID
	// Kind denotes which category of occurrence this is.
	Kind Kind
	// Payload holds opaque string metadata attached by the producer.
	Payload map[string]string
	// Target optionally names a single listener; empty means broadcast.
	Target string
	// Sequence is the bus-assigned, globally unique, strictly increasing
	// dispatch number. Zero until the event passes through Emit.
	Sequence uint64
	// CreatedAt is the UTC timestamp recorded by the producer.
	CreatedAt time.Time
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.ID == uuid.Nil {
		return errors.New("event id is required")
	}
	if e.CreatedAt.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Kind {
	case KindProgress, KindError:
	case KindMilestone:
		if e.Payload[PayloadMessage] == "" {
			return errors.New("milestone event requires a message")
		}
	case KindLifecycle:
		if e.Payload[PayloadPhase] == "" {
			return errors.New("lifecycle event requires a phase")
		}
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	return nil
}

// Completed reports whether the event marks the end of a listener's lifetime.
func (e Event) Completed() bool {
	return e.Kind == KindLifecycle && e.Payload[PayloadPhase] == PhaseCompleted
}

// NewProgress builds a progress event aimed at the given listener. An empty
// target broadcasts to all active listeners.
func NewProgress(target string) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      KindProgress,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
}

// NewLifecycle builds a lifecycle event carrying the given phase.
func NewLifecycle(target, phase string) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      KindLifecycle,
		Payload:   map[string]string{PayloadPhase: phase},
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
}

// NewError builds an error event carrying a display message.
func NewError(target, message string) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      KindError,
		Payload:   map[string]string{PayloadMessage: message},
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
}
