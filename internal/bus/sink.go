package bus

import "time"

// StatusSink receives rendered status text on the dispatch path. The bus
// calls it from arbitrary producer goroutines and never sleeps on the
// sink's behalf, so implementations must serialize their own state. seq is
// the bus-assigned event sequence; implementations should drop updates
// whose seq is lower than the last one applied for the same listener.
// notBefore carries a listener's settling deadline: the update must not
// become visible until that instant, but accepting it must not block.
type StatusSink interface {
	OnUpdate(listenerID, text string, seq uint64, notBefore time.Time)
	OnStopped(listenerID string)
}

// Metrics receives dispatch observations. All methods may be called
// concurrently; a nil Metrics disables recording.
type Metrics interface {
	EventEmitted(kind Kind)
	EventDelivered(kind Kind)
	EventDropped()
	ListenersActive(n int)
	DeliveryDuration(d time.Duration)
}
