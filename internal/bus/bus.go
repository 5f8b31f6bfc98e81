package bus

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/statusbus/internal/milestone"
)

// Config wires the Bus to its collaborators. All fields are optional.
type Config struct {
	// Logger receives listener-failure and discard warnings.
	Logger *zap.Logger
	// Sink receives rendered status text per delivery.
	Sink StatusSink
	// Metrics receives dispatch observations.
	Metrics Metrics
}

// Bus assigns sequence numbers and dispatches events to matching listeners.
// It is safe for concurrent use by any number of producer goroutines. The
// mutex is held only for sequence assignment and listener bookkeeping;
// pacing waits always happen after it is released.
type Bus struct {
	logger  *zap.Logger
	sink    StatusSink
	metrics Metrics

	// mu is the single mutual-exclusion domain for the sequence counter
	// and the listener table.
	mu     sync.Mutex
	seq    uint64
	reg    registry
	closed bool
}

// New constructs a Bus ready to register listeners and accept events.
func New(cfg Config) *Bus {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:  logger,
		sink:    cfg.Sink,
		metrics: cfg.Metrics,
		reg:     newRegistry(),
	}
}

// Register adds a listener under the given id. It returns
// ErrDuplicateListener if the id is taken and ErrBusClosed after Close.
func (b *Bus) Register(id string, opts ...Option) (*Handle, error) {
	l := &listener{
		id:    id,
		state: StateIdle,
		table: milestone.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	if err := b.reg.add(l); err != nil {
		return nil, err
	}
	b.recordActiveLocked()
	return &Handle{bus: b, id: id}, nil
}

// Unregister removes a stopped listener. Unknown ids are a no-op; removing a
// listener that has not stopped returns ErrListenerActive.
func (b *Bus) Unregister(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.reg.remove(id); err != nil {
		return err
	}
	b.recordActiveLocked()
	return nil
}

// Emit dispatches an event to every matching active listener. It never
// returns listener-side failures: a panicking or erroring handler is logged,
// stops that listener, and leaves the producer and other listeners
// untouched. The only wait a producer can observe is the settling period of
// a milestone this very call crossed, served after the lock is released;
// deliveries landing inside another listener's settling period carry the
// hold as a notBefore stamp and return immediately.
func (b *Bus) Emit(evt Event) {
	if b == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		b.logger.Debug("discarding invalid event", zap.Error(err))
		if b.metrics != nil {
			b.metrics.EventDropped()
		}
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		if b.metrics != nil {
			b.metrics.EventDropped()
		}
		return
	}
	b.seq++
	evt.Sequence = b.seq
	now := time.Now()
	var deliveries []delivery
	var settle time.Duration
	for _, l := range b.reg.matching(evt) {
		d, pause := b.applyLocked(l, evt, now)
		deliveries = append(deliveries, d)
		if pause > settle {
			settle = pause
		}
	}
	stoppedAny := false
	for _, d := range deliveries {
		if d.stopped {
			stoppedAny = true
		}
	}
	if stoppedAny {
		b.recordActiveLocked()
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.EventEmitted(evt.Kind)
	}
	for _, d := range deliveries {
		b.dispatch(d)
	}
	if settle > 0 {
		time.Sleep(settle)
	}
}

// Close marks the bus closed. In-flight deliveries complete; later Emit and
// Register calls are rejected. Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Statuses snapshots every registered listener, ordered by id.
func (b *Bus) Statuses() []Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reg.statuses()
}

// delivery is the per-listener work computed under the lock and performed
// after it is released.
type delivery struct {
	listenerID string
	evt        Event
	text       string
	notBefore  time.Time
	handler    Handler
	stopped    bool
}

// applyLocked folds one event into a listener's state and returns the
// out-of-lock work plus any settling period this event introduced. Callers
// hold b.mu.
func (b *Bus) applyLocked(l *listener, evt Event, now time.Time) (delivery, time.Duration) {
	if l.state == StateIdle {
		l.state = StateActive
	}
	l.received++

	d := delivery{
		listenerID: l.id,
		evt:        evt,
		notBefore:  l.holdUntil,
		handler:    l.handler,
	}

	var settle time.Duration
	switch evt.Kind {
	case KindProgress:
		l.progress++
		res := milestone.Evaluate(l.table, l.progress, l.cursor)
		l.text = res.Text
		if res.Advance {
			l.cursor++
			if res.Pause > 0 {
				base := now
				if l.holdUntil.After(base) {
					base = l.holdUntil
				}
				l.holdUntil = base.Add(res.Pause)
				settle = res.Pause
			}
		}
	case KindMilestone:
		l.text = evt.Payload[PayloadMessage]
	case KindLifecycle:
		if evt.Completed() {
			l.state = StateStopped
			l.text = PhaseCompleted
			d.stopped = true
		} else {
			l.text = evt.Payload[PayloadPhase]
		}
	case KindError:
		l.text = "error: " + evt.Payload[PayloadMessage]
	}
	d.text = l.text
	return d, settle
}

// dispatch performs the out-of-lock half of a delivery: the listener
// handler and the status sink. The render gate is never slept out here;
// the notBefore stamp travels with the update so the consumer defers
// visibility without any producer blocking on it.
func (b *Bus) dispatch(d delivery) {
	start := time.Now()
	if d.handler != nil {
		b.invokeHandler(d)
	}
	if b.sink != nil {
		b.sink.OnUpdate(d.listenerID, d.text, d.evt.Sequence, d.notBefore)
		if d.stopped {
			b.sink.OnStopped(d.listenerID)
		}
	}
	if b.metrics != nil {
		b.metrics.EventDelivered(d.evt.Kind)
		b.metrics.DeliveryDuration(time.Since(start))
	}
}

// invokeHandler runs the listener callback, converting panics and errors
// into a logged stop of that listener only.
func (b *Bus) invokeHandler(d delivery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener handler panicked",
				zap.String("listener_id", d.listenerID),
				zap.Any("panic", r),
			)
			b.stopListener(d.listenerID)
		}
	}()
	if err := d.handler(d.evt, d.text); err != nil {
		b.logger.Error("listener handler failed",
			zap.String("listener_id", d.listenerID),
			zap.Error(err),
		)
		b.stopListener(d.listenerID)
	}
}

func (b *Bus) stopListener(id string) {
	b.mu.Lock()
	l, ok := b.reg.listeners[id]
	stopped := false
	if ok && l.state != StateStopped {
		l.state = StateStopped
		stopped = true
		b.recordActiveLocked()
	}
	b.mu.Unlock()
	if stopped && b.sink != nil {
		b.sink.OnStopped(id)
	}
}

func (b *Bus) listenerStatus(id string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.reg.listeners[id]
	if !ok {
		return Status{ID: id}
	}
	return l.statusLocked()
}

func (b *Bus) recordActiveLocked() {
	if b.metrics != nil {
		b.metrics.ListenersActive(b.reg.activeCount())
	}
}
