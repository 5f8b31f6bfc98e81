// Package display renders the latest listener status text as a live,
// single-line terminal view. It is the lone consumer of the bus dispatch
// path's rendered output.
package display

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrTerminal is returned by Start once the driver has been stopped; the
// display lifecycle is single-use.
var ErrTerminal = errors.New("display already terminal")

// State is the driver's position in its lifecycle.
type State string

// Driver lifecycle states. Stopped is terminal.
const (
	StateNotStarted State = "NOT_STARTED"
	StateRunning    State = "RUNNING"
	StateStopped    State = "STOPPED"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const doneMark = "✔"

// Config controls rendering.
//   - Writer: destination for the status line (default os.Stderr).
//   - Interval: redraw cadence (default 100ms).
//   - Logger: optional structured logger for write failures.
type Config struct {
	Writer   io.Writer
	Interval time.Duration
	Logger   *zap.Logger
}

const defaultInterval = 100 * time.Millisecond

// Driver owns the rendered view. OnUpdate and OnStopped may be called from
// any producer goroutine; all rendering state is guarded by one mutex so the
// visible output is never a torn write.
type Driver struct {
	writer   io.Writer
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	state  State
	lines  map[string]*line
	order  []string
	frame  int
	stopCh chan struct{}
	doneCh chan struct{}
}

type line struct {
	text string
	seq  uint64
	done bool

	// An update whose notBefore stamp has not passed waits here; the
	// render loop promotes it once the settling period elapses, so the
	// held text stays visible without anyone sleeping.
	pendingText string
	pendingSeq  uint64
	pendingAt   time.Time
	hasPending  bool
}

// New constructs a Driver in the NotStarted state.
func New(cfg Config) *Driver {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		writer:   cfg.Writer,
		interval: cfg.Interval,
		logger:   logger,
		state:    StateNotStarted,
		lines:    make(map[string]*line),
	}
}

// Start begins the render loop. Starting a running driver is a no-op;
// starting after Stop returns ErrTerminal.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case StateStopped:
		return ErrTerminal
	case StateRunning:
		return nil
	}
	d.state = StateRunning
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	go d.run(d.stopCh, d.doneCh)
	return nil
}

// Stop tears down the render loop and finishes the status line with a
// newline. It is idempotent; a driver that never started simply becomes
// terminal.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.state != StateRunning {
		d.state = StateStopped
		d.mu.Unlock()
		return
	}
	d.state = StateStopped
	close(d.stopCh)
	done := d.doneCh
	d.mu.Unlock()

	<-done
	if _, err := io.WriteString(d.writer, "\n"); err != nil {
		d.logger.Warn("status line final write failed", zap.Error(err))
	}
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// OnUpdate records the latest status text for a listener. Updates arriving
// after Stop are ignored, as are updates whose sequence is older than the
// last one applied for the same listener. An update stamped with a future
// notBefore is parked and becomes visible only once the stamp passes;
// OnUpdate itself never waits.
func (d *Driver) OnUpdate(listenerID, text string, seq uint64, notBefore time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateStopped {
		return
	}
	l, ok := d.lines[listenerID]
	if !ok {
		l = &line{}
		d.lines[listenerID] = l
		d.order = append(d.order, listenerID)
	}
	if seq != 0 && (seq < l.seq || (l.hasPending && seq < l.pendingSeq)) {
		return
	}
	if notBefore.After(time.Now()) {
		l.pendingText = text
		l.pendingSeq = seq
		l.pendingAt = notBefore
		l.hasPending = true
		return
	}
	l.seq = seq
	l.text = text
	l.hasPending = false
}

// OnStopped marks a listener's line as finished so it renders with a done
// mark instead of the spinner.
func (d *Driver) OnStopped(listenerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateStopped {
		return
	}
	if l, ok := d.lines[listenerID]; ok {
		l.done = true
	}
}

func (d *Driver) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			d.render()
			return
		case <-ticker.C:
			d.render()
		}
	}
}

// render composes the line under the lock and writes it in one call, so
// concurrent updates can never interleave inside the output. Parked updates
// whose settling stamp has passed are promoted first.
func (d *Driver) render() {
	d.mu.Lock()
	now := time.Now()
	frame := spinnerFrames[d.frame%len(spinnerFrames)]
	d.frame++
	parts := make([]string, 0, len(d.order))
	for _, id := range d.order {
		l := d.lines[id]
		if l.hasPending && !l.pendingAt.After(now) {
			l.seq = l.pendingSeq
			l.text = l.pendingText
			l.hasPending = false
		}
		mark := frame
		if l.done {
			mark = doneMark
		}
		parts = append(parts, fmt.Sprintf("%s %s: %s", mark, id, l.text))
	}
	d.mu.Unlock()

	out := "\r\x1b[2K" + strings.Join(parts, " | ")
	if _, err := io.WriteString(d.writer, out); err != nil {
		d.logger.Warn("status line write failed", zap.Error(err))
	}
}
