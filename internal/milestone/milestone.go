// Package milestone maps a monotonic progress counter onto one-shot status
// messages. The evaluator is a pure function; cursor state (which rows have
// fired) belongs to the caller.
package milestone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// countPlaceholder is substituted with the relevant counter value when a
// message template is rendered.
const countPlaceholder = "{count}"

// DefaultRunning is the in-progress template used when none is configured.
const DefaultRunning = "working... {count}"

// Row is one milestone: crossing Threshold renders Message exactly once and,
// when PauseSeconds is set, holds it visible for that long.
type Row struct {
	Threshold    int     `mapstructure:"threshold"`
	Message      string  `mapstructure:"message"`
	PauseSeconds float64 `mapstructure:"pause_seconds"`
}

// Pause returns the row's settling period as a duration.
func (r Row) Pause() time.Duration {
	return time.Duration(r.PauseSeconds * float64(time.Second))
}

// Table is a validated, ordered milestone sequence plus the generic
// in-progress template shown between thresholds.
type Table struct {
	rows    []Row
	running string
}

// Default returns a table with no milestone rows and the default running
// template. It cannot fail, unlike NewTable.
func Default() Table {
	return Table{running: DefaultRunning}
}

// NewTable validates the rows and builds a Table. Thresholds must be
// positive and strictly increasing, messages non-empty, pauses non-negative.
func NewTable(running string, rows []Row) (Table, error) {
	if running == "" {
		running = DefaultRunning
	}
	prev := 0
	for i, row := range rows {
		if row.Threshold <= prev {
			return Table{}, fmt.Errorf("milestone %d: threshold %d must exceed %d", i, row.Threshold, prev)
		}
		if row.Message == "" {
			return Table{}, fmt.Errorf("milestone %d: message is required", i)
		}
		if row.PauseSeconds < 0 {
			return Table{}, errors.New("pause_seconds must be >= 0")
		}
		prev = row.Threshold
	}
	return Table{rows: append([]Row(nil), rows...), running: running}, nil
}

// Len returns the number of milestone rows.
func (t Table) Len() int {
	return len(t.rows)
}

// Result is the outcome of one evaluation step.
type Result struct {
	// Text is the status message to display.
	Text string
	// Advance reports that the cursor's row fired and the caller must move
	// its cursor forward by one.
	Advance bool
	// Pause is how long Text must stay visible before later updates may
	// replace it. Zero unless Advance is set on a row with a settling
	// period.
	Pause time.Duration
}

// Evaluate maps the progress counter onto the next unfired row. When the
// counter has not reached the cursor's threshold (or all rows have fired) it
// returns the generic running text and no advance, so each row fires exactly
// once and strictly in order no matter how often Evaluate is called.
func Evaluate(t Table, progress, cursor int) Result {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(t.rows) || progress < t.rows[cursor].Threshold {
		return Result{Text: render(t.running, progress)}
	}
	row := t.rows[cursor]
	return Result{
		Text:    render(row.Message, row.Threshold),
		Advance: true,
		Pause:   row.Pause(),
	}
}

func render(tmpl string, count int) string {
	return strings.ReplaceAll(tmpl, countPlaceholder, strconv.Itoa(count))
}
