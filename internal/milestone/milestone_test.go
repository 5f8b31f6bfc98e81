package milestone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewTableValidation rejects malformed rows.
func TestNewTableValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rows []Row
	}{
		{"non-increasing", []Row{{Threshold: 10, Message: "a"}, {Threshold: 10, Message: "b"}}},
		{"decreasing", []Row{{Threshold: 30, Message: "a"}, {Threshold: 10, Message: "b"}}},
		{"zero threshold", []Row{{Threshold: 0, Message: "a"}}},
		{"missing message", []Row{{Threshold: 10}}},
		{"negative pause", []Row{{Threshold: 10, Message: "a", PauseSeconds: -1}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTable("running", tc.rows)
			require.Error(t, err)
		})
	}
}

// TestNewTableDefaults fills in the running template when omitted.
func TestNewTableDefaults(t *testing.T) {
	t.Parallel()

	tbl, err := NewTable("", nil)
	require.NoError(t, err)
	require.Equal(t, 0, tbl.Len())
	res := Evaluate(tbl, 7, 0)
	require.Equal(t, "working... 7", res.Text)
	require.False(t, res.Advance)
}

// TestDefaultTable is usable without any construction step.
func TestDefaultTable(t *testing.T) {
	t.Parallel()

	tbl := Default()
	require.Equal(t, 0, tbl.Len())
	res := Evaluate(tbl, 7, 0)
	require.Equal(t, "working... 7", res.Text)
	require.False(t, res.Advance)
	require.Zero(t, res.Pause)
}

// TestEvaluateBelowThreshold returns the running text without advancing.
func TestEvaluateBelowThreshold(t *testing.T) {
	t.Parallel()

	tbl, err := NewTable("running {count}", []Row{{Threshold: 10, Message: "hit {count}"}})
	require.NoError(t, err)

	for progress := 1; progress < 10; progress++ {
		res := Evaluate(tbl, progress, 0)
		require.False(t, res.Advance, "progress %d must not fire", progress)
		require.Zero(t, res.Pause)
	}
	require.Equal(t, "running 9", Evaluate(tbl, 9, 0).Text)
}

// TestEvaluateAtThreshold fires the row and signals the cursor advance.
func TestEvaluateAtThreshold(t *testing.T) {
	t.Parallel()

	tbl, err := NewTable("running {count}", []Row{
		{Threshold: 10, Message: "hit {count}"},
		{Threshold: 30, Message: "hit {count}", PauseSeconds: 2},
	})
	require.NoError(t, err)

	res := Evaluate(tbl, 10, 0)
	require.True(t, res.Advance)
	require.Equal(t, "hit 10", res.Text)
	require.Zero(t, res.Pause)

	// After advancing, the same progress value is quiet again.
	res = Evaluate(tbl, 10, 1)
	require.False(t, res.Advance)
	require.Equal(t, "running 10", res.Text)

	res = Evaluate(tbl, 30, 1)
	require.True(t, res.Advance)
	require.Equal(t, "hit 30", res.Text)
	require.Equal(t, 2*time.Second, res.Pause)
}

// TestEvaluateExhaustedCursor keeps returning running text once every row
// has fired.
func TestEvaluateExhaustedCursor(t *testing.T) {
	t.Parallel()

	tbl, err := NewTable("running {count}", []Row{{Threshold: 5, Message: "hit {count}"}})
	require.NoError(t, err)

	res := Evaluate(tbl, 100, 1)
	require.False(t, res.Advance)
	require.Equal(t, "running 100", res.Text)

	// A negative cursor is clamped rather than panicking.
	res = Evaluate(tbl, 5, -3)
	require.True(t, res.Advance)
}

// TestRowPause converts fractional seconds.
func TestRowPause(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1500*time.Millisecond, Row{PauseSeconds: 1.5}.Pause())
	require.Zero(t, Row{}.Pause())
}
