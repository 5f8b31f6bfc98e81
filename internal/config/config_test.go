package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/statusbus/internal/milestone"
)

// TestLoadDefaults checks the built-in configuration is valid and complete.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Equal(t, 100*time.Millisecond, cfg.Display.Interval())
	require.Equal(t, 4, cfg.Workers.Count)
	require.Equal(t, 45, cfg.Workers.Events)
	require.Len(t, cfg.Milestones, 3)
	require.Equal(t, 40, cfg.Milestones[2].Threshold)
	require.Equal(t, 2.0, cfg.Milestones[2].PauseSeconds)

	tbl, err := cfg.MilestoneTable()
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
}

// TestLoadFromFile reads a YAML config and overrides defaults.
func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  development: true
http:
  port: 8081
display:
  interval_ms: 50
  running_message: "crunching {count}"
workers:
  count: 2
  events: 12
milestones:
  - threshold: 5
    message: "halfway at {count}"
  - threshold: 12
    message: "done soon ({count})"
    pause_seconds: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, 8081, cfg.HTTP.Port)
	require.Equal(t, 50*time.Millisecond, cfg.Display.Interval())
	require.Equal(t, 2, cfg.Workers.Count)
	require.Equal(t, []milestone.Row{
		{Threshold: 5, Message: "halfway at {count}"},
		{Threshold: 12, Message: "done soon ({count})", PauseSeconds: 0.5},
	}, cfg.Milestones)
}

// TestLoadMissingFile surfaces the read error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestValidateRejectsBadValues covers each validation branch.
func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		return Config{
			HTTP:    HTTPConfig{Port: 9090},
			Display: DisplayConfig{IntervalMs: 100},
			Workers: WorkersConfig{Count: 1, Events: 1},
		}
	}

	cfg := base()
	cfg.HTTP.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Display.IntervalMs = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Workers.Count = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Workers.Events = -1
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Milestones = []milestone.Row{
		{Threshold: 30, Message: "a"},
		{Threshold: 10, Message: "b"},
	}
	require.Error(t, cfg.Validate())

	require.NoError(t, base().Validate())
}
