package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MATCH_INTERVAL", "SWEEP_INTERVAL", "GRACE_PERIOD", "SNOOZE_AUTO_RELEASE", "NOTIFY_WORKERS", "SMTP_PORT", "TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Minute, cfg.MatchInterval)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.GracePeriod)
	assert.False(t, cfg.SnoozeAutoRelease)
	assert.Equal(t, 3, cfg.NotifyWorkers)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MATCH_INTERVAL", "30s")
	t.Setenv("GRACE_PERIOD", "20m")
	t.Setenv("SNOOZE_AUTO_RELEASE", "true")
	t.Setenv("NOTIFY_WORKERS", "7")
	t.Setenv("TIMEZONE", "UTC")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.MatchInterval)
	assert.Equal(t, 20*time.Minute, cfg.GracePeriod)
	assert.True(t, cfg.SnoozeAutoRelease)
	assert.Equal(t, 7, cfg.NotifyWorkers)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	t.Setenv("NOTIFY_QUEUE_SIZE", "many")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 500, cfg.NotifyQueueSize)
	assert.Equal(t, time.Local, cfg.Location())
}
