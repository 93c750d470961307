package osmfilter

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint64(DefaultMaxResults), cfg.MaxResults)
	assert.Equal(t, DefaultHiddenTags, cfg.HiddenTags)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, time.Second, cfg.Filters.FancyRegexTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers must not be negative"},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }, "batch size must not be negative"},
		{"negative queue", func(c *Config) { c.QueueCapacity = -1 }, "queue capacity must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	// Zero means "use the default" everywhere.
	cfg := DefaultConfig()
	cfg.Workers, cfg.BatchSize, cfg.QueueCapacity = 0, 0, 0
	assert.NoError(t, cfg.Validate())
}

func TestConfigDebugForcesDebugLevel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.logLevel())
	cfg.Debug = true
	assert.Equal(t, "debug", cfg.logLevel())
}
