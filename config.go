package osmfilter

import (
	"fmt"
	"runtime"
)

// Config is the complete configuration of one run.
type Config struct {
	MapFile    string // path to the .pbf, .osm, .osm.bz2 or .osm.gz file
	Debug      bool
	MaxResults uint64 // display cap
	Filters    Filters
	HiddenTags string // regex of tag names left out of rendered output

	Workers       int // scan goroutines, also used for PBF blob decoding
	BatchSize     int // objects per scan partition
	QueueCapacity int // matches buffered for the renderer

	LogFormat string // text or json
	LogLevel  string // none, debug, info, warn, error
}

// DefaultMaxResults is the default display cap.
const DefaultMaxResults = 100

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		MaxResults:    DefaultMaxResults,
		HiddenTags:    DefaultHiddenTags,
		Workers:       runtime.GOMAXPROCS(0),
		BatchSize:     DefaultBatchSize,
		QueueCapacity: DefaultQueueCapacity,
		LogFormat:     "text",
		LogLevel:      "warn",
		Filters: Filters{
			FancyRegexTimeout: DefaultBacktrackTimeout,
		},
	}
}

// Validate checks the settings that are not filters. Filters are checked
// when the Matcher is built.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative, got %d", c.BatchSize)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must not be negative, got %d", c.QueueCapacity)
	}
	return nil
}

// logLevel returns the effective log level; debug mode forces "debug".
func (c Config) logLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
