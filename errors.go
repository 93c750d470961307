package osmfilter

import (
	"errors"
	"fmt"
)

// Kinds of configuration errors. A *ConfigError always unwraps to one of these.
var (
	ErrMalformedPair    = errors.New("must be key=value pair")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrMalformedTriple  = errors.New("must be lat,lon,distance triple")
	ErrMalformedGeohash = errors.New("must be geohash,distance pair")
)

// ConfigError reports a filter that could not be compiled. It is returned
// before any record is scanned.
type ConfigError struct {
	Flag  string // configuration key the value came from
	Value string
	Kind  error // one of the Err* sentinels above
	Err   error // underlying cause, may be nil
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid %s %q: %v", e.Flag, e.Value, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// SourceError reports that the record collection could not be opened or decoded.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("reading records: %v", e.Err)
	}
	return fmt.Sprintf("reading records from %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// RenderError reports that the output sink failed while rendering.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("rendering output: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }
