package osmfilter

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Summary holds the final counts of a run.
type Summary struct {
	Total     uint64 // records scanned
	Matched   uint64 // records accepted by the filters
	Displayed uint64 // records rendered, min(cap, Matched)
}

type runOptions struct {
	out    io.Writer
	logger *zap.Logger
	source Source
}

// Option is a functional option for configuring Run.
type Option func(*runOptions)

// WithOutput sets where records and the summary are rendered (default: stdout).
func WithOutput(w io.Writer) Option {
	return func(o *runOptions) {
		o.out = w
	}
}

// WithLogger sets the logger. By default one is built from the config.
func WithLogger(l *zap.Logger) Option {
	return func(o *runOptions) {
		o.logger = l
	}
}

// WithSource replaces the file named by Config.MapFile with src.
func WithSource(src Source) Option {
	return func(o *runOptions) {
		o.source = src
	}
}

// Run scans the configured collection and renders matches.
//
// The renderer is started first and drains matches while the scan runs;
// once it has shown cfg.MaxResults records it stops, but the scan still
// visits every record so the summary is exact. Configuration errors are
// reported before anything is read. On any error the returned Summary is
// zero and no summary line is written.
func Run(ctx context.Context, cfg Config, opts ...Option) (Summary, error) {
	o := &runOptions{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	if o.logger == nil {
		l, err := NewLogger(cfg.LogFormat, cfg.logLevel())
		if err != nil {
			return Summary{}, err
		}
		defer func() { _ = l.Sync() }()
		o.logger = l
	}
	log := o.logger

	matcher, err := NewMatcher(cfg.Filters)
	if err != nil {
		return Summary{}, err
	}
	var hidden *regexp.Regexp
	if cfg.HiddenTags != "" {
		hidden, err = regexp.Compile(cfg.HiddenTags)
		if err != nil {
			return Summary{}, &ConfigError{Flag: "hidden-tags", Value: cfg.HiddenTags, Kind: ErrInvalidPattern, Err: err}
		}
	}
	log.Debug("configuration",
		zap.String("map_file", cfg.MapFile),
		zap.Uint64("max_results", cfg.MaxResults),
		zap.Int("workers", cfg.Workers),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("queue_capacity", cfg.QueueCapacity),
		zap.String("hidden_tags", cfg.HiddenTags))
	log.Debug("compiled filters", zap.Int("criteria", matcher.Len()), zap.Stringer("matcher", matcher))

	src := o.source
	if src == nil {
		fs, err := OpenFile(ctx, cfg.MapFile, cfg.Workers, cfg.BatchSize)
		if err != nil {
			return Summary{}, err
		}
		defer fs.Close()
		src = fs
		if _, err := fmt.Fprintf(o.out, "Using OSM file from '%s'\n", cfg.MapFile); err != nil {
			return Summary{}, &RenderError{Err: err}
		}
	}

	var query *LatLon
	if q, ok := matcher.Query(); ok {
		query = &q
	}
	renderer := NewRenderer(o.out, hidden, query)
	queue := NewQueue(cfg.QueueCapacity)
	scanner := NewScanner(matcher, cfg.Workers, log)

	var (
		displayed uint64
		counts    Counts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := renderer.Drain(queue, cfg.MaxResults)
		displayed = n
		return err
	})
	g.Go(func() error {
		defer queue.CloseSend()
		c, err := scanner.Scan(gctx, src, queue)
		counts = c
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if n := queue.Dropped(); n > 0 {
		log.Debug("matches not shown after display cap", zap.Uint64("dropped", n))
	}

	summary := Summary{Total: counts.Total, Matched: counts.Matched, Displayed: displayed}
	if err := renderer.Summary(summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
