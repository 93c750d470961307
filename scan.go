package osmfilter

import (
	"context"
	"errors"
	"runtime"

	"github.com/paulmach/osm"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Counts is the scan accumulator. Merge is addition, so the result of a
// scan does not depend on how the collection was partitioned or in which
// order partial counts were combined.
type Counts struct {
	Matched uint64
	Total   uint64
}

// Merge returns the sum of c and o.
func (c Counts) Merge(o Counts) Counts {
	return Counts{Matched: c.Matched + o.Matched, Total: c.Total + o.Total}
}

// Scanner applies a Matcher to every record of a Source in parallel and
// publishes matches to a Queue.
type Scanner struct {
	matcher *Matcher
	workers int
	logger  *zap.Logger
}

// NewScanner creates a Scanner running at most workers partitions at once.
// A non-positive workers uses GOMAXPROCS.
func NewScanner(m *Matcher, workers int, logger *zap.Logger) *Scanner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{matcher: m, workers: workers, logger: logger}
}

// Scan folds every partition of src into Counts. Matching records are
// published to q; publishes that find the consumer gone are dropped and the
// scan continues, so the returned counts always cover the whole source.
//
// A source failure aborts the scan and no counts are returned.
func (s *Scanner) Scan(ctx context.Context, src Source, q *Queue) (Counts, error) {
	s.logger.Debug("scan started", zap.Int("workers", s.workers), zap.Int("criteria", s.matcher.Len()))
	p := pool.NewWithResults[Counts]().
		WithContext(ctx).
		WithMaxGoroutines(s.workers)

	partitions := 0
	srcErr := src.Partitions(ctx, func(part []osm.Object) error {
		partitions++
		p.Go(func(ctx context.Context) (Counts, error) {
			return s.fold(ctx, part, q), nil
		})
		return nil
	})
	results, err := p.Wait()

	if srcErr != nil {
		var se *SourceError
		if !errors.As(srcErr, &se) {
			srcErr = &SourceError{Err: srcErr}
		}
		return Counts{}, srcErr
	}
	if err != nil {
		return Counts{}, err
	}

	var total Counts
	for _, c := range results {
		total = total.Merge(c)
	}
	s.logger.Debug("scan finished",
		zap.Int("partitions", partitions),
		zap.Int("workers", s.workers),
		zap.Uint64("matched", total.Matched),
		zap.Uint64("total", total.Total))
	return total, nil
}

// fold scans one partition with a local accumulator.
func (s *Scanner) fold(ctx context.Context, part []osm.Object, q *Queue) Counts {
	var c Counts
	for _, obj := range part {
		r, ok := NewRecord(obj)
		if !ok {
			continue
		}
		c.Total++
		if !s.matcher.Matches(r) {
			continue
		}
		c.Matched++
		// ReceiverGone and Canceled are both fine here: counting goes on.
		_ = q.Publish(ctx, r)
	}
	return c
}
