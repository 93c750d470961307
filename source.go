package osmfilter

import (
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// DefaultBatchSize is the number of decoded objects in one scan partition.
const DefaultBatchSize = 8000

// Source produces the record collection as disjoint partitions.
//
// Partitions calls fn once per partition, sequentially. A slice passed to fn
// is owned by the callee and is not reused by the source. An error from fn
// stops iteration and is returned.
type Source interface {
	Partitions(ctx context.Context, fn func([]osm.Object) error) error
}

// FileSource streams objects from an OSM file. The format is chosen by
// extension:
//
//	*.pbf               protocol buffer, blobs decoded in parallel
//	*.osm               XML
//	*.osm.bz2, *.osm.gz compressed XML
type FileSource struct {
	path      string
	file      *os.File
	scanner   osm.Scanner
	closers   []func() error
	batchSize int
}

// OpenFile opens path for scanning. procs bounds the number of goroutines
// used to decode PBF blobs; it is ignored for XML.
func OpenFile(ctx context.Context, path string, procs, batchSize int) (*FileSource, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if procs <= 0 {
		procs = 1
	}
	s := &FileSource{path: path, file: fh, batchSize: batchSize}

	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".pbf"):
		s.scanner = osmpbf.New(ctx, fh, procs)
	default:
		r, closeFn, err := openDecompressed(fh, name)
		if err != nil {
			fh.Close()
			return nil, &SourceError{Path: path, Err: err}
		}
		if closeFn != nil {
			s.closers = append(s.closers, closeFn)
		}
		s.scanner = osmxml.New(ctx, r)
	}
	return s, nil
}

// openDecompressed wraps fh in a decompressor chosen by the file suffix.
func openDecompressed(fh io.Reader, name string) (io.Reader, func() error, error) {
	switch {
	case strings.HasSuffix(name, ".bz2"):
		return bzip2.NewReader(fh), nil, nil
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(fh)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gz, gz.Close, nil
	}
	return fh, nil, nil
}

// Path returns the file being read.
func (s *FileSource) Path() string { return s.path }

// Partitions implements Source.
func (s *FileSource) Partitions(ctx context.Context, fn func([]osm.Object) error) error {
	batch := make([]osm.Object, 0, s.batchSize)
	for s.scanner.Scan() {
		batch = append(batch, s.scanner.Object())
		if len(batch) < s.batchSize {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]osm.Object, 0, s.batchSize)
	}
	if err := s.scanner.Err(); err != nil {
		return &SourceError{Path: s.path, Err: err}
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// Close releases the scanner and the underlying file.
func (s *FileSource) Close() error {
	err := s.scanner.Close()
	for _, c := range s.closers {
		if cerr := c(); err == nil {
			err = cerr
		}
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// SliceSource serves an in-memory collection in fixed-size partitions.
type SliceSource struct {
	Objects   []osm.Object
	BatchSize int
}

// Partitions implements Source.
func (s SliceSource) Partitions(ctx context.Context, fn func([]osm.Object) error) error {
	size := s.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	for start := 0; start < len(s.Objects); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(s.Objects))
		part := make([]osm.Object, end-start)
		copy(part, s.Objects[start:end])
		if err := fn(part); err != nil {
			return err
		}
	}
	return nil
}
