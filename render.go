package osmfilter

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// DefaultHiddenTags matches tag names omitted from rendered output: name
// translations, external-identifier links and administrative metadata.
const DefaultHiddenTags = `^(name:.*|alt_name.*|old_name:.*|is_in:.*|wikidata|wikipedia|wikimedia.*|admin_level)$`

const (
	// maxNameLen is the number of runes of the name shown in a header.
	maxNameLen = 50
	// maxTagLineLen is the width at which the tag block wraps. A tag is
	// never split across lines.
	maxTagLineLen = 100

	unknownName = "(unknown name)"
	bar         = "┃"
)

// Renderer writes matched records and the final summary to an output sink.
// It is used from a single goroutine.
type Renderer struct {
	w      io.Writer
	hidden *regexp.Regexp
	query  *LatLon
}

// NewRenderer creates a Renderer. Tags whose names match hidden are left
// out of the tag block; hidden may be nil. When query is non-nil, each
// record with a location gets a distance line.
func NewRenderer(w io.Writer, hidden *regexp.Regexp, query *LatLon) *Renderer {
	return &Renderer{w: w, hidden: hidden, query: query}
}

// Drain renders records from q until q is closed or more than limit records
// have been received. In the latter case it writes a truncation notice and
// abandons q, which turns further publishes into no-ops. It returns the
// number of records rendered.
func (rd *Renderer) Drain(q *Queue, limit uint64) (uint64, error) {
	defer q.Abandon()

	var index uint64
	for {
		r, ok := q.Receive()
		if !ok {
			return index, nil
		}
		index++
		if index > limit {
			if err := rd.line("… more than %s results, output truncated (raise --max to see more)", humanize.Comma(int64(limit))); err != nil {
				return limit, err
			}
			return limit, nil
		}
		if err := rd.Record(r, index); err != nil {
			return index - 1, err
		}
	}
}

// Record renders one record with its 1-based display index.
func (rd *Renderer) Record(r *Record, index uint64) error {
	name, ok := r.Name()
	if ok {
		name = truncateEllipsis(name, maxNameLen)
	} else {
		name = unknownName
	}
	if err := rd.line("┏ %s (#%d)", name, index); err != nil {
		return err
	}
	if err := rd.line("%s  📍 https://www.openstreetmap.org/%s/%d", bar, r.Kind, r.ID); err != nil {
		return err
	}
	if loc := r.Location; loc != nil {
		if err := rd.line("%s  🌍 https://www.google.com/maps/search/%.5f+%.5f", bar, loc.Lat, loc.Lon); err != nil {
			return err
		}
		if rd.query != nil {
			meters := int64(Distance(*loc, *rd.query))
			if err := rd.line("%s  📏 %s meters", bar, humanize.Comma(meters)); err != nil {
				return err
			}
		}
	}
	for i, l := range rd.tagLines(r) {
		prefix := "  "
		if i == 0 {
			prefix = "🏷️"
		}
		if err := rd.line("%s  %s %s", bar, prefix, l); err != nil {
			return err
		}
	}
	return rd.line("┗━━━━")
}

// tagLines packs the visible "key: value" pairs of r into lines shorter
// than maxTagLineLen, in key order.
func (rd *Renderer) tagLines(r *Record) []string {
	var lines []string
	var line strings.Builder
	for _, t := range r.Tags {
		if rd.hidden != nil && rd.hidden.MatchString(t.Key) {
			continue
		}
		tag := t.Key + ": " + t.Value + "  "
		if line.Len() > 0 && line.Len()+len(tag) >= maxTagLineLen {
			lines = append(lines, strings.TrimRight(line.String(), " "))
			line.Reset()
		}
		line.WriteString(tag)
	}
	if line.Len() > 0 {
		lines = append(lines, strings.TrimRight(line.String(), " "))
	}
	return lines
}

// Summary writes the final counts line.
func (rd *Renderer) Summary(s Summary) error {
	return rd.line("Results: %s matched / %s scanned, %s shown",
		humanize.Comma(int64(s.Matched)),
		humanize.Comma(int64(s.Total)),
		humanize.Comma(int64(s.Displayed)))
}

func (rd *Renderer) line(format string, args ...any) error {
	if _, err := fmt.Fprintf(rd.w, format+"\n", args...); err != nil {
		return &RenderError{Err: err}
	}
	return nil
}

// truncateEllipsis shortens s to at most n runes, marking the cut with "...".
func truncateEllipsis(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
