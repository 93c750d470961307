package osmfilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// Filters is the raw filter configuration compiled by NewMatcher.
type Filters struct {
	Name            string   // pattern for the name tag, linear engine
	FuzzyName       string   // approximate name
	FuzzyDistance   int      // max edits for FuzzyName, capped at maxFuzzyDistance
	TagValue        []string // key=value
	TagRegex        []string // keyPattern=valuePattern, linear engine
	TagFancyRegex   []string // keyPattern=valuePattern, backtracking engine
	LatLonDistance  string   // lat,lon,meters
	GeohashDistance string   // geohash,meters

	// FancyRegexTimeout bounds each backtracking match. Zero uses DefaultBacktrackTimeout.
	FancyRegexTimeout time.Duration
}

// maxFuzzyDistance caps FuzzyDistance. Larger edit distances accept
// nearly every short name.
const maxFuzzyDistance = 3

// tagMatch is the outcome of checking one tag against a tag criterion.
type tagMatch uint8

const (
	// notApplicable: the key is not the one we are looking for. Keep looking.
	notApplicable tagMatch = iota
	// matching: found the tag we need and it matched. Stop, criterion passes.
	matching
	// mismatching: found the tag we need and it did not match. Stop, criterion fails.
	mismatching
)

// tagClassifier is implemented by every criterion that is decided by a
// single tag.
type tagClassifier interface {
	classify(key, value string) tagMatch
	String() string
}

// scanTags walks the record's tags in key order and stops at the first tag
// that is not notApplicable. A record with no qualifying tag fails.
func scanTags(r *Record, c tagClassifier) bool {
	for _, t := range r.Tags {
		switch c.classify(t.Key, t.Value) {
		case matching:
			return true
		case mismatching:
			return false
		}
	}
	return false
}

type criterion interface {
	matches(r *Record) bool
	String() string
}

// tagScan turns a tagClassifier into a criterion.
type tagScan struct {
	tagClassifier
}

func (s tagScan) matches(r *Record) bool { return scanTags(r, s.tagClassifier) }

type namePattern struct {
	pattern TextMatcher
}

func (c namePattern) classify(key, value string) tagMatch {
	if key != nameKey {
		return notApplicable
	}
	if c.pattern.MatchString(value) {
		return matching
	}
	return mismatching
}

func (c namePattern) String() string { return fmt.Sprintf("name ~ /%s/", patternString(c.pattern)) }

type fuzzyName struct {
	query   string
	maxDist int
}

func (c fuzzyName) classify(key, value string) tagMatch {
	if key != nameKey {
		return notApplicable
	}
	if fuzzyMatch(c.query, value, c.maxDist) {
		return matching
	}
	return mismatching
}

func (c fuzzyName) String() string { return fmt.Sprintf("name ≈ %q (±%d)", c.query, c.maxDist) }

// fuzzyMatch reports whether a name tag value is within maxDist edits of
// query, ignoring case. With maxDist 0 only a case-folded equal name passes.
func fuzzyMatch(query, name string, maxDist int) bool {
	if maxDist == 0 {
		return strings.EqualFold(query, name)
	}
	return levenshtein.ComputeDistance(strings.ToLower(query), strings.ToLower(name)) <= maxDist
}

type tagEquals struct {
	key, value string
}

func (c tagEquals) classify(key, value string) tagMatch {
	if key != c.key {
		return notApplicable
	}
	if value == c.value {
		return matching
	}
	return mismatching
}

func (c tagEquals) String() string { return fmt.Sprintf("%s = %q", c.key, c.value) }

// tagPattern is a pattern pair. Only the first tag, in key order, whose key
// matches the key pattern is tested against the value pattern.
type tagPattern struct {
	engine     Engine
	key, value TextMatcher
}

func (c tagPattern) classify(key, value string) tagMatch {
	if !c.key.MatchString(key) {
		return notApplicable
	}
	if c.value.MatchString(value) {
		return matching
	}
	return mismatching
}

func (c tagPattern) String() string {
	return fmt.Sprintf("/%s/ ~ /%s/ (%s)", patternString(c.key), patternString(c.value), c.engine)
}

// Matcher is a compiled, immutable set of criteria. It holds no per-record
// state and is safe for concurrent use.
type Matcher struct {
	criteria []criterion
	query    *LatLon
}

// NewMatcher validates and compiles every configured filter. Criteria are
// stored in evaluation order: distance, name, fuzzy name, literal tags,
// linear pattern pairs, backtracking pattern pairs.
func NewMatcher(f Filters) (*Matcher, error) {
	m := &Matcher{}

	if f.LatLonDistance != "" && f.GeohashDistance != "" {
		return nil, &ConfigError{Flag: "lat-lon-distance", Value: f.LatLonDistance, Kind: ErrMalformedTriple,
			Err: fmt.Errorf("cannot be combined with geohash-distance")}
	}
	if f.LatLonDistance != "" {
		p, meters, err := parseLatLonDistance("lat-lon-distance", f.LatLonDistance)
		if err != nil {
			return nil, err
		}
		m.addDistance(p, meters)
	}
	if f.GeohashDistance != "" {
		p, meters, err := parseGeohashDistance("geohash-distance", f.GeohashDistance)
		if err != nil {
			return nil, err
		}
		m.addDistance(p, meters)
	}

	if f.Name != "" {
		re, err := compilePattern(EngineLinear, f.Name, 0)
		if err != nil {
			return nil, &ConfigError{Flag: "name", Value: f.Name, Kind: ErrInvalidPattern, Err: err}
		}
		m.criteria = append(m.criteria, tagScan{namePattern{pattern: re}})
	}

	if f.FuzzyName != "" {
		dist := min(max(f.FuzzyDistance, 0), maxFuzzyDistance)
		m.criteria = append(m.criteria, tagScan{fuzzyName{query: f.FuzzyName, maxDist: dist}})
	}

	for _, kv := range f.TagValue {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, &ConfigError{Flag: "tag-value", Value: kv, Kind: ErrMalformedPair}
		}
		m.criteria = append(m.criteria, tagScan{tagEquals{key: k, value: v}})
	}

	timeout := f.FancyRegexTimeout
	if timeout <= 0 {
		timeout = DefaultBacktrackTimeout
	}
	for _, pairs := range []struct {
		flag   string
		values []string
		engine Engine
	}{
		{"tag-regex", f.TagRegex, EngineLinear},
		{"tag-fancy-regex", f.TagFancyRegex, EngineBacktracking},
	} {
		for _, s := range pairs.values {
			key, value, err := compilePatternPair(pairs.flag, s, pairs.engine, timeout)
			if err != nil {
				return nil, err
			}
			m.criteria = append(m.criteria, tagScan{tagPattern{engine: pairs.engine, key: key, value: value}})
		}
	}

	return m, nil
}

func (m *Matcher) addDistance(p LatLon, meters float64) {
	m.query = &p
	m.criteria = append(m.criteria, newDistanceCriterion(p, meters))
}

// Matches reports whether r satisfies every criterion. Evaluation stops at
// the first failing criterion.
func (m *Matcher) Matches(r *Record) bool {
	for _, c := range m.criteria {
		if !c.matches(r) {
			return false
		}
	}
	return true
}

// Query returns the proximity query point, if one was configured.
func (m *Matcher) Query() (LatLon, bool) {
	if m.query == nil {
		return LatLon{}, false
	}
	return *m.query, true
}

// Len returns the number of compiled criteria.
func (m *Matcher) Len() int { return len(m.criteria) }

// String lists the compiled criteria in evaluation order.
func (m *Matcher) String() string {
	if len(m.criteria) == 0 {
		return "match all"
	}
	parts := make([]string, len(m.criteria))
	for i, c := range m.criteria {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}
