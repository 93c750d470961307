package osmfilter

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dlclark/regexp2"
)

// TextMatcher reports whether a string matches a compiled pattern.
// *regexp.Regexp satisfies it directly.
type TextMatcher interface {
	MatchString(s string) bool
}

// Engine selects the pattern engine used for a tag pattern pair.
type Engine uint8

const (
	// EngineLinear is Go's RE2 engine: guaranteed linear time, no lookaround.
	EngineLinear Engine = iota
	// EngineBacktracking supports lookaround and backreferences.
	EngineBacktracking
)

func (e Engine) String() string {
	if e == EngineBacktracking {
		return "backtracking"
	}
	return "linear"
}

// DefaultBacktrackTimeout bounds a single backtracking match.
const DefaultBacktrackTimeout = time.Second

// backtrackingPattern adapts regexp2 to TextMatcher. A match that errors,
// which in practice means it ran past its timeout, is treated as no match.
type backtrackingPattern struct {
	re *regexp2.Regexp
}

func (p backtrackingPattern) MatchString(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func (p backtrackingPattern) String() string { return p.re.String() }

func compilePattern(engine Engine, expr string, timeout time.Duration) (TextMatcher, error) {
	if engine == EngineLinear {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		return re, nil
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return backtrackingPattern{re: re}, nil
}

var errSeparatorCount = errors.New("expected exactly one unescaped '=' separator")

// splitPatternPair splits "keyPattern=valuePattern" on its single unescaped
// '='. A '=' preceded by an odd number of backslashes is escaped and stays
// part of the pattern; both engines read `\=` as a literal '='.
func splitPatternPair(s string) (string, string, error) {
	sep := -1
	backslashes := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			backslashes++
			continue
		case '=':
			if backslashes%2 == 0 {
				if sep >= 0 {
					return "", "", errSeparatorCount
				}
				sep = i
			}
		}
		backslashes = 0
	}
	if sep < 0 {
		return "", "", errSeparatorCount
	}
	return s[:sep], s[sep+1:], nil
}

// compilePatternPair builds the key and value matchers for one pattern pair.
func compilePatternPair(flag, s string, engine Engine, timeout time.Duration) (TextMatcher, TextMatcher, error) {
	keyExpr, valueExpr, err := splitPatternPair(s)
	if err != nil {
		return nil, nil, &ConfigError{Flag: flag, Value: s, Kind: ErrInvalidPattern, Err: err}
	}
	key, err := compilePattern(engine, keyExpr, timeout)
	if err != nil {
		return nil, nil, &ConfigError{Flag: flag, Value: s, Kind: ErrInvalidPattern, Err: fmt.Errorf("key pattern: %w", err)}
	}
	value, err := compilePattern(engine, valueExpr, timeout)
	if err != nil {
		return nil, nil, &ConfigError{Flag: flag, Value: s, Kind: ErrInvalidPattern, Err: fmt.Errorf("value pattern: %w", err)}
	}
	return key, value, nil
}

// patternString returns the source of a compiled matcher for debug output.
func patternString(m TextMatcher) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", m)
}
