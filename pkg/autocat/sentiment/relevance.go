package sentiment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

// Matcher tests whether normalized entry text touches a known problem
// topic. Matching is a pluggable strategy: an ordered list of matchers
// replaces inline conditionals, so pattern sets can be swapped per
// deployment without touching the analyzer.
type Matcher interface {
	// Name identifies the pattern for reporting.
	Name() string
	// Match tests the normalized text.
	Match(normText string) bool
}

// SubstringMatcher matches a literal substring.
type SubstringMatcher struct {
	pattern string
}

// NewSubstringMatcher creates a case-insensitive literal matcher.
func NewSubstringMatcher(pattern string) SubstringMatcher {
	return SubstringMatcher{pattern: strings.ToLower(pattern)}
}

func (m SubstringMatcher) Name() string { return m.pattern }

func (m SubstringMatcher) Match(normText string) bool {
	return strings.Contains(normText, m.pattern)
}

// RegexpMatcher matches a compiled regular expression.
type RegexpMatcher struct {
	name string
	re   *regexp.Regexp
}

// NewRegexpMatcher compiles expr. Invalid expressions are a
// configuration error.
func NewRegexpMatcher(expr string) (RegexpMatcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return RegexpMatcher{}, fmt.Errorf("%w: relevance pattern %q: %v", internalerr.ErrInvalidConfig, expr, err)
	}
	return RegexpMatcher{name: expr, re: re}, nil
}

func (m RegexpMatcher) Name() string { return m.name }

func (m RegexpMatcher) Match(normText string) bool {
	return m.re.MatchString(normText)
}

// RuleSet is an ordered list of matchers. The first match wins.
type RuleSet []Matcher

// Match returns the name of the first matching pattern, if any.
func (rs RuleSet) Match(normText string) (string, bool) {
	for _, m := range rs {
		if m.Match(normText) {
			return m.Name(), true
		}
	}
	return "", false
}

// CompileRules turns configured pattern strings into a RuleSet.
// Patterns wrapped in slashes ("/time.?out/") compile as regular
// expressions with word-boundary guards; everything else matches as a
// literal substring.
func CompileRules(patterns []string) (RuleSet, error) {
	rs := make(RuleSet, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) > 2 && strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/") {
			m, err := NewRegexpMatcher(`\b(?:` + p[1:len(p)-1] + `)\b`)
			if err != nil {
				return nil, err
			}
			rs = append(rs, m)
			continue
		}
		rs = append(rs, NewSubstringMatcher(p))
	}
	return rs, nil
}
