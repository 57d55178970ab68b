package ingest

import "strings"

// Dictionary stores deployment-specific vocabulary rewrites:
// - Synonyms: different surface forms with one canonical form
//   ("webpage", "web site" → "site")
// - Multi-word phrases mapped to canonical forms via greedy longest match
//
// The canonical form is what the rest of the pipeline counts and matches,
// so a single concept spread across spellings aggregates into one term.
type Dictionary struct {
	// phrase (canonical or variant, lowercase) → entry
	entries map[string]DictEntry
	// variant → canonical, single tokens only
	reverseIndex map[string]string
	maxLen       int
}

// DictEntry represents a dictionary entry for a canonical form
type DictEntry struct {
	Canonical string
	Variants  []string
}

// NewDictionary creates a dictionary from the given entries
func NewDictionary(entries []DictEntry) *Dictionary {
	d := &Dictionary{
		entries:      make(map[string]DictEntry),
		reverseIndex: make(map[string]string),
		maxLen:       1,
	}
	for _, e := range entries {
		canonical := strings.ToLower(e.Canonical)
		d.add(canonical, e)
		d.reverseIndex[canonical] = canonical
		for _, v := range e.Variants {
			variant := strings.ToLower(v)
			d.add(variant, e)
			if !strings.Contains(variant, " ") {
				d.reverseIndex[variant] = canonical
			}
		}
	}
	return d
}

func (d *Dictionary) add(phrase string, e DictEntry) {
	d.entries[phrase] = e
	if l := phraseLen(phrase); l > d.maxLen {
		d.maxLen = l
	}
}

// Normalize returns the canonical form of a single token.
// Tokens not in the dictionary are returned unchanged.
func (d *Dictionary) Normalize(token string) string {
	if canonical, ok := d.reverseIndex[strings.ToLower(token)]; ok {
		return canonical
	}
	return token
}

// RewriteSpan is one rewritten token with the input range it covers, so
// callers can keep per-word attributes aligned after multi-word variants
// collapse.
type RewriteSpan struct {
	Norm  string
	Start int // first input token index
	End   int // one past the last input token index
}

// Rewrite applies greedy longest-match recognition over a token sequence,
// collapsing known multi-word variants into their canonical forms.
func (d *Dictionary) Rewrite(tokens []string) []string {
	spans := d.RewriteSpans(tokens)
	result := make([]string, len(spans))
	for i, s := range spans {
		result[i] = s.Norm
	}
	return result
}

// RewriteSpans is Rewrite with the covered input ranges preserved.
func (d *Dictionary) RewriteSpans(tokens []string) []RewriteSpan {
	var result []RewriteSpan
	i := 0

	for i < len(tokens) {
		matched := ""
		matchLen := 1

		maxPhrase := d.maxLen
		if remaining := len(tokens) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := maxPhrase; n >= 2; n-- {
			phrase := strings.ToLower(strings.Join(tokens[i:i+n], " "))
			if entry, ok := d.entries[phrase]; ok {
				matched = strings.ToLower(entry.Canonical)
				matchLen = n
				break
			}
		}

		if matched == "" {
			matched = d.Normalize(tokens[i])
		}
		result = append(result, RewriteSpan{Norm: matched, Start: i, End: i + matchLen})
		i += matchLen
	}

	return result
}

func phraseLen(phrase string) int {
	if phrase == "" {
		return 1
	}
	return len(strings.Fields(phrase))
}

// DefaultDictionary returns the rewrites survey feedback benefits from
// out of the box: the many spellings of "site" collapse into one term.
func DefaultDictionary() *Dictionary {
	return NewDictionary([]DictEntry{
		{Canonical: "site", Variants: []string{"website", "websites", "webpage", "webpages", "web site", "web page"}},
		{Canonical: "login", Variants: []string{"log in", "log-in", "logon", "log on", "signin", "sign in", "sign-in"}},
		{Canonical: "dropdown", Variants: []string{"drop down", "drop-down"}},
	})
}
