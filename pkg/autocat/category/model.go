package category

import (
	"math"
	"sort"
)

// MaxDivergence is the Jensen-Shannon upper bound with base-2 logs.
// Comparisons against an empty vocabulary return this value, so a model
// that cannot be compared simply never matches.
const MaxDivergence = 1.0

// DefaultSmoothing is the additive (Laplace) smoothing constant.
const DefaultSmoothing = 0.5

// Model is a smoothed probability distribution over terms, representing
// the topical content of a category or a single entry.
type Model struct {
	counts map[string]int64
	total  int64
	alpha  float64
}

// NewModel builds a model from raw term counts with additive smoothing.
// A non-positive alpha falls back to DefaultSmoothing.
func NewModel(counts map[string]int64, alpha float64) Model {
	if alpha <= 0 {
		alpha = DefaultSmoothing
	}
	m := Model{counts: make(map[string]int64, len(counts)), alpha: alpha}
	for term, c := range counts {
		if term == "" || c <= 0 {
			continue
		}
		m.counts[term] = c
		m.total += c
	}
	return m
}

// Vocab returns the model's term vocabulary, sorted.
func (m Model) Vocab() []string {
	terms := make([]string, 0, len(m.counts))
	for t := range m.counts {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Empty reports whether the model has no observed terms.
func (m Model) Empty() bool {
	return m.total == 0
}

// prob returns the smoothed probability of term against a vocabulary of
// the given size. The vocabulary must contain every term of the model so
// the distribution sums to 1 over it.
func (m Model) prob(term string, vocabSize int) float64 {
	c := m.counts[term]
	return (float64(c) + m.alpha) / (float64(m.total) + m.alpha*float64(vocabSize))
}

// Probabilities returns the smoothed distribution over the model's own
// vocabulary. The values sum to 1.
func (m Model) Probabilities() map[string]float64 {
	out := make(map[string]float64, len(m.counts))
	n := len(m.counts)
	for term := range m.counts {
		out[term] = m.prob(term, n)
	}
	return out
}

// JensenShannon computes the Jensen-Shannon divergence between two
// models over their union vocabulary, with base-2 logs so the result is
// bounded to [0, 1]. It is symmetric. If either vocabulary is empty the
// result is MaxDivergence: an incomparable pair never merges and never
// matches.
func JensenShannon(a, b Model) float64 {
	if a.Empty() || b.Empty() {
		return MaxDivergence
	}

	seen := make(map[string]struct{}, len(a.counts)+len(b.counts))
	vocab := make([]string, 0, len(a.counts)+len(b.counts))
	for t := range a.counts {
		seen[t] = struct{}{}
		vocab = append(vocab, t)
	}
	for t := range b.counts {
		if _, dup := seen[t]; dup {
			continue
		}
		vocab = append(vocab, t)
	}
	// summed in sorted order so the float accumulation is the same on
	// every call
	sort.Strings(vocab)
	n := len(vocab)

	var div float64
	for _, t := range vocab {
		p := a.prob(t, n)
		q := b.prob(t, n)
		m := 0.5 * (p + q)
		if p > 0 {
			div += 0.5 * p * math.Log2(p/m)
		}
		if q > 0 {
			div += 0.5 * q * math.Log2(q/m)
		}
	}

	// guard against floating-point drift outside the bound
	if div < 0 {
		return 0
	}
	if div > MaxDivergence {
		return MaxDivergence
	}
	return div
}
