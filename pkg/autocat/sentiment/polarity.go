package sentiment

import "strings"

// PolarityLexicon maps words to signed sentiment weights on the same
// [-2, +2] scale as normalized ratings, so the two signals blend
// directly.
type PolarityLexicon struct {
	weights map[string]float64
}

// NewPolarityLexicon builds a lexicon from word→weight entries.
// Words are lowercased; weights are clipped to [-2, +2].
func NewPolarityLexicon(weights map[string]float64) *PolarityLexicon {
	lex := &PolarityLexicon{weights: make(map[string]float64, len(weights))}
	for w, v := range weights {
		lex.weights[strings.ToLower(w)] = clip(v)
	}
	return lex
}

// Score averages the weights of the tokens present in the lexicon,
// clipped to [-2, +2]. Tokens the lexicon doesn't know contribute
// nothing; zero known tokens scores 0 (neutral), never an error.
func (l *PolarityLexicon) Score(tokens []string) float64 {
	var sum float64
	var n int
	for _, tok := range tokens {
		if v, ok := l.weights[tok]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clip(sum / float64(n))
}

// Lookup returns the weight of one word and whether it is known.
func (l *PolarityLexicon) Lookup(word string) (float64, bool) {
	v, ok := l.weights[strings.ToLower(word)]
	return v, ok
}

// Len returns the number of lexicon entries.
func (l *PolarityLexicon) Len() int { return len(l.weights) }

func clip(v float64) float64 {
	if v > 2 {
		return 2
	}
	if v < -2 {
		return -2
	}
	return v
}

// DefaultPolarityLexicon covers the vocabulary that dominates survey
// feedback. Deployments extend or replace it via configuration.
func DefaultPolarityLexicon() *PolarityLexicon {
	return NewPolarityLexicon(map[string]float64{
		// negative
		"broken": -2, "broke": -2, "crash": -2, "crashed": -2, "crashes": -2,
		"error": -1.5, "errors": -1.5, "fail": -2, "failed": -2, "failure": -2,
		"terrible": -2, "horrible": -2, "awful": -2, "worst": -2, "useless": -2,
		"bad": -1.5, "poor": -1.5, "slow": -1, "confusing": -1.5, "confused": -1.5,
		"frustrating": -2, "frustrated": -2, "difficult": -1, "hard": -1,
		"problem": -1.5, "problems": -1.5, "issue": -1, "issues": -1,
		"wrong": -1.5, "unclear": -1, "annoying": -1.5, "disappointed": -1.5,
		"unable": -1.5, "stuck": -1.5, "unusable": -2, "impossible": -1.5,
		// positive
		"great": 2, "excellent": 2, "amazing": 2, "awesome": 2, "fantastic": 2,
		"love": 2, "loved": 2, "perfect": 2, "best": 2, "wonderful": 2,
		"good": 1.5, "nice": 1, "helpful": 1.5, "easy": 1.5, "fast": 1,
		"simple": 1, "clear": 1, "intuitive": 1.5, "useful": 1.5, "smooth": 1.5,
	})
}
