package sentiment

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

// Signal is the per-entry problem-detection result. Both components are
// reported separately so callers can re-threshold without recomputing.
type Signal struct {
	EntryKey string

	// NegativeContext blends normalized rating and lexical sentiment
	// on [-2, +2]; below zero means dissatisfaction.
	NegativeContext float64
	// RelevanceMatch is true when a relevance pattern hit the text.
	RelevanceMatch bool
	// MatchedPattern names the pattern that hit, when one did.
	MatchedPattern string
	// IsProblem is NegativeContext below the threshold AND a relevance hit.
	IsProblem bool
}

// Config controls the analyzer.
type Config struct {
	// RatingScaleMin/Max declare the rating scale (default 1..5).
	RatingScaleMin float64
	RatingScaleMax float64
	// RatingWeight and TextWeight blend the two negative-context
	// components. Defaults are equal weights: ratings alone are too
	// coarse and text alone too noisy, the blend stabilizes the signal.
	RatingWeight float64
	TextWeight   float64
	// ProblemThreshold: NegativeContext strictly below it counts as
	// negative context (default 0).
	ProblemThreshold float64
	// Rules is the relevance ruleset; nil uses the defaults.
	Rules RuleSet
	// Lexicon is the polarity lexicon; nil uses the default.
	Lexicon *PolarityLexicon
}

// Analyzer computes problem signals from rating plus text.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer validates the configuration and fills defaults.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.RatingScaleMin == 0 && cfg.RatingScaleMax == 0 {
		cfg.RatingScaleMin, cfg.RatingScaleMax = 1, 5
	}
	if cfg.RatingScaleMax <= cfg.RatingScaleMin {
		return nil, fmt.Errorf("%w: rating scale max %g must exceed min %g",
			internalerr.ErrInvalidConfig, cfg.RatingScaleMax, cfg.RatingScaleMin)
	}
	if cfg.RatingWeight == 0 && cfg.TextWeight == 0 {
		cfg.RatingWeight, cfg.TextWeight = 0.5, 0.5
	}
	if cfg.RatingWeight < 0 || cfg.TextWeight < 0 {
		return nil, fmt.Errorf("%w: blend weights must be >= 0", internalerr.ErrInvalidConfig)
	}
	if cfg.Rules == nil {
		rules, err := CompileRules(DefaultPatterns())
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}
	if cfg.Lexicon == nil {
		cfg.Lexicon = DefaultPolarityLexicon()
	}
	return &Analyzer{cfg: cfg}, nil
}

// Analyze scores one entry. phrases are the entry's extracted noun
// phrases (shared with the categorization branch); lexical sentiment
// additionally scans the surface tokens so adjectives outside noun
// phrases still register. A missing rating contributes the neutral
// baseline 0, a documented default rather than a silent zero rating.
func (a *Analyzer) Analyze(entryKey, text string, rating float64, hasRating bool, phrases []string) Signal {
	norm := NormalizeSurface(text)

	ratingScore := 0.0
	if hasRating {
		ratingScore = NormalizeRating(rating, a.cfg.RatingScaleMin, a.cfg.RatingScaleMax)
	}

	tokens := strings.Fields(norm)
	tokens = append(tokens, phrases...)
	textScore := a.cfg.Lexicon.Score(tokens)

	total := a.cfg.RatingWeight + a.cfg.TextWeight
	neg := (a.cfg.RatingWeight*ratingScore + a.cfg.TextWeight*textScore) / total

	name, matched := "", false
	if norm != "" {
		name, matched = a.cfg.Rules.Match(norm)
	}

	return Signal{
		EntryKey:        entryKey,
		NegativeContext: neg,
		RelevanceMatch:  matched,
		MatchedPattern:  name,
		IsProblem:       matched && neg < a.cfg.ProblemThreshold,
	}
}

// NormalizeSurface prepares raw text for pattern matching: lowercase,
// hyphens removed ("log-in" matches "login"), remaining punctuation
// except apostrophes replaced with spaces, whitespace collapsed.
// Stopwords are kept — multi-word patterns like "out of date" depend on
// them.
func NormalizeSurface(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '-':
			// removed, not spaced
		case r == '\'':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
