package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

// Options collects the recognized analysis settings. Every field has a
// documented default; zero values mean "use the default".
type Options struct {
	// Category discovery
	TopKSeedTerms         int     `yaml:"topKSeedTerms"`
	OverlapMergeThreshold float64 `yaml:"overlapMergeThreshold"`
	EntropyMergeThreshold float64 `yaml:"entropyMergeThreshold"`
	MergeCountCap         int     `yaml:"mergeCountCap"`
	Smoothing             float64 `yaml:"smoothing"`

	// Term scoring
	RecencyHalfLife time.Duration `yaml:"recencyHalfLife"`

	// Classification
	FallbackDivergenceCutoff float64 `yaml:"fallbackDivergenceCutoff"`
	SingleBest               bool    `yaml:"singleBest"`

	// Problem detection
	RatingScaleMin    float64  `yaml:"ratingScaleMin"`
	RatingScaleMax    float64  `yaml:"ratingScaleMax"`
	RatingWeight      float64  `yaml:"ratingWeight"`
	TextWeight        float64  `yaml:"textWeight"`
	ProblemThreshold  float64  `yaml:"problemThreshold"`
	RelevancePatterns []string `yaml:"relevancePatterns"`

	// Vocabulary
	Stopwords   []string `yaml:"stopwords"`
	SeedExclude []string `yaml:"seedExclude"`

	// Parallelism for the per-entry phases; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Default returns the documented defaults.
func Default() Options {
	return Options{
		TopKSeedTerms:            25,
		OverlapMergeThreshold:    0.25,
		EntropyMergeThreshold:    0.15,
		MergeCountCap:            64,
		Smoothing:                0.5,
		RecencyHalfLife:          30 * 24 * time.Hour,
		FallbackDivergenceCutoff: 0.6,
		RatingScaleMin:           1,
		RatingScaleMax:           5,
		RatingWeight:             0.5,
		TextWeight:               0.5,
		ProblemThreshold:         0,
		Stopwords:                DefaultStopwords(),
		SeedExclude:              []string{"information", "info", "question", "answer", "help"},
	}
}

// WithDefaults fills zero-valued fields from Default. Explicitly set
// fields are kept.
func (o Options) WithDefaults() Options {
	def := Default()
	if o.TopKSeedTerms == 0 {
		o.TopKSeedTerms = def.TopKSeedTerms
	}
	if o.OverlapMergeThreshold == 0 {
		o.OverlapMergeThreshold = def.OverlapMergeThreshold
	}
	if o.EntropyMergeThreshold == 0 {
		o.EntropyMergeThreshold = def.EntropyMergeThreshold
	}
	if o.MergeCountCap == 0 {
		o.MergeCountCap = def.MergeCountCap
	}
	if o.Smoothing == 0 {
		o.Smoothing = def.Smoothing
	}
	if o.RecencyHalfLife == 0 {
		o.RecencyHalfLife = def.RecencyHalfLife
	}
	if o.FallbackDivergenceCutoff == 0 {
		o.FallbackDivergenceCutoff = def.FallbackDivergenceCutoff
	}
	if o.RatingScaleMin == 0 && o.RatingScaleMax == 0 {
		o.RatingScaleMin = def.RatingScaleMin
		o.RatingScaleMax = def.RatingScaleMax
	}
	if o.RatingWeight == 0 && o.TextWeight == 0 {
		o.RatingWeight = def.RatingWeight
		o.TextWeight = def.TextWeight
	}
	if o.Stopwords == nil {
		o.Stopwords = def.Stopwords
	}
	if o.SeedExclude == nil {
		o.SeedExclude = def.SeedExclude
	}
	return o
}

// Validate rejects out-of-range settings. Called at orchestrator entry
// so a bad configuration fails before any phase runs.
func (o Options) Validate() error {
	if o.TopKSeedTerms < 0 {
		return fmt.Errorf("%w: topKSeedTerms must be >= 0, got %d", internalerr.ErrInvalidConfig, o.TopKSeedTerms)
	}
	if o.OverlapMergeThreshold < 0 || o.OverlapMergeThreshold > 1 {
		return fmt.Errorf("%w: overlapMergeThreshold must be in [0,1], got %g", internalerr.ErrInvalidConfig, o.OverlapMergeThreshold)
	}
	if o.EntropyMergeThreshold < 0 || o.EntropyMergeThreshold > 1 {
		return fmt.Errorf("%w: entropyMergeThreshold must be in [0,1], got %g", internalerr.ErrInvalidConfig, o.EntropyMergeThreshold)
	}
	if o.MergeCountCap < 0 {
		return fmt.Errorf("%w: mergeCountCap must be >= 0, got %d", internalerr.ErrInvalidConfig, o.MergeCountCap)
	}
	if o.RecencyHalfLife < 0 {
		return fmt.Errorf("%w: recencyHalfLife must be >= 0, got %s", internalerr.ErrInvalidConfig, o.RecencyHalfLife)
	}
	if o.RatingScaleMax <= o.RatingScaleMin {
		return fmt.Errorf("%w: ratingScaleMax %g must exceed ratingScaleMin %g", internalerr.ErrInvalidConfig, o.RatingScaleMax, o.RatingScaleMin)
	}
	if o.RatingWeight < 0 || o.TextWeight < 0 {
		return fmt.Errorf("%w: blend weights must be >= 0", internalerr.ErrInvalidConfig)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", internalerr.ErrInvalidConfig, o.Workers)
	}
	return nil
}

// LoadOptions reads options from a YAML file and fills defaults.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}

	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	return o.WithDefaults(), nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Patterns represents a relevance pattern set configuration
type Patterns struct {
	Patterns []string `yaml:"patterns"`
}

// LoadPatterns loads relevance patterns from a YAML file
func LoadPatterns(path string) (*Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Polarity represents the sentiment lexicon configuration
type Polarity struct {
	Weights map[string]float64 `yaml:"weights"`
}

// LoadPolarity loads a polarity lexicon from a YAML file
func LoadPolarity(path string) (*Polarity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Polarity
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Dict represents the canonical-form dictionary configuration.
//
// Expected format:
//
//	entries:
//	  - canonical: site
//	    variants: [website, webpage, web site]
type Dict struct {
	Entries []DictEntry `yaml:"entries"`
}

// DictEntry represents a dictionary entry
type DictEntry struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// LoadDict loads the dictionary from a YAML file
func LoadDict(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d Dict
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}

	return &d, nil
}
