package config

import (
	"fmt"

	"github.com/cognicore/autocat/pkg/autocat/ingest"
	"github.com/cognicore/autocat/pkg/autocat/sentiment"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	OptionsPath  string
	StoplistPath string
	DictPath     string
	PatternsPath string
	PolarityPath string
}

// Components holds all loaded configuration components
type Components struct {
	Options   Options
	Tokenizer *ingest.Tokenizer
	Dict      *ingest.Dictionary
	Rules     sentiment.RuleSet
	Lexicon   *sentiment.PolarityLexicon
}

// Load reads all configuration files and returns initialized components.
// Empty paths fall back to built-in defaults.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if l.OptionsPath != "" {
		opts, err := LoadOptions(l.OptionsPath)
		if err != nil {
			return nil, fmt.Errorf("load options: %w", err)
		}
		comp.Options = opts
	} else {
		comp.Options = Default()
	}
	if err := comp.Options.Validate(); err != nil {
		return nil, err
	}

	stopwords := comp.Options.Stopwords
	if l.StoplistPath != "" {
		stoplist, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stopwords = stoplist.Terms
	}
	comp.Tokenizer = ingest.NewTokenizer(stopwords)

	if l.DictPath != "" {
		dict, err := LoadDict(l.DictPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		entries := make([]ingest.DictEntry, len(dict.Entries))
		for i, e := range dict.Entries {
			entries[i] = ingest.DictEntry{
				Canonical: e.Canonical,
				Variants:  e.Variants,
			}
		}
		comp.Dict = ingest.NewDictionary(entries)
	} else {
		comp.Dict = ingest.DefaultDictionary()
	}
	comp.Tokenizer.SetDictionary(comp.Dict)

	patterns := comp.Options.RelevancePatterns
	if l.PatternsPath != "" {
		p, err := LoadPatterns(l.PatternsPath)
		if err != nil {
			return nil, fmt.Errorf("load patterns: %w", err)
		}
		patterns = p.Patterns
	}
	if patterns == nil {
		patterns = sentiment.DefaultPatterns()
	}
	rules, err := sentiment.CompileRules(patterns)
	if err != nil {
		return nil, err
	}
	comp.Rules = rules

	if l.PolarityPath != "" {
		p, err := LoadPolarity(l.PolarityPath)
		if err != nil {
			return nil, fmt.Errorf("load polarity lexicon: %w", err)
		}
		comp.Lexicon = sentiment.NewPolarityLexicon(p.Weights)
	} else {
		comp.Lexicon = sentiment.DefaultPolarityLexicon()
	}

	return comp, nil
}
