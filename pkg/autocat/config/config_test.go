package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Defaults must validate: %v", err)
	}
}

func TestWithDefaultsKeepsExplicit(t *testing.T) {
	o := Options{TopKSeedTerms: 7, ProblemThreshold: -0.5}.WithDefaults()

	if o.TopKSeedTerms != 7 {
		t.Errorf("Explicit TopKSeedTerms overwritten: %d", o.TopKSeedTerms)
	}
	if o.ProblemThreshold != -0.5 {
		t.Errorf("Explicit ProblemThreshold overwritten: %g", o.ProblemThreshold)
	}
	if o.OverlapMergeThreshold != 0.25 {
		t.Errorf("Zero field should take default, got %g", o.OverlapMergeThreshold)
	}
	if o.RecencyHalfLife != 30*24*time.Hour {
		t.Errorf("RecencyHalfLife default = %s", o.RecencyHalfLife)
	}
	if len(o.Stopwords) == 0 {
		t.Error("Stopwords default missing")
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	bad := []Options{
		{TopKSeedTerms: -1},
		{OverlapMergeThreshold: 2},
		{EntropyMergeThreshold: -0.5},
		{MergeCountCap: -1},
		{RecencyHalfLife: -time.Hour},
		{RatingScaleMin: 5, RatingScaleMax: 1},
		{RatingWeight: -1},
		{Workers: -2},
	}
	for i, o := range bad {
		err := o.WithDefaults().Validate()
		// fields the defaults fill can mask some cases; apply raw too
		if err == nil {
			err = o.Validate()
		}
		if err == nil {
			t.Errorf("Options %d should fail validation", i)
			continue
		}
		if !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("Options %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}

func TestLoadOptionsYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "options.yaml", `
topKSeedTerms: 10
overlapMergeThreshold: 0.4
problemThreshold: -0.25
workers: 2
`)

	o, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if o.TopKSeedTerms != 10 || o.OverlapMergeThreshold != 0.4 {
		t.Errorf("Loaded options = %+v", o)
	}
	if o.ProblemThreshold != -0.25 || o.Workers != 2 {
		t.Errorf("Loaded options = %+v", o)
	}
	// unset fields filled from defaults
	if o.MergeCountCap != 64 {
		t.Errorf("MergeCountCap default missing, got %d", o.MergeCountCap)
	}
}

func TestLoaderLoadsEverything(t *testing.T) {
	dir := t.TempDir()
	loader := Loader{
		StoplistPath: writeFile(t, dir, "stoplist.yaml", "terms: [the, a, an]\n"),
		DictPath: writeFile(t, dir, "dict.yaml", `
entries:
  - canonical: site
    variants: [website, webpage]
`),
		PatternsPath: writeFile(t, dir, "patterns.yaml", "patterns: [\"error\", \"/time.?out/\"]\n"),
		PolarityPath: writeFile(t, dir, "polarity.yaml", "weights:\n  broken: -2\n  great: 2\n"),
	}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := comp.Tokenizer.Tokenize("the website"); len(got) != 1 || got[0] != "site" {
		t.Errorf("Tokenizer with stoplist and dict: got %v", got)
	}
	if name, ok := comp.Rules.Match("an error occurred"); !ok || name != "error" {
		t.Errorf("Rules match = %q, %v", name, ok)
	}
	if v, ok := comp.Lexicon.Lookup("broken"); !ok || v != -2 {
		t.Errorf("Lexicon lookup = %g, %v", v, ok)
	}
	if comp.Options.TopKSeedTerms != 25 {
		t.Errorf("Options should default, got %d", comp.Options.TopKSeedTerms)
	}
}

func TestLoaderDefaultsWithNoPaths(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Tokenizer == nil || comp.Dict == nil || comp.Rules == nil || comp.Lexicon == nil {
		t.Error("All components must fall back to defaults")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader := Loader{StoplistPath: "/nonexistent/stoplist.yaml"}

	if _, err := loader.Load(); err == nil {
		t.Fatal("Missing file should fail the load")
	}
}
