package sentiment

import (
	"errors"
	"testing"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

func TestCompileRulesSubstringAndRegexp(t *testing.T) {
	rs, err := CompileRules([]string{"not found", `/tim(e|ed)[ -]?out/`})
	if err != nil {
		t.Fatalf("CompileRules: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("Expected 2 matchers, got %d", len(rs))
	}

	if name, ok := rs.Match("the page was not found"); !ok || name != "not found" {
		t.Errorf("Substring match = %q, %v", name, ok)
	}
	if _, ok := rs.Match("the request timed out"); !ok {
		t.Error("Regexp pattern should match 'timed out'")
	}
	if _, ok := rs.Match("everything is fine"); ok {
		t.Error("Unexpected match on neutral text")
	}
}

func TestCompileRulesWordBoundaries(t *testing.T) {
	rs, err := CompileRules([]string{`/link(s)?/`})
	if err != nil {
		t.Fatalf("CompileRules: %v", err)
	}

	if _, ok := rs.Match("the links are dead"); !ok {
		t.Error("Should match the whole word 'links'")
	}
	if _, ok := rs.Match("we had blinkered optimism"); ok {
		t.Error("Word boundary guard should prevent mid-word matches")
	}
}

func TestCompileRulesFirstMatchWins(t *testing.T) {
	rs, err := CompileRules([]string{"error", "login"})
	if err != nil {
		t.Fatalf("CompileRules: %v", err)
	}

	name, ok := rs.Match("login error on the site")
	if !ok || name != "error" {
		t.Errorf("First pattern in order should win, got %q", name)
	}
}

func TestCompileRulesInvalidRegexp(t *testing.T) {
	_, err := CompileRules([]string{`/unclosed(/`})
	if err == nil {
		t.Fatal("Invalid regexp should fail compilation")
	}
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestCompileRulesSkipsBlank(t *testing.T) {
	rs, err := CompileRules([]string{"", "  ", "error"})
	if err != nil {
		t.Fatalf("CompileRules: %v", err)
	}
	if len(rs) != 1 {
		t.Errorf("Blank patterns should be skipped, got %d matchers", len(rs))
	}
}

func TestDefaultPatternsCompile(t *testing.T) {
	rs, err := CompileRules(DefaultPatterns())
	if err != nil {
		t.Fatalf("Default patterns must compile: %v", err)
	}

	// spot checks from real feedback phrasing
	matches := []string{
		"an unexpected error has occurred",
		"the dropdown doesn't work",
		"i couldn't reset my password",
		"page is out of date",
		"it keeps timing out",
		"so confusing to navigate",
	}
	for _, text := range matches {
		if _, ok := rs.Match(text); !ok {
			t.Errorf("Default patterns should match %q", text)
		}
	}

	if _, ok := rs.Match("lovely experience all around"); ok {
		t.Error("Neutral praise should not match any default pattern")
	}
}

func TestPolarityLexiconScore(t *testing.T) {
	lex := NewPolarityLexicon(map[string]float64{"broken": -2, "great": 2, "slow": -1, "huge": 5})

	if got := lex.Score([]string{"broken", "great"}); got != 0 {
		t.Errorf("Balanced tokens should average to 0, got %g", got)
	}
	if got := lex.Score([]string{"slow", "unknown", "words"}); got != -1 {
		t.Errorf("Unknown tokens must not dilute the average, got %g", got)
	}
	if got := lex.Score([]string{"nothing", "known"}); got != 0 {
		t.Errorf("No known tokens scores neutral, got %g", got)
	}

	// weights clip to the rating scale
	if v, ok := lex.Lookup("huge"); !ok || v != 2 {
		t.Errorf("Lookup(huge) = %g, %v; want clipped 2", v, ok)
	}
}
