package autocat

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/autocat/pkg/autocat/classify"
	"github.com/cognicore/autocat/pkg/autocat/config"
	"github.com/cognicore/autocat/pkg/autocat/dataset"
	"github.com/cognicore/autocat/pkg/autocat/ingest"
	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

// testTags drive a lookup tagger so the tests never depend on a
// trained model.
var testTags = map[string]string{
	"login": "NN", "error": "NN", "errors": "NNS", "page": "NN",
	"site": "NN", "website": "NN", "password": "NN", "reset": "NN",
	"checkout": "NN", "payment": "NN", "service": "NN", "dashboard": "NN",
	"slow": "JJ", "broken": "JJ", "great": "JJ", "new": "JJ",
}

type tableTagger struct{}

func (tableTagger) Tag(text string) []ingest.TaggedToken {
	var out []ingest.TaggedToken
	for _, w := range strings.Fields(text) {
		word := strings.ToLower(strings.Trim(w, ".,!?"))
		if word == "" {
			continue
		}
		tag, ok := testTags[word]
		if !ok {
			tag = "VB"
		}
		out = append(out, ingest.TaggedToken{Text: word, Tag: tag})
	}
	return out
}

func newTestEngine(t *testing.T, opts config.Options) *Engine {
	t.Helper()
	tokenizer := ingest.NewTokenizer(config.DefaultStopwords())
	dict := ingest.DefaultDictionary()
	tokenizer.SetDictionary(dict)
	parser := ingest.NewParser(tableTagger{}, tokenizer, dict)

	engine, err := New(Options{Parser: parser, Config: opts})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func testEntries() []dataset.Entry {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := []dataset.Entry{
		{Key: "e1", Text: "login error on the site", Rating: 1, HasRating: true, Timestamp: base, HasTimestamp: true},
		{Key: "e2", Text: "another login error today", Rating: 2, HasRating: true, Timestamp: base, HasTimestamp: true},
		{Key: "e3", Text: "login error again", Rating: 1, HasRating: true, Timestamp: base, HasTimestamp: true},
		{Key: "e4", Text: "great service and a great dashboard", Rating: 5, HasRating: true, Timestamp: base, HasTimestamp: true},
		{Key: "e5", Text: "checkout payment was fine", Rating: 4, HasRating: true, Timestamp: base, HasTimestamp: true},
		{Key: "e6", Text: "", Rating: 3, HasRating: true},
	}
	return entries
}

func TestEngineEndToEnd(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, config.Options{})
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	res, err := engine.Analyze(ctx, testEntries(), Request{Categorize: true, DetectProblems: true, Now: now})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// === Categorization branch ===
	cat := res.Categorization
	if cat == nil {
		t.Fatal("Categorization branch missing")
	}
	if cat.Tree.Empty() {
		t.Fatal("Expected discovered categories")
	}

	// the dominant theme survives discovery as one category holding the
	// full phrase vocabulary
	var login bool
	for _, c := range cat.Tree.Categories {
		if c.HasTerm("login error") {
			login = true
		}
	}
	if !login {
		t.Errorf("Expected a category carrying the login error phrase, labels = %v", cat.Tree.Labels())
	}

	// repeated-phrase entries classify by term intersection
	for _, key := range []string{"e1", "e2", "e3"} {
		as := cat.Assignments[key]
		if len(as) == 0 {
			t.Errorf("Entry %s unassigned", key)
			continue
		}
		if as[0].Method != classify.MethodTermMatch {
			t.Errorf("Entry %s method = %s", key, as[0].Method)
		}
	}

	// the empty entry falls to the default pair
	as := cat.Assignments["e6"]
	if len(as) != 1 || as[0].Category != classify.DefaultCategory {
		t.Errorf("Empty entry assignment = %+v", as)
	}

	// term table is ranked and led by the dominant phrase vocabulary
	if len(cat.Terms) == 0 {
		t.Fatal("Expected term stats")
	}
	if cat.Terms[0].Norm != "login error" && cat.Terms[0].Norm != "login" && cat.Terms[0].Norm != "error" {
		t.Errorf("Top term = %q, want login vocabulary", cat.Terms[0].Norm)
	}

	// === Problem branch ===
	probs := res.Problems
	if probs == nil {
		t.Fatal("Problems branch missing")
	}
	for _, key := range []string{"e1", "e2", "e3"} {
		sig := probs.Signals[key]
		if !sig.IsProblem {
			t.Errorf("Entry %s should be flagged: %+v", key, sig)
		}
	}
	if probs.Signals["e4"].IsProblem {
		t.Error("Positive entry must not be flagged")
	}
	if probs.Signals["e6"].IsProblem {
		t.Error("Empty entry must not be flagged")
	}
}

func TestEngineDeterministic(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, config.Options{Workers: 4})
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	req := Request{Categorize: true, DetectProblems: true, Now: now}

	first, err := engine.Analyze(ctx, testEntries(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Analyze(ctx, testEntries(), req)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("Identical input and request must produce identical results")
		}
	}
}

func TestEngineZeroNowAnchorsToNewestEntry(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, config.Options{})

	// zero Now resolves to the newest entry timestamp, so reruns over
	// the same snapshot agree regardless of wall clock
	first, err := engine.Categorize(ctx, testEntries(), time.Time{})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	again, err := engine.Categorize(ctx, testEntries(), time.Time{})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Fatal("Zero-now runs must be reproducible")
	}
}

func TestEngineValidatesEntries(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, config.Options{})

	_, err := engine.DetectProblems(ctx, []dataset.Entry{{Key: "", Text: "x"}})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Empty key: expected ErrInvalidInput, got %v", err)
	}

	dup := []dataset.Entry{{Key: "e1", Text: "x"}, {Key: "e1", Text: "y"}}
	_, err = engine.DetectProblems(ctx, dup)
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Duplicate key: expected ErrInvalidInput, got %v", err)
	}
}

func TestEngineRejectsEmptyRequest(t *testing.T) {
	engine := newTestEngine(t, config.Options{})

	_, err := engine.Analyze(context.Background(), testEntries(), Request{})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestEngineCancellation(t *testing.T) {
	engine := newTestEngine(t, config.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := engine.Analyze(ctx, testEntries(), Request{Categorize: true})
	if err != context.Canceled {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res != nil {
		t.Error("Canceled run must not return partial results")
	}
}

func TestEngineRejectsBadConfig(t *testing.T) {
	_, err := New(Options{Config: config.Options{TopKSeedTerms: -1}})
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestEngineTermHistories(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, config.Options{})

	hist, err := engine.TermHistories(ctx, testEntries(), 3)
	if err != nil {
		t.Fatalf("TermHistories: %v", err)
	}
	if len(hist) == 0 || len(hist) > 3 {
		t.Fatalf("Histories = %d, want 1..3", len(hist))
	}
	if hist[0].Total < hist[len(hist)-1].Total {
		t.Error("Histories must be ordered by total descending")
	}
}

func TestEngineEmptyEntrySet(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, config.Options{})

	res, err := engine.Analyze(ctx, nil, Request{Categorize: true, DetectProblems: true})
	if err != nil {
		t.Fatalf("Analyze over zero entries: %v", err)
	}
	if !res.Categorization.Tree.Empty() {
		t.Error("No entries should discover no categories")
	}
	if len(res.Problems.Signals) != 0 {
		t.Error("No entries should produce no signals")
	}
}
