package autocat

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cognicore/autocat/pkg/autocat/category"
	"github.com/cognicore/autocat/pkg/autocat/classify"
	"github.com/cognicore/autocat/pkg/autocat/config"
	"github.com/cognicore/autocat/pkg/autocat/dataset"
	"github.com/cognicore/autocat/pkg/autocat/ingest"
	"github.com/cognicore/autocat/pkg/autocat/internalerr"
	"github.com/cognicore/autocat/pkg/autocat/sentiment"
	"github.com/cognicore/autocat/pkg/autocat/terms"
)

// Engine is the analysis facade: it sequences parsing, term scoring,
// category discovery, classification and problem detection over an
// entry collection. An Engine is safe for concurrent runs; each run
// owns its own term table and category tree.
type Engine struct {
	parser   *ingest.Parser
	analyzer *sentiment.Analyzer
	opts     config.Options
}

// Options configures an Engine instance.
type Options struct {
	// Parser extracts noun phrases; nil builds the default parser
	// (prose tagger, default stopwords and dictionary).
	Parser *ingest.Parser
	// Analyzer scores problem signals; nil builds one from Config.
	Analyzer *sentiment.Analyzer
	// Config supplies analysis settings; zero fields use defaults.
	Config config.Options
}

// New creates an Engine. Configuration is validated here so a bad
// setting fails before any analysis begins.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parser := opts.Parser
	if parser == nil {
		tokenizer := ingest.NewTokenizer(cfg.Stopwords)
		dict := ingest.DefaultDictionary()
		tokenizer.SetDictionary(dict)
		parser = ingest.NewParser(ingest.NewProseTagger(), tokenizer, dict)
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		rules, err := sentiment.CompileRules(relevancePatterns(cfg))
		if err != nil {
			return nil, err
		}
		analyzer, err = sentiment.NewAnalyzer(sentiment.Config{
			RatingScaleMin:   cfg.RatingScaleMin,
			RatingScaleMax:   cfg.RatingScaleMax,
			RatingWeight:     cfg.RatingWeight,
			TextWeight:       cfg.TextWeight,
			ProblemThreshold: cfg.ProblemThreshold,
			Rules:            rules,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Engine{parser: parser, analyzer: analyzer, opts: cfg}, nil
}

func relevancePatterns(cfg config.Options) []string {
	if cfg.RelevancePatterns != nil {
		return cfg.RelevancePatterns
	}
	return sentiment.DefaultPatterns()
}

// Request selects which branches to run over the entries.
type Request struct {
	// Categorize runs term scoring, category discovery and
	// classification.
	Categorize bool
	// DetectProblems runs the sentiment/relevance branch.
	DetectProblems bool
	// Now anchors recency decay. Zero means "newest entry timestamp",
	// which keeps reruns over the same snapshot deterministic.
	Now time.Time
}

// CategorizationResult is the AutoCat branch output.
type CategorizationResult struct {
	Tree category.Tree
	// Assignments maps entry key to its ordered assignment list.
	Assignments map[string][]classify.Assignment
	// Terms is the ranked term table the tree was discovered from.
	Terms []terms.TermStat
}

// ProblemResult is the Problem Report branch output.
type ProblemResult struct {
	Signals map[string]sentiment.Signal
}

// Result bundles whichever branches the request selected.
type Result struct {
	Categorization *CategorizationResult
	Problems       *ProblemResult
}

// Analyze runs the selected branches over the entries. Entries are
// parsed exactly once; both branches consume the shared phrase cache.
//
// Identical entries, request and configuration produce identical
// results. Cancellation is checked between phases (and inside the merge
// passes, between iterations); a canceled run returns ctx.Err() and no
// partial results.
func (e *Engine) Analyze(ctx context.Context, entries []dataset.Entry, req Request) (*Result, error) {
	if !req.Categorize && !req.DetectProblems {
		return nil, fmt.Errorf("%w: request selects no analysis branch", internalerr.ErrInvalidInput)
	}
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	phrases, err := e.parseAll(ctx, entries)
	if err != nil {
		return nil, err
	}

	res := &Result{}

	if req.Categorize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cat, err := e.categorize(ctx, entries, phrases, req.Now)
		if err != nil {
			return nil, err
		}
		res.Categorization = cat
	}

	if req.DetectProblems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		probs, err := e.detectProblems(ctx, entries, phrases)
		if err != nil {
			return nil, err
		}
		res.Problems = probs
	}

	return res, nil
}

// Categorize is shorthand for an Analyze request with only the AutoCat
// branch selected.
func (e *Engine) Categorize(ctx context.Context, entries []dataset.Entry, now time.Time) (*CategorizationResult, error) {
	res, err := e.Analyze(ctx, entries, Request{Categorize: true, Now: now})
	if err != nil {
		return nil, err
	}
	return res.Categorization, nil
}

// DetectProblems is shorthand for an Analyze request with only the
// Problem Report branch selected.
func (e *Engine) DetectProblems(ctx context.Context, entries []dataset.Entry) (*ProblemResult, error) {
	res, err := e.Analyze(ctx, entries, Request{DetectProblems: true})
	if err != nil {
		return nil, err
	}
	return res.Problems, nil
}

// TermHistories buckets per-term occurrence counts by day for the most
// frequent terms, for trend consumers.
func (e *Engine) TermHistories(ctx context.Context, entries []dataset.Entry, limit int) ([]terms.History, error) {
	if err := validateEntries(entries); err != nil {
		return nil, err
	}
	phrases, err := e.parseAll(ctx, entries)
	if err != nil {
		return nil, err
	}
	return terms.Histories(occurrences(entries, phrases), limit), nil
}

func validateEntries(entries []dataset.Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		if entry.Key == "" {
			return fmt.Errorf("%w: entry %d has an empty key", internalerr.ErrInvalidInput, i)
		}
		if _, dup := seen[entry.Key]; dup {
			return fmt.Errorf("%w: duplicate entry key %q", internalerr.ErrInvalidInput, entry.Key)
		}
		seen[entry.Key] = struct{}{}
	}
	return nil
}

// parseAll extracts phrases for every entry once, fanning out over a
// bounded worker pool. Results land at the entry's own index, so the
// output order never depends on scheduling.
func (e *Engine) parseAll(ctx context.Context, entries []dataset.Entry) ([][]ingest.Phrase, error) {
	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	results := make([][]ingest.Phrase, len(entries))
	if len(entries) == 0 {
		return results, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.parser.Parse(entries[i].Text)
			}
		}()
	}

	var cancelErr error
feed:
	for i := range entries {
		select {
		case <-ctx.Done():
			cancelErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelErr != nil {
		return nil, cancelErr
	}
	return results, nil
}

// occurrences flattens the phrase cache into scorer input.
func occurrences(entries []dataset.Entry, phrases [][]ingest.Phrase) []terms.Occurrence {
	var occs []terms.Occurrence
	for i, entry := range entries {
		for _, p := range phrases[i] {
			occs = append(occs, terms.Occurrence{
				Norm:         p.Norm,
				EntryKey:     entry.Key,
				Timestamp:    entry.Timestamp,
				HasTimestamp: entry.HasTimestamp,
			})
		}
	}
	return occs
}

func (e *Engine) categorize(ctx context.Context, entries []dataset.Entry, phrases [][]ingest.Phrase, now time.Time) (*CategorizationResult, error) {
	if now.IsZero() {
		for _, entry := range entries {
			if entry.HasTimestamp && entry.Timestamp.After(now) {
				now = entry.Timestamp
			}
		}
	}

	scorer := terms.NewScorer(e.opts.RecencyHalfLife)
	stats := scorer.Score(occurrences(entries, phrases), now)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entryTerms := make(map[string][]string, len(entries))
	for i, entry := range entries {
		norms := make([]string, 0, len(phrases[i]))
		for _, p := range phrases[i] {
			norms = append(norms, p.Norm)
		}
		entryTerms[entry.Key] = norms
	}

	tree, err := category.Build(ctx, category.Input{Stats: stats, EntryTerms: entryTerms}, category.Config{
		TopKSeedTerms:         e.opts.TopKSeedTerms,
		OverlapMergeThreshold: e.opts.OverlapMergeThreshold,
		EntropyMergeThreshold: e.opts.EntropyMergeThreshold,
		MergeCountCap:         e.opts.MergeCountCap,
		Smoothing:             e.opts.Smoothing,
		SeedExclude:           e.opts.SeedExclude,
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classifier := classify.New(tree, classify.Config{
		SingleBest:               e.opts.SingleBest,
		FallbackDivergenceCutoff: e.opts.FallbackDivergenceCutoff,
		Smoothing:                e.opts.Smoothing,
	})

	assignments := make(map[string][]classify.Assignment, len(entries))
	for _, entry := range entries {
		assignments[entry.Key] = classifier.Classify(entry.Key, entryTerms[entry.Key])
	}

	return &CategorizationResult{Tree: tree, Assignments: assignments, Terms: stats}, nil
}

func (e *Engine) detectProblems(ctx context.Context, entries []dataset.Entry, phrases [][]ingest.Phrase) (*ProblemResult, error) {
	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	out := make([]sentiment.Signal, len(entries))
	if len(entries) > 0 {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					entry := entries[i]
					norms := make([]string, 0, len(phrases[i]))
					for _, p := range phrases[i] {
						norms = append(norms, p.Norm)
					}
					out[i] = e.analyzer.Analyze(entry.Key, entry.Text, entry.Rating, entry.HasRating, norms)
				}
			}()
		}

		var cancelErr error
	feed:
		for i := range entries {
			select {
			case <-ctx.Done():
				cancelErr = ctx.Err()
				break feed
			case jobs <- i:
			}
		}
		close(jobs)
		wg.Wait()
		if cancelErr != nil {
			return nil, cancelErr
		}
	}

	signals := make(map[string]sentiment.Signal, len(entries))
	for _, sig := range out {
		if sig.EntryKey != "" {
			signals[sig.EntryKey] = sig
		}
	}
	return &ProblemResult{Signals: signals}, nil
}
