package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cognicore/autocat/pkg/autocat"
	"github.com/cognicore/autocat/pkg/autocat/classify"
	"github.com/cognicore/autocat/pkg/autocat/config"
	"github.com/cognicore/autocat/pkg/autocat/dataset"
	"github.com/cognicore/autocat/pkg/autocat/ingest"
	"github.com/cognicore/autocat/pkg/autocat/sentiment"
	"github.com/cognicore/autocat/pkg/autocat/store"
	"github.com/cognicore/autocat/pkg/autocat/store/sqlite"
)

type report struct {
	RunID      string         `json:"run_id"`
	EntryCount int            `json:"entry_count"`
	Categories []categoryJSON `json:"categories,omitempty"`
	TopTerms   []termJSON     `json:"top_terms,omitempty"`
	Problems   []problemJSON  `json:"problems,omitempty"`
}

type categoryJSON struct {
	Label         string         `json:"label"`
	Score         float64        `json:"score"`
	Terms         []string       `json:"terms"`
	EntryCount    int            `json:"entry_count"`
	Subcategories []categoryJSON `json:"subcategories,omitempty"`
}

type termJSON struct {
	Term    string  `json:"term"`
	Count   int     `json:"count"`
	Boosted float64 `json:"boosted"`
}

type problemJSON struct {
	EntryKey        string  `json:"entry_key"`
	NegativeContext float64 `json:"negative_context"`
	MatchedPattern  string  `json:"matched_pattern"`
}

func main() {
	var (
		input      = flag.String("input", "", "Path to JSONL or CSV file (required)")
		keyCol     = flag.String("key", "id", "Key column name")
		textCol    = flag.String("text", "text", "Text column name")
		ratingCol  = flag.String("rating", "", "Optional rating column name")
		tsCol      = flag.String("timestamp", "", "Optional timestamp column name")
		mode       = flag.String("mode", "both", "Analysis mode: categorize, problems or both")
		optionsCfg = flag.String("options", "", "Optional options YAML file")
		stopCfg    = flag.String("stoplist", "", "Optional stoplist YAML file")
		dictCfg    = flag.String("dict", "", "Optional dictionary YAML file")
		patCfg     = flag.String("patterns", "", "Optional relevance patterns YAML file")
		polCfg     = flag.String("polarity", "", "Optional polarity lexicon YAML file")
		dbPath     = flag.String("db", "", "Optional SQLite database to persist the run")
		nowArg     = flag.String("now", "", "Recency anchor (RFC3339); default newest entry")
		topTerms   = flag.Int("top-terms", 20, "Number of top terms to report")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	req := autocat.Request{}
	switch *mode {
	case "categorize":
		req.Categorize = true
	case "problems":
		req.DetectProblems = true
	case "both":
		req.Categorize = true
		req.DetectProblems = true
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if *nowArg != "" {
		now, err := time.Parse(time.RFC3339, *nowArg)
		if err != nil {
			log.Fatalf("parse --now: %v", err)
		}
		req.Now = now
	}

	ctx := context.Background()

	loader := config.Loader{
		OptionsPath:  *optionsCfg,
		StoplistPath: *stopCfg,
		DictPath:     *dictCfg,
		PatternsPath: *patCfg,
		PolarityPath: *polCfg,
	}
	components, err := loader.Load()
	if err != nil {
		log.Fatalf("load configs: %v", err)
	}

	engine, err := buildEngine(components)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	table, err := loadTable(*input)
	if err != nil {
		log.Fatalf("load input: %v", err)
	}
	entries, err := dataset.Extract(table, dataset.Columns{
		Key:       *keyCol,
		Text:      *textCol,
		Rating:    *ratingCol,
		Timestamp: *tsCol,
	})
	if err != nil {
		log.Fatalf("extract entries: %v", err)
	}

	result, err := engine.Analyze(ctx, entries, req)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}

	run := buildRun(entries, result)
	if *dbPath != "" {
		db, err := sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		if err := db.SaveRun(ctx, run); err != nil {
			log.Fatalf("save run: %v", err)
		}
	}

	out, err := json.MarshalIndent(buildReport(run, result, *topTerms), "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

func buildEngine(components *config.Components) (*autocat.Engine, error) {
	parser := ingest.NewParser(ingest.NewProseTagger(), components.Tokenizer, components.Dict)

	cfg := components.Options
	analyzer, err := sentiment.NewAnalyzer(sentiment.Config{
		RatingScaleMin:   cfg.RatingScaleMin,
		RatingScaleMax:   cfg.RatingScaleMax,
		RatingWeight:     cfg.RatingWeight,
		TextWeight:       cfg.TextWeight,
		ProblemThreshold: cfg.ProblemThreshold,
		Rules:            components.Rules,
		Lexicon:          components.Lexicon,
	})
	if err != nil {
		return nil, err
	}

	return autocat.New(autocat.Options{
		Parser:   parser,
		Analyzer: analyzer,
		Config:   cfg,
	})
}

func loadTable(path string) (dataset.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return dataset.LoadCSV(path)
	}
	return dataset.LoadJSONL(path)
}

func buildRun(entries []dataset.Entry, result *autocat.Result) store.Run {
	run := store.Run{
		ID:         store.NewRunID(),
		CreatedAt:  time.Now().UTC(),
		EntryCount: len(entries),
	}
	if result.Categorization != nil {
		run.Tree = result.Categorization.Tree
		run.Assignments = result.Categorization.Assignments
		run.Terms = result.Categorization.Terms
	}
	if result.Problems != nil {
		run.Signals = result.Problems.Signals
	}
	return run
}

func buildReport(run store.Run, result *autocat.Result, topTerms int) report {
	rep := report{RunID: run.ID, EntryCount: run.EntryCount}

	if result.Categorization != nil {
		counts := categoryCounts(result.Categorization.Assignments)
		for _, cat := range result.Categorization.Tree.Categories {
			cj := categoryJSON{
				Label:      cat.Label,
				Score:      cat.Score,
				Terms:      cat.Terms,
				EntryCount: counts[cat.Label],
			}
			for _, sub := range cat.Subcategories {
				cj.Subcategories = append(cj.Subcategories, categoryJSON{
					Label: sub.Label,
					Score: sub.Score,
					Terms: sub.Terms,
				})
			}
			rep.Categories = append(rep.Categories, cj)
		}

		stats := result.Categorization.Terms
		if topTerms > 0 && len(stats) > topTerms {
			stats = stats[:topTerms]
		}
		for _, st := range stats {
			rep.TopTerms = append(rep.TopTerms, termJSON{
				Term:    st.Norm,
				Count:   int(st.RawCount),
				Boosted: st.BoostedScore,
			})
		}
	}

	if result.Problems != nil {
		for _, key := range sortedSignalKeys(result.Problems.Signals) {
			sig := result.Problems.Signals[key]
			if !sig.IsProblem {
				continue
			}
			rep.Problems = append(rep.Problems, problemJSON{
				EntryKey:        sig.EntryKey,
				NegativeContext: sig.NegativeContext,
				MatchedPattern:  sig.MatchedPattern,
			})
		}
	}

	return rep
}

func categoryCounts(assignments map[string][]classify.Assignment) map[string]int {
	counts := make(map[string]int)
	for _, as := range assignments {
		seen := make(map[string]struct{}, len(as))
		for _, a := range as {
			if _, dup := seen[a.Category]; dup {
				continue
			}
			seen[a.Category] = struct{}{}
			counts[a.Category]++
		}
	}
	return counts
}

func sortedSignalKeys(signals map[string]sentiment.Signal) []string {
	keys := make([]string, 0, len(signals))
	for key := range signals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
