package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/autocat/pkg/autocat/classify"
	"github.com/cognicore/autocat/pkg/autocat/internalerr"
	"github.com/cognicore/autocat/pkg/autocat/sentiment"
	"github.com/cognicore/autocat/pkg/autocat/store"
	"github.com/cognicore/autocat/pkg/autocat/terms"
)

// Store is an in-memory implementation of store.Store for tests and
// single-shot command runs.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a run, replacing any run with the same ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return internalerr.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, internalerr.ErrNotFound
	}
	return copyRun(r), nil
}

// ListRuns returns run summaries newest first. A non-positive limit
// returns everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]store.RunInfo, 0, len(s.runs))
	for _, r := range s.runs {
		infos = append(infos, summarize(r))
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID > infos[j].ID
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// DeleteRun removes a run by ID.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return internalerr.ErrNotFound
	}
	delete(s.runs, id)
	return nil
}

// EntriesForCategory returns the sorted keys of entries assigned to the
// labeled category in the run.
func (s *Store) EntriesForCategory(ctx context.Context, runID, label string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, internalerr.ErrNotFound
	}

	var keys []string
	for key, as := range r.Assignments {
		for _, a := range as {
			if a.Category == label {
				keys = append(keys, key)
				break
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ProblemEntries returns the run's problem signals sorted by entry key.
func (s *Store) ProblemEntries(ctx context.Context, runID string) ([]sentiment.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, internalerr.ErrNotFound
	}

	var sigs []sentiment.Signal
	for _, sig := range r.Signals {
		if sig.IsProblem {
			sigs = append(sigs, sig)
		}
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].EntryKey < sigs[j].EntryKey })
	return sigs, nil
}

func summarize(r store.Run) store.RunInfo {
	info := store.RunInfo{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		EntryCount:    r.EntryCount,
		CategoryCount: len(r.Tree.Categories),
	}
	for _, sig := range r.Signals {
		if sig.IsProblem {
			info.ProblemCount++
		}
	}
	return info
}

// copyRun deep-copies the maps so callers cannot mutate stored state.
func copyRun(r store.Run) store.Run {
	out := r
	if r.Assignments != nil {
		out.Assignments = make(map[string][]classify.Assignment, len(r.Assignments))
		for key, as := range r.Assignments {
			out.Assignments[key] = append([]classify.Assignment(nil), as...)
		}
	}
	if r.Signals != nil {
		out.Signals = make(map[string]sentiment.Signal, len(r.Signals))
		for key, sig := range r.Signals {
			out.Signals[key] = sig
		}
	}
	if r.Terms != nil {
		out.Terms = append([]terms.TermStat(nil), r.Terms...)
	}
	return out
}
