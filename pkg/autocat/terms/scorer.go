package terms

import (
	"math"
	"sort"
	"time"
)

// Occurrence is one sighting of a normalized phrase in an entry.
type Occurrence struct {
	Norm     string
	EntryKey string

	Timestamp    time.Time
	HasTimestamp bool
}

// TermStat aggregates all occurrences of one normalized phrase.
type TermStat struct {
	Norm         string
	RawCount     int64
	BoostedScore float64
	EntryKeys    []string // contributing entries, sorted, deduplicated
}

// Scorer weights term occurrences by recency. The decay is exponential
// with a configurable half-life: an occurrence exactly one half-life old
// contributes 0.5, one twice that old contributes 0.25.
type Scorer struct {
	halfLife time.Duration
}

// NewScorer creates a scorer with the given half-life. A non-positive
// half-life disables decay (every occurrence weighs 1).
func NewScorer(halfLife time.Duration) *Scorer {
	return &Scorer{halfLife: halfLife}
}

// Weight computes the recency weight of one occurrence relative to now.
// Occurrences without a timestamp weigh the neutral baseline 1.0, the
// same as an occurrence dated now: absence of a date must not bury a
// term, it just contributes no recency signal. Future-dated occurrences
// are clamped to 1.0.
func (s *Scorer) Weight(occ Occurrence, now time.Time) float64 {
	if !occ.HasTimestamp || s.halfLife <= 0 {
		return 1.0
	}
	age := now.Sub(occ.Timestamp)
	if age <= 0 {
		return 1.0
	}
	return math.Exp2(-age.Hours() / s.halfLife.Hours())
}

// Score aggregates occurrences into ranked TermStat records.
//
// now is injected by the caller; the scorer never reads the wall clock,
// so identical inputs always produce identical scores. The output is a
// total order: boosted score descending, then raw count descending, then
// normalized phrase ascending.
func (s *Scorer) Score(occs []Occurrence, now time.Time) []TermStat {
	type agg struct {
		raw     int64
		boosted float64
		entries map[string]struct{}
	}

	byNorm := make(map[string]*agg)
	for _, occ := range occs {
		if occ.Norm == "" {
			continue
		}
		a := byNorm[occ.Norm]
		if a == nil {
			a = &agg{entries: make(map[string]struct{})}
			byNorm[occ.Norm] = a
		}
		a.raw++
		a.boosted += s.Weight(occ, now)
		a.entries[occ.EntryKey] = struct{}{}
	}

	stats := make([]TermStat, 0, len(byNorm))
	for norm, a := range byNorm {
		keys := make([]string, 0, len(a.entries))
		for k := range a.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		stats = append(stats, TermStat{
			Norm:         norm,
			RawCount:     a.raw,
			BoostedScore: a.boosted,
			EntryKeys:    keys,
		})
	}

	SortStats(stats)
	return stats
}

// SortStats orders stats by boosted score desc, raw count desc, phrase asc.
func SortStats(stats []TermStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].BoostedScore != stats[j].BoostedScore {
			return stats[i].BoostedScore > stats[j].BoostedScore
		}
		if stats[i].RawCount != stats[j].RawCount {
			return stats[i].RawCount > stats[j].RawCount
		}
		return stats[i].Norm < stats[j].Norm
	})
}
