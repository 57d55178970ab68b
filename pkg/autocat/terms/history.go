package terms

import (
	"sort"
	"time"
)

// History is a per-term occurrence count series, bucketed by day offset
// from the oldest dated occurrence. Index 0 is the oldest day observed.
type History struct {
	Norm   string
	Counts []int64
	Total  int64
}

// Histories buckets dated occurrences into day-resolution count series
// for the most frequent terms. limit bounds how many terms are returned
// (by total count desc, phrase asc); occurrences without timestamps
// contribute to totals but not to the day series.
func Histories(occs []Occurrence, limit int) []History {
	var oldest time.Time
	for _, occ := range occs {
		if occ.HasTimestamp && (oldest.IsZero() || occ.Timestamp.Before(oldest)) {
			oldest = occ.Timestamp
		}
	}

	type agg struct {
		total  int64
		byDay  map[int]int64
		maxDay int
	}

	byNorm := make(map[string]*agg)
	for _, occ := range occs {
		if occ.Norm == "" {
			continue
		}
		a := byNorm[occ.Norm]
		if a == nil {
			a = &agg{byDay: make(map[int]int64)}
			byNorm[occ.Norm] = a
		}
		a.total++
		if occ.HasTimestamp {
			day := int(occ.Timestamp.Sub(oldest).Hours() / 24)
			a.byDay[day]++
			if day > a.maxDay {
				a.maxDay = day
			}
		}
	}

	out := make([]History, 0, len(byNorm))
	for norm, a := range byNorm {
		h := History{Norm: norm, Total: a.total}
		if len(a.byDay) > 0 {
			h.Counts = make([]int64, a.maxDay+1)
			for day, n := range a.byDay {
				h.Counts[day] = n
			}
		}
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Norm < out[j].Norm
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
