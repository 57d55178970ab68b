package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cognicore/autocat/pkg/autocat/internalerr"
)

// Row maps column names to raw cell values for one record.
type Row map[string]string

// Table is an ordered sequence of rows from a tabular source.
// The analysis core borrows entries from it read-only; loading and
// persistence belong to the caller.
type Table struct {
	Rows []Row
}

// Entry is one analyzable record extracted from a table. Rating and
// Timestamp are optional; their presence is tracked explicitly so
// downstream defaults are applied deliberately rather than by zero value.
type Entry struct {
	Key  string
	Text string

	Rating    float64
	HasRating bool

	Timestamp    time.Time
	HasTimestamp bool
}

// Columns names the table columns to extract entries from.
// Rating and Timestamp are optional; empty names disable them.
type Columns struct {
	Key       string
	Text      string
	Rating    string
	Timestamp string
}

// Extract pulls entries out of a table by column name.
//
// The key and text columns are required: a missing key column is an
// input error. Missing optional cells (rating, timestamp) degrade to
// absent fields on the entry, never an error. An empty text cell yields
// an entry with empty text.
func Extract(t Table, cols Columns) ([]Entry, error) {
	if cols.Key == "" {
		return nil, fmt.Errorf("%w: key column name is required", internalerr.ErrInvalidInput)
	}
	if cols.Text == "" {
		return nil, fmt.Errorf("%w: text column name is required", internalerr.ErrInvalidInput)
	}

	entries := make([]Entry, 0, len(t.Rows))
	for i, row := range t.Rows {
		key, ok := row[cols.Key]
		if !ok {
			return nil, fmt.Errorf("%w: %q (row %d)", internalerr.ErrMissingColumn, cols.Key, i)
		}
		if _, ok := row[cols.Text]; !ok {
			return nil, fmt.Errorf("%w: %q (row %d)", internalerr.ErrMissingColumn, cols.Text, i)
		}

		e := Entry{
			Key:  key,
			Text: strings.TrimSpace(row[cols.Text]),
		}

		if cols.Rating != "" {
			if raw, ok := row[cols.Rating]; ok && strings.TrimSpace(raw) != "" {
				if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
					e.Rating = v
					e.HasRating = true
				}
			}
		}

		if cols.Timestamp != "" {
			if raw, ok := row[cols.Timestamp]; ok && strings.TrimSpace(raw) != "" {
				if ts, ok := parseTimestamp(strings.TrimSpace(raw)); ok {
					e.Timestamp = ts
					e.HasTimestamp = true
				}
			}
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// Accepted timestamp layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	// Unix seconds as a fallback
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}
