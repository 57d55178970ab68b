package store

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/autocat/pkg/autocat/category"
	"github.com/cognicore/autocat/pkg/autocat/classify"
	"github.com/cognicore/autocat/pkg/autocat/sentiment"
	"github.com/cognicore/autocat/pkg/autocat/terms"
)

// Store persists analysis runs and serves run-scoped queries.
type Store interface {
	Close() error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)
	DeleteRun(ctx context.Context, id string) error

	// Run-scoped queries
	EntriesForCategory(ctx context.Context, runID, label string) ([]string, error)
	ProblemEntries(ctx context.Context, runID string) ([]sentiment.Signal, error)
}

// Run is one complete analysis over an entry snapshot. Either branch
// may be empty when the run did not select it.
type Run struct {
	ID         string
	CreatedAt  time.Time
	EntryCount int

	Tree        category.Tree
	Assignments map[string][]classify.Assignment
	Terms       []terms.TermStat
	Signals     map[string]sentiment.Signal
}

// RunInfo is the listing view of a stored run.
type RunInfo struct {
	ID            string
	CreatedAt     time.Time
	EntryCount    int
	CategoryCount int
	ProblemCount  int
}

// NewRunID returns a fresh lexicographically sortable run identifier.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
}
