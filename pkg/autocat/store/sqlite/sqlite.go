package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/autocat/pkg/autocat/category"
	"github.com/cognicore/autocat/pkg/autocat/classify"
	"github.com/cognicore/autocat/pkg/autocat/internalerr"
	"github.com/cognicore/autocat/pkg/autocat/sentiment"
	"github.com/cognicore/autocat/pkg/autocat/store"
	"github.com/cognicore/autocat/pkg/autocat/terms"
)

// sqliteStore implements store.Store on SQLite. Language models are not
// persisted; the stored tree carries labels, terms and scores, which is
// what reporting consumers read.
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and the schema
// initialized.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL lets readers proceed while a run is being written.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	entry_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_categories (
	run_id TEXT NOT NULL,
	label TEXT NOT NULL,
	parent TEXT NOT NULL DEFAULT '',
	score REAL NOT NULL DEFAULT 0,
	position INTEGER NOT NULL,
	terms TEXT,
	PRIMARY KEY(run_id, parent, label),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_assignments (
	run_id TEXT NOT NULL,
	entry_key TEXT NOT NULL,
	position INTEGER NOT NULL,
	category TEXT NOT NULL,
	subcategory TEXT NOT NULL,
	score REAL NOT NULL DEFAULT 0,
	method TEXT NOT NULL,
	PRIMARY KEY(run_id, entry_key, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_terms (
	run_id TEXT NOT NULL,
	norm TEXT NOT NULL,
	raw_count INTEGER NOT NULL,
	boosted_score REAL NOT NULL,
	entry_keys TEXT,
	position INTEGER NOT NULL,
	PRIMARY KEY(run_id, norm),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_signals (
	run_id TEXT NOT NULL,
	entry_key TEXT NOT NULL,
	negative_context REAL NOT NULL,
	relevance_match INTEGER NOT NULL,
	matched_pattern TEXT,
	is_problem INTEGER NOT NULL,
	PRIMARY KEY(run_id, entry_key),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_assignments_category
	ON run_assignments(run_id, category);
CREATE INDEX IF NOT EXISTS idx_signals_problem
	ON run_signals(run_id, is_problem);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes a run and all of its result rows in one transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run has no ID", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const runStmt = `
INSERT INTO runs (id, created_at, entry_count)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	created_at=excluded.created_at,
	entry_count=excluded.entry_count;
`
	if _, err := tx.ExecContext(ctx, runStmt,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.EntryCount); err != nil {
		return err
	}

	for _, table := range []string{"run_categories", "run_assignments", "run_terms", "run_signals"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", r.ID); err != nil {
			return err
		}
	}

	if err := insertCategories(ctx, tx, r.ID, r.Tree); err != nil {
		return err
	}
	if err := insertAssignments(ctx, tx, r.ID, r.Assignments); err != nil {
		return err
	}
	if err := insertTerms(ctx, tx, r.ID, r.Terms); err != nil {
		return err
	}
	if err := insertSignals(ctx, tx, r.ID, r.Signals); err != nil {
		return err
	}

	return tx.Commit()
}

func insertCategories(ctx context.Context, tx *sql.Tx, runID string, tree category.Tree) error {
	const stmt = `
INSERT INTO run_categories (run_id, label, parent, score, position, terms)
VALUES (?, ?, ?, ?, ?, ?);
`
	for i, cat := range tree.Categories {
		termsJSON, err := json.Marshal(cat.Terms)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, runID, cat.Label, "", cat.Score, i, string(termsJSON)); err != nil {
			return err
		}
		for j, sub := range cat.Subcategories {
			subJSON, err := json.Marshal(sub.Terms)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, stmt, runID, sub.Label, cat.Label, sub.Score, j, string(subJSON)); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertAssignments(ctx context.Context, tx *sql.Tx, runID string, assignments map[string][]classify.Assignment) error {
	const stmt = `
INSERT INTO run_assignments (run_id, entry_key, position, category, subcategory, score, method)
VALUES (?, ?, ?, ?, ?, ?, ?);
`
	for key, as := range assignments {
		for i, a := range as {
			if _, err := tx.ExecContext(ctx, stmt,
				runID, key, i, a.Category, a.Subcategory, a.Score, string(a.Method)); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertTerms(ctx context.Context, tx *sql.Tx, runID string, stats []terms.TermStat) error {
	const stmt = `
INSERT INTO run_terms (run_id, norm, raw_count, boosted_score, entry_keys, position)
VALUES (?, ?, ?, ?, ?, ?);
`
	for i, st := range stats {
		keysJSON, err := json.Marshal(st.EntryKeys)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt,
			runID, st.Norm, st.RawCount, st.BoostedScore, string(keysJSON), i); err != nil {
			return err
		}
	}
	return nil
}

func insertSignals(ctx context.Context, tx *sql.Tx, runID string, signals map[string]sentiment.Signal) error {
	const stmt = `
INSERT INTO run_signals (run_id, entry_key, negative_context, relevance_match, matched_pattern, is_problem)
VALUES (?, ?, ?, ?, ?, ?);
`
	for key, sig := range signals {
		if _, err := tx.ExecContext(ctx, stmt,
			runID, key, sig.NegativeContext, boolToInt(sig.RelevanceMatch),
			sig.MatchedPattern, boolToInt(sig.IsProblem)); err != nil {
			return err
		}
	}
	return nil
}

// GetRun loads a run and all of its rows. Category language models are
// not restored; Model on loaded categories is the zero model.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var r store.Run
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, created_at, entry_count FROM runs WHERE id = ?", id).
		Scan(&r.ID, &createdAt, &r.EntryCount)
	if err == sql.ErrNoRows {
		return store.Run{}, internalerr.ErrNotFound
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return store.Run{}, fmt.Errorf("run %s: bad created_at: %w", id, err)
	}

	if r.Tree, err = s.loadTree(ctx, id); err != nil {
		return store.Run{}, err
	}
	if r.Assignments, err = s.loadAssignments(ctx, id); err != nil {
		return store.Run{}, err
	}
	if r.Terms, err = s.loadTerms(ctx, id); err != nil {
		return store.Run{}, err
	}
	if r.Signals, err = s.loadSignals(ctx, id); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

func (s *sqliteStore) loadTree(ctx context.Context, runID string) (category.Tree, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT label, parent, score, terms FROM run_categories
WHERE run_id = ? ORDER BY parent, position`, runID)
	if err != nil {
		return category.Tree{}, err
	}
	defer rows.Close()

	var tree category.Tree
	index := make(map[string]int)
	var subs []category.Category
	parents := make(map[string][]int)

	for rows.Next() {
		var cat category.Category
		var parent, termsJSON string
		if err := rows.Scan(&cat.Label, &parent, &cat.Score, &termsJSON); err != nil {
			return category.Tree{}, err
		}
		if termsJSON != "" {
			if err := json.Unmarshal([]byte(termsJSON), &cat.Terms); err != nil {
				return category.Tree{}, err
			}
		}
		if parent == "" {
			index[cat.Label] = len(tree.Categories)
			tree.Categories = append(tree.Categories, cat)
		} else {
			parents[parent] = append(parents[parent], len(subs))
			subs = append(subs, cat)
		}
	}
	if err := rows.Err(); err != nil {
		return category.Tree{}, err
	}

	for parent, subIdx := range parents {
		i, ok := index[parent]
		if !ok {
			continue
		}
		for _, si := range subIdx {
			tree.Categories[i].Subcategories = append(tree.Categories[i].Subcategories, subs[si])
		}
	}
	return tree, nil
}

func (s *sqliteStore) loadAssignments(ctx context.Context, runID string) (map[string][]classify.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT entry_key, category, subcategory, score, method FROM run_assignments
WHERE run_id = ? ORDER BY entry_key, position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]classify.Assignment)
	for rows.Next() {
		var a classify.Assignment
		var method string
		if err := rows.Scan(&a.EntryKey, &a.Category, &a.Subcategory, &a.Score, &method); err != nil {
			return nil, err
		}
		a.Method = classify.Method(method)
		out[a.EntryKey] = append(out[a.EntryKey], a)
	}
	return out, rows.Err()
}

func (s *sqliteStore) loadTerms(ctx context.Context, runID string) ([]terms.TermStat, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT norm, raw_count, boosted_score, entry_keys FROM run_terms
WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []terms.TermStat
	for rows.Next() {
		var st terms.TermStat
		var keysJSON string
		if err := rows.Scan(&st.Norm, &st.RawCount, &st.BoostedScore, &keysJSON); err != nil {
			return nil, err
		}
		if keysJSON != "" {
			if err := json.Unmarshal([]byte(keysJSON), &st.EntryKeys); err != nil {
				return nil, err
			}
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *sqliteStore) loadSignals(ctx context.Context, runID string) (map[string]sentiment.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT entry_key, negative_context, relevance_match, matched_pattern, is_problem FROM run_signals
WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]sentiment.Signal)
	for rows.Next() {
		var sig sentiment.Signal
		var relevance, problem int
		if err := rows.Scan(&sig.EntryKey, &sig.NegativeContext, &relevance, &sig.MatchedPattern, &problem); err != nil {
			return nil, err
		}
		sig.RelevanceMatch = relevance != 0
		sig.IsProblem = problem != 0
		out[sig.EntryKey] = sig
	}
	return out, rows.Err()
}

// ListRuns returns run summaries newest first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error) {
	query := `
SELECT r.id, r.created_at, r.entry_count,
	(SELECT COUNT(*) FROM run_categories c WHERE c.run_id = r.id AND c.parent = ''),
	(SELECT COUNT(*) FROM run_signals g WHERE g.run_id = r.id AND g.is_problem = 1)
FROM runs r
ORDER BY r.created_at DESC, r.id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []store.RunInfo
	for rows.Next() {
		var info store.RunInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &createdAt, &info.EntryCount, &info.CategoryCount, &info.ProblemCount); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at: %w", info.ID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteRun removes a run; dependent rows go with it via cascade.
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internalerr.ErrNotFound
	}
	return nil
}

// EntriesForCategory returns the sorted keys of entries assigned to the
// labeled category in the run.
func (s *sqliteStore) EntriesForCategory(ctx context.Context, runID, label string) ([]string, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT entry_key FROM run_assignments
WHERE run_id = ? AND category = ? ORDER BY entry_key`, runID, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ProblemEntries returns the run's problem signals sorted by entry key.
func (s *sqliteStore) ProblemEntries(ctx context.Context, runID string) ([]sentiment.Signal, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT entry_key, negative_context, relevance_match, matched_pattern, is_problem FROM run_signals
WHERE run_id = ? AND is_problem = 1 ORDER BY entry_key`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []sentiment.Signal
	for rows.Next() {
		var sig sentiment.Signal
		var relevance, problem int
		if err := rows.Scan(&sig.EntryKey, &sig.NegativeContext, &relevance, &sig.MatchedPattern, &problem); err != nil {
			return nil, err
		}
		sig.RelevanceMatch = relevance != 0
		sig.IsProblem = problem != 0
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}

func (s *sqliteStore) runExists(ctx context.Context, runID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM runs WHERE id = ?", runID).Scan(&one)
	if err == sql.ErrNoRows {
		return internalerr.ErrNotFound
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
