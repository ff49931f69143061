package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/metacheck/pkg/finding"
)

// Table names.
const (
	runsTable    = "metacheck_runs"
	bundlesTable = "metacheck_bundles"
	checksTable  = "metacheck_checks"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
		run_id     TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		summary    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + bundlesTable + ` (
		bundle_id    TEXT PRIMARY KEY,
		repo_id      TEXT NOT NULL,
		date_created TEXT NOT NULL,
		document     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + checksTable + ` (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		bundle_id  TEXT NOT NULL REFERENCES ` + bundlesTable + `(bundle_id),
		repo_id    TEXT NOT NULL,
		check_id   TEXT NOT NULL,
		severity   TEXT NOT NULL,
		category   TEXT NOT NULL,
		evidence   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_` + checksTable + `_check_id ON ` + checksTable + `(check_id)`,
}

// SQLiteStore keeps bundles, their checks, and run summaries in a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := requireDSN(KindSQLite, path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErr(err, "open sqlite database %q", path)
	}
	// One connection avoids "database is locked" under concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storeErr(err, "connect to sqlite database %q", path)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, storeErr(err, "create schema")
		}
	}
	return &SQLiteStore{db: db}, nil
}

// SaveBundle stores the bundle document and one row per check in a single
// transaction. Saving a bundle with the same @id again replaces it.
func (s *SQLiteStore) SaveBundle(ctx context.Context, repoID string, b *finding.Bundle) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return storeErr(err, "encode bundle for %s", repoID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+checksTable+` WHERE bundle_id = ?`, b.ID); err != nil {
		return storeErr(err, "replace checks of %s", repoID)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO `+bundlesTable+` (bundle_id, repo_id, date_created, document) VALUES (?, ?, ?, ?)`,
		b.ID, repoID, b.DateCreated, string(doc)); err != nil {
		return storeErr(err, "insert bundle for %s", repoID)
	}
	for _, c := range b.Checks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+checksTable+` (bundle_id, repo_id, check_id, severity, category, evidence) VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, repoID, c.CheckID, c.Severity, string(c.Category()), c.Evidence); err != nil {
			return storeErr(err, "insert check %s for %s", c.CheckID, repoID)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err, "commit bundle for %s", repoID)
	}
	return nil
}

// SaveSummary stores the summary as JSON under runID.
func (s *SQLiteStore) SaveSummary(ctx context.Context, runID string, summary any) error {
	doc, err := json.Marshal(summary)
	if err != nil {
		return storeErr(err, "encode summary of run %s", runID)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO `+runsTable+` (run_id, created_at, summary) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), string(doc)); err != nil {
		return storeErr(err, "insert summary of run %s", runID)
	}
	return nil
}

// CheckCount is the number of stored checks for one rule.
type CheckCount struct {
	CheckID string
	Count   int
}

// CheckCounts returns how many stored checks each rule has, by rule code.
func (s *SQLiteStore) CheckCounts(ctx context.Context) ([]CheckCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT check_id, COUNT(*) FROM `+checksTable+` GROUP BY check_id ORDER BY check_id`)
	if err != nil {
		return nil, storeErr(err, "query check counts")
	}
	defer rows.Close()

	var out []CheckCount
	for rows.Next() {
		var c CheckCount
		if err := rows.Scan(&c.CheckID, &c.Count); err != nil {
			return nil, storeErr(err, "scan check count")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "query check counts")
	}
	return out, nil
}

// Summary returns the raw JSON summary stored for runID.
func (s *SQLiteStore) Summary(ctx context.Context, runID string) (json.RawMessage, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM `+runsTable+` WHERE run_id = ?`, runID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeErr(err, "query summary of run %s", runID)
	}
	return json.RawMessage(doc), true, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
