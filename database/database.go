package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"pagediff/logging"
	"pagediff/matcher"
	"pagediff/types"
)

// Page sides.
const (
	SideOld = "old"
	SideNew = "new"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	old_dir TEXT NOT NULL,
	new_dir TEXT NOT NULL,
	threshold INTEGER NOT NULL,
	position_divisor INTEGER NOT NULL,
	hasher TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pages (
	run_id TEXT NOT NULL REFERENCES runs(id),
	side TEXT NOT NULL,
	filename TEXT NOT NULL,
	seq INTEGER NOT NULL,
	hash TEXT NOT NULL,
	missing INTEGER NOT NULL DEFAULT 0,
	UNIQUE(run_id, side, filename)
);
CREATE TABLE IF NOT EXISTS matches (
	run_id TEXT NOT NULL REFERENCES runs(id),
	new_filename TEXT NOT NULL,
	old_filename TEXT,
	distance INTEGER
);
CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id);`

// InitDatabase opens the export file at dbPath and creates the schema.
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema in %s: %w", dbPath, err)
	}
	return db, nil
}

// Run is everything one matching pass produced.
type Run struct {
	OldDir          string
	NewDir          string
	Threshold       int
	PositionDivisor int
	Hasher          string
	Old             []*types.HashedImage
	New             []*types.HashedImage
	Result          matcher.Result
}

// StoreRun writes run in a single transaction and returns its generated id.
func StoreRun(db *sql.DB, run Run) (string, error) {
	id := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, created_at, old_dir, new_dir, threshold, position_divisor, hasher) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().Format(time.RFC3339), run.OldDir, run.NewDir, run.Threshold, run.PositionDivisor, run.Hasher,
	)
	if err != nil {
		return "", fmt.Errorf("cannot insert run %s: %w", id, err)
	}

	missing := make(map[string]bool, len(run.Result.Missing))
	for _, img := range run.Result.Missing {
		missing[img.Filename] = true
	}

	pageStmt, err := tx.Prepare(`INSERT INTO pages (run_id, side, filename, seq, hash, missing) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("cannot prepare page statement: %w", err)
	}
	defer pageStmt.Close()

	insertPages := func(side string, images []*types.HashedImage) error {
		for _, img := range images {
			if _, err := pageStmt.Exec(id, side, img.Filename, img.Index, img.Hash.Hex(), side == SideOld && missing[img.Filename]); err != nil {
				return fmt.Errorf("cannot insert %s page %s: %w", side, img.Filename, err)
			}
		}
		return nil
	}
	if err := insertPages(SideOld, run.Old); err != nil {
		return "", err
	}
	if err := insertPages(SideNew, run.New); err != nil {
		return "", err
	}

	matchStmt, err := tx.Prepare(`INSERT INTO matches (run_id, new_filename, old_filename, distance) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("cannot prepare match statement: %w", err)
	}
	defer matchStmt.Close()

	for _, m := range run.Result.Matches {
		var oldName, distance any
		if !m.IsNewPage() {
			oldName, distance = m.Dst.Filename, m.Distance
		}
		if _, err := matchStmt.Exec(id, m.Src.Filename, oldName, distance); err != nil {
			return "", fmt.Errorf("cannot insert match for %s: %w", m.Src.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit export: %w", err)
	}
	logging.DebugLog("Exported run %s (%d matches, %d missing)", id, len(run.Result.Matches), len(run.Result.Missing))
	return id, nil
}

// RunStats summarises an exported run.
type RunStats struct {
	OldPages int
	NewPages int
	Matched  int
	Added    int
	Missing  int
}

// GetRunStats reads back the counts of an exported run.
func GetRunStats(db *sql.DB, runID string) (*RunStats, error) {
	var stats RunStats

	err := db.QueryRow(
		`SELECT
			COALESCE(SUM(side = 'old'), 0),
			COALESCE(SUM(side = 'new'), 0),
			COALESCE(SUM(missing), 0)
		FROM pages WHERE run_id = ?`, runID,
	).Scan(&stats.OldPages, &stats.NewPages, &stats.Missing)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	err = db.QueryRow(
		`SELECT
			COALESCE(SUM(old_filename IS NOT NULL), 0),
			COALESCE(SUM(old_filename IS NULL), 0)
		FROM matches WHERE run_id = ?`, runID,
	).Scan(&stats.Matched, &stats.Added)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}

	return &stats, nil
}
