// Package mapdb records ingest diagnostics in a SQLite catalog: which
// source each run read, and how hard the filter worked per submap.
// Recording is diagnostics only; callers log failures and move on.
package mapdb

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/auvlib/mapstream/internal/monitoring"
	"github.com/auvlib/mapstream/internal/submap"
)

// MapDB wraps the catalog database.
type MapDB struct {
	*sql.DB
}

// schema.sql defines the runs and submaps tables.
//
//go:embed schema.sql
var schemaSQL string

// New opens (creating if necessary) the catalog at path.
func New(path string) (*MapDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize catalog schema: %w", err)
	}

	monitoring.Logf("initialized map catalog at %s", path)
	return &MapDB{db}, nil
}

// BeginRun records a new conversion run and returns its ID.
func (db *MapDB) BeginRun(mode, sourcePath string, filterRadius float64) (string, error) {
	runID := uuid.NewString()

	_, err := db.Exec(
		`INSERT INTO runs (id, mode, source_path, filter_radius) VALUES (?, ?, ?, ?)`,
		runID, mode, sourcePath, filterRadius,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// RecordSubmap stores one submap's pre/post filter point counts and pose
// translation under the given run.
func (db *MapDB) RecordSubmap(runID string, sm submap.Submap, pointsBefore int) error {
	_, err := db.Exec(
		`INSERT INTO submaps (run_id, submap_id, points_before, points_after, pose_x, pose_y, pose_z)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, sm.ID, pointsBefore, sm.Cloud.Len(),
		sm.Pose.Translation.X, sm.Pose.Translation.Y, sm.Pose.Translation.Z,
	)
	if err != nil {
		return fmt.Errorf("insert submap %d: %w", sm.ID, err)
	}
	return nil
}

// SubmapCount returns the number of submaps recorded for a run.
func (db *MapDB) SubmapCount(runID string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM submaps WHERE run_id = ?`, runID).Scan(&count)
	return count, err
}
