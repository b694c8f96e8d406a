package sqlite

import (
	"database/sql"
	"fmt"

	"snapserver/internal/model"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SQLite snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert adds a new snapshot record. A re-capture at the exact same instant
// replaces the previous record, mirroring the last-write-wins behavior of
// the on-disk store; the replacement starts over with no motion level.
func (r *SnapshotRepository) Insert(snap *model.Snapshot) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT OR REPLACE INTO snapshots (camera, filename, filepath, filesize, captured_at)
		VALUES (?, ?, ?, ?, ?)
	`, snap.Camera, snap.Filename, snap.FilePath, snap.FileSize, snap.CapturedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a snapshot by its ID.
func (r *SnapshotRepository) GetByID(id int64) (*model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var snap model.Snapshot
	err := r.db.Conn().QueryRow(`
		SELECT id, camera, filename, filepath, filesize, captured_at, motion_level
		FROM snapshots WHERE id = ?
	`, id).Scan(&snap.ID, &snap.Camera, &snap.Filename, &snap.FilePath,
		&snap.FileSize, &snap.CapturedAt, &snap.MotionLevel)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// GetByCapture retrieves the snapshot recorded for a camera at an exact
// capture instant (full-precision calendar timestamp).
func (r *SnapshotRepository) GetByCapture(camera, capturedAt string) (*model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var snap model.Snapshot
	err := r.db.Conn().QueryRow(`
		SELECT id, camera, filename, filepath, filesize, captured_at, motion_level
		FROM snapshots WHERE camera = ? AND captured_at = ?
	`, camera, capturedAt).Scan(&snap.ID, &snap.Camera, &snap.Filename, &snap.FilePath,
		&snap.FileSize, &snap.CapturedAt, &snap.MotionLevel)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// UpdateMotionLevel attaches a motion level to an existing snapshot record.
// It never creates a record: updating an unknown id is an error.
func (r *SnapshotRepository) UpdateMotionLevel(id int64, level float64) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE snapshots SET motion_level = ? WHERE id = ?
	`, level, id)
	if err != nil {
		return fmt.Errorf("failed to update motion level: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no snapshot with id %d", id)
	}

	return nil
}

// GetAll retrieves snapshots based on filter criteria.
func (r *SnapshotRepository) GetAll(filter *model.SnapshotFilter) ([]model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, camera, filename, filepath, filesize, captured_at, motion_level
		FROM snapshots
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Camera != "" {
		query += " AND camera = ?"
		args = append(args, filter.Camera)
	}

	if filter.DateAfter != "" {
		query += " AND captured_at >= ?"
		args = append(args, filter.DateAfter)
	}

	if filter.DateBefore != "" {
		query += " AND captured_at <= ?"
		args = append(args, filter.DateBefore)
	}

	query += " ORDER BY captured_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Camera, &snap.Filename, &snap.FilePath,
			&snap.FileSize, &snap.CapturedAt, &snap.MotionLevel); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// GetTotalCount returns the total count of snapshots matching the filter.
func (r *SnapshotRepository) GetTotalCount(filter *model.SnapshotFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(*) FROM snapshots WHERE 1=1`
	args := []interface{}{}

	if filter.Camera != "" {
		query += " AND camera = ?"
		args = append(args, filter.Camera)
	}

	if filter.DateAfter != "" {
		query += " AND captured_at >= ?"
		args = append(args, filter.DateAfter)
	}

	if filter.DateBefore != "" {
		query += " AND captured_at <= ?"
		args = append(args, filter.DateBefore)
	}

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	return count, nil
}

// GetStats returns statistics about stored snapshots.
func (r *SnapshotRepository) GetStats() (*model.Stats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.Stats{PerCamera: make(map[string]int)}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM snapshots
	`).Scan(&stats.TotalSnapshots, &stats.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}

	err = r.db.Conn().QueryRow(`
		SELECT COUNT(*) FROM snapshots WHERE motion_level IS NOT NULL
	`).Scan(&stats.WithMotion)
	if err != nil {
		return nil, fmt.Errorf("failed to count motion snapshots: %w", err)
	}

	rows, err := r.db.Conn().Query(`SELECT camera, COUNT(*) FROM snapshots GROUP BY camera`)
	if err != nil {
		return nil, fmt.Errorf("failed to query per-camera counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var camera string
		var count int
		if err := rows.Scan(&camera, &count); err != nil {
			return nil, fmt.Errorf("failed to scan per-camera count: %w", err)
		}
		stats.PerCamera[camera] = count
	}

	return stats, nil
}

// Delete removes a snapshot record.
func (r *SnapshotRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	return err
}
