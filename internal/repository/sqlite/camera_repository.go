package sqlite

import (
	"database/sql"
	"fmt"

	"snapserver/internal/model"
)

// CameraRepository implements repository.CameraRepository for SQLite.
type CameraRepository struct {
	db *DB
}

// NewCameraRepository creates a new SQLite camera repository.
func NewCameraRepository(db *DB) *CameraRepository {
	return &CameraRepository{db: db}
}

// Upsert inserts a camera or updates its metadata if the name already exists.
func (r *CameraRepository) Upsert(cam *model.Camera) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO cameras (name, location, enabled)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET location = excluded.location, enabled = excluded.enabled
	`, cam.Name, cam.Location, cam.Enabled)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert camera: %w", err)
	}

	return result.LastInsertId()
}

// GetByName retrieves a camera by its name.
func (r *CameraRepository) GetByName(name string) (*model.Camera, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var cam model.Camera
	err := r.db.Conn().QueryRow(`
		SELECT id, name, location, enabled FROM cameras WHERE name = ?
	`, name).Scan(&cam.ID, &cam.Name, &cam.Location, &cam.Enabled)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera: %w", err)
	}
	return &cam, nil
}

// GetAll returns all registered cameras.
func (r *CameraRepository) GetAll() ([]model.Camera, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT id, name, location, enabled FROM cameras ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cameras: %w", err)
	}
	defer rows.Close()

	var cameras []model.Camera
	for rows.Next() {
		var cam model.Camera
		if err := rows.Scan(&cam.ID, &cam.Name, &cam.Location, &cam.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cameras = append(cameras, cam)
	}

	return cameras, nil
}
