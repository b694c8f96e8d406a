package repository

import "snapserver/internal/model"

// SnapshotRepository defines the interface for snapshot record operations.
type SnapshotRepository interface {
	// Create operations
	Insert(snap *model.Snapshot) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Snapshot, error)
	GetByCapture(camera, capturedAt string) (*model.Snapshot, error)
	GetAll(filter *model.SnapshotFilter) ([]model.Snapshot, error)
	GetTotalCount(filter *model.SnapshotFilter) (int, error)
	GetStats() (*model.Stats, error)

	// Update operations
	UpdateMotionLevel(id int64, level float64) error

	// Delete operations
	Delete(id int64) error
}

// CameraRepository defines the interface for camera record operations.
type CameraRepository interface {
	Upsert(cam *model.Camera) (int64, error)
	GetByName(name string) (*model.Camera, error)
	GetAll() ([]model.Camera, error)
}
