package model

import (
	"database/sql"
	"encoding/json"
)

// Snapshot represents a stored snapshot record. CapturedAt is the formatted
// calendar timestamp of the capture instant with its full fractional
// precision, which is the lookup key used by the motion comparator.
// MotionLevel stays NULL until the frame has served as the older half of one
// comparison.
type Snapshot struct {
	ID          int64           `json:"id"`
	Camera      string          `json:"camera"`
	Filename    string          `json:"filename"`
	FilePath    string          `json:"filepath"`
	FileSize    int64           `json:"filesize"`
	CapturedAt  string          `json:"capturedAt"`
	MotionLevel sql.NullFloat64 `json:"motionLevel"`
}

// MarshalJSON renders MotionLevel as a plain number or null instead of the
// sql.NullFloat64 wrapper.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot

	var level *float64
	if s.MotionLevel.Valid {
		v := s.MotionLevel.Float64
		level = &v
	}

	return json.Marshal(struct {
		alias
		MotionLevel *float64 `json:"motionLevel"`
	}{
		alias:       alias(s),
		MotionLevel: level,
	})
}

// SnapshotFilter contains filtering options for querying snapshots.
type SnapshotFilter struct {
	Camera     string
	DateAfter  string
	DateBefore string
	Limit      int
	Offset     int
}

// Stats summarizes the stored snapshots.
type Stats struct {
	TotalSnapshots int            `json:"totalSnapshots"`
	TotalSizeBytes int64          `json:"totalSizeBytes"`
	PerCamera      map[string]int `json:"perCamera"`
	WithMotion     int            `json:"withMotion"`
}
