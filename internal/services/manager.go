package services

import (
	"encoding/base64"
	"encoding/json"

	"github.com/google/uuid"

	"snapserver/internal/cache"
	"snapserver/internal/logger"
	"snapserver/internal/model"
	"snapserver/internal/motion"
	"snapserver/internal/repository"
	"snapserver/internal/services/websocket"
	"snapserver/internal/snapshot"
)

// Manager drives the ingestion path: every arrived frame is fanned out to
// viewers, persisted to the snapshot tree, recorded in the database, rotated
// into the frame cache, and finally announced to the motion comparator.
type Manager struct {
	store      *snapshot.Store
	snapshots  repository.SnapshotRepository
	frames     *cache.Memory
	comparator *motion.Comparator
	hub        *websocket.HubService
	logger     *logger.Logger
}

func NewManager(store *snapshot.Store, snapshots repository.SnapshotRepository,
	frames *cache.Memory, comparator *motion.Comparator,
	hub *websocket.HubService, logger *logger.Logger) *Manager {

	return &Manager{
		store:      store,
		snapshots:  snapshots,
		frames:     frames,
		comparator: comparator,
		hub:        hub,
		logger:     logger,
	}
}

// HandleSnapshot processes one arrived frame. Storage and record errors
// propagate to the caller (the capture path); they never reach the
// comparator, which is only notified once the frame is durable and cached.
func (m *Manager) HandleSnapshot(image []byte, camera string, ts snapshot.Timestamp) error {
	m.SendToViewers(image, camera)

	if err := m.store.Save(camera, ts, image); err != nil {
		m.logger.Error("Camera %s: failed to save snapshot: %v", camera, err)
		return err
	}

	filename, err := snapshot.Filename(ts)
	if err != nil {
		return err
	}
	path, err := m.store.Path(camera, ts)
	if err != nil {
		return err
	}

	if _, err := m.snapshots.Insert(&model.Snapshot{
		Camera:     camera,
		Filename:   filename,
		FilePath:   path,
		FileSize:   int64(len(image)),
		CapturedAt: ts.Calendar().Format(),
	}); err != nil {
		m.logger.Error("Camera %s: failed to record snapshot: %v", camera, err)
		return err
	}

	// The cache must reflect this arrival before its event is published.
	m.frames.Rotate(camera, cache.Frame{Timestamp: ts, Image: image})

	m.comparator.Notify(motion.Event{
		ID:        uuid.NewString(),
		Camera:    camera,
		Timestamp: ts,
		Image:     image,
	})

	return nil
}

// SendToViewers pushes the frame to all connected viewer clients.
func (m *Manager) SendToViewers(image []byte, camera string) {
	msg, err := viewerMessage(image, camera)
	if err != nil {
		m.logger.Error("Camera %s: failed to encode viewer message: %v", camera, err)
		return
	}

	m.hub.Broadcast(msg)
}

// viewerMessage renders the broadcast payload for one frame.
func viewerMessage(image []byte, camera string) ([]byte, error) {
	return json.Marshal(struct {
		Camera string `json:"camera"`
		Image  string `json:"image"`
	}{
		Camera: camera,
		Image:  base64.StdEncoding.EncodeToString(image),
	})
}

// Stop drains the comparison pipeline.
func (m *Manager) Stop() {
	m.comparator.Stop()
}

func (m *Manager) GetStore() *snapshot.Store {
	return m.store
}

func (m *Manager) GetSnapshotRepository() repository.SnapshotRepository {
	return m.snapshots
}

func (m *Manager) GetHubService() *websocket.HubService {
	return m.hub
}

func (m *Manager) GetComparator() *motion.Comparator {
	return m.comparator
}
