package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"snapserver/internal/logger"
	"snapserver/internal/model"
	"snapserver/internal/services"
	"snapserver/internal/snapshot"
)

// SnapshotsData is the paginated response payload for the snapshot listing.
type SnapshotsData struct {
	Snapshots   []model.Snapshot `json:"snapshots"`
	Length      int              `json:"length"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Limit       int              `json:"pageSize"`
}

// UploadSnapshotHandler ingests one frame over HTTP: the raw image bytes in
// the body, the camera in the query, and optionally an explicit epoch
// timestamp ("ts", with fractional seconds of any width the source has).
func UploadSnapshotHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		camera := r.URL.Query().Get("camera")
		if camera == "" {
			http.Error(w, "Missing camera id", http.StatusBadRequest)
			return
		}

		image, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}
		if len(image) == 0 {
			http.Error(w, "Empty image payload", http.StatusBadRequest)
			return
		}

		ts := snapshot.FromTime(time.Now().UTC())
		if raw := r.URL.Query().Get("ts"); raw != "" {
			ts, err = snapshot.ParseTimestamp(raw)
			if err != nil {
				http.Error(w, "Invalid timestamp", http.StatusBadRequest)
				return
			}
		}

		if err := manager.HandleSnapshot(image, camera, ts); err != nil {
			if errors.Is(err, snapshot.ErrInvalidTimestampPrecision) {
				http.Error(w, "Invalid timestamp precision", http.StatusBadRequest)
				return
			}
			logger.Error("Upload from camera %s failed: %v", camera, err)
			http.Error(w, "Failed to store snapshot", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("OK"))
	}
}

// ViewSnapshotHandler serves stored image bytes by snapshot key. The key's
// trailing segment is the capture timestamp, from which the storage path is
// re-derived.
func ViewSnapshotHandler(manager *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("camera")
		key := r.URL.Query().Get("key")
		if camera == "" || key == "" {
			http.Error(w, "Missing camera or key", http.StatusBadRequest)
			return
		}

		image, err := manager.GetStore().Load(camera, key)
		if err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				http.Error(w, "Snapshot not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(image)
	}
}

// ListSnapshotsHandler returns a filtered, paginated snapshot listing.
func ListSnapshotsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := atoiDefault(r.URL.Query().Get("page"), 1)
		limit := atoiDefault(r.URL.Query().Get("limit"), 10)

		filter := &model.SnapshotFilter{
			Camera:     r.URL.Query().Get("camera"),
			DateAfter:  r.URL.Query().Get("after"),
			DateBefore: r.URL.Query().Get("before"),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		repo := manager.GetSnapshotRepository()

		snapshots, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Failed to query snapshots: %v", err)
			http.Error(w, "Failed to query snapshots", http.StatusInternalServerError)
			return
		}

		total, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Failed to count snapshots: %v", err)
			http.Error(w, "Failed to count snapshots", http.StatusInternalServerError)
			return
		}

		data := SnapshotsData{
			Snapshots:   snapshots,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(data)
	}
}

// StatsHandler reports storage statistics plus the comparator's counters.
func StatsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := manager.GetSnapshotRepository().GetStats()
		if err != nil {
			logger.Error("Failed to gather stats: %v", err)
			http.Error(w, "Failed to gather stats", http.StatusInternalServerError)
			return
		}

		compareFailures, lookupFailures, dropped := manager.GetComparator().Counters()

		payload := struct {
			*model.Stats
			CompareFailures uint64 `json:"compareFailures"`
			LookupFailures  uint64 `json:"lookupFailures"`
			DroppedEvents   uint64 `json:"droppedEvents"`
			Viewers         int    `json:"viewers"`
		}{
			Stats:           stats,
			CompareFailures: compareFailures,
			LookupFailures:  lookupFailures,
			DroppedEvents:   dropped,
			Viewers:         manager.GetHubService().GetClientCount(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
}

// atoiDefault parses a positive integer, falling back to def on anything else.
func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
