package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"snapserver/internal/cache"
	"snapserver/internal/logger"
	"snapserver/internal/motion"
	"snapserver/internal/repository/sqlite"
	"snapserver/internal/services"
	"snapserver/internal/services/websocket"
	"snapserver/internal/snapshot"
)

// ========================================
// Test Setup Helpers
// ========================================

type noopComparer struct{}

func (noopComparer) Init() error { return nil }

func (noopComparer) Compare(a, b []byte) (float64, error) { return 0, nil }

func setupHandlers(t *testing.T) (*services.Manager, *logger.Logger, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "handlers_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	log, err := logger.New(filepath.Join(tempDir, "logs"))
	if err != nil {
		db.Close()
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create logger: %v", err)
	}

	store := snapshot.NewStore(filepath.Join(tempDir, "cameras"))
	frames := cache.NewMemory()
	snapshotRepo := sqlite.NewSnapshotRepository(db)
	cameraRepo := sqlite.NewCameraRepository(db)

	comparator := motion.NewComparator(frames, noopComparer{}, cameraRepo, snapshotRepo, 1, log)

	hub := websocket.NewHubService(log)
	go hub.Run()

	manager := services.NewManager(store, snapshotRepo, frames, comparator, hub, log)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return manager, log, cleanup
}

func uploadFrame(t *testing.T, manager *services.Manager, log *logger.Logger, camera, ts string, image []byte) {
	t.Helper()

	handler := UploadSnapshotHandler(manager, log)

	req := httptest.NewRequest(http.MethodPost,
		"/api/snapshots/upload?camera="+camera+"&ts="+ts, bytes.NewReader(image))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Upload returned %d: %s", rec.Code, rec.Body.String())
	}
}

// ========================================
// Handler Tests
// ========================================

func TestUploadSnapshotHandler_RoundTrip(t *testing.T) {
	manager, log, cleanup := setupHandlers(t)
	defer cleanup()

	image := []byte{0xFF, 0xD8, 0xFF, 0x01}
	uploadFrame(t, manager, log, "cam1", "1000000000.123456", image)

	viewHandler := ViewSnapshotHandler(manager)
	req := httptest.NewRequest(http.MethodGet,
		"/api/snapshots/view?camera=cam1&key=cam1_1000000000.123456", nil)
	rec := httptest.NewRecorder()
	viewHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("View returned %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), image) {
		t.Error("Returned image differs from uploaded image")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg content type, got %s", ct)
	}
}

func TestUploadSnapshotHandler_Validation(t *testing.T) {
	manager, log, cleanup := setupHandlers(t)
	defer cleanup()

	handler := UploadSnapshotHandler(manager, log)

	tests := []struct {
		name   string
		method string
		url    string
		body   []byte
		status int
	}{
		{"wrong method", http.MethodGet, "/api/snapshots/upload?camera=cam1", nil, http.StatusMethodNotAllowed},
		{"missing camera", http.MethodPost, "/api/snapshots/upload", []byte("x"), http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/snapshots/upload?camera=cam1", nil, http.StatusBadRequest},
		{"bad timestamp", http.MethodPost, "/api/snapshots/upload?camera=cam1&ts=abc", []byte("x"), http.StatusBadRequest},
		{"bad precision", http.MethodPost, "/api/snapshots/upload?camera=cam1&ts=1000000000.12", []byte("x"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.url, bytes.NewReader(tt.body))
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.status, rec.Code)
		}
	}
}

func TestViewSnapshotHandler_NotFound(t *testing.T) {
	manager, _, cleanup := setupHandlers(t)
	defer cleanup()

	handler := ViewSnapshotHandler(manager)
	req := httptest.NewRequest(http.MethodGet,
		"/api/snapshots/view?camera=cam1&key=cam1_1000000000", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing snapshot, got %d", rec.Code)
	}
}

func TestListSnapshotsHandler_Pagination(t *testing.T) {
	manager, log, cleanup := setupHandlers(t)
	defer cleanup()

	for _, ts := range []string{"1000000000", "1000000001", "1000000002"} {
		uploadFrame(t, manager, log, "cam1", ts, []byte("frame-"+ts))
	}

	handler := ListSnapshotsHandler(manager, log)
	req := httptest.NewRequest(http.MethodGet, "/api/snapshots?camera=cam1&page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("List returned %d", rec.Code)
	}

	var data SnapshotsData
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(data.Snapshots) != 2 {
		t.Errorf("Expected 2 snapshots on page, got %d", len(data.Snapshots))
	}
	if data.Length != 3 {
		t.Errorf("Expected total 3, got %d", data.Length)
	}
	if data.TotalPages != 2 {
		t.Errorf("Expected 2 pages, got %d", data.TotalPages)
	}
}

func TestStatsHandler(t *testing.T) {
	manager, log, cleanup := setupHandlers(t)
	defer cleanup()

	uploadFrame(t, manager, log, "cam1", "1000000000", []byte("frame"))

	handler := StatsHandler(manager, log)
	req := httptest.NewRequest(http.MethodGet, "/api/snapshots/stats", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Stats returned %d", rec.Code)
	}

	var payload struct {
		TotalSnapshots int            `json:"totalSnapshots"`
		PerCamera      map[string]int `json:"perCamera"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if payload.TotalSnapshots != 1 {
		t.Errorf("Expected 1 snapshot, got %d", payload.TotalSnapshots)
	}
	if payload.PerCamera["cam1"] != 1 {
		t.Errorf("Unexpected per-camera counts: %v", payload.PerCamera)
	}
}

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
	}

	for _, tt := range tests {
		if got := atoiDefault(tt.input, tt.def); got != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, got, tt.expected)
		}
	}
}
