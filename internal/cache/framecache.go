package cache

import (
	"sync"

	"snapserver/internal/snapshot"
)

// Frame is one cached capture: the raw image bytes plus the capture time.
type Frame struct {
	Timestamp snapshot.Timestamp
	Image     []byte
}

// FrameCache holds the rolling per-camera frame slots. The ingestion path is
// the only writer; the motion comparator only reads. GetPair returns both of
// a camera's slots under one lock so a reader never observes the cache
// mid-rotation.
type FrameCache interface {
	Get(key string) (Frame, bool)
	Set(key string, frame Frame)
	GetPair(camera string) (last, previous Frame, ok bool)
}

// LastKey returns the cache key of a camera's most recent frame.
func LastKey(camera string) string {
	return camera + "_last"
}

// PreviousKey returns the cache key of the frame before the most recent one.
func PreviousKey(camera string) string {
	return camera + "_previous"
}

// Memory is an in-process FrameCache backed by a map.
type Memory struct {
	mu     sync.RWMutex
	frames map[string]Frame
}

// NewMemory creates an empty in-memory frame cache.
func NewMemory() *Memory {
	return &Memory{
		frames: make(map[string]Frame),
	}
}

// Get returns the frame stored under key, if any.
func (m *Memory) Get(key string) (Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	frame, ok := m.frames[key]
	return frame, ok
}

// Set stores a frame under key, replacing any existing one.
func (m *Memory) Set(key string, frame Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames[key] = frame
}

// GetPair returns a camera's last and previous frames as one consistent
// snapshot. ok is false unless both slots are populated, which also covers
// the cold-start case of a single cached frame.
func (m *Memory) GetPair(camera string) (last, previous Frame, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	last, lastOK := m.frames[LastKey(camera)]
	previous, prevOK := m.frames[PreviousKey(camera)]
	return last, previous, lastOK && prevOK
}

// Rotate shifts a camera's slots for a new arrival: the old last frame
// becomes previous and the new frame becomes last. Both slots move under a
// single lock so a concurrent reader never sees the cache mid-rotation.
func (m *Memory) Rotate(camera string, frame Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.frames[LastKey(camera)]; ok {
		m.frames[PreviousKey(camera)] = last
	}
	m.frames[LastKey(camera)] = frame
}
