package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned by Load when no file exists at the derived path.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidTimestampPrecision is returned when the fractional-second
	// rendering is neither empty nor at least three digits wide. Anything in
	// between cannot be padded or truncated without guessing, so filename
	// construction refuses it.
	ErrInvalidTimestampPrecision = errors.New("invalid timestamp precision")
)

// Store persists snapshot images under a directory tree derived from camera
// identity and capture time. The path is the index: consumers can locate a
// frame by time range by walking the tree, with no database involved.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given base directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the configured base directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the hour-bucket directory for a camera and capture time:
// <root>/<camera>/snapshots/recordings/YYYY/MM/DD/HH.
func (s *Store) Dir(cameraID string, ts Timestamp) string {
	c := ts.Calendar()
	return filepath.Join(s.root, cameraID, "snapshots", "recordings",
		fmt.Sprintf("%04d", c.Year),
		fmt.Sprintf("%02d", c.Month),
		fmt.Sprintf("%02d", c.Day),
		fmt.Sprintf("%02d", c.Hour),
	)
}

// Filename derives the file name for a capture time. The result is always
// MM_SS_mmm.jpg so names inside an hour bucket sort chronologically by plain
// byte comparison. A source without sub-second precision gets a synthetic
// "000" millisecond field; extra precision beyond three digits is cut off.
// Two captures within the same millisecond collide on purpose: the newer
// write wins.
func Filename(ts Timestamp) (string, error) {
	c := ts.Calendar()
	base := fmt.Sprintf("%02d_%02d_%s", c.Minute, c.Second, ts.Fraction())

	switch {
	case len(base) == 6:
		base += "000"
	case len(base) >= 9:
		base = base[:9]
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimestampPrecision, base)
	}

	return base + ".jpg", nil
}

// Path derives the full file path for a camera and capture time.
func (s *Store) Path(cameraID string, ts Timestamp) (string, error) {
	name, err := Filename(ts)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir(cameraID, ts), name), nil
}

// Save writes the image bytes to the derived path, creating intermediate
// directories as needed and overwriting any existing file at that path.
func (s *Store) Save(cameraID string, ts Timestamp, image []byte) error {
	path, err := s.Path(cameraID, ts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := os.WriteFile(path, image, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}

	return nil
}

// Load reads back the image referenced by a snapshot key. The key is a
// composite identifier whose portion after the last underscore is a decimal
// epoch timestamp; the same derivation used by Save reconstructs the path.
// A missing file is reported as ErrNotFound, distinct from other I/O errors.
func (s *Store) Load(cameraID, key string) ([]byte, error) {
	ts, err := ParseKey(key)
	if err != nil {
		return nil, err
	}

	path, err := s.Path(cameraID, ts)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	return data, nil
}

// ParseKey recovers the capture timestamp from a snapshot key of the form
// <prefix>_<epoch>. Only the portion after the last underscore is the
// timestamp; a key without any underscore is treated as a bare timestamp.
func ParseKey(key string) (Timestamp, error) {
	part := key
	if i := strings.LastIndexByte(key, '_'); i >= 0 {
		part = key[i+1:]
	}
	return ParseTimestamp(part)
}
