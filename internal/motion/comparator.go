package motion

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"snapserver/internal/cache"
	"snapserver/internal/compare"
	"snapserver/internal/logger"
	"snapserver/internal/repository"
	"snapserver/internal/snapshot"
)

// ErrRecordNotFound signals that the persisted snapshot record matching a
// compared frame could not be resolved. It usually means the frame cache and
// the record store have drifted apart (clock skew, missed insert) and is
// surfaced so operators can spot the desync.
var ErrRecordNotFound = errors.New("snapshot record not found")

// Event is one "snapshot arrived" notification. The payload is carried for
// logging and context only; the comparison itself reads the frame-cache
// slots, which are guaranteed to already reflect this arrival.
type Event struct {
	ID        string
	Camera    string
	Timestamp snapshot.Timestamp
	Image     []byte
}

const queueDepth = 100

// Comparator consumes arrival events and scores motion between the two most
// recently cached frames of a camera, attaching the score to the persisted
// record of the older frame. It keeps no per-camera state of its own; events
// are partitioned by camera onto sequential workers so a camera's events are
// always handled in FIFO order while cameras stay independent.
type Comparator struct {
	frames    cache.FrameCache
	comparer  compare.Comparer
	cameras   repository.CameraRepository
	snapshots repository.SnapshotRepository
	logger    *logger.Logger

	queues []chan Event
	wg     sync.WaitGroup

	compareFailures uint64
	lookupFailures  uint64
	dropped         uint64
}

// NewComparator creates a Comparator and starts its worker pool.
func NewComparator(frames cache.FrameCache, comparer compare.Comparer,
	cameras repository.CameraRepository, snapshots repository.SnapshotRepository,
	workers int, logger *logger.Logger) *Comparator {

	if workers < 1 {
		workers = 1
	}

	c := &Comparator{
		frames:    frames,
		comparer:  comparer,
		cameras:   cameras,
		snapshots: snapshots,
		logger:    logger,
		queues:    make([]chan Event, workers),
	}

	for i := range c.queues {
		c.queues[i] = make(chan Event, queueDepth)
		c.wg.Add(1)
		go c.worker(i)
	}

	c.logger.Info("Motion comparator started with %d worker(s)", workers)
	return c
}

// Notify enqueues an arrival event. Events for the same camera always land
// on the same worker, preserving arrival order. A full queue drops the event
// rather than backpressuring the ingestion path; the next arrival will
// compare against advanced cache state anyway.
func (c *Comparator) Notify(ev Event) {
	q := c.queues[c.partition(ev.Camera)]

	select {
	case q <- ev:
	default:
		atomic.AddUint64(&c.dropped, 1)
		c.logger.Warning("Comparison queue full for camera %s - dropping event %s", ev.Camera, ev.ID)
	}
}

// Stop closes the queues and waits for in-flight events to drain.
func (c *Comparator) Stop() {
	for _, q := range c.queues {
		close(q)
	}
	c.wg.Wait()
	c.logger.Info("Motion comparator stopped")
}

// Counters reports dropped events and per-category failure counts since start.
func (c *Comparator) Counters() (compareFailures, lookupFailures, dropped uint64) {
	return atomic.LoadUint64(&c.compareFailures),
		atomic.LoadUint64(&c.lookupFailures),
		atomic.LoadUint64(&c.dropped)
}

func (c *Comparator) partition(camera string) int {
	h := fnv.New32a()
	h.Write([]byte(camera))
	return int(h.Sum32() % uint32(len(c.queues)))
}

func (c *Comparator) worker(id int) {
	defer c.wg.Done()

	for ev := range c.queues[id] {
		// One bad event must never take the consumer down or block the
		// events behind it.
		if err := c.process(ev); err != nil {
			c.logger.Error("Motion comparison for camera %s (event %s) failed: %v", ev.Camera, ev.ID, err)
		}
	}
}

// process runs one comparison cycle for an arrival event.
func (c *Comparator) process(ev Event) error {
	if err := c.comparer.Init(); err != nil {
		atomic.AddUint64(&c.compareFailures, 1)
		return fmt.Errorf("comparer init: %w", err)
	}

	// Both slots must come from one consistent read: a rotation landing
	// between two separate slot lookups could hand back a previous frame
	// newer than the last one.
	last, previous, ok := c.frames.GetPair(ev.Camera)
	if !ok {
		// Cold start: fewer than two frames seen so far, nothing to compare yet.
		return nil
	}

	level, err := c.comparer.Compare(last.Image, previous.Image)
	if err != nil {
		atomic.AddUint64(&c.compareFailures, 1)
		return fmt.Errorf("compare frames: %w", err)
	}

	// The score belongs to the older of the two frames: it measures what
	// changed after that frame was taken.
	return c.attach(ev, previous.Timestamp, level)
}

// attach resolves the persisted record for the older frame and writes the
// motion level onto it.
func (c *Comparator) attach(ev Event, ts snapshot.Timestamp, level float64) error {
	cam, err := c.cameras.GetByName(ev.Camera)
	if err != nil {
		atomic.AddUint64(&c.lookupFailures, 1)
		return fmt.Errorf("camera lookup: %w", err)
	}
	if cam == nil {
		atomic.AddUint64(&c.lookupFailures, 1)
		return fmt.Errorf("%w: unknown camera %s", ErrRecordNotFound, ev.Camera)
	}

	capturedAt := ts.Calendar().Format()

	rec, err := c.snapshots.GetByCapture(ev.Camera, capturedAt)
	if err != nil {
		atomic.AddUint64(&c.lookupFailures, 1)
		return fmt.Errorf("snapshot lookup: %w", err)
	}
	if rec == nil {
		atomic.AddUint64(&c.lookupFailures, 1)
		return fmt.Errorf("%w: camera %s at %s", ErrRecordNotFound, ev.Camera, capturedAt)
	}

	if err := c.snapshots.UpdateMotionLevel(rec.ID, level); err != nil {
		atomic.AddUint64(&c.lookupFailures, 1)
		return fmt.Errorf("motion level update: %w", err)
	}

	c.logger.Info("Camera %s: motion level %.0f attached to snapshot %d (%s)",
		ev.Camera, level, rec.ID, capturedAt)
	return nil
}
