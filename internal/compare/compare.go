package compare

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrUnavailable is returned when the comparison capability has not been
// initialized or its initialization failed.
var ErrUnavailable = errors.New("image comparison unavailable")

// Comparer scores the visual difference between two frames. Higher scores
// mean more change. Init must be called before the first Compare and is safe
// to call any number of times.
type Comparer interface {
	Init() error
	Compare(a, b []byte) (float64, error)
}

const defaultDiffThreshold = 25

// Differ is a Comparer built on OpenCV frame differencing: both images are
// decoded to grayscale, subtracted, binarized, and the count of changed
// pixels is the motion level.
type Differ struct {
	once      sync.Once
	ready     bool
	threshold float32
}

// NewDiffer creates a Differ. A non-positive threshold selects the default
// binarization cutoff.
func NewDiffer(threshold float32) *Differ {
	if threshold <= 0 {
		threshold = defaultDiffThreshold
	}
	return &Differ{threshold: threshold}
}

// Init marks the differ ready. It runs at most once per process lifetime.
func (d *Differ) Init() error {
	d.once.Do(func() {
		d.ready = true
	})
	return nil
}

// Compare returns the number of pixels that differ between the two frames
// after thresholding.
func (d *Differ) Compare(a, b []byte) (float64, error) {
	if !d.ready {
		return 0, ErrUnavailable
	}

	matA, err := gocv.IMDecode(a, gocv.IMReadGrayScale)
	if err != nil {
		return 0, fmt.Errorf("failed to decode first image: %w", err)
	}
	defer matA.Close()

	matB, err := gocv.IMDecode(b, gocv.IMReadGrayScale)
	if err != nil {
		return 0, fmt.Errorf("failed to decode second image: %w", err)
	}
	defer matB.Close()

	if matA.Empty() || matB.Empty() {
		return 0, fmt.Errorf("decoded image is empty")
	}

	if matA.Rows() != matB.Rows() || matA.Cols() != matB.Cols() {
		return 0, fmt.Errorf("image dimensions differ: %dx%d vs %dx%d",
			matA.Cols(), matA.Rows(), matB.Cols(), matB.Rows())
	}

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.AbsDiff(matA, matB, &diff); err != nil {
		return 0, fmt.Errorf("failed to compute absolute difference: %w", err)
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, d.threshold, 255, gocv.ThresholdBinary)

	return float64(gocv.CountNonZero(thresh)), nil
}
