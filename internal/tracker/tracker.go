// Package tracker wraps single-object visual trackers behind a per-frame interface.
package tracker

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrUnknownAlgorithm is returned by New for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown tracker algorithm")

// Supported tracker algorithms.
const (
	AlgorithmCSRT = "csrt"
	AlgorithmKCF  = "kcf"
	AlgorithmMIL  = "mil"
)

// BoundingBox locates the tracked object in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromRect converts an image.Rectangle to a BoundingBox.
func FromRect(r image.Rectangle) BoundingBox {
	r = r.Canon()
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the box as an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Empty reports whether the box has no area.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.Width, b.Height)
}

// Result is the outcome of one Update call. OK is false when the object was lost
// on that frame; Box is only meaningful when OK is true.
type Result struct {
	Box BoundingBox
	OK  bool
}

// Tracked returns a successful Result for box.
func Tracked(box BoundingBox) Result {
	return Result{Box: box, OK: true}
}

// Lost is the Result reported when tracking failed for a frame.
var Lost = Result{}

// Tracker defines the interface for single-object trackers.
type Tracker interface {
	// Init seeds the tracker with the initial region on the first frame.
	Init(frame *gocv.Mat, box BoundingBox) error

	// Update locates the object on the next frame. A lost result is not
	// terminal; a later frame may recover.
	Update(frame *gocv.Mat) Result

	// Close releases any resources held by the tracker.
	Close() error
}

// New creates a tracker for the named algorithm.
func New(algorithm string) (Tracker, error) {
	var impl gocv.Tracker
	switch algorithm {
	case AlgorithmCSRT, "":
		impl = newCSRT()
	case AlgorithmKCF:
		impl = newKCF()
	case AlgorithmMIL:
		impl = gocv.NewTrackerMIL()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return &visualTracker{impl: impl}, nil
}

// visualTracker adapts a gocv.Tracker to the Tracker interface.
type visualTracker struct {
	impl gocv.Tracker
}

// Init seeds the underlying gocv tracker.
func (t *visualTracker) Init(frame *gocv.Mat, box BoundingBox) error {
	if frame == nil || frame.Empty() {
		return errors.New("tracker init: empty frame")
	}
	if box.Empty() {
		return fmt.Errorf("tracker init: empty bounding box %s", box)
	}
	if ok := t.impl.Init(*frame, box.Rect()); !ok {
		return errors.New("tracker init: rejected by tracker")
	}
	return nil
}

// Update advances the tracker by one frame.
func (t *visualTracker) Update(frame *gocv.Mat) Result {
	if frame == nil || frame.Empty() {
		return Lost
	}
	rect, ok := t.impl.Update(*frame)
	if !ok {
		return Lost
	}
	box := FromRect(rect)
	if box.Empty() {
		return Lost
	}
	return Tracked(box)
}

// Close releases the gocv tracker.
func (t *visualTracker) Close() error {
	return t.impl.Close()
}
