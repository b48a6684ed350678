// Package display shows annotated frames and collects the initial region of
// interest from the user.
package display

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ayusman/tracksampler/internal/sampling"
	"github.com/ayusman/tracksampler/internal/session"
	"github.com/ayusman/tracksampler/internal/tracker"
	"gocv.io/x/gocv"
)

// ErrROICancelled is returned when no region was selected.
var ErrROICancelled = errors.New("region selection cancelled")

// Overlay carries the per-frame status drawn over the video.
type Overlay struct {
	Result  tracker.Result
	Quota   sampling.Quota
	Session session.State
}

// Display shows one frame per loop iteration.
type Display interface {
	// Show renders the frame and reports whether the user asked to quit.
	Show(frame *gocv.Mat, o Overlay) (quit bool)
	Close() error
}

// ROISelector supplies the initial bounding box for the tracker.
type ROISelector interface {
	SelectROI(frame *gocv.Mat) (tracker.BoundingBox, error)
}

// FixedROI is an ROISelector that always returns the same box.
type FixedROI tracker.BoundingBox

// SelectROI returns the fixed box, clipped to the frame when one is given.
func (r FixedROI) SelectROI(frame *gocv.Mat) (tracker.BoundingBox, error) {
	box := tracker.BoundingBox(r)
	if frame != nil && !frame.Empty() {
		box = clip(box, frame.Cols(), frame.Rows())
	}
	if box.Empty() {
		return tracker.BoundingBox{}, ErrROICancelled
	}
	return box, nil
}

// ParseROI parses "x,y,w,h" into a bounding box.
func ParseROI(s string) (tracker.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return tracker.BoundingBox{}, fmt.Errorf("roi %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return tracker.BoundingBox{}, fmt.Errorf("roi %q: %w", s, err)
		}
		v[i] = n
	}
	box := tracker.BoundingBox{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if box.X < 0 || box.Y < 0 || box.Empty() {
		return tracker.BoundingBox{}, fmt.Errorf("roi %q: must have non-negative origin and positive size", s)
	}
	return box, nil
}

// Headless is a Display that renders nothing and never asks to quit.
type Headless struct{}

// Show discards the frame.
func (Headless) Show(*gocv.Mat, Overlay) bool { return false }

// Close is a no-op.
func (Headless) Close() error { return nil }

func clip(box tracker.BoundingBox, cols, rows int) tracker.BoundingBox {
	r := box.Rect().Intersect(tracker.BoundingBox{Width: cols, Height: rows}.Rect())
	return tracker.FromRect(r)
}
