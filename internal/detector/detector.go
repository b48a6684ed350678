// Package detector finds objects in a frame so a tracking session can be
// seeded without drawing the region by hand.
package detector

import (
	"errors"

	"github.com/ayusman/tracksampler/internal/tracker"
	"gocv.io/x/gocv"
)

var (
	// ErrNoDetection is returned by Selector when the frame contains no object.
	ErrNoDetection = errors.New("no object detected")
	// ErrCascadeLoad is returned when the classifier file cannot be loaded.
	ErrCascadeLoad = errors.New("cannot load cascade classifier")
)

// Detector defines the interface for object detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the boxes of detected objects.
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]tracker.BoundingBox, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for cascade detection.
type Config struct {
	// CascadePath is the Haar or LBP cascade XML file.
	CascadePath string

	// MinSize drops detections narrower or shorter than this many pixels.
	MinSize int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinSize: 32,
	}
}

// Selector seeds a session from the largest detection in the first frame.
// It satisfies display.ROISelector.
type Selector struct {
	d Detector
}

// NewSelector creates a Selector over d.
func NewSelector(d Detector) *Selector {
	return &Selector{d: d}
}

// SelectROI returns the largest box d finds in frame.
func (s *Selector) SelectROI(frame *gocv.Mat) (tracker.BoundingBox, error) {
	boxes, err := s.d.Detect(frame)
	if err != nil {
		return tracker.BoundingBox{}, err
	}
	return Largest(boxes)
}

// Close releases the underlying detector.
func (s *Selector) Close() error {
	return s.d.Close()
}

// Largest returns the box with the greatest area. Ties keep the first.
func Largest(boxes []tracker.BoundingBox) (tracker.BoundingBox, error) {
	var best tracker.BoundingBox
	bestArea := 0
	for _, b := range boxes {
		if b.Empty() {
			continue
		}
		if area := b.Width * b.Height; area > bestArea {
			best, bestArea = b, area
		}
	}
	if bestArea == 0 {
		return tracker.BoundingBox{}, ErrNoDetection
	}
	return best, nil
}
