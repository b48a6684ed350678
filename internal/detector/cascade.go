package detector

import (
	"fmt"
	"sync"

	"github.com/ayusman/tracksampler/internal/tracker"
	"gocv.io/x/gocv"
)

// CascadeDetector implements Detector with an OpenCV cascade classifier.
type CascadeDetector struct {
	config     Config
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
	closed     bool
}

// NewCascadeDetector loads the classifier named by config.CascadePath.
func NewCascadeDetector(config Config) (*CascadeDetector, error) {
	if config.CascadePath == "" {
		return nil, fmt.Errorf("%w: no cascade file configured", ErrCascadeLoad)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(config.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, config.CascadePath)
	}

	return &CascadeDetector{config: config, classifier: classifier}, nil
}

// Detect runs the classifier on a grayscale copy of frame.
func (d *CascadeDetector) Detect(frame *gocv.Mat) ([]tracker.BoundingBox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("detect: detector closed")
	}
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("detect: empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() == 1 {
		frame.CopyTo(&gray)
	} else {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	}

	rects := d.classifier.DetectMultiScale(gray)

	boxes := make([]tracker.BoundingBox, 0, len(rects))
	for _, r := range rects {
		b := tracker.FromRect(r)
		if b.Width < d.config.MinSize || b.Height < d.config.MinSize {
			continue
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
