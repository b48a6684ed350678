// Package publisher turns the tracked region of a frame into a PNG payload and
// hands it to the broker session.
package publisher

import (
	"errors"
	"fmt"
	"image"

	"github.com/ayusman/tracksampler/internal/tracker"
	"gocv.io/x/gocv"
)

// ErrEmptyRegion is returned when the crop has no area inside the frame.
var ErrEmptyRegion = errors.New("crop region is empty")

// Sender delivers a payload on a topic. broker.ConnectionManager satisfies it.
type Sender interface {
	Publish(topic string, payload []byte) error
}

// Publisher encodes crops and publishes them on a fixed topic.
type Publisher struct {
	topic  string
	sender Sender
}

// New creates a Publisher for topic.
func New(topic string, sender Sender) *Publisher {
	return &Publisher{topic: topic, sender: sender}
}

// Topic returns the topic samples are published on.
func (p *Publisher) Topic() string {
	return p.topic
}

// Encode crops frame at box and returns the crop as PNG bytes. The box is
// clipped to the frame; a crop with no remaining area returns ErrEmptyRegion.
func (p *Publisher) Encode(frame *gocv.Mat, box tracker.BoundingBox) ([]byte, error) {
	return Encode(frame, box)
}

// Publish sends an encoded sample.
func (p *Publisher) Publish(payload []byte) error {
	if err := p.sender.Publish(p.topic, payload); err != nil {
		return fmt.Errorf("publish %d bytes to %s: %w", len(payload), p.topic, err)
	}
	return nil
}

// Encode crops frame at box and PNG-encodes the region.
func Encode(frame *gocv.Mat, box tracker.BoundingBox) ([]byte, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("encode: %w: empty frame", ErrEmptyRegion)
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	rect := box.Rect().Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("encode %s: %w", box, ErrEmptyRegion)
	}

	region := frame.Region(rect)
	defer region.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, region)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close, so copy it out
	return append([]byte(nil), buf.GetBytes()...), nil
}
