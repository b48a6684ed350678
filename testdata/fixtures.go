// Package testdata generates synthetic frame sequences for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Square describes a bright square drifting across a dark frame.
type Square struct {
	Width, Height int // frame size
	Size          int // side of the square
	X, Y          int // top-left on the first frame
	DX, DY        int // per-frame motion
}

// Box returns the square's rectangle on frame i.
func (s Square) Box(i int) image.Rectangle {
	x := s.X + i*s.DX
	y := s.Y + i*s.DY
	return image.Rect(x, y, x+s.Size, y+s.Size)
}

// Frames renders n frames of the sequence. The caller owns the Mats; use CloseAll.
func (s Square) Frames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSize(s.Height, s.Width, gocv.MatTypeCV8UC3)
		gocv.Rectangle(&m, s.Box(i), color.RGBA{255, 255, 255, 0}, -1)
		frames = append(frames, &m)
	}
	return frames
}

// Blank renders n black frames.
func Blank(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
		frames = append(frames, &m)
	}
	return frames
}

// CloseAll releases every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
