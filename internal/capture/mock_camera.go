package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays a fixed frame sequence in place of a device. Each read hands
// out a clone, so the caller may close it as it would a captured frame.
type MockCamera struct {
	mu sync.Mutex

	frames []*gocv.Mat
	loop   bool

	open    bool
	next    int
	reads   int
	opens   int
	openErr error
	failAt  int
}

// NewMockCamera creates a camera over frames. With loop set playback wraps
// around; otherwise the read after the last frame fails with ErrCaptureFailed.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, failAt: -1}
}

// FailOpen makes the next Open calls return err.
func (c *MockCamera) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// FailAt makes read number n (0-based, counted from creation) fail as if the
// device dropped out. A negative n disables the fault.
func (c *MockCamera) FailAt(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAt = n
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opens++
	if c.openErr != nil {
		return c.openErr
	}
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.open:
		return nil, ErrCameraNotOpen
	case c.failAt >= 0 && c.reads == c.failAt:
		return nil, fmt.Errorf("%w: device dropped at read %d", ErrCaptureFailed, c.reads)
	case len(c.frames) == 0:
		return nil, fmt.Errorf("%w: no frames", ErrCaptureFailed)
	}

	if c.next == len(c.frames) {
		if !c.loop {
			return nil, fmt.Errorf("%w: end of sequence after %d frames", ErrCaptureFailed, c.reads)
		}
		c.next = 0
	}

	frame := c.frames[c.next].Clone()
	c.next++
	c.reads++
	return &frame, nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many frames were handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Opens returns how many times Open was called.
func (c *MockCamera) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}
