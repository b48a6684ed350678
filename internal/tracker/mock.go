package tracker

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockTracker is a test implementation of the Tracker interface.
// It replays a scripted sequence of results; once the script is exhausted it
// keeps returning the fallback result.
type MockTracker struct {
	mu       sync.Mutex
	script   []Result
	fallback Result
	fixed    bool
	initBox  BoundingBox
	initErr  error
	updates  int
	closed   bool
}

// NewMockTracker creates a MockTracker that reports every frame as tracked at
// the box passed to Init until a script is set.
func NewMockTracker() *MockTracker {
	return &MockTracker{}
}

// SetScript sets the results returned by successive Update calls.
func (m *MockTracker) SetScript(results ...Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = results
}

// SetFallback sets the result returned after the script runs out.
func (m *MockTracker) SetFallback(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = r
	m.fixed = true
}

// SetInitError sets the error that will be returned by Init.
func (m *MockTracker) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
}

// Init records the seed box. Unless a fallback was set, subsequent frames past
// the script are tracked at this box.
func (m *MockTracker) Init(frame *gocv.Mat, box BoundingBox) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initErr != nil {
		return m.initErr
	}
	m.initBox = box
	if !m.fixed {
		m.fallback = Tracked(box)
	}
	return nil
}

// Update returns the next scripted result.
func (m *MockTracker) Update(frame *gocv.Mat) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r
	}
	return m.fallback
}

// Close marks the tracker closed.
func (m *MockTracker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// InitBox returns the box passed to the last successful Init.
func (m *MockTracker) InitBox() BoundingBox {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initBox
}

// Updates returns how many times Update was called.
func (m *MockTracker) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// Closed reports whether Close was called.
func (m *MockTracker) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
