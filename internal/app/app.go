// Package app runs the capture loop: frames are tracked, sampled on cadence,
// encoded and published until the session terminates.
package app

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ayusman/tracksampler/internal/broker"
	"github.com/ayusman/tracksampler/internal/capture"
	"github.com/ayusman/tracksampler/internal/display"
	"github.com/ayusman/tracksampler/internal/publisher"
	"github.com/ayusman/tracksampler/internal/sampling"
	"github.com/ayusman/tracksampler/internal/session"
	"github.com/ayusman/tracksampler/internal/store"
	"github.com/ayusman/tracksampler/internal/tracker"
	"github.com/rs/zerolog"
)

// Config holds configuration options for the application.
type Config struct {
	Topic    string
	Sampling sampling.Config
	Session  session.Config
	// Store journals sessions and samples when set.
	Store *store.Store
}

// Deps are the collaborators the loop drives.
type Deps struct {
	Camera   capture.Camera
	Tracker  tracker.Tracker
	Broker   *broker.ConnectionManager
	Display  display.Display
	Selector display.ROISelector
}

// Status is a point-in-time view of a running session.
type Status struct {
	SessionID      string               `json:"session_id,omitempty"`
	Running        bool                 `json:"running"`
	Broker         broker.State         `json:"broker"`
	Phase          session.Phase        `json:"phase"`
	TicksRemaining int                  `json:"ticks_remaining"`
	Reason         session.Reason       `json:"reason,omitempty"`
	Collected      int                  `json:"collected"`
	Target         int                  `json:"target"`
	Frame          int                  `json:"frame"`
	Tracking       bool                 `json:"tracking"`
	Box            *tracker.BoundingBox `json:"box,omitempty"`
}

// App is the main application that orchestrates tracking and sample publishing.
type App struct {
	config    Config
	log       zerolog.Logger
	camera    capture.Camera
	tracker   tracker.Tracker
	broker    *broker.ConnectionManager
	publisher *publisher.Publisher
	display   display.Display
	selector  display.ROISelector

	controller *sampling.Controller
	machine    *session.Machine

	quit atomic.Bool

	mu        sync.RWMutex
	status    Status
	listeners []func(Status)
}

// New creates a new App. Camera, Tracker, Broker and Selector are required;
// a nil Display runs headless.
func New(config Config, deps Deps, log zerolog.Logger) (*App, error) {
	switch {
	case deps.Camera == nil:
		return nil, errors.New("app: camera is required")
	case deps.Tracker == nil:
		return nil, errors.New("app: tracker is required")
	case deps.Broker == nil:
		return nil, errors.New("app: broker is required")
	case deps.Selector == nil:
		return nil, errors.New("app: region selector is required")
	}
	if deps.Display == nil {
		deps.Display = display.Headless{}
	}

	controller := sampling.NewController(config.Sampling)
	machine := session.NewMachine(config.Session)

	a := &App{
		config:     config,
		log:        log,
		camera:     deps.Camera,
		tracker:    deps.Tracker,
		broker:     deps.Broker,
		publisher:  publisher.New(config.Topic, deps.Broker),
		display:    deps.Display,
		selector:   deps.Selector,
		controller: controller,
		machine:    machine,
	}
	a.status = Status{
		Broker: deps.Broker.State(),
		Phase:  session.Collecting,
		Target: controller.Quota().Target,
	}
	return a, nil
}

// Quit asks the loop to terminate after the current frame. Safe to call from
// any goroutine.
func (a *App) Quit() {
	a.quit.Store(true)
}

// Status returns the latest snapshot.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// OnStatus registers fn to be called from the loop whenever the quota, phase,
// countdown or broker state changes. fn must not block.
func (a *App) OnStatus(fn func(Status)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Quota returns the collected count against the target as of the latest
// snapshot. Safe to call from any goroutine.
func (a *App) Quota() sampling.Quota {
	s := a.Status()
	return sampling.Quota{Collected: s.Collected, Target: s.Target}
}

// Session returns the session state as of the latest snapshot. Safe to call
// from any goroutine.
func (a *App) Session() session.State {
	s := a.Status()
	return session.State{Phase: s.Phase, TicksRemaining: s.TicksRemaining, Reason: s.Reason}
}

// setStatus stores s and notifies listeners when a visible field changed.
func (a *App) setStatus(s Status) {
	a.mu.Lock()
	prev := a.status
	a.status = s
	listeners := a.listeners
	a.mu.Unlock()

	if prev.Running == s.Running &&
		prev.Broker == s.Broker &&
		prev.Phase == s.Phase &&
		prev.TicksRemaining == s.TicksRemaining &&
		prev.Collected == s.Collected {
		return
	}
	for _, fn := range listeners {
		fn(s)
	}
}
