// Package session governs the phases of a sampling session, from collection
// through the closing countdown to termination.
package session

import (
	"fmt"

	"github.com/ayusman/tracksampler/internal/sampling"
)

// Default countdown settings.
const (
	DefaultCountdownTicks = 5
	DefaultFramesPerTick  = 10
)

// Phase is the coarse state of a session.
type Phase int

const (
	Collecting Phase = iota
	EndingCountdown
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Collecting:
		return "collecting"
	case EndingCountdown:
		return "ending"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Reason records why a session terminated.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonCompleted Reason = "completed"
	ReasonQuit      Reason = "quit"
)

// State is a snapshot of the state machine. TicksRemaining is only meaningful
// in EndingCountdown.
type State struct {
	Phase          Phase  `json:"phase"`
	TicksRemaining int    `json:"ticks_remaining"`
	Reason         Reason `json:"reason,omitempty"`
}

// Config holds the countdown parameters.
type Config struct {
	// CountdownTicks is the value the countdown starts from once the quota is met.
	CountdownTicks int
	// FramesPerTick is how many frames pass per countdown decrement.
	FramesPerTick int
}

// DefaultConfig returns the countdown settings used by the capture tool.
func DefaultConfig() Config {
	return Config{
		CountdownTicks: DefaultCountdownTicks,
		FramesPerTick:  DefaultFramesPerTick,
	}
}

// Machine moves a session through Collecting, EndingCountdown and Terminated.
// Phases only move forward; Terminated is absorbing.
type Machine struct {
	cfg    Config
	state  State
	frames int
}

// NewMachine creates a Machine in the Collecting phase. A negative countdown or
// a non-positive frames-per-tick value falls back to the defaults.
func NewMachine(cfg Config) *Machine {
	if cfg.CountdownTicks < 0 {
		cfg.CountdownTicks = DefaultCountdownTicks
	}
	if cfg.FramesPerTick <= 0 {
		cfg.FramesPerTick = DefaultFramesPerTick
	}
	return &Machine{cfg: cfg, state: State{Phase: Collecting}}
}

// Step advances the machine by one processed frame given the current quota.
// The frame on which the quota is met enters the countdown without consuming a
// tick; each later frame counts toward the next decrement.
func (m *Machine) Step(q sampling.Quota) State {
	switch m.state.Phase {
	case Collecting:
		if q.Met() {
			m.state = State{Phase: EndingCountdown, TicksRemaining: m.cfg.CountdownTicks}
			m.frames = 0
		}
	case EndingCountdown:
		m.frames++
		if m.frames%m.cfg.FramesPerTick == 0 {
			m.state.TicksRemaining--
		}
		if m.state.TicksRemaining < 0 {
			m.state = State{Phase: Terminated, TicksRemaining: m.state.TicksRemaining, Reason: ReasonCompleted}
		}
	}
	return m.state
}

// Quit terminates the session immediately, whatever the current phase.
func (m *Machine) Quit() State {
	if m.state.Phase != Terminated {
		m.state = State{Phase: Terminated, TicksRemaining: m.state.TicksRemaining, Reason: ReasonQuit}
	}
	return m.state
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Done reports whether the session has terminated.
func (m *Machine) Done() bool {
	return m.state.Phase == Terminated
}
