package session

import (
	"testing"

	"github.com/ayusman/tracksampler/internal/sampling"
)

func TestMachine_StaysCollectingBelowTarget(t *testing.T) {
	m := NewMachine(DefaultConfig())

	for collected := 0; collected < 50; collected++ {
		st := m.Step(sampling.Quota{Collected: collected, Target: 50})
		if st.Phase != Collecting {
			t.Fatalf("collected=%d: phase = %v, want collecting", collected, st.Phase)
		}
	}
}

func TestMachine_EntersCountdownWhenQuotaMet(t *testing.T) {
	m := NewMachine(DefaultConfig())

	st := m.Step(sampling.Quota{Collected: 50, Target: 50})
	if st.Phase != EndingCountdown {
		t.Fatalf("phase = %v, want ending", st.Phase)
	}
	if st.TicksRemaining != 5 {
		t.Errorf("TicksRemaining = %d, want 5", st.TicksRemaining)
	}
}

func TestMachine_TerminatesAfterSixtyFrames(t *testing.T) {
	m := NewMachine(DefaultConfig())
	met := sampling.Quota{Collected: 50, Target: 50}
	m.Step(met)

	seen := []int{m.State().TicksRemaining}
	for frame := 1; frame <= 60; frame++ {
		st := m.Step(met)
		if frame < 60 && st.Phase != EndingCountdown {
			t.Fatalf("frame %d: phase = %v, want ending", frame, st.Phase)
		}
		if frame%10 == 0 {
			seen = append(seen, st.TicksRemaining)
		}
	}

	if !m.Done() {
		t.Fatalf("phase after 60 frames = %v, want terminated", m.State().Phase)
	}
	if m.State().Reason != ReasonCompleted {
		t.Errorf("Reason = %q, want %q", m.State().Reason, ReasonCompleted)
	}

	want := []int{5, 4, 3, 2, 1, 0, -1}
	if len(seen) != len(want) {
		t.Fatalf("countdown values = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("countdown values = %v, want %v", seen, want)
			break
		}
	}
}

func TestMachine_NotTerminatedAtFiftyNine(t *testing.T) {
	m := NewMachine(DefaultConfig())
	met := sampling.Quota{Collected: 50, Target: 50}
	m.Step(met)

	for frame := 1; frame <= 59; frame++ {
		m.Step(met)
	}
	if m.Done() {
		t.Error("session should still be counting down after 59 frames")
	}
	if got := m.State().TicksRemaining; got != 0 {
		t.Errorf("TicksRemaining = %d, want 0", got)
	}
}

func TestMachine_QuitFromAnyPhase(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
	}{
		{
			name:  "collecting",
			setup: func(m *Machine) {},
		},
		{
			name: "ending",
			setup: func(m *Machine) {
				m.Step(sampling.Quota{Collected: 1, Target: 1})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(DefaultConfig())
			tt.setup(m)

			st := m.Quit()
			if st.Phase != Terminated {
				t.Errorf("phase = %v, want terminated", st.Phase)
			}
			if st.Reason != ReasonQuit {
				t.Errorf("Reason = %q, want %q", st.Reason, ReasonQuit)
			}
		})
	}
}

func TestMachine_TerminatedIsAbsorbing(t *testing.T) {
	m := NewMachine(Config{CountdownTicks: 0, FramesPerTick: 1})
	met := sampling.Quota{Collected: 1, Target: 1}

	m.Step(met)
	if st := m.Step(met); st.Phase != Terminated {
		t.Fatalf("phase = %v, want terminated", st.Phase)
	}

	for i := 0; i < 5; i++ {
		if st := m.Step(sampling.Quota{Collected: 0, Target: 1}); st.Phase != Terminated {
			t.Fatalf("phase left terminated: %v", st.Phase)
		}
	}
	if st := m.Quit(); st.Reason != ReasonCompleted {
		t.Errorf("Quit() after completion changed reason to %q", st.Reason)
	}
}

func TestMachine_PhasesNeverRevisited(t *testing.T) {
	m := NewMachine(Config{CountdownTicks: 1, FramesPerTick: 2})

	quotas := []int{0, 1, 2, 2, 2, 2, 2, 2}
	last := Collecting
	for _, c := range quotas {
		st := m.Step(sampling.Quota{Collected: c, Target: 2})
		if st.Phase < last {
			t.Fatalf("phase moved backwards from %v to %v", last, st.Phase)
		}
		last = st.Phase
	}
	if last != Terminated {
		t.Errorf("final phase = %v, want terminated", last)
	}
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{Collecting, "collecting"},
		{EndingCountdown, "ending"},
		{Terminated, "terminated"},
		{Phase(9), "phase(9)"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
