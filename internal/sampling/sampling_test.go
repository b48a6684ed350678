package sampling

import (
	"testing"

	"github.com/ayusman/tracksampler/internal/tracker"
)

var seedBox = tracker.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}

func TestNewController_Defaults(t *testing.T) {
	c := NewController(Config{})
	cfg := c.Config()

	if cfg.Cadence != DefaultCadence {
		t.Errorf("Cadence = %d, want %d", cfg.Cadence, DefaultCadence)
	}
	if cfg.Target != DefaultTarget {
		t.Errorf("Target = %d, want %d", cfg.Target, DefaultTarget)
	}
	if cfg.Lost != LostUseLastKnown {
		t.Errorf("Lost = %q, want %q", cfg.Lost, LostUseLastKnown)
	}
}

func TestController_CadenceProperty(t *testing.T) {
	c := NewController(Config{Cadence: 5, Target: 50})
	c.Seed(seedBox)

	for i := 0; i < 400; i++ {
		before := c.Quota().Collected
		_, ok := c.Decide(i, tracker.Tracked(seedBox))

		want := i%5 == 0 && before < 50
		if ok != want {
			t.Fatalf("frame %d: Decide() = %v, want %v (collected=%d)", i, ok, want, before)
		}
		if ok {
			c.Record()
		}
	}

	if got := c.Quota().Collected; got != 50 {
		t.Errorf("Collected = %d, want 50", got)
	}
}

func TestController_QuotaMetAtFrame245(t *testing.T) {
	c := NewController(Config{Cadence: 5, Target: 50})
	c.Seed(seedBox)

	metAt := -1
	for i := 0; i < 300 && metAt < 0; i++ {
		if _, ok := c.Decide(i, tracker.Tracked(seedBox)); ok {
			c.Record()
		}
		if c.Quota().Met() {
			metAt = i
		}
	}

	// 50 samples at frames 0, 5, ..., 245
	if metAt != 245 {
		t.Errorf("quota met at frame %d, want 245", metAt)
	}
}

func TestController_CollectedNeverExceedsTarget(t *testing.T) {
	c := NewController(Config{Cadence: 1, Target: 3})

	prev := 0
	for i := 0; i < 10; i++ {
		c.Record()
		q := c.Quota()
		if q.Collected > q.Target {
			t.Fatalf("Collected %d exceeds Target %d", q.Collected, q.Target)
		}
		if q.Collected < prev {
			t.Fatalf("Collected decreased from %d to %d", prev, q.Collected)
		}
		prev = q.Collected
	}
}

func TestController_NoBoxEverEstablished(t *testing.T) {
	c := NewController(Config{Cadence: 1, Target: 5})

	if _, ok := c.Decide(0, tracker.Lost); ok {
		t.Error("Decide() should not extract before any box is known")
	}

	// A tracked frame establishes the box
	box := tracker.BoundingBox{X: 3, Y: 4, Width: 20, Height: 20}
	got, ok := c.Decide(1, tracker.Tracked(box))
	if !ok || got != box {
		t.Errorf("Decide() = %v, %v; want %v, true", got, ok, box)
	}
}

func TestController_LostPolicy(t *testing.T) {
	moved := tracker.BoundingBox{X: 5, Y: 5, Width: 10, Height: 10}

	tests := []struct {
		name    string
		policy  LostPolicy
		wantOK  bool
		wantBox tracker.BoundingBox
	}{
		{
			name:    "last known crops at previous box",
			policy:  LostUseLastKnown,
			wantOK:  true,
			wantBox: moved,
		},
		{
			name:   "skip suppresses extraction",
			policy: LostSkip,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(Config{Cadence: 2, Target: 10, Lost: tt.policy})
			c.Seed(seedBox)

			// Frame 1 is off-cadence but still updates the last known box
			if _, ok := c.Decide(1, tracker.Tracked(moved)); ok {
				t.Fatal("frame 1 should not be sampled with cadence 2")
			}

			got, ok := c.Decide(2, tracker.Lost)
			if ok != tt.wantOK {
				t.Fatalf("Decide() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.wantBox {
				t.Errorf("Decide() box = %v, want %v", got, tt.wantBox)
			}
		})
	}
}

func TestController_LostDoesNotPauseCadence(t *testing.T) {
	c := NewController(Config{Cadence: 5, Target: 10, Lost: LostSkip})
	c.Seed(seedBox)

	if _, ok := c.Decide(0, tracker.Lost); ok {
		t.Fatal("lost frame 0 should be skipped")
	}
	for i := 1; i < 5; i++ {
		if _, ok := c.Decide(i, tracker.Tracked(seedBox)); ok {
			t.Fatalf("frame %d should be off-cadence", i)
		}
	}
	// The next candidate is frame 5, not frame 1
	if _, ok := c.Decide(5, tracker.Tracked(seedBox)); !ok {
		t.Error("frame 5 should be sampled")
	}
}

func TestController_SeedIgnoresEmpty(t *testing.T) {
	c := NewController(Config{Cadence: 1, Target: 1})
	c.Seed(tracker.BoundingBox{X: 10, Y: 10})

	if _, ok := c.LastKnown(); ok {
		t.Error("empty seed should not establish a box")
	}
}

func TestParseLostPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    LostPolicy
		wantErr bool
	}{
		{"", LostUseLastKnown, false},
		{"last-known", LostUseLastKnown, false},
		{"skip", LostSkip, false},
		{"pause", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLostPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLostPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLostPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
