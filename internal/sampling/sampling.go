// Package sampling decides, frame by frame, when a crop of the tracked object
// should be extracted, and keeps the collected count against the target quota.
package sampling

import (
	"fmt"

	"github.com/ayusman/tracksampler/internal/tracker"
)

// Default sampling settings.
const (
	DefaultCadence = 5
	DefaultTarget  = 50
)

// LostPolicy controls what happens when a sampling frame reports a lost object.
type LostPolicy string

const (
	// LostUseLastKnown crops at the last successfully tracked box.
	LostUseLastKnown LostPolicy = "last-known"
	// LostSkip suppresses extraction on frames where tracking was lost.
	LostSkip LostPolicy = "skip"
)

// ParseLostPolicy validates a policy name.
func ParseLostPolicy(s string) (LostPolicy, error) {
	switch LostPolicy(s) {
	case LostUseLastKnown, "":
		return LostUseLastKnown, nil
	case LostSkip:
		return LostSkip, nil
	}
	return "", fmt.Errorf("unknown lost policy %q (want %q or %q)", s, LostUseLastKnown, LostSkip)
}

// Config holds the sampling parameters.
type Config struct {
	// Cadence is the frame-index modulus: frame i is a candidate when i%Cadence == 0.
	Cadence int
	// Target is the number of samples to collect.
	Target int
	// Lost selects how lost frames are handled.
	Lost LostPolicy
}

// DefaultConfig returns the sampling settings used by the capture tool.
func DefaultConfig() Config {
	return Config{
		Cadence: DefaultCadence,
		Target:  DefaultTarget,
		Lost:    LostUseLastKnown,
	}
}

// Quota is the collected count against the target.
type Quota struct {
	Collected int `json:"collected"`
	Target    int `json:"target"`
}

// Met reports whether the target has been reached.
func (q Quota) Met() bool {
	return q.Collected >= q.Target
}

func (q Quota) String() string {
	return fmt.Sprintf("%d/%d", q.Collected, q.Target)
}

// Controller owns the sampling decision and the quota. It is not safe for
// concurrent use; the capture loop is its only caller.
type Controller struct {
	cfg       Config
	collected int
	lastGood  tracker.BoundingBox
	haveGood  bool
}

// NewController creates a Controller. Non-positive cadence or target values
// fall back to the defaults.
func NewController(cfg Config) *Controller {
	if cfg.Cadence <= 0 {
		cfg.Cadence = DefaultCadence
	}
	if cfg.Target <= 0 {
		cfg.Target = DefaultTarget
	}
	if cfg.Lost == "" {
		cfg.Lost = LostUseLastKnown
	}
	return &Controller{cfg: cfg}
}

// Seed records the initial region chosen by the user as the first known-good box.
func (c *Controller) Seed(box tracker.BoundingBox) {
	if box.Empty() {
		return
	}
	c.lastGood = box
	c.haveGood = true
}

// Decide reports whether frame i should be sampled and, if so, the box to crop.
// It always records a tracked result as the new last-known-good box, even on
// frames that are not sampled.
func (c *Controller) Decide(i int, res tracker.Result) (tracker.BoundingBox, bool) {
	if res.OK && !res.Box.Empty() {
		c.lastGood = res.Box
		c.haveGood = true
	}

	if i%c.cfg.Cadence != 0 || c.collected >= c.cfg.Target {
		return tracker.BoundingBox{}, false
	}
	if !res.OK && c.cfg.Lost == LostSkip {
		return tracker.BoundingBox{}, false
	}
	if !c.haveGood {
		return tracker.BoundingBox{}, false
	}
	return c.lastGood, true
}

// Record counts one extracted sample. The count never exceeds the target.
func (c *Controller) Record() {
	if c.collected < c.cfg.Target {
		c.collected++
	}
}

// Quota returns the current collected/target counts.
func (c *Controller) Quota() Quota {
	return Quota{Collected: c.collected, Target: c.cfg.Target}
}

// LastKnown returns the last known-good box and whether one exists.
func (c *Controller) LastKnown() (tracker.BoundingBox, bool) {
	return c.lastGood, c.haveGood
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}
