package display

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/tracksampler/internal/sampling"
	"github.com/ayusman/tracksampler/internal/session"
	"github.com/ayusman/tracksampler/internal/tracker"
	"gocv.io/x/gocv"
)

func TestParseROI(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    tracker.BoundingBox
		wantErr bool
	}{
		{name: "plain", in: "10,20,30,40", want: tracker.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}},
		{name: "spaces", in: " 1, 2 ,3, 4", want: tracker.BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}},
		{name: "too few fields", in: "1,2,3", wantErr: true},
		{name: "not a number", in: "a,2,3,4", wantErr: true},
		{name: "zero width", in: "1,2,0,4", wantErr: true},
		{name: "negative origin", in: "-1,2,3,4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseROI(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseROI(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseROI(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFixedROI_NoFrame(t *testing.T) {
	box := tracker.BoundingBox{X: 5, Y: 5, Width: 20, Height: 20}

	got, err := FixedROI(box).SelectROI(nil)
	if err != nil {
		t.Fatalf("SelectROI() error = %v", err)
	}
	if got != box {
		t.Errorf("SelectROI() = %v, want %v", got, box)
	}
}

func TestFixedROI_Empty(t *testing.T) {
	if _, err := (FixedROI{}).SelectROI(nil); !errors.Is(err, ErrROICancelled) {
		t.Errorf("SelectROI() error = %v, want ErrROICancelled", err)
	}
}

func TestFixedROI_ClipsToFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	got, err := FixedROI(tracker.BoundingBox{X: 90, Y: 90, Width: 50, Height: 50}).SelectROI(&frame)
	if err != nil {
		t.Fatalf("SelectROI() error = %v", err)
	}
	want := tracker.BoundingBox{X: 90, Y: 90, Width: 10, Height: 10}
	if got != want {
		t.Errorf("SelectROI() = %v, want %v", got, want)
	}
}

func TestHeadless_NeverQuits(t *testing.T) {
	var d Display = Headless{}
	if d.Show(nil, Overlay{}) {
		t.Error("Headless.Show() should never request quit")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDraw_MarksTrackedBox(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	box := tracker.BoundingBox{X: 200, Y: 200, Width: 100, Height: 100}
	Draw(&frame, Overlay{
		Result:  tracker.Tracked(box),
		Quota:   sampling.Quota{Collected: 3, Target: 50},
		Session: session.State{Phase: session.EndingCountdown, TicksRemaining: 4},
	}, 30)

	// Blue channel on the top edge of the rectangle (BGR layout)
	if v := frame.GetVecbAt(200, 250)[0]; v != 255 {
		t.Errorf("box edge blue channel = %d, want 255", v)
	}
	// Interior is untouched
	if v := frame.GetVecbAt(250, 250)[0]; v != 0 {
		t.Errorf("box interior blue channel = %d, want 0", v)
	}
}

func TestWindow_FPS(t *testing.T) {
	base := time.Unix(0, 0)
	ticks := []time.Time{base, base.Add(100 * time.Millisecond), base.Add(150 * time.Millisecond)}
	i := 0
	w := &Window{now: func() time.Time {
		t := ticks[i]
		i++
		return t
	}}

	if got := w.fps(); got != 0 {
		t.Errorf("first fps() = %d, want 0", got)
	}
	if got := w.fps(); got != 10 {
		t.Errorf("second fps() = %d, want 10", got)
	}
	if got := w.fps(); got != 20 {
		t.Errorf("third fps() = %d, want 20", got)
	}
}
