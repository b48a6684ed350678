package display

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/ayusman/tracksampler/internal/session"
	"github.com/ayusman/tracksampler/internal/tracker"
	"gocv.io/x/gocv"
)

// HUD colors.
var (
	colorBlue  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	colorRed   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	colorGreen = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// quitKey ends the session from the video window.
const quitKey = 'q'

// Window is an OpenCV HighGUI window. It must be used from the goroutine that
// created it.
type Window struct {
	win  *gocv.Window
	prev time.Time
	now  func() time.Time
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title), now: time.Now}
}

// SelectROI shows the frame and lets the user drag the initial box.
// Confirm with space or enter; cancel with c.
func (w *Window) SelectROI(frame *gocv.Mat) (tracker.BoundingBox, error) {
	prompt := frame.Clone()
	defer prompt.Close()
	putText(&prompt, "Please draw a bounding box", image.Pt(50, 50), 1, colorBlue, 2)

	box := tracker.FromRect(w.win.SelectROI(prompt))
	if box.Empty() {
		return tracker.BoundingBox{}, ErrROICancelled
	}
	return box, nil
}

// Show draws the overlay, displays the frame and polls the keyboard once.
func (w *Window) Show(frame *gocv.Mat, o Overlay) bool {
	Draw(frame, o, w.fps())
	w.win.IMShow(*frame)
	return w.win.WaitKey(1)&0xFF == quitKey
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

func (w *Window) fps() int {
	now := w.now()
	defer func() { w.prev = now }()
	if w.prev.IsZero() {
		return 0
	}
	dt := now.Sub(w.prev)
	if dt <= 0 {
		return 0
	}
	return int(time.Second / dt)
}

// Draw renders the tracking box and status lines onto frame.
func Draw(frame *gocv.Mat, o Overlay, fps int) {
	if o.Result.OK {
		gocv.Rectangle(frame, o.Result.Box.Rect(), colorBlue, 2)
	} else {
		putText(frame, "lost", image.Pt(100, 145), 1, colorRed, 2)
	}

	putText(frame, "Capturing training samples...", image.Pt(30, 20), 0.5, colorRed, 1)
	putText(frame, fmt.Sprintf("Camera feed @ ~%d fps", fps), image.Pt(30, 40), 0.5, colorRed, 1)
	putText(frame, fmt.Sprintf("Collection Status: %s", o.Quota), image.Pt(30, 60), 0.5, colorGreen, 1)

	if o.Session.Phase == session.EndingCountdown {
		putText(frame, fmt.Sprintf("Session ending in %d", o.Session.TicksRemaining), image.Pt(30, 80), 0.5, colorRed, 1)
	}
}

func putText(frame *gocv.Mat, text string, org image.Point, scale float64, c color.RGBA, thickness int) {
	gocv.PutTextWithParams(frame, text, org, gocv.FontHersheySimplex, scale, c, thickness, gocv.LineAA, false)
}
