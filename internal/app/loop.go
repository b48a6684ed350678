package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/tracksampler/internal/display"
	"github.com/ayusman/tracksampler/internal/session"
	"github.com/ayusman/tracksampler/internal/store"
	"github.com/ayusman/tracksampler/internal/tracker"
	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Run connects to the broker, seeds the tracker from the selected region and
// processes frames until the session terminates, Quit is called or ctx is
// cancelled. Broker, camera and region-selection failures are returned;
// a normal termination returns nil.
//
// Loop order per frame:
//  1. read a frame (failure is fatal)
//  2. update the tracker
//  3. on a sampling frame with a usable box, encode, count and publish
//  4. step the session state machine
//  5. show the frame; a quit key ends the session
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	if err := a.broker.Connect(); err != nil {
		return err
	}
	a.refreshBroker()
	if err := a.broker.WaitConnected(ctx); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	a.refreshBroker()

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}

	if err := a.seed(); err != nil {
		return err
	}

	a.beginJournal()
	a.setStatus(a.snapshot(0, tracker.Lost))

	for i := 0; ; i++ {
		if ctx.Err() != nil || a.quit.Load() {
			a.log.Info().Int("frame", i).Msg("quit requested")
			a.machine.Quit()
			break
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		done := a.step(i, frame)
		frame.Close()
		if done {
			break
		}
	}

	st := a.machine.State()
	a.log.Info().
		Str("reason", string(st.Reason)).
		Str("collected", a.controller.Quota().String()).
		Msg("session terminated")
	return nil
}

// seed reads the first frame, asks for the region to follow and initialises
// the tracker with it.
func (a *App) seed() error {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return fmt.Errorf("first frame: %w", err)
	}
	defer frame.Close()

	box, err := a.selector.SelectROI(frame)
	if err != nil {
		return fmt.Errorf("select region: %w", err)
	}
	if err := a.tracker.Init(frame, box); err != nil {
		return fmt.Errorf("tracker init: %w", err)
	}
	a.controller.Seed(box)

	a.log.Info().Str("box", box.String()).Msg("tracking region selected")
	return nil
}

// step processes frame i and reports whether the loop should stop.
func (a *App) step(i int, frame *gocv.Mat) bool {
	res := a.tracker.Update(frame)
	if !res.OK {
		a.log.Debug().Int("frame", i).Msg("tracking lost")
	}

	if box, ok := a.controller.Decide(i, res); ok {
		a.sample(i, frame, box)
	}

	st := a.machine.Step(a.controller.Quota())
	a.setStatus(a.snapshot(i, res))
	if st.Phase == session.Terminated {
		return true
	}

	overlay := display.Overlay{Result: res, Quota: a.controller.Quota(), Session: st}
	if a.display.Show(frame, overlay) {
		a.log.Info().Int("frame", i).Msg("quit key pressed")
		a.machine.Quit()
		return true
	}
	return false
}

// sample encodes the crop at box and publishes it. Nothing is built while the
// broker session is down; the count is taken once the payload exists and is
// kept even if the publish call fails.
func (a *App) sample(i int, frame *gocv.Mat, box tracker.BoundingBox) {
	if !a.broker.Connected() {
		a.log.Warn().Int("frame", i).Msg("broker not connected, sample dropped")
		return
	}

	payload, err := a.publisher.Encode(frame, box)
	if err != nil {
		a.log.Error().Err(err).Int("frame", i).Str("box", box.String()).Msg("encode sample")
		return
	}
	a.controller.Record()

	rec := store.Sample{
		FrameIndex: i,
		X:          box.X,
		Y:          box.Y,
		Width:      box.Width,
		Height:     box.Height,
		SizeBytes:  len(payload),
		Published:  true,
	}
	if err := a.publisher.Publish(payload); err != nil {
		a.log.Error().Err(err).Int("frame", i).Msg("publish sample")
		rec.Published = false
		rec.Error = err.Error()
	} else {
		a.log.Debug().
			Int("frame", i).
			Int("bytes", len(payload)).
			Str("collected", a.controller.Quota().String()).
			Msg("sample published")
	}
	a.journalSample(rec)
}

func (a *App) snapshot(i int, res tracker.Result) Status {
	q := a.controller.Quota()
	st := a.machine.State()

	a.mu.RLock()
	id := a.status.SessionID
	a.mu.RUnlock()

	s := Status{
		SessionID:      id,
		Running:        st.Phase != session.Terminated,
		Broker:         a.broker.State(),
		Phase:          st.Phase,
		TicksRemaining: st.TicksRemaining,
		Reason:         st.Reason,
		Collected:      q.Collected,
		Target:         q.Target,
		Frame:          i,
		Tracking:       res.OK,
	}
	if res.OK {
		box := res.Box
		s.Box = &box
	}
	return s
}

// refreshBroker publishes the current broker state outside the frame loop.
func (a *App) refreshBroker() {
	s := a.Status()
	s.Broker = a.broker.State()
	a.setStatus(s)
}

// shutdown releases every collaborator. It runs on all exit paths of Run.
func (a *App) shutdown() {
	if !a.machine.Done() {
		a.machine.Quit()
	}

	a.broker.Disconnect()
	if err := a.camera.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close camera")
	}
	if err := a.tracker.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close tracker")
	}
	if err := a.display.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close display")
	}

	a.finishJournal()

	s := a.Status()
	s.Running = false
	s.Broker = a.broker.State()
	st := a.machine.State()
	s.Phase, s.TicksRemaining, s.Reason = st.Phase, st.TicksRemaining, st.Reason
	a.setStatus(s)
}

func (a *App) beginJournal() {
	id := uuid.New().String()
	a.mu.Lock()
	a.status.SessionID = id
	a.mu.Unlock()

	if a.config.Store == nil {
		return
	}
	cfg := a.controller.Config()
	err := a.config.Store.Sessions().Create(&store.Session{
		ID:      id,
		Topic:   a.publisher.Topic(),
		Target:  cfg.Target,
		Cadence: cfg.Cadence,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("journal session")
	}
}

func (a *App) journalSample(rec store.Sample) {
	if a.config.Store == nil {
		return
	}
	rec.SessionID = a.Status().SessionID
	if err := a.config.Store.Samples().Record(&rec); err != nil {
		a.log.Warn().Err(err).Int("frame", rec.FrameIndex).Msg("journal sample")
	}
}

func (a *App) finishJournal() {
	id := a.Status().SessionID
	if a.config.Store == nil || id == "" {
		return
	}
	st := a.machine.State()
	err := a.config.Store.Sessions().Finish(id, a.controller.Quota().Collected, string(st.Reason))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Warn().Err(err).Msg("journal session end")
	}
}
