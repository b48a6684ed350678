package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ayusman/tracksampler/internal/app"
	"github.com/ayusman/tracksampler/internal/broker"
	"github.com/ayusman/tracksampler/internal/capture"
	"github.com/ayusman/tracksampler/internal/config"
	"github.com/ayusman/tracksampler/internal/detector"
	"github.com/ayusman/tracksampler/internal/display"
	"github.com/ayusman/tracksampler/internal/logging"
	"github.com/ayusman/tracksampler/internal/server"
	"github.com/ayusman/tracksampler/internal/store"
	"github.com/ayusman/tracksampler/internal/tracker"
	"github.com/ayusman/tracksampler/internal/tray"
)

const windowTitle = "Tracking"

// frontEnd selects the display and region selector. The tray owns the main
// thread, so tray mode never opens a video window. release frees the selector.
func frontEnd(cfg config.Config) (disp display.Display, sel display.ROISelector, release func(), err error) {
	headless := cfg.Headless || cfg.Tray
	release = func() {}

	switch cfg.ROI {
	case "":
		if headless {
			return nil, nil, release, errors.New("--roi is required without a video window")
		}
		w := display.NewWindow(windowTitle)
		return w, w, release, nil

	case config.AutoROI:
		dcfg := detector.DefaultConfig()
		dcfg.CascadePath = cfg.Cascade
		d, err := detector.NewCascadeDetector(dcfg)
		if err != nil {
			return nil, nil, release, err
		}
		s := detector.NewSelector(d)
		sel = s
		release = func() { s.Close() }

	default:
		box, err := display.ParseROI(cfg.ROI)
		if err != nil {
			return nil, nil, release, err
		}
		sel = display.FixedROI(box)
	}

	if headless {
		return display.Headless{}, sel, release, nil
	}
	return display.NewWindow(windowTitle), sel, release, nil
}

func run(parent context.Context, cfg config.Config, log zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	disp, selector, release, err := frontEnd(cfg)
	if err != nil {
		return err
	}
	defer release()

	tr, err := tracker.New(cfg.Tracker)
	if err != nil {
		disp.Close()
		return err
	}

	st, err := store.New(cfg.Journal)
	if err != nil {
		disp.Close()
		tr.Close()
		return fmt.Errorf("open journal: %w", err)
	}
	defer st.Close()

	transport := broker.NewMQTTTransport(cfg.BrokerOptions(), logging.Component(log, "mqtt"))
	mgr := broker.NewConnectionManager(transport, cfg.BrokerConfig(), logging.Component(log, "broker"))

	a, err := app.New(app.Config{
		Topic:    cfg.Topic,
		Sampling: cfg.SamplingConfig(),
		Session:  cfg.SessionConfig(),
		Store:    st,
	}, app.Deps{
		Camera:   capture.NewCamera(cfg.CaptureConfig()),
		Tracker:  tr,
		Broker:   mgr,
		Display:  disp,
		Selector: selector,
	}, logging.Component(log, "app"))
	if err != nil {
		disp.Close()
		tr.Close()
		return err
	}

	if cfg.HTTPAddr != "" {
		hub := server.NewStatusHub(a, logging.Component(log, "ws"))
		a.OnStatus(hub.Broadcast)
		srv := server.New(server.Config{
			Store:  st,
			Status: a,
			Hub:    hub,
			Log:    logging.Component(log, "http"),
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				log.Error().Err(err).Msg("status server")
			}
		}()
	}

	if !cfg.Tray {
		return a.Run(ctx)
	}

	t := tray.New()
	t.OnQuit(a.Quit)
	a.OnStatus(t.SetStatus)
	t.SetStatus(a.Status())

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		t.Close()
	}()
	t.Run()

	// Quit from the tray returns before the loop has wound down
	a.Quit()
	return <-errCh
}
