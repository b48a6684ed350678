// Package config assembles the tracksampler settings from defaults, a TOML
// file, TRACKSAMPLER_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/tracksampler/internal/broker"
	"github.com/ayusman/tracksampler/internal/capture"
	"github.com/ayusman/tracksampler/internal/sampling"
	"github.com/ayusman/tracksampler/internal/session"
	"github.com/ayusman/tracksampler/internal/store"
	"github.com/ayusman/tracksampler/internal/tracker"
)

// Defaults that are not owned by a domain package.
const (
	DefaultBrokerHost = "broker"
	DefaultTopic      = "faces"
	DefaultClientID   = "detector"
	DefaultHTTPAddr   = ":8080"
	DefaultLogLevel   = "info"

	// AutoROI seeds the session from the largest cascade detection.
	AutoROI = "auto"
)

// Config holds CLI configuration for tracksampler.
type Config struct {
	BrokerHost string
	BrokerPort int
	KeepAlive  time.Duration
	Topic      string
	ClientID   string
	// ClientIDSuffix appends a random suffix so concurrent sessions do not
	// evict each other on the broker.
	ClientIDSuffix  bool
	ConnectTimeout  time.Duration
	ConnectAttempts int

	Camera int
	Width  int
	Height int
	FPS    int

	Tracker       string
	Cadence       int
	Target        int
	Countdown     int
	FramesPerTick int
	LostPolicy    string

	Headless bool
	// ROI is "x,y,w,h", AutoROI, or empty to draw the region in the window.
	ROI      string
	Cascade  string
	Journal  string
	HTTPAddr string
	Tray     bool
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BrokerHost:      DefaultBrokerHost,
		BrokerPort:      broker.DefaultPort,
		KeepAlive:       broker.DefaultKeepAlive,
		Topic:           DefaultTopic,
		ClientID:        DefaultClientID,
		ClientIDSuffix:  true,
		ConnectTimeout:  broker.DefaultConnectTimeout,
		ConnectAttempts: broker.DefaultConnectTries,
		Camera:          0,
		Width:           capture.DefaultWidth,
		Height:          capture.DefaultHeight,
		Tracker:         tracker.AlgorithmCSRT,
		Cadence:         sampling.DefaultCadence,
		Target:          sampling.DefaultTarget,
		Countdown:       session.DefaultCountdownTicks,
		FramesPerTick:   session.DefaultFramesPerTick,
		LostPolicy:      string(sampling.LostUseLastKnown),
		Journal:         store.MemoryPath,
		HTTPAddr:        DefaultHTTPAddr,
		LogLevel:        DefaultLogLevel,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BrokerHost == "" {
		return fmt.Errorf("broker-host is required")
	}
	if c.BrokerPort <= 0 || c.BrokerPort > 65535 {
		return fmt.Errorf("broker-port %d out of range", c.BrokerPort)
	}
	if c.KeepAlive <= 0 {
		return fmt.Errorf("keepalive must be positive")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect-timeout must be positive")
	}
	if c.ConnectAttempts <= 0 {
		return fmt.Errorf("connect-attempts must be positive")
	}
	if c.Camera < 0 {
		return fmt.Errorf("camera index must not be negative")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("resolution %dx%d is invalid", c.Width, c.Height)
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must not be negative")
	}

	switch c.Tracker {
	case tracker.AlgorithmCSRT, tracker.AlgorithmKCF, tracker.AlgorithmMIL:
	default:
		return fmt.Errorf("%w: %q", tracker.ErrUnknownAlgorithm, c.Tracker)
	}

	if c.Cadence <= 0 {
		return fmt.Errorf("cadence must be positive")
	}
	if c.Target <= 0 {
		return fmt.Errorf("target must be positive")
	}
	if c.Countdown < 0 {
		return fmt.Errorf("countdown must not be negative")
	}
	if c.FramesPerTick <= 0 {
		return fmt.Errorf("frames-per-tick must be positive")
	}
	if _, err := sampling.ParseLostPolicy(c.LostPolicy); err != nil {
		return err
	}
	if c.ROI == AutoROI && c.Cascade == "" {
		return fmt.Errorf("roi %q needs a cascade file", AutoROI)
	}

	return nil
}

// BrokerOptions returns the MQTT transport settings.
func (c Config) BrokerOptions() broker.Options {
	return broker.Options{
		Host:         c.BrokerHost,
		Port:         c.BrokerPort,
		ClientID:     c.ClientID,
		UniqueSuffix: c.ClientIDSuffix,
		KeepAlive:    c.KeepAlive,
	}
}

// BrokerConfig returns the startup-barrier settings.
func (c Config) BrokerConfig() broker.Config {
	cfg := broker.DefaultConfig()
	cfg.ConnectTimeout = c.ConnectTimeout
	cfg.MaxAttempts = c.ConnectAttempts
	return cfg
}

// CaptureConfig returns the camera settings.
func (c Config) CaptureConfig() capture.Config {
	return capture.Config{DeviceID: c.Camera, Width: c.Width, Height: c.Height, FPS: c.FPS}
}

// SamplingConfig returns the sampling settings. Validate must have passed.
func (c Config) SamplingConfig() sampling.Config {
	lost, _ := sampling.ParseLostPolicy(c.LostPolicy)
	return sampling.Config{Cadence: c.Cadence, Target: c.Target, Lost: lost}
}

// SessionConfig returns the countdown settings.
func (c Config) SessionConfig() session.Config {
	return session.Config{CountdownTicks: c.Countdown, FramesPerTick: c.FramesPerTick}
}

// configSetter applies values only when the corresponding flag was not set
// explicitly on the command line.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int from an optional value, allowing zero.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an environment value. Zero is accepted.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
