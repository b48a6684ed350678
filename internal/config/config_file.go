package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	BrokerHost      string `toml:"broker_host"`
	BrokerPort      int    `toml:"broker_port"`
	KeepAlive       string `toml:"keepalive"`
	Topic           string `toml:"topic"`
	ClientID        string `toml:"client_id"`
	ClientIDSuffix  *bool  `toml:"client_id_suffix"`
	ConnectTimeout  string `toml:"connect_timeout"`
	ConnectAttempts int    `toml:"connect_attempts"`
	Camera          *int   `toml:"camera"`
	Width           int    `toml:"width"`
	Height          int    `toml:"height"`
	FPS             *int   `toml:"fps"`
	Tracker         string `toml:"tracker"`
	Cadence         int    `toml:"cadence"`
	Target          int    `toml:"target"`
	Countdown       *int   `toml:"countdown"`
	FramesPerTick   int    `toml:"frames_per_tick"`
	LostPolicy      string `toml:"lost_policy"`
	Headless        *bool  `toml:"headless"`
	ROI             string `toml:"roi"`
	Cascade         string `toml:"cascade"`
	Journal         string `toml:"journal"`
	HTTPAddr        string `toml:"http_addr"`
	Tray            *bool  `toml:"tray"`
	LogLevel        string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.tracksampler/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".tracksampler", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("broker-host", fc.BrokerHost, &cfg.BrokerHost)
	s.setString("topic", fc.Topic, &cfg.Topic)
	s.setString("client-id", fc.ClientID, &cfg.ClientID)
	s.setString("tracker", fc.Tracker, &cfg.Tracker)
	s.setString("lost-policy", fc.LostPolicy, &cfg.LostPolicy)
	s.setString("roi", fc.ROI, &cfg.ROI)
	s.setString("cascade", fc.Cascade, &cfg.Cascade)
	s.setString("journal", fc.Journal, &cfg.Journal)
	s.setString("http-addr", fc.HTTPAddr, &cfg.HTTPAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("keepalive", fc.KeepAlive, &cfg.KeepAlive); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}

	s.setInt("broker-port", fc.BrokerPort, &cfg.BrokerPort)
	s.setInt("connect-attempts", fc.ConnectAttempts, &cfg.ConnectAttempts)
	s.setInt("width", fc.Width, &cfg.Width)
	s.setInt("height", fc.Height, &cfg.Height)
	s.setInt("cadence", fc.Cadence, &cfg.Cadence)
	s.setInt("target", fc.Target, &cfg.Target)
	s.setInt("frames-per-tick", fc.FramesPerTick, &cfg.FramesPerTick)
	s.setIntPtr("camera", fc.Camera, &cfg.Camera)
	s.setIntPtr("fps", fc.FPS, &cfg.FPS)
	s.setIntPtr("countdown", fc.Countdown, &cfg.Countdown)

	s.setBool("client-id-suffix", fc.ClientIDSuffix, &cfg.ClientIDSuffix)
	s.setBool("headless", fc.Headless, &cfg.Headless)
	s.setBool("tray", fc.Tray, &cfg.Tray)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
