package config

import "os"

// ApplyEnvConfig applies configuration from environment variables (TRACKSAMPLER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("broker-host", os.Getenv("TRACKSAMPLER_BROKER_HOST"), &cfg.BrokerHost)
	s.setString("topic", os.Getenv("TRACKSAMPLER_TOPIC"), &cfg.Topic)
	s.setString("client-id", os.Getenv("TRACKSAMPLER_CLIENT_ID"), &cfg.ClientID)
	s.setString("tracker", os.Getenv("TRACKSAMPLER_TRACKER"), &cfg.Tracker)
	s.setString("lost-policy", os.Getenv("TRACKSAMPLER_LOST_POLICY"), &cfg.LostPolicy)
	s.setString("roi", os.Getenv("TRACKSAMPLER_ROI"), &cfg.ROI)
	s.setString("cascade", os.Getenv("TRACKSAMPLER_CASCADE"), &cfg.Cascade)
	s.setString("journal", os.Getenv("TRACKSAMPLER_JOURNAL"), &cfg.Journal)
	s.setString("http-addr", os.Getenv("TRACKSAMPLER_HTTP_ADDR"), &cfg.HTTPAddr)
	s.setString("log-level", os.Getenv("TRACKSAMPLER_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("keepalive", os.Getenv("TRACKSAMPLER_KEEPALIVE"), &cfg.KeepAlive); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", os.Getenv("TRACKSAMPLER_CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}

	ints := []struct {
		flag string
		env  string
		dst  *int
	}{
		{"broker-port", "TRACKSAMPLER_BROKER_PORT", &cfg.BrokerPort},
		{"connect-attempts", "TRACKSAMPLER_CONNECT_ATTEMPTS", &cfg.ConnectAttempts},
		{"camera", "TRACKSAMPLER_CAMERA", &cfg.Camera},
		{"width", "TRACKSAMPLER_WIDTH", &cfg.Width},
		{"height", "TRACKSAMPLER_HEIGHT", &cfg.Height},
		{"fps", "TRACKSAMPLER_FPS", &cfg.FPS},
		{"cadence", "TRACKSAMPLER_CADENCE", &cfg.Cadence},
		{"target", "TRACKSAMPLER_TARGET", &cfg.Target},
		{"countdown", "TRACKSAMPLER_COUNTDOWN", &cfg.Countdown},
		{"frames-per-tick", "TRACKSAMPLER_FRAMES_PER_TICK", &cfg.FramesPerTick},
	}
	for _, v := range ints {
		if err := s.setIntFromString(v.flag, os.Getenv(v.env), v.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("client-id-suffix", os.Getenv("TRACKSAMPLER_CLIENT_ID_SUFFIX"), &cfg.ClientIDSuffix)
	s.setBoolFromString("headless", os.Getenv("TRACKSAMPLER_HEADLESS"), &cfg.Headless)
	s.setBoolFromString("tray", os.Getenv("TRACKSAMPLER_TRAY"), &cfg.Tray)

	return nil
}
