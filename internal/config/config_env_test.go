package config

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies env vars",
			envVars: map[string]string{
				"TRACKSAMPLER_BROKER_HOST":     "env-broker",
				"TRACKSAMPLER_BROKER_PORT":     "1999",
				"TRACKSAMPLER_CONNECT_TIMEOUT": "5s",
				"TRACKSAMPLER_TARGET":          "10",
				"TRACKSAMPLER_TRAY":            "1",
			},
			changed: map[string]bool{},
			expected: Config{
				BrokerHost:     "env-broker",
				BrokerPort:     1999,
				ConnectTimeout: 5 * time.Second,
				Target:         10,
				Tray:           true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"TRACKSAMPLER_TOPIC":   "env-topic",
				"TRACKSAMPLER_CADENCE": "3",
			},
			changed:  map[string]bool{"topic": true},
			initial:  Config{Topic: "flag-topic"},
			expected: Config{Topic: "flag-topic", Cadence: 3},
		},
		{
			name:     "zero countdown from env",
			envVars:  map[string]string{"TRACKSAMPLER_COUNTDOWN": "0"},
			changed:  map[string]bool{},
			initial:  Config{Countdown: 5},
			expected: Config{Countdown: 0},
		},
		{
			name:     "bool false",
			envVars:  map[string]string{"TRACKSAMPLER_HEADLESS": "false"},
			changed:  map[string]bool{},
			initial:  Config{Headless: true},
			expected: Config{Headless: false},
		},
		{
			name: "fps and client id suffix",
			envVars: map[string]string{
				"TRACKSAMPLER_FPS":              "24",
				"TRACKSAMPLER_CLIENT_ID_SUFFIX": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{ClientIDSuffix: true},
			expected: Config{FPS: 24},
		},
		{
			name:    "invalid int",
			envVars: map[string]string{"TRACKSAMPLER_TARGET": "many"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid duration",
			envVars: map[string]string{"TRACKSAMPLER_KEEPALIVE": "forever"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
