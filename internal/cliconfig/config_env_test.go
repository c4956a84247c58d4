package cliconfig

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
			name: "applies all valid env vars",
			envVars: map[string]string{
				EnvTeam:              "12",
				EnvPlayer:            "4",
				EnvPort:              "11000",
				EnvListen:            "10.0.0.4",
				EnvBroadcast:         "10.0.0.255",
				EnvMTU:               "512",
				EnvIgnoreSelf:        "1",
				EnvCycleInterval:     "20ms",
				EnvLateThreshold:     "3s",
				EnvAutomaticDeadline: "6s",
				EnvEarlyThreshold:    "0s",
				EnvLogLevel:          "debug",
			},
			changed: map[string]bool{},
			initial: Config{EarlyThreshold: time.Second},
			expected: Config{
				TeamNumber:        12,
				PlayerNumber:      4,
				Port:              11000,
				ListenAddr:        "10.0.0.4",
				Broadcast:         "10.0.0.255",
				MTU:               512,
				IgnoreSelf:        true,
				CycleInterval:     20 * time.Millisecond,
				LateThreshold:     3 * time.Second,
				AutomaticDeadline: 6 * time.Second,
				LogLevel:          "debug",
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				EnvTeam:   "12",
				EnvPlayer: "4",
			},
			changed:  map[string]bool{"team": true},
			initial:  Config{TeamNumber: 5},
			expected: Config{TeamNumber: 5, PlayerNumber: 4},
		},
		{
			name:     "false ignore self",
			envVars:  map[string]string{EnvIgnoreSelf: "no"},
			changed:  map[string]bool{},
			initial:  Config{IgnoreSelf: true},
			expected: Config{},
		},
		{
			name:     "returns error for invalid duration",
			envVars:  map[string]string{EnvLateThreshold: "soon"},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name:     "returns error for invalid int",
			envVars:  map[string]string{EnvTeam: "blue"},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name:     "ignores non-positive ints",
			envVars:  map[string]string{EnvMTU: "-1"},
			changed:  map[string]bool{},
			initial:  Config{MTU: 1024},
			expected: Config{MTU: 1024},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
