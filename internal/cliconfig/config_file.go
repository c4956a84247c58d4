package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/bifrost/pkg/broadcast"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	TeamNumber        int    `toml:"team_number"`
	PlayerNumber      int    `toml:"player_number"`
	Port              int    `toml:"port"`
	ListenAddr        string `toml:"listen"`
	Broadcast         string `toml:"broadcast"`
	MTU               int    `toml:"mtu"`
	IgnoreSelf        *bool  `toml:"ignore_self"`
	CycleInterval     string `toml:"cycle_interval"`
	LateThreshold     string `toml:"late_threshold"`
	AutomaticDeadline string `toml:"automatic_deadline"`
	EarlyThreshold    string `toml:"early_threshold"`
	LogLevel          string `toml:"log_level"`
	PingInterval      string `toml:"ping_interval"`
	PingCount         int    `toml:"ping_count"`
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

// DefaultConfigPath returns ~/.bifrost/config.toml, or "" if the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".bifrost", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setInt("team", fc.TeamNumber, &cfg.TeamNumber)
	s.setInt("player", fc.PlayerNumber, &cfg.PlayerNumber)
	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("mtu", fc.MTU, &cfg.MTU)
	s.setInt("count", fc.PingCount, &cfg.PingCount)

	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("broadcast", fc.Broadcast, &cfg.Broadcast)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setBool("ignore-self", fc.IgnoreSelf, &cfg.IgnoreSelf)

	if err := s.setDuration("cycle", fc.CycleInterval, &cfg.CycleInterval); err != nil {
		return err
	}
	if err := s.setDuration("interval", fc.PingInterval, &cfg.PingInterval); err != nil {
		return err
	}

	rate, err := fc.ApplyRate(cfg.Rate(), changed)
	if err != nil {
		return err
	}
	cfg.LateThreshold = rate.LateThreshold
	cfg.AutomaticDeadline = rate.AutomaticDeadline
	cfg.EarlyThreshold = rate.EarlyThreshold
	return nil
}

// ApplyRate overlays the thresholds set in the file on r. It is shared by
// startup and hot reload, which passes no changed flags.
func (fc FileConfig) ApplyRate(r broadcast.Rate, changed map[string]bool) (broadcast.Rate, error) {
	s := newConfigSetter(changed)

	if err := s.setDuration("late-threshold", fc.LateThreshold, &r.LateThreshold); err != nil {
		return r, err
	}
	if err := s.setDuration("automatic-deadline", fc.AutomaticDeadline, &r.AutomaticDeadline); err != nil {
		return r, err
	}
	if err := s.setDuration("early-threshold", fc.EarlyThreshold, &r.EarlyThreshold); err != nil {
		return r, err
	}
	return r, r.Validate()
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
