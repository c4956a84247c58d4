package cliconfig

import "os"

// Environment variables read by ApplyEnvConfig.
const (
	EnvTeam              = "BIFROST_TEAM"
	EnvPlayer            = "BIFROST_PLAYER"
	EnvPort              = "BIFROST_PORT"
	EnvListen            = "BIFROST_LISTEN"
	EnvBroadcast         = "BIFROST_BROADCAST"
	EnvMTU               = "BIFROST_MTU"
	EnvIgnoreSelf        = "BIFROST_IGNORE_SELF"
	EnvCycleInterval     = "BIFROST_CYCLE_INTERVAL"
	EnvLateThreshold     = "BIFROST_LATE_THRESHOLD"
	EnvAutomaticDeadline = "BIFROST_AUTOMATIC_DEADLINE"
	EnvEarlyThreshold    = "BIFROST_EARLY_THRESHOLD"
	EnvLogLevel          = "BIFROST_LOG_LEVEL"
)

// ApplyEnvConfig applies BIFROST_* environment variables to cfg, skipping
// settings whose flag was set explicitly.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString("team", os.Getenv(EnvTeam), &cfg.TeamNumber); err != nil {
		return err
	}
	if err := s.setIntFromString("player", os.Getenv(EnvPlayer), &cfg.PlayerNumber); err != nil {
		return err
	}
	if err := s.setIntFromString("port", os.Getenv(EnvPort), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("mtu", os.Getenv(EnvMTU), &cfg.MTU); err != nil {
		return err
	}

	s.setString("listen", os.Getenv(EnvListen), &cfg.ListenAddr)
	s.setString("broadcast", os.Getenv(EnvBroadcast), &cfg.Broadcast)
	s.setString("log-level", os.Getenv(EnvLogLevel), &cfg.LogLevel)
	s.setBoolFromString("ignore-self", os.Getenv(EnvIgnoreSelf), &cfg.IgnoreSelf)

	if err := s.setDuration("cycle", os.Getenv(EnvCycleInterval), &cfg.CycleInterval); err != nil {
		return err
	}
	if err := s.setDuration("late-threshold", os.Getenv(EnvLateThreshold), &cfg.LateThreshold); err != nil {
		return err
	}
	if err := s.setDuration("automatic-deadline", os.Getenv(EnvAutomaticDeadline), &cfg.AutomaticDeadline); err != nil {
		return err
	}
	return s.setDuration("early-threshold", os.Getenv(EnvEarlyThreshold), &cfg.EarlyThreshold)
}
