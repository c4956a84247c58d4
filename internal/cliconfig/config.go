package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/log"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/pkg/transport"
)

// MaxTeamNumber keeps the derived port inside the team port range.
const MaxTeamNumber = 255

// Config holds CLI configuration for bifrost.
type Config struct {
	TeamNumber   int
	PlayerNumber int

	// Port defaults to the team's broadcast port.
	Port       int
	ListenAddr string
	Broadcast  string
	MTU        int
	IgnoreSelf bool

	CycleInterval     time.Duration
	LateThreshold     time.Duration
	AutomaticDeadline time.Duration
	EarlyThreshold    time.Duration

	LogLevel string

	PingInterval time.Duration
	PingCount    int

	ConfigPath string
}

// DefaultConfig returns a Config with default values. TeamNumber has no
// default and must be set.
func DefaultConfig() Config {
	rate := broadcast.DefaultRate()
	return Config{
		PlayerNumber:      1,
		MTU:               transport.DefaultMTU,
		IgnoreSelf:        true,
		CycleInterval:     100 * time.Millisecond,
		LateThreshold:     rate.LateThreshold,
		AutomaticDeadline: rate.AutomaticDeadline,
		EarlyThreshold:    rate.EarlyThreshold,
		LogLevel:          "info",
		PingInterval:      time.Second,
		PingCount:         3,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.TeamNumber <= 0 || c.TeamNumber > MaxTeamNumber {
		return fmt.Errorf("team number must be in [1, %d], got %d", MaxTeamNumber, c.TeamNumber)
	}
	if c.PlayerNumber <= 0 {
		return fmt.Errorf("player number must be positive")
	}

	if c.Port == 0 {
		c.Port = transport.TeamPort(c.TeamNumber)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.MTU <= 0 {
		return fmt.Errorf("mtu must be positive")
	}

	if c.CycleInterval <= 0 {
		return fmt.Errorf("cycle interval must be positive")
	}
	if err := c.Rate().Validate(); err != nil {
		return err
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("ping interval must be positive")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Rate returns the outbound rate described by the thresholds.
func (c Config) Rate() broadcast.Rate {
	return broadcast.Rate{
		LateThreshold:     c.LateThreshold,
		AutomaticDeadline: c.AutomaticDeadline,
		EarlyThreshold:    c.EarlyThreshold,
	}
}

// UDP returns the transport settings.
func (c Config) UDP() transport.UDPConfig {
	return transport.UDPConfig{
		ListenAddr: c.ListenAddr,
		Port:       c.Port,
		Broadcast:  c.Broadcast,
		MTU:        c.MTU,
		IgnoreSelf: c.IgnoreSelf,
	}
}

// Node returns the node settings.
func (c Config) Node() node.Config {
	cfg := node.DefaultConfig()
	cfg.CycleInterval = c.CycleInterval
	cfg.Rate = c.Rate()
	cfg.ConfigPath = c.ConfigPath
	return cfg
}

// configSetter applies configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
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

// setDuration parses a duration. Zero is a valid threshold, so only the
// empty string leaves dst alone.
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

// setIntFromString is setInt for environment variables.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
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
