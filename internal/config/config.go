package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/mediaservers"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

const (
	// AppName is used for the XDG config directory and the environment variable prefix.
	AppName = "mediaservers"

	DefaultTimeout  = 8 * time.Second
	DefaultCacheTTL = 5 * time.Minute
	DefaultListen   = ":8080"
	DefaultLogLevel = "warn"
)

// Config holds everything the mediaservers command can be configured with. It is
// filled from the config file first and then overridden by flags.
type Config struct {
	// Relays are queried for every pubkey, in addition to any relay given per request.
	Relays []string `yaml:"relays"`

	// Timeout bounds a whole resolution, including connecting to relays.
	Timeout time.Duration `yaml:"timeout"`

	// AssumeValid skips signature verification of the received events.
	AssumeValid bool `yaml:"assume_valid"`

	// PenaltyBox stops retrying relays that recently failed to connect.
	PenaltyBox bool `yaml:"penalty_box"`

	// CacheTTL is how long a resolved directory is reused by the HTTP server, 0 disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
}

// NewConfig returns a Config with the default values.
func NewConfig() *Config {
	return &Config{
		Relays:     append([]string(nil), mediaservers.DefaultRelays...),
		Timeout:    DefaultTimeout,
		PenaltyBox: true,
		CacheTTL:   DefaultCacheTTL,
		Listen:     DefaultListen,
		LogLevel:   DefaultLogLevel,
	}
}

// Validate checks the configuration, returning one of the sentinel errors (possibly
// wrapped with details) for the first problem found.
func (c *Config) Validate() error {
	if len(c.Relays) == 0 {
		return ErrNoRelays
	}
	for _, relay := range c.Relays {
		if nostr.NormalizeURL(relay) == "" {
			return fmt.Errorf("%w: '%s'", ErrInvalidRelay, relay)
		}
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CacheTTL < 0 {
		return ErrInvalidCacheTTL
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: '%s'", ErrInvalidLogLevel, c.LogLevel)
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListen, err)
	}
	return nil
}

// Level is the zerolog level named by LogLevel, warn if it can't be parsed.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return level
}

// ConfigDir returns the XDG configuration directory for mediaservers.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
