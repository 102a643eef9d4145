package config

import "errors"

// Configuration validation errors, returned by Config.Validate.
var (
	ErrNoRelays        = errors.New("no relays configured")
	ErrInvalidRelay    = errors.New("invalid relay URL")
	ErrInvalidTimeout  = errors.New("invalid timeout: must be positive")
	ErrInvalidCacheTTL = errors.New("invalid cache ttl: must be non-negative")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrInvalidListen   = errors.New("invalid listen address")
	ErrConfigNotFound  = errors.New("configuration file not found")
)
