package app

import (
	"errors"
	"fmt"
	"net"
)

// Config holds the process-level settings for an App instance.
type Config struct {
	Listen string // bridge address, host:port

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Listen == "" {
		return nil, errors.New("Listen is a required configuration field and cannot be empty")
	}
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
	}

	return &cfg, nil
}
