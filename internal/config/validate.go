// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
	"strings"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	kinds := make(map[string]string, len(c.Blocks))
	for i, b := range c.Blocks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("block %d (%s): %w", i, b.ID, err)
		}
		if _, dup := kinds[b.ID]; dup {
			return fmt.Errorf("block %d: duplicate id %q", i, b.ID)
		}
		kinds[b.ID] = b.Kind
	}

	for i, l := range c.Links {
		if err := l.validate(kinds); err != nil {
			return fmt.Errorf("link %d (%s -> %s): %w", i, l.From, l.To, err)
		}
	}
	return nil
}

// Validate checks server configuration values.
func (s *ServerConfig) Validate() error {
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.TapCapacity < 1 {
		return fmt.Errorf("tap_capacity must be at least 1, got %d", s.TapCapacity)
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout_ms must not be negative, got %d", s.ShutdownTimeout)
	}
	return nil
}

// Validate checks the log level name.
func (l *LogConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
		return nil
	default:
		return fmt.Errorf("unknown level %q", l.Level)
	}
}

// Validate checks a block definition.
func (b *BlockConfig) Validate() error {
	if strings.Contains(b.ID, "/") {
		return fmt.Errorf("id %q must not contain '/'", b.ID)
	}
	switch b.Kind {
	case KindSource:
		if b.FPS <= 0 || b.FPS > 1000 {
			return fmt.Errorf("fps must be between 1 and 1000, got %d", b.FPS)
		}
		for i, d := range b.Dims {
			if d <= 0 {
				return fmt.Errorf("dim %d must be positive, got %d", i, d)
			}
		}
	case KindScale, KindSink:
	default:
		return fmt.Errorf("unknown kind %q", b.Kind)
	}
	if b.BackoffMS < 0 {
		return fmt.Errorf("backoff_ms must not be negative, got %d", b.BackoffMS)
	}
	return nil
}

// validate checks that a link references a sender port and a receiver port
// of configured blocks.
func (l *LinkConfig) validate(kinds map[string]string) error {
	if l.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", l.Capacity)
	}
	fromBlock, fromPort, err := ParsePortRef(l.From)
	if err != nil {
		return err
	}
	toBlock, toPort, err := ParsePortRef(l.To)
	if err != nil {
		return err
	}

	kind, ok := kinds[fromBlock]
	if !ok {
		return fmt.Errorf("unknown block %q", fromBlock)
	}
	if (kind != KindSource && kind != KindScale) || fromPort != "out" {
		return fmt.Errorf("%s is not a sender port", l.From)
	}

	kind, ok = kinds[toBlock]
	if !ok {
		return fmt.Errorf("unknown block %q", toBlock)
	}
	if (kind != KindScale && kind != KindSink) || toPort != "in" {
		return fmt.Errorf("%s is not a receiver port", l.To)
	}
	return nil
}
