// If you are AI: This file defines the configuration structure for the dataflow daemon.
// It uses strict YAML or TOML decoding (chosen by file extension) and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Block kinds understood by the block manager.
const (
	KindSource = "source"
	KindScale  = "scale"
	KindSink   = "sink"
)

// Config holds the complete daemon configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server ServerConfig  `yaml:"server" toml:"server"`
	Log    LogConfig     `yaml:"log" toml:"log"`
	Blocks []BlockConfig `yaml:"blocks,omitempty" toml:"blocks"`
	Links  []LinkConfig  `yaml:"links,omitempty" toml:"links"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	HTTPPort        int `yaml:"http_port" toml:"http_port"`                     // Port for health, API, metrics and taps
	TapCapacity     int `yaml:"tap_capacity" toml:"tap_capacity"`               // Default queue capacity for WebSocket taps
	ShutdownTimeout int `yaml:"shutdown_timeout_ms" toml:"shutdown_timeout_ms"` // Graceful shutdown budget in milliseconds
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"` // trace, debug, info, warn, error
	JSON  bool   `yaml:"json,omitempty" toml:"json"`
}

// BlockConfig defines one processing block.
type BlockConfig struct {
	ID          string `yaml:"id" toml:"id"`                               // Block id, generated when empty
	Kind        string `yaml:"kind" toml:"kind"`                           // "source", "scale" or "sink"
	DataType    string `yaml:"data_type,omitempty" toml:"data_type"`       // Input type (sink, scale) or output type (source)
	OutputType  string `yaml:"output_type,omitempty" toml:"output_type"`   // Output type of a scale block
	FPS         int    `yaml:"fps,omitempty" toml:"fps"`                   // Source frame rate
	PixelFormat string `yaml:"pixel_format,omitempty" toml:"pixel_format"` // Source pixel format tag
	Dims        []int  `yaml:"dims,omitempty" toml:"dims"`                 // Source frame dims
	Blocking    bool   `yaml:"blocking,omitempty" toml:"blocking"`         // Source uses SendBlocking
	BackoffMS   int    `yaml:"backoff_ms,omitempty" toml:"backoff_ms"`     // Non-blocking Send backoff
}

// LinkConfig defines a link between two ports written as "block/port".
type LinkConfig struct {
	From     string `yaml:"from" toml:"from"`
	To       string `yaml:"to" toml:"to"`
	Capacity int    `yaml:"capacity,omitempty" toml:"capacity"`
}

// Load reads configuration from a YAML or TOML file.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Returns an error if the file cannot be read or decoded, or has unknown fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode config: unknown field %q", undecoded[0].String())
		}
	} else {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // Reject unknown fields

		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	// Apply defaults
	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.TapCapacity == 0 {
		c.Server.TapCapacity = 8
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Blocks {
		b := &c.Blocks[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.DataType == "" {
			b.DataType = "image"
		}
		if b.Kind == KindScale && b.OutputType == "" {
			b.OutputType = "tensor"
		}
		if b.Kind == KindSource {
			if b.FPS == 0 {
				b.FPS = 30
			}
			if b.PixelFormat == "" {
				b.PixelFormat = "CV_8UC3"
			}
			if len(b.Dims) == 0 {
				b.Dims = []int{480, 640, 3}
			}
		}
	}
	for i := range c.Links {
		if c.Links[i].Capacity == 0 {
			c.Links[i].Capacity = 4
		}
	}
}

// ParsePortRef splits a "block/port" reference.
func ParsePortRef(ref string) (block, port string, err error) {
	block, port, ok := strings.Cut(ref, "/")
	if !ok || block == "" || port == "" {
		return "", "", fmt.Errorf("port reference %q must be block/port", ref)
	}
	return block, port, nil
}
