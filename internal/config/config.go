// Package config loads the surfpool command configuration from JSON or
// YAML files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/surfacepool"
	"github.com/gogpu/surfacepool/influxsink"
)

// Environment variables consulted by Load.
const (
	EnvConfigFile  = "SURFPOOL_CONFIG_FILE"
	EnvInfluxToken = "SURFPOOL_INFLUX_TOKEN"
)

// Default values applied by Load.
const (
	DefaultBackend        = "noop"
	DefaultDisplays       = 1
	DefaultSamples        = 4
	DefaultResourceBudget = 64 << 20
	DefaultFenceTimeoutMS = 5000
	DefaultAgeEvery       = 1
	DefaultReportEvery    = 10
)

// ErrInvalidPhase is returned when a scenario phase has an empty size or
// no frames.
var ErrInvalidPhase = errors.New("config: invalid scenario phase")

// format represents supported configuration file formats.
type format int

const (
	formatJSON format = iota
	formatYAML
)

// Phase is a run of frames at one surface size.
type Phase struct {
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`
	Frames int    `json:"frames" yaml:"frames"`
}

// Size returns the phase's surface size.
func (p Phase) Size() surfacepool.Size {
	return surfacepool.Size{Width: p.Width, Height: p.Height}
}

// Config is the surfpool configuration.
type Config struct {
	// Pool holds the pool limits.
	Pool surfacepool.Config `json:"pool" yaml:"pool"`

	// Backend is the HAL backend: "noop" or "vulkan".
	Backend string `json:"backend" yaml:"backend"`

	// Displays is the number of independent frame loops, one pool each.
	Displays int `json:"displays" yaml:"displays"`

	// Samples is the MSAA sample count for clear passes (1 disables MSAA).
	Samples uint32 `json:"samples" yaml:"samples"`

	// ResourceBudget is the byte budget of the MSAA target cache.
	ResourceBudget uint64 `json:"resourceBudgetBytes" yaml:"resourceBudgetBytes"`

	// FenceTimeoutMS bounds each fence wait, in milliseconds.
	FenceTimeoutMS int `json:"fenceTimeoutMs" yaml:"fenceTimeoutMs"`

	// AgeEvery is the number of frames between AgeAndCollect passes.
	AgeEvery int `json:"ageEvery" yaml:"ageEvery"`

	// ReportEvery is the number of frames between statistics reports.
	ReportEvery int `json:"reportEvery" yaml:"reportEvery"`

	// Scenario is the sequence of phases every display runs.
	Scenario []Phase `json:"scenario" yaml:"scenario"`

	// Influx enables the InfluxDB statistics sink when URL is set.
	Influx influxsink.Config `json:"influx" yaml:"influx"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Scenario: []Phase{
			{Width: 1920, Height: 1080, Frames: 30},
			{Width: 1280, Height: 720, Frames: 30},
			{Width: 1920, Height: 1080, Frames: 30},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration at path, or at $SURFPOOL_CONFIG_FILE when
// path is empty. With neither set it returns Default. Missing or
// non-positive values are replaced by defaults. The InfluxDB token falls
// back to $SURFPOOL_INFLUX_TOKEN.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		loaded := &Config{}
		if err := unmarshal(data, loaded, detectFormat(path)); err != nil {
			return nil, err
		}
		if len(loaded.Scenario) == 0 {
			loaded.Scenario = cfg.Scenario
		}
		loaded.applyDefaults()
		cfg = loaded
	}

	if cfg.Influx.Token == "" {
		cfg.Influx.Token = os.Getenv(EnvInfluxToken)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the scenario.
func (c *Config) Validate() error {
	for i, p := range c.Scenario {
		if p.Size().Empty() || p.Frames <= 0 {
			return fmt.Errorf("%w: phase %d: %dx%d for %d frames", ErrInvalidPhase, i, p.Width, p.Height, p.Frames)
		}
	}
	return nil
}

// TotalFrames returns the number of frames in the scenario.
func (c *Config) TotalFrames() int {
	n := 0
	for _, p := range c.Scenario {
		n += p.Frames
	}
	return n
}

func (c *Config) applyDefaults() {
	if c.Pool.MaxSurfaces <= 0 {
		c.Pool.MaxSurfaces = surfacepool.DefaultMaxSurfaces
	}
	if c.Pool.MaxSurfaceAge <= 0 {
		c.Pool.MaxSurfaceAge = surfacepool.DefaultMaxSurfaceAge
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Displays <= 0 {
		c.Displays = DefaultDisplays
	}
	if c.Samples == 0 {
		c.Samples = DefaultSamples
	}
	if c.ResourceBudget == 0 {
		c.ResourceBudget = DefaultResourceBudget
	}
	if c.FenceTimeoutMS <= 0 {
		c.FenceTimeoutMS = DefaultFenceTimeoutMS
	}
	if c.AgeEvery <= 0 {
		c.AgeEvery = DefaultAgeEvery
	}
	if c.ReportEvery <= 0 {
		c.ReportEvery = DefaultReportEvery
	}
}

// detectFormat picks the parser from the file extension.
func detectFormat(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func unmarshal(data []byte, cfg *Config, f format) error {
	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}
