// Package config loads the segmentation profile: built-in defaults, then an
// optional YAML file, then single-knob environment overrides. Tool call
// arguments are applied on top of the result by the server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/regiongrow-mcp/internal/imaging"
	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// Environment variables read by Load.
const (
	EnvConfig        = "REGIONGROW_CONFIG"
	EnvConnectivity  = "REGIONGROW_CONNECTIVITY"
	EnvMaxIterations = "REGIONGROW_MAX_ITERATIONS"
	EnvThresholds    = "REGIONGROW_THRESHOLDS"
	EnvWorkers       = "REGIONGROW_WORKERS"
	EnvLogLevel      = "REGIONGROW_LOG_LEVEL"
)

// Config is the full service profile.
type Config struct {
	Segmentation segment.Config            `yaml:"segmentation"`
	Preprocess   imaging.PreprocessOptions `yaml:"preprocess"`
	Overlay      imaging.OverlayOptions    `yaml:"overlay"`

	// Workers bounds the number of images segmented in parallel by batch
	// calls.
	Workers int `yaml:"workers"`

	// OCRLanguage is the Tesseract language used for marker reading.
	OCRLanguage string `yaml:"ocr_language"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in profile.
func Default() Config {
	return Config{
		Segmentation: segment.DefaultConfig(),
		Preprocess:   imaging.DefaultPreprocessOptions(),
		Overlay:      imaging.DefaultOverlayOptions(),
		Workers:      runtime.NumCPU(),
		OCRLanguage:  "eng",
		LogLevel:     "info",
	}
}

// Load builds the profile. path names the YAML file; when empty the
// REGIONGROW_CONFIG variable is consulted, and when that is empty too only
// the defaults are used. Environment overrides are applied last and the
// result is validated.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a YAML profile over the defaults. Keys that are absent keep
// their default value; unknown keys are an error. The result is not
// validated.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides single settings from the environment. lookup is
// os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvConnectivity); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectivity, err)
		}
		c.Segmentation.Connectivity = segment.Connectivity(n)
	}
	if v, ok := lookup(EnvMaxIterations); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxIterations, err)
		}
		c.Segmentation.MaxIterations = n
	}
	if v, ok := lookup(EnvThresholds); ok && v != "" {
		ladder, err := ParseThresholds(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvThresholds, err)
		}
		c.Segmentation.Thresholds = ladder
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// ParseThresholds parses a comma separated ladder such as "60,40,30,2.5".
func ParseThresholds(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	ladder := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", p, err)
		}
		ladder = append(ladder, v)
	}
	if len(ladder) == 0 {
		return nil, fmt.Errorf("empty threshold ladder")
	}
	return ladder, nil
}

// Validate checks every setting that does not depend on a particular image.
// Seed bounds are checked per image by segment.Config.Validate.
func (c Config) Validate() error {
	s := c.Segmentation
	if !s.Connectivity.Valid() {
		return fmt.Errorf("segmentation.connectivity: %d is not 4 or 8", int(s.Connectivity))
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("segmentation.max_iterations: must be positive, got %d", s.MaxIterations)
	}
	if len(s.Thresholds) == 0 {
		return fmt.Errorf("segmentation.thresholds: ladder is empty")
	}
	for _, t := range s.Thresholds {
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("segmentation.thresholds: %g is not a positive finite number", t)
		}
	}
	if len(s.Seeds) == 0 {
		return fmt.Errorf("segmentation.seeds: at least one seed is required")
	}
	for _, p := range s.Seeds {
		if p.Row < 0 || p.Col < 0 {
			return fmt.Errorf("segmentation.seeds: negative coordinate %s", p)
		}
	}

	p := c.Preprocess
	if p.Size < 0 {
		return fmt.Errorf("preprocess.size: must not be negative, got %d", p.Size)
	}
	if p.ContrastFactor < 0 || math.IsNaN(p.ContrastFactor) {
		return fmt.Errorf("preprocess.contrast_factor: invalid value %g", p.ContrastFactor)
	}
	if p.SmoothingRadius < 0 {
		return fmt.Errorf("preprocess.smoothing_radius: must not be negative, got %g", p.SmoothingRadius)
	}
	if _, err := imaging.ParseAlignSource(string(p.Align)); err != nil {
		return fmt.Errorf("preprocess.align: %w", err)
	}

	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("overlay.opacity: %g outside 0..1", c.Overlay.Opacity)
	}
	if c.Overlay.Color != "" {
		if _, err := imaging.ParseColor(c.Overlay.Color); err != nil {
			return fmt.Errorf("overlay.color: %w", err)
		}
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers: must be at least 1, got %d", c.Workers)
	}
	return nil
}
