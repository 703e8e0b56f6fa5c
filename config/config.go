// Package config loads pagediff settings from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"pagediff/imageprocessor"
	"pagediff/matcher"
)

// MaxDistance is the largest accepted fingerprint distance threshold.
const MaxDistance = 255

// Match contains the matching thresholds.
type Match struct {
	// Distance is nil when the file leaves it unset; the CLI then requires
	// --distance.
	Distance        *int `toml:"distance"`
	PositionDivisor int  `toml:"position_divisor"`
}

// Hashing contains the fingerprint and pipeline settings.
type Hashing struct {
	Algorithm  string `toml:"algorithm"`
	Preprocess string `toml:"preprocess"`
	HashWidth  int    `toml:"hash_width"`
	HashHeight int    `toml:"hash_height"`
	Workers    int    `toml:"workers"` // 0 picks a count from the CPU total
}

// Logging contains logger settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Report contains output settings.
type Report struct {
	Format   string `toml:"format"`
	ExportDB string `toml:"export_db"`
}

// Config is the full pagediff configuration.
type Config struct {
	Match   Match   `toml:"match"`
	Hashing Hashing `toml:"hashing"`
	Logging Logging `toml:"logging"`
	Report  Report  `toml:"report"`
}

// Report formats.
const (
	FormatText  = "text"
	FormatTable = "table"
)

// Default returns the built-in configuration.
func Default() Config {
	hc := imageprocessor.DefaultHasherConfig()
	return Config{
		Match: Match{
			PositionDivisor: matcher.DefaultPositionDivisor,
		},
		Hashing: Hashing{
			Algorithm:  hc.Alg.String(),
			Preprocess: hc.Preproc.String(),
			HashWidth:  hc.Width,
			HashHeight: hc.Height,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Report: Report{
			Format: FormatText,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return &cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatch(); err != nil {
		return err
	}
	if err := c.validateHashing(); err != nil {
		return err
	}
	return c.validateReport()
}

func (c *Config) validateMatch() error {
	if d := c.Match.Distance; d != nil && (*d < 0 || *d > MaxDistance) {
		return fmt.Errorf("match.distance must be between 0 and %d", MaxDistance)
	}
	if c.Match.PositionDivisor <= 0 {
		return errors.New("match.position_divisor must be positive")
	}
	return nil
}

func (c *Config) validateHashing() error {
	if c.Hashing.Workers < 0 {
		return errors.New("hashing.workers must not be negative")
	}
	if _, err := c.HasherConfig(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateReport() error {
	switch strings.ToLower(strings.TrimSpace(c.Report.Format)) {
	case FormatText, FormatTable:
		return nil
	default:
		return fmt.Errorf("report.format: unsupported value %q", c.Report.Format)
	}
}

// HasherConfig converts the hashing section into an extractor configuration.
func (c *Config) HasherConfig() (imageprocessor.HasherConfig, error) {
	alg, err := imageprocessor.ParseHashAlg(c.Hashing.Algorithm)
	if err != nil {
		return imageprocessor.HasherConfig{}, fmt.Errorf("hashing.algorithm: %w", err)
	}
	preproc, err := imageprocessor.ParsePreproc(c.Hashing.Preprocess)
	if err != nil {
		return imageprocessor.HasherConfig{}, fmt.Errorf("hashing.preprocess: %w", err)
	}
	hc := imageprocessor.HasherConfig{
		Width:   c.Hashing.HashWidth,
		Height:  c.Hashing.HashHeight,
		Alg:     alg,
		Preproc: preproc,
	}
	if err := hc.Validate(); err != nil {
		return imageprocessor.HasherConfig{}, fmt.Errorf("hashing: %w", err)
	}
	return hc, nil
}
