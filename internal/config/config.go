// Package config loads the optional configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LegacyPath is the location of the configuration file, checked if no
// configuration file is specified.
const LegacyPath = "config/config.json"

// ErrHalfDelays is returned by Load if only one of the delays is set.
var ErrHalfDelays = errors.New("min_delay and max_delay must be set together")

// Config is the configuration file contents.  Delays are in milliseconds,
// nil means "not set".
type Config struct {
	Token    string `json:"token" yaml:"token"`
	MinDelay *int   `json:"min_delay,omitempty" yaml:"min_delay,omitempty"`
	MaxDelay *int   `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
	APIURL   string `json:"api_url,omitempty" yaml:"api_url,omitempty"`
}

// Delays returns the delays in milliseconds, ok is false if they are not
// set.
func (c Config) Delays() (minMs, maxMs int, ok bool) {
	if c.MinDelay == nil || c.MaxDelay == nil {
		return 0, 0, false
	}
	return *c.MinDelay, *c.MaxDelay, true
}

// Load reads the configuration file.  Files with ".json" extension are
// parsed as JSON, all others as YAML.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", filename, err)
	}
	if (cfg.MinDelay == nil) != (cfg.MaxDelay == nil) {
		return Config{}, fmt.Errorf("config %s: %w", filename, ErrHalfDelays)
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	return cfg, nil
}

// LoadOrLegacy loads the filename, if it's not empty, otherwise it tries
// the LegacyPath.  A missing legacy file is not an error.
func LoadOrLegacy(filename string) (Config, error) {
	if filename != "" {
		return Load(filename)
	}
	cfg, err := Load(LegacyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
