// Package config loads the optional dirchanges configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional dirchanges configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. A nil field leaves the
// built-in default in place.
type DefaultsConfig struct {
	Short     *bool   `toml:"short"`
	Verbose   *bool   `toml:"verbose"`
	Algorithm *string `toml:"algorithm"`
	BWLimit   *string `toml:"bwlimit"`
	Color     *string `toml:"color"`
}

// ThemeConfig holds optional colour overrides for the diff report.
type ThemeConfig struct {
	Added    *string `toml:"added"`
	Removed  *string `toml:"removed"`
	Modified *string `toml:"modified"`
	Muted    *string `toml:"muted"`
}

// Path returns the resolved path to the config file, or "" when no home
// directory can be found.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dirchanges", "config.toml")
}

// Load reads the config file from the XDG path. A missing file yields a
// zero Config and no error.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. Keys that dirchanges does not know
// are rejected so typos do not go unnoticed.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
