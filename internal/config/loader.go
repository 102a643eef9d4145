package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the current directory before the XDG one.
const DefaultConfigFile = ".mediaservers.yaml"

// FindConfigFile returns the first configuration file that exists among:
//  1. configPath, when given
//  2. ./.mediaservers.yaml
//  3. $XDG_CONFIG_HOME/mediaservers/config.yaml
//
// It returns "" when none does. An explicit configPath is returned even if missing,
// so Load can report it.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if cwd, err := os.Getwd(); err == nil {
		if p := filepath.Join(cwd, DefaultConfigFile); exists(p) {
			return p
		}
	}

	if p := filepath.Join(ConfigDir(), "config.yaml"); exists(p) {
		return p
	}

	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads the YAML file at path over the defaults of NewConfig. Fields missing
// from the file keep their default. A missing file gives ErrConfigNotFound.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault is Load on whatever FindConfigFile returns, falling back to NewConfig
// when nothing was found and no path was given explicitly.
func LoadOrDefault(configPath string) (*Config, error) {
	path := FindConfigFile(configPath)
	if path == "" {
		return NewConfig(), nil
	}
	return Load(path)
}
