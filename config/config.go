// Package config loads the deskexec configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aleb2000/DesktopFileEditor/basedir"
	"github.com/aleb2000/DesktopFileEditor/desktop"
	"github.com/aleb2000/DesktopFileEditor/steam"
	"github.com/aleb2000/DesktopFileEditor/validity"
	"gopkg.in/yaml.v3"
)

// FileSuffix is the location of the configuration file relative to the XDG config directories.
const FileSuffix = "deskexec/config.yaml"

type Config struct {
	// SearchPaths are searched for binaries after the directories of $PATH.
	SearchPaths []string `yaml:"search_paths"`

	// ApplicationDirs replaces the XDG applications directories when not empty.
	ApplicationDirs []string `yaml:"application_dirs"`

	FlattenEnv bool  `yaml:"flatten_env"`
	Steam      Steam `yaml:"steam"`
}

type Steam struct {
	Enabled bool `yaml:"enabled"`

	// Root is the steamapps directory. Empty means ~/.steam/steam/steamapps.
	Root string `yaml:"root"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		FlattenEnv: true,
		Steam: Steam{
			Enabled: true,
		},
	}
}

// Path returns the configuration file found in the XDG config directories or an empty string.
func Path() (string, error) {
	return basedir.FindConfigFile(FileSuffix)
}

// Load reads the configuration at path. If path is empty, the file is searched with Path.
// A missing or empty file yields the defaults, unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		found, err := Path()
		if err != nil {
			return nil, fmt.Errorf("failed to find configuration file: %w", err)
		}
		if found == "" {
			return cfg, nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil {
		// A file containing only comments has no document.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	return cfg, nil
}

// ApplicationLocations returns the directories scanned for desktop files.
func (c *Config) ApplicationLocations() []string {
	if len(c.ApplicationDirs) > 0 {
		return c.ApplicationDirs
	}

	return desktop.GetDesktopFileLocations()
}

// SteamLibrary returns nil when Steam support is disabled.
func (c *Config) SteamLibrary() *steam.Library {
	if !c.Steam.Enabled {
		return nil
	}

	return steam.NewLibrary(c.Steam.Root)
}

// Checker builds a validity checker from the configuration.
func (c *Config) Checker() *validity.Checker {
	checker := validity.NewChecker(validity.DefaultSearchPath(c.SearchPaths...), nil)
	checker.FlattenEnv = c.FlattenEnv

	// A nil *steam.Library stored in the interface would not compare equal to nil.
	if library := c.SteamLibrary(); library != nil {
		checker.Steam = library
	}

	return checker
}
