// Package config loads tool configuration in layers: built-in defaults,
// an optional .hoistrc.toml in the source root, then HOIST_ environment
// variables. Later layers override earlier ones.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ashleydavis/hoist-modules/pkg/errors"
)

// RCFileName is the optional per-project config file, looked up in the
// source root.
const RCFileName = ".hoistrc.toml"

// Config holds the settings consumed by tree building, store indexing
// and hoisting.
type Config struct {
	// ModulesDir is the conventional installed-dependency directory name
	ModulesDir string `koanf:"modules_dir"`
	// BinDir is the executable-shims entry inside a modules directory,
	// always skipped during scanning
	BinDir string `koanf:"bin_dir"`
	// StoreDir is the shared package store entry inside a modules
	// directory, discovered by walking up from the source root
	StoreDir string `koanf:"store_dir"`
	// Manifest is the per-package metadata file name
	Manifest string `koanf:"manifest"`
	// Concurrency bounds parallel directory scans and file copies
	Concurrency int `koanf:"concurrency"`
	// IncludeDev merges devDependencies into resolution
	IncludeDev bool `koanf:"include_dev"`
	// Force allows overwriting a pre-existing target directory
	Force bool `koanf:"force"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		ModulesDir:  "node_modules",
		BinDir:      ".bin",
		StoreDir:    ".store",
		Manifest:    "package.json",
		Concurrency: 16,
	}
}

func defaultMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"modules_dir": d.ModulesDir,
		"bin_dir":     d.BinDir,
		"store_dir":   d.StoreDir,
		"manifest":    d.Manifest,
		"concurrency": d.Concurrency,
		"include_dev": d.IncludeDev,
		"force":       d.Force,
	}
}

// Load builds the effective configuration for a run rooted at sourceRoot
func Load(sourceRoot string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrInternal, "failed to load default config")
	}

	rcPath := filepath.Join(sourceRoot, RCFileName)
	if _, err := os.Stat(rcPath); err == nil {
		if err := k.Load(file.Provider(rcPath), toml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, errors.ErrInvalidInput, "failed to load %s", rcPath)
		}
	}

	if err := k.Load(env.Provider("HOIST_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "HOIST_"))
	}), nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrInvalidInput, "failed to load environment config")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrInvalidInput, "invalid configuration")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}
