// Package reconcfg loads the tool's on-disk configuration: cache TTLs,
// matcher concurrency caps, the minimum similarity threshold, the cache
// root directory, and whether the cache is disabled outright.
package reconcfg

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigDir and ConfigFile locate the config file relative to the
// user's home directory, mirroring the teacher's own ~/.up layout.
const (
	ConfigDir  = ".recon"
	ConfigFile = "config.yaml"
)

// Config is the on-disk shape of $HOME/.recon/config.yaml. Every field
// is optional; zero values fall back to Default()'s values.
type Config struct {
	CacheRoot          string        `yaml:"cacheRoot,omitempty"`
	CacheDisabled      bool          `yaml:"cacheDisabled,omitempty"`
	DefaultTTL         time.Duration `yaml:"defaultTtl,omitempty"`
	LongTTL            time.Duration `yaml:"longTtl,omitempty"`
	MinSimilarity      float64       `yaml:"minSimilarity,omitempty"`
	MetadataConcurrency int          `yaml:"metadataConcurrency,omitempty"`
	PackageConcurrency int           `yaml:"packageConcurrency,omitempty"`
	VersionConcurrency int           `yaml:"versionConcurrency,omitempty"`
}

// Default returns the built-in defaults, matching spec.md's namespace
// table (7-day default TTL, 30-day long TTL) and the matcher/
// orchestrator's documented concurrency caps.
func Default() Config {
	return Config{
		DefaultTTL:           7 * 24 * time.Hour,
		LongTTL:              30 * 24 * time.Hour,
		MinSimilarity:        0.5,
		MetadataConcurrency:  10,
		PackageConcurrency:   3,
		VersionConcurrency:   6,
	}
}

// DefaultPath returns $HOME/.recon/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load reads path, merging its values over Default(). A missing file is
// not an error: Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled config, not user input.
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config file")
	}

	var override Config
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Config{}, errors.Wrap(err, "parsing config file")
	}

	return mergeOverride(cfg, override), nil
}

// mergeOverride returns base with every non-zero field of override
// applied on top.
func mergeOverride(base, override Config) Config {
	if override.CacheRoot != "" {
		base.CacheRoot = override.CacheRoot
	}
	if override.CacheDisabled {
		base.CacheDisabled = true
	}
	if override.DefaultTTL != 0 {
		base.DefaultTTL = override.DefaultTTL
	}
	if override.LongTTL != 0 {
		base.LongTTL = override.LongTTL
	}
	if override.MinSimilarity != 0 {
		base.MinSimilarity = override.MinSimilarity
	}
	if override.MetadataConcurrency != 0 {
		base.MetadataConcurrency = override.MetadataConcurrency
	}
	if override.PackageConcurrency != 0 {
		base.PackageConcurrency = override.PackageConcurrency
	}
	if override.VersionConcurrency != 0 {
		base.VersionConcurrency = override.VersionConcurrency
	}
	return base
}
