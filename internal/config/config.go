package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// FileName is the project config file the binary looks for in the project
// root.
const FileName = "depstage.yaml"

// Config drives one project's resolution. Everything has a workable default;
// an absent config file is not an error.
type Config struct {
	// ProjectDir is the root scanned for dependency declaration files.
	ProjectDir string `yaml:"projectDir"`
	// DependencyFileSuffix selects declaration files during the scan.
	DependencyFileSuffix string `yaml:"dependencyFileSuffix"`
	// CacheDir stages fetched artifacts.
	CacheDir string `yaml:"cacheDir"`

	IOS     IOSConfig     `yaml:"ios"`
	Android AndroidConfig `yaml:"android"`

	// CleanupOnEmpty removes generated descriptors (restoring any backed-up
	// originals) when a pass resolves to an empty set.
	CleanupOnEmpty bool `yaml:"cleanupOnEmpty"`

	// DebounceMillis coalesces bursts of file-change triggers in watch mode.
	DebounceMillis int `yaml:"debounceMillis"`
	// MetricsAddr serves Prometheus metrics in watch mode when non-empty.
	MetricsAddr string `yaml:"metricsAddr"`
}

type IOSConfig struct {
	// ProjectDir is the generated Xcode project directory; the Podfile and
	// Swift package manifest live there.
	ProjectDir string `yaml:"projectDir"`
	Target     string `yaml:"target"`
	// DefaultPlatform is the platform header used when no pod requires a
	// minimum, "major.minor".
	DefaultPlatform string `yaml:"defaultPlatform"`
}

type AndroidConfig struct {
	// GradleFile is the generated dependencies script path.
	GradleFile string `yaml:"gradleFile"`
}

// Load reads the config file at dir/depstage.yaml, tolerating its absence,
// and fills defaults relative to dir.
func Load(dir string) (Config, error) {
	var cfg Config
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyDefaults(dir)
	return cfg, nil
}

func (c *Config) applyDefaults(dir string) {
	if c.ProjectDir == "" {
		c.ProjectDir = dir
	}
	if c.DependencyFileSuffix == "" {
		c.DependencyFileSuffix = "Dependencies.xml"
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.ProjectDir, ".depstage", "cache")
	}
	if c.IOS.ProjectDir == "" {
		c.IOS.ProjectDir = filepath.Join(c.ProjectDir, "ios")
	}
	if c.IOS.Target == "" {
		c.IOS.Target = "Unity-iPhone"
	}
	if c.IOS.DefaultPlatform == "" {
		c.IOS.DefaultPlatform = "13.0"
	}
	if c.Android.GradleFile == "" {
		c.Android.GradleFile = filepath.Join(c.ProjectDir, "android", "depstageDependencies.gradle")
	}
	if c.DebounceMillis <= 0 {
		c.DebounceMillis = 500
	}
}

// PodfilePath is the generated Podfile location.
func (c Config) PodfilePath() string {
	return filepath.Join(c.IOS.ProjectDir, "Podfile")
}

// SwiftManifestPath is the generated Swift package manifest location.
func (c Config) SwiftManifestPath() string {
	return filepath.Join(c.IOS.ProjectDir, "SwiftPackages.depstage")
}

// Debounce returns the watch-mode debounce window.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
