// Package config provides hierarchical configuration management for releasekit using koanf.
// Configuration is loaded with priority: environment variables (RELEASEKIT_*) > project config
// (.releasekit/config.yml) > user config (~/.config/releasekit/config.yml) > defaults.
// The resolved Configuration is immutable for the rest of the run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
const EnvPrefix = "RELEASEKIT_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents the releasekit tool configuration
type Configuration struct {
	// PackagesDir holds one subdirectory per package, relative to the repository root.
	PackagesDir string `koanf:"packages_dir" validate:"required"`
	// Packages fixes the package list and order. Empty means every subdirectory.
	Packages []string `koanf:"packages"`

	// Per-package layout, relative to the package directory.
	ManifestGlob    string `koanf:"manifest_glob" validate:"required"`
	ChangelogPath   string `koanf:"changelog_path" validate:"required"`
	ArtifactGlob    string `koanf:"artifact_glob" validate:"required"`
	TestProjectGlob string `koanf:"test_project_glob"`

	// InProgressMarker is the exact title of the first changelog section.
	InProgressMarker string `koanf:"in_progress_marker" validate:"required"`

	// Command templates. See runner.Template for the {{NAME}} placeholder syntax.
	BuildCommand        string `koanf:"build_command" validate:"required"`
	PublishCommand      string `koanf:"publish_command" validate:"required"`
	TestCommand         string `koanf:"test_command" validate:"required"`
	FallbackTestCommand string `koanf:"fallback_test_command" validate:"required"`

	// RequiredSecrets are environment variables that must be set before publishing.
	// Each one is also available as a {{NAME}} placeholder in publish_command.
	RequiredSecrets []string `koanf:"required_secrets"`

	// CommandTimeout bounds every external command (0 = no timeout).
	CommandTimeout time.Duration `koanf:"command_timeout"`

	CleanFiles []string `koanf:"clean_files"`
	CleanDirs  []string `koanf:"clean_dirs"`
	WatchPaths []string `koanf:"watch_paths"`
	// WatchIgnore replaces the built-in ignore patterns of test --watch.
	WatchIgnore []string `koanf:"watch_ignore"`

	StateDir          string `koanf:"state_dir" validate:"required"`
	MaxHistoryEntries int    `koanf:"max_history_entries" validate:"min=0"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .releasekit/config.yml)
	ProjectConfigPath string
	// Root is the directory relative project paths are resolved against.
	Root string
	// SkipUserConfig ignores ~/.config/releasekit/config.yml (used by tests).
	SkipUserConfig bool
}

// LoadWithOptions loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, opts); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads ~/.config/releasekit/config.yml when it exists.
func loadUserConfig(k *koanf.Koanf) error {
	path, err := UserConfigPath()
	if err != nil || !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, SourceUser); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project config. An explicit path must exist;
// the default path is optional.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions) error {
	path := opts.ProjectConfigPath
	explicit := path != ""
	if !explicit {
		path = ProjectConfigPath()
	}
	if !filepath.IsAbs(path) && opts.Root != "" {
		path = filepath.Join(opts.Root, path)
	}

	if !fileExists(path) {
		if explicit {
			return &ValidationError{FilePath: path, Message: "config file not found"}
		}
		return nil
	}

	if err := loadYAMLConfig(k, path, SourceProject); err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path string, source ConfigSource) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s config %s: %w", source, path, err)
	}
	if err := validateYAMLSyntax(path, data); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", source, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", source, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged configuration
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: RELEASEKIT_PACKAGES_DIR -> packages_dir
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}
