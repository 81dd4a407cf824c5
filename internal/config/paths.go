package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/releasekit/config.yml
// - macOS: ~/Library/Application Support/releasekit/config.yml
// - Windows: %APPDATA%\releasekit\config.yml
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "releasekit", "config.yml"), nil
}

// ProjectConfigPath returns the path to the project-level config file,
// relative to the repository root.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".releasekit"
}

// HistoryPath returns the release history file inside stateDir.
func HistoryPath(root, stateDir string) string {
	return filepath.Join(resolve(root, stateDir), "history.yml")
}

// LockPath returns the publish lock file inside stateDir.
func LockPath(root, stateDir string) string {
	return filepath.Join(resolve(root, stateDir), "publish.lock")
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}
