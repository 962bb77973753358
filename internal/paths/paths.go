// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Directory names used when no explicit location is configured. The data
// directory is created under the working directory, the minter directory
// under the data directory.
const (
	DefaultDataDirName = ".pidsearch-db"
	MinterDirName      = "minters"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PIDSEARCH_CONFIG_DIR"
	EnvDataDir   = "PIDSEARCH_DATA_DIR"
)

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/pidsearch (fallback ~/.config/pidsearch)
// macOS:   ~/Library/Application Support/pidsearch
// Windows: %APPDATA%/pidsearch
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "pidsearch"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "pidsearch"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "pidsearch"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > PIDSEARCH_CONFIG_DIR env > DefaultConfigDir().
//
// If flag is non-empty it wins. Otherwise the PIDSEARCH_CONFIG_DIR environment
// variable is checked. If neither is set, the platform default is returned.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config file value > PIDSEARCH_DATA_DIR env > $(CWD)/.pidsearch-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveMinterDir returns the minter database directory: the config file
// value when set, otherwise the "minters" directory inside dataDir.
func ResolveMinterDir(configValue, dataDir string) (string, error) {
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	return filepath.Join(dataDir, MinterDirName), nil
}
