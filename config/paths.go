package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDirName = "llmkeyring"

// GetConfigDir returns the platform-specific configuration directory.
// Linux/Mac: ~/.config/llmkeyring
// Windows: C:\Users\username\.config\llmkeyring
func GetConfigDir() string {
	return filepath.Join(GetHomeDir(), ".config", appDirName)
}

// GetDefaultDataDir returns the platform-specific default data directory.
// Linux/Mac: ~/.local/share/llmkeyring
// Windows: C:\Users\username\AppData\Local\llmkeyring
func GetDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(GetHomeDir(), "AppData", "Local")
		}
		return filepath.Join(localAppData, appDirName)
	}
	return filepath.Join(GetHomeDir(), ".local", "share", appDirName)
}

// GetSettingsFilePath returns the path to settings.toml
func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "settings.toml")
}

// GetHomeDir returns the user's home directory across platforms
func GetHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("USERPROFILE")
		if home == "" {
			home = os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		}
		if home == "" {
			home = "C:\\"
		}
		return home
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = "/"
	}
	return home
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" {
		path = GetHomeDir()
	} else if strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), path[2:])
	}

	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates a directory if it doesn't exist (0700 - user-only access)
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NormalizeDataDirectory expands the input and appends the llmkeyring folder
// unless the path already names it.
func NormalizeDataDirectory(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("data directory path cannot be empty")
	}

	expanded := ExpandPath(input)
	if filepath.Base(expanded) == appDirName {
		return expanded, nil
	}
	return filepath.Join(expanded, appDirName), nil
}

// EnsureDataDirPermissions tightens the data directory to 0700 and every
// regular file directly inside it to 0600.
func EnsureDataDirPermissions(dataDir string) error {
	if err := os.Chmod(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to secure data directory: %w", err)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		if err := os.Chmod(path, 0600); err != nil {
			DebugLog.Warn("failed to tighten file permissions", "path", path, "error", err)
		}
	}
	return nil
}

// DatabasePath is the SQLite file holding the provider list.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "llmkeyring.db")
}
