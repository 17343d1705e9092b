package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadSystemConfig reads settings.toml, writing the commented default
// template first when it does not exist.
func LoadSystemConfig() (*SystemConfig, error) {
	cfg := DefaultSystemConfig()
	settingsPath := GetSettingsFilePath()

	if !FileExists(settingsPath) {
		if err := CreateDefaultSystemConfig(); err != nil {
			return nil, fmt.Errorf("failed to create system config: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(settingsPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}
	return cfg, nil
}

func userConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

func LoadUserConfig(dataDir string) (*UserConfig, error) {
	cfg := DefaultUserConfig()
	path := userConfigPath(dataDir)

	if !FileExists(path) {
		if err := CreateDefaultUserConfig(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create user config: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return cfg, nil
}

func SaveSystemConfig(cfg *SystemConfig) error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := encodeTOMLFile(GetSettingsFilePath(), cfg); err != nil {
		return fmt.Errorf("failed to write system config: %w", err)
	}
	return nil
}

func SaveUserConfig(cfg *UserConfig, dataDir string) error {
	if err := EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := encodeTOMLFile(userConfigPath(dataDir), cfg); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}

func CreateDefaultSystemConfig() error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeFile0600(GetSettingsFilePath(), []byte(GenerateSystemConfigTemplate()))
}

func CreateDefaultUserConfig(dataDir string) error {
	if err := EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return writeFile0600(userConfigPath(dataDir), []byte(GenerateUserConfigTemplate()))
}

func encodeTOMLFile(path string, v any) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(v)
}

func writeFile0600(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
