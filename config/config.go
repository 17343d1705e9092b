package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"llmkeyring/security"
)

// SystemConfig is read from ~/.config/llmkeyring/settings.toml.
type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type SecurityConfig struct {
	Method     string `toml:"method"`
	SSHKeyPath string `toml:"ssh_key_path"`
}

type HTTPConfig struct {
	// Timeout is a Go duration string. Empty keeps each vendor's own timeout.
	Timeout string `toml:"timeout"`
	// Concurrency caps how many providers are checked at once. Zero means
	// no limit.
	Concurrency int `toml:"concurrency"`
}

// UserConfig is read from <data_directory>/config.toml.
type UserConfig struct {
	Locale   string         `toml:"locale"`
	Security SecurityConfig `toml:"security"`
	HTTP     HTTPConfig     `toml:"http"`
}

// Config is the merged runtime configuration.
type Config struct {
	DataDirectory  string
	Locale         string
	SecurityMethod SecurityMethod
	SSHKeyPath     string
	HTTPTimeout    time.Duration
	Concurrency    int
}

var (
	// Debug is true when LLMKEYRING_DEBUG is set.
	Debug = false
	// DebugLog discards everything until InitDebugLog succeeds.
	DebugLog = slog.New(slog.DiscardHandler)
)

const (
	envDataDir     = "LLMKEYRING_DATA_DIR"
	envLocale      = "LLMKEYRING_LOCALE"
	envDebug       = "LLMKEYRING_DEBUG"
	envHTTPTimeout = "LLMKEYRING_HTTP_TIMEOUT"
	envConcurrency = "LLMKEYRING_CONCURRENCY"
)

// CheckDebug reports whether debug logging was requested through the environment.
func CheckDebug() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(envDebug)))
	return v == "1" || v == "true"
}

// InitDebugLog opens <dataDir>/debug.log and installs a redacting slog
// handler on DebugLog. The returned file must be closed by the caller.
func InitDebugLog(dataDir string) (*os.File, error) {
	if err := EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logPath := filepath.Join(dataDir, "debug.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	DebugLog = slog.New(security.NewRedactedHandler(handler))
	Debug = true
	DebugLog.Debug("debug logging enabled", "path", logPath)
	return f, nil
}

// Load resolves the data directory from settings.toml, reads the user config
// from it and applies environment overrides.
func Load() (*Config, error) {
	sysCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	dataDir := sysCfg.DataDirectory
	if env := os.Getenv(envDataDir); env != "" {
		dataDir = env
	}
	dataDir = ExpandPath(dataDir)
	if dataDir == "" {
		dataDir = GetDefaultDataDir()
	}

	if err := EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, err
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	cfg, err := fromUserConfig(dataDir, userCfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromUserConfig(dataDir string, u *UserConfig) (*Config, error) {
	method, err := ParseSecurityMethod(u.Security.Method)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDirectory:  dataDir,
		Locale:         u.Locale,
		SecurityMethod: method,
		SSHKeyPath:     ExpandPath(u.Security.SSHKeyPath),
	}
	if cfg.Locale == "" {
		cfg.Locale = "system"
	}
	if u.HTTP.Timeout != "" {
		d, err := parseTimeout(u.HTTP.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid [http] timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if u.HTTP.Concurrency < 0 {
		return nil, fmt.Errorf("invalid [http] concurrency: must not be negative, got %d", u.HTTP.Concurrency)
	}
	cfg.Concurrency = u.HTTP.Concurrency
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(envLocale); v != "" {
		c.Locale = v
	}
	if v := os.Getenv(envHTTPTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envHTTPTimeout, err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv(envConcurrency); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s: %q", envConcurrency, v)
		}
		c.Concurrency = n
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// DatabasePath is the SQLite file for this configuration.
func (c *Config) DatabasePath() string {
	return DatabasePath(c.DataDirectory)
}

// NewCredentialStore returns the secret store configured for this data directory.
func (c *Config) NewCredentialStore() *CredentialStore {
	return NewCredentialStore(c.SecurityMethod, c.DataDirectory, c.SSHKeyPath)
}
