// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Base        string `toml:"base"`
	Source      string `toml:"source"`
	Player      string `toml:"player"`
	Premium     bool   `toml:"premium"`
	History     bool   `toml:"history"`
	HistoryPath string `toml:"history_path"`
	Debug       bool   `toml:"debug"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Base:     "example.com",
		Source:   "api",
		Player:   "mpv",
		Premium:  false,
		History:  true,
		Debug:    false,
		LogLevel: "info",
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mirrorplay"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mirrorplay"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	validSources := map[string]bool{"api": true, "html": true}
	if !validSources[strings.ToLower(c.Source)] {
		return fmt.Errorf("unsupported source %q (valid: api, html)", c.Source)
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if c.LogLevel != "" && !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}

	if strings.TrimSpace(c.Base) == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if strings.HasPrefix(strings.ToLower(c.Base), "http://") {
		return fmt.Errorf("base URL must use HTTPS")
	}

	return nil
}

// HistoryFile returns the configured history database path, or the default
// under the XDG data directory.
func (c *Config) HistoryFile() (string, error) {
	if c.HistoryPath != "" {
		return expandHome(c.HistoryPath)
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "mirrorplay", "history.db"), nil
}

// LogPath returns the configured log file, or the default under the XDG
// state directory.
func (c *Config) LogPath() (string, error) {
	if c.LogFile != "" {
		return expandHome(c.LogFile)
	}
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "mirrorplay", "mirrorplay.log"), nil
}

// expandHome resolves a leading ~ in a path.
func expandHome(p string) (string, error) {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		p = filepath.Join(home, p[2:])
	}
	return filepath.Abs(p)
}
