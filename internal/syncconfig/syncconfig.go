// Package syncconfig loads sync settings from the global config file
// with environment-variable overrides, highest priority first:
// FILMLOG_* env > ~/.config/filmlog/config.json > defaults.
package syncconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RemoteConfig holds remote store and blob store settings.
type RemoteConfig struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
	Bucket string `json:"bucket,omitempty"`
}

// SyncConfig holds sync-related settings.
type SyncConfig struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval,omitempty"` // duration string, default "5m"
}

// Config is the global filmlog config stored at ~/.config/filmlog/config.json.
type Config struct {
	Remote  RemoteConfig `json:"remote"`
	Sync    SyncConfig   `json:"sync"`
	OwnerID string       `json:"owner_id,omitempty"`
}

const defaultBucket = "thumbnails"

// ConfigDir returns ~/.config/filmlog, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "filmlog")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config, returning an empty config when the
// file does not exist yet.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0600)
}

// RemoteURL returns the remote store base URL.
func RemoteURL() string {
	if v := os.Getenv("FILMLOG_REMOTE_URL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil {
		return cfg.Remote.URL
	}
	return ""
}

// APIKey returns the remote API key.
func APIKey() string {
	if v := os.Getenv("FILMLOG_API_KEY"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil {
		return cfg.Remote.APIKey
	}
	return ""
}

// Bucket returns the blob store bucket for thumbnails.
func Bucket() string {
	if v := os.Getenv("FILMLOG_BUCKET"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Remote.Bucket != "" {
		return cfg.Remote.Bucket
	}
	return defaultBucket
}

// OwnerID returns the authenticated owner id, or "" when running as
// guest (in which case nothing syncs).
func OwnerID() string {
	if v := os.Getenv("FILMLOG_OWNER_ID"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil {
		return cfg.OwnerID
	}
	return ""
}

// SyncInterval returns the periodic sync interval for --interval loops.
func SyncInterval() time.Duration {
	if v := os.Getenv("FILMLOG_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Sync.Interval != "" {
		if d, err := time.ParseDuration(cfg.Sync.Interval); err == nil {
			return d
		}
	}
	return 5 * time.Minute
}
