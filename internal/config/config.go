// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/datawise-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server  ServerConfig  `toml:"server" json:"server"`
	Upload  UploadConfig  `toml:"upload" json:"upload"`
	Session SessionConfig `toml:"session" json:"session"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// ServerConfig points the client at the analysis backend.
type ServerConfig struct {
	// BaseURL is the backend address, e.g. http://localhost:8000
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSecs bounds non-streaming requests. Analysis queries can
	// be slow, so the default is generous.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// MaxRetries is the retry budget for idempotent requests.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
}

// UploadConfig controls local upload validation.
type UploadConfig struct {
	// MaxSizeMB is the upload size limit in megabytes.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb"`

	// WatchFile enables flagging the uploaded file as stale when it
	// changes on disk.
	WatchFile bool `toml:"watch_file" json:"watch_file"`
}

// SessionConfig controls session identifier behavior.
type SessionConfig struct {
	// Resume reuses the previous run's session ID on startup. When
	// false every run starts a fresh session.
	Resume bool `toml:"resume" json:"resume"`
}

// UIConfig controls the terminal interface.
type UIConfig struct {
	Theme       string `toml:"theme" json:"theme"`
	CompactMode bool   `toml:"compact_mode" json:"compact_mode"`

	// ShowSQL renders the generated SQL under each answer.
	ShowSQL bool `toml:"show_sql" json:"show_sql"`

	// MaxTableRows caps the rows rendered in the inline result table.
	MaxTableRows int `toml:"max_table_rows" json:"max_table_rows"`
}

// LoggingConfig controls the diagnostic log file.
type LoggingConfig struct {
	// Enabled turns file logging on.
	Enabled bool `toml:"enabled" json:"enabled"`

	// Path overrides the default ~/.datawise/datawise.log location.
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Server: ServerConfig{
			BaseURL:     "http://localhost:8000",
			TimeoutSecs: 120,
			MaxRetries:  3,
		},
		Upload: UploadConfig{
			MaxSizeMB: 10,
			WatchFile: true,
		},
		Session: SessionConfig{
			Resume: true,
		},
		UI: UIConfig{
			Theme:        "dark",
			CompactMode:  false,
			ShowSQL:      true,
			MaxTableRows: 20,
		},
		Logging: LoggingConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the DataWise configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".datawise"), nil
}

// ConfigPathTOML returns the path to config.toml.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the legacy config.json.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir creates the configuration directory if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// LogPath returns the configured log file location.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "datawise.log"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from disk: TOML first, then legacy JSON,
// then defaults. Environment overrides always apply last.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, err
			}
			cfg.ApplyEnvOverrides()
			return cfg, cfg.Validate()
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadJSON(cfg, path); err != nil {
				return nil, err
			}
			cfg.ApplyEnvOverrides()
			return cfg, cfg.Validate()
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, cfg.Validate()
}

// LoadTOML merges a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// LoadJSON merges a legacy JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// LoadFromPath reads a specific config file, dispatching on extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = LoadTOML(cfg, path)
	case ".json":
		err = LoadJSON(cfg, path)
	default:
		err = fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, cfg.Validate()
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes cfg to config.toml atomically.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML to path.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# DataWise configuration\n")
	buf.WriteString("# Generated " + time.Now().Format(time.RFC3339) + "\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0644)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return ValidationError{Field: "server.base_url", Message: "must not be empty"}
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return ValidationError{Field: "server.base_url", Message: "must start with http:// or https://"}
	}
	if c.Server.TimeoutSecs <= 0 {
		return ValidationError{Field: "server.timeout_secs", Message: "must be positive"}
	}
	if c.Server.MaxRetries < 1 || c.Server.MaxRetries > 10 {
		return ValidationError{Field: "server.max_retries", Message: "must be between 1 and 10"}
	}
	if c.Upload.MaxSizeMB < 1 || c.Upload.MaxSizeMB > 100 {
		return ValidationError{Field: "upload.max_size_mb", Message: "must be between 1 and 100"}
	}
	if c.UI.MaxTableRows < 1 {
		return ValidationError{Field: "ui.max_table_rows", Message: "must be positive"}
	}
	switch c.UI.Theme {
	case "dark", "light":
	default:
		return ValidationError{Field: "ui.theme", Message: fmt.Sprintf("unknown theme %q", c.UI.Theme)}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DATAWISE_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("DATAWISE_SERVER_URL"); url != "" {
		c.Server.BaseURL = url
	}
	if timeout := os.Getenv("DATAWISE_TIMEOUT_SECS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.Server.TimeoutSecs = secs
		}
	}
	if theme := os.Getenv("DATAWISE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if compact := os.Getenv("DATAWISE_COMPACT"); compact != "" {
		c.UI.CompactMode = compact == "1" || strings.EqualFold(compact, "true")
	}
	if resume := os.Getenv("DATAWISE_RESUME"); resume != "" {
		c.Session.Resume = resume == "1" || strings.EqualFold(resume, "true")
	}
	if logging := os.Getenv("DATAWISE_LOG"); logging != "" {
		c.Logging.Enabled = logging == "1" || strings.EqualFold(logging, "true")
	}
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Global returns the process-wide configuration, loading it on first
// use. Load failures fall back to defaults so the UI can still start.
func Global() *Config {
	globalMu.RLock()
	if globalCfg != nil {
		defer globalMu.RUnlock()
		return globalCfg
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCfg == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalCfg = cfg
	}
	return globalCfg
}

// SetGlobal replaces the process-wide configuration. Used by the
// watcher on reload and by tests.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}
