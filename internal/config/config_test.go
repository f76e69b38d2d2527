// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// DEFAULTS AND VALIDATION TESTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("default BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutSecs != 120 {
		t.Errorf("default TimeoutSecs = %d, want 120", cfg.Server.TimeoutSecs)
	}
	if cfg.Upload.MaxSizeMB != 10 {
		t.Errorf("default MaxSizeMB = %d, want 10", cfg.Upload.MaxSizeMB)
	}
	if !cfg.Session.Resume {
		t.Error("default Resume should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty base url", func(c *Config) { c.Server.BaseURL = "" }, "server.base_url"},
		{"missing scheme", func(c *Config) { c.Server.BaseURL = "localhost:8000" }, "server.base_url"},
		{"zero timeout", func(c *Config) { c.Server.TimeoutSecs = 0 }, "server.timeout_secs"},
		{"retries too high", func(c *Config) { c.Server.MaxRetries = 50 }, "server.max_retries"},
		{"upload limit too big", func(c *Config) { c.Upload.MaxSizeMB = 500 }, "upload.max_size_mb"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
		{"zero table rows", func(c *Config) { c.UI.MaxTableRows = 0 }, "ui.max_table_rows"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("Field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

// =============================================================================
// LOAD/SAVE TESTS
// =============================================================================

func TestConfig_TOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.BaseURL = "https://analytics.example.com"
	cfg.UI.CompactMode = true
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Server.BaseURL != "https://analytics.example.com" {
		t.Errorf("BaseURL = %q", loaded.Server.BaseURL)
	}
	if !loaded.UI.CompactMode {
		t.Error("CompactMode lost in round trip")
	}
}

func TestConfig_LoadJSONLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server":{"base_url":"http://10.0.0.5:8000","timeout_secs":30,"max_retries":2}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Server.BaseURL != "http://10.0.0.5:8000" {
		t.Errorf("BaseURL = %q", loaded.Server.BaseURL)
	}
	// Unset sections keep defaults.
	if loaded.Upload.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want default 10", loaded.Upload.MaxSizeMB)
	}
}

func TestConfig_LoadFromPathUnsupported(t *testing.T) {
	if _, err := LoadFromPath("config.yaml"); err == nil {
		t.Error("LoadFromPath accepted unsupported format")
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDE TESTS
// =============================================================================

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("DATAWISE_SERVER_URL", "http://override:9000")
	t.Setenv("DATAWISE_THEME", "light")
	t.Setenv("DATAWISE_COMPACT", "true")
	t.Setenv("DATAWISE_RESUME", "0")
	t.Setenv("DATAWISE_TIMEOUT_SECS", "45")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.BaseURL != "http://override:9000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	if !cfg.UI.CompactMode {
		t.Error("CompactMode not overridden")
	}
	if cfg.Session.Resume {
		t.Error("Resume not overridden")
	}
	if cfg.Server.TimeoutSecs != 45 {
		t.Errorf("TimeoutSecs = %d, want 45", cfg.Server.TimeoutSecs)
	}
}

func TestConfig_EnvOverrideIgnoresGarbageTimeout(t *testing.T) {
	t.Setenv("DATAWISE_TIMEOUT_SECS", "not-a-number")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Server.TimeoutSecs != 120 {
		t.Errorf("TimeoutSecs = %d, want default preserved", cfg.Server.TimeoutSecs)
	}
}

// =============================================================================
// GLOBAL ACCESS TESTS
// =============================================================================

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	defer SetGlobal(nil)

	cfg := Default()
	cfg.UI.Theme = "light"
	SetGlobal(cfg)

	if Global().UI.Theme != "light" {
		t.Errorf("Global().UI.Theme = %q", Global().UI.Theme)
	}
}

func TestConfig_ConcurrentAccess(t *testing.T) {
	defer SetGlobal(nil)
	SetGlobal(Default())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = Global().Server.BaseURL
		}()
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
	}
	wg.Wait()
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer SetGlobal(nil)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	cfg := Default()
	cfg.UI.Theme = "light"
	if err := os.WriteFile(path, mustTOML(t, cfg), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloaded:
		if got.UI.Theme != "light" {
			t.Errorf("reloaded Theme = %q, want light", got.UI.Theme)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload never fired")
	}
}

func TestWatcher_KeepsOldConfigOnInvalidEdit(t *testing.T) {
	defer SetGlobal(nil)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("theme = [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("invalid config triggered a reload")
	case <-time.After(600 * time.Millisecond):
	}
}

func mustTOML(t *testing.T, cfg *Config) []byte {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "tmp.toml")
	if err := SaveTOML(cfg, tmp); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(tmp)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
