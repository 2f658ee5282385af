package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.PageSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Backup {
		t.Error("Backup defaults on")
	}
	if cfg.WatchDebounce != 100*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 100ms", cfg.WatchDebounce)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file config = %+v, want defaults", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "page_size = 25\nlog_level = \"debug\"\nbackup = true\nwatch_debounce_ms = 250\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.PageSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.Backup {
		t.Error("Backup not read from file")
	}
	if cfg.WatchDebounce != 250*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 250ms", cfg.WatchDebounce)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("page_size = 50\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset LogLevel = %q, want default", cfg.LogLevel)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("page_size = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("malformed file did not error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("page_size = 25\nlog_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SLTMX_PAGE_SIZE", "7")
	t.Setenv("SLTMX_BACKUP", "true")
	t.Setenv("SLTMX_WATCH_DEBOUNCE_MS", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 7 {
		t.Errorf("PageSize = %d, want env override 7", cfg.PageSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, file value should survive without env", cfg.LogLevel)
	}
	if !cfg.Backup {
		t.Error("Backup env override ignored")
	}
	if cfg.WatchDebounce != 50*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 50ms", cfg.WatchDebounce)
	}
}

func TestLoadClampsNonsenseValues(t *testing.T) {
	t.Setenv("SLTMX_PAGE_SIZE", "-3")
	t.Setenv("SLTMX_WATCH_DEBOUNCE_MS", "-100")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 100 {
		t.Errorf("negative page size not clamped: %d", cfg.PageSize)
	}
	if cfg.WatchDebounce != 100*time.Millisecond {
		t.Errorf("negative debounce not clamped: %v", cfg.WatchDebounce)
	}
}
