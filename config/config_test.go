package config

import (
	"os"
	"path/filepath"
	"testing"

	ferrors "trinity-go/errors"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := &Config{
		Children:           8,
		HangTimeoutSeconds: 30,
		EnabledCalls:       []string{"open", "openat"},
		Arch:               "arm64",
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Children != cfg.Children {
		t.Errorf("Children = %d, want %d", loaded.Children, cfg.Children)
	}
	if loaded.HangTimeoutSeconds != cfg.HangTimeoutSeconds {
		t.Errorf("HangTimeoutSeconds = %d, want %d", loaded.HangTimeoutSeconds, cfg.HangTimeoutSeconds)
	}
	if len(loaded.EnabledCalls) != 2 || loaded.EnabledCalls[0] != "open" {
		t.Errorf("EnabledCalls = %v", loaded.EnabledCalls)
	}
	if loaded.Arch != "arm64" {
		t.Errorf("Arch = %q, want arm64", loaded.Arch)
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	if !ferrors.Is(err, ferrors.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestValidateRejectsZeroChildren(t *testing.T) {
	cfg := &Config{Children: 0}
	if err := cfg.Validate(); !ferrors.Is(err, ferrors.ErrInvalidChildCount) {
		t.Errorf("expected ErrInvalidChildCount, got %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should be valid, got %v", err)
	}
}
