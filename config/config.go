// Package config loads and persists the fuzzer's run configuration: how
// many children to spawn, how long the supervisor waits before treating a
// stuck record as a hang, which syscalls are enabled, and an architecture
// tag.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	ferrors "trinity-go/errors"
)

// Config holds one run's tunables.
type Config struct {
	// Children is the number of worker child processes to spawn.
	Children int `json:"children"`
	// HangTimeoutSeconds is how long a record may sit in BEFORE before the
	// supervisor treats it as a hang and kills the child (spec.md 4.6).
	HangTimeoutSeconds int `json:"hang_timeout_seconds"`
	// EnabledCalls restricts the table to these syscall names; empty means
	// every registered entry is eligible.
	EnabledCalls []string `json:"enabled_calls,omitempty"`
	// Arch is an architecture tag (e.g. "amd64", "arm64"), saved and loaded
	// with the file. The syscall table is built for the running binary's
	// runtime.GOARCH; this field does not select it.
	Arch string `json:"arch,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Children:           4,
		HangTimeoutSeconds: 10,
	}
}

// Load reads a Config from a JSON file, falling back to Default for any
// zero-valued field the file does not set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ErrConfigNotFound
		}
		return nil, ferrors.Wrap(err, ferrors.ErrInvalidConfig, "read config")
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrInvalidConfig, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports whether the configuration is usable.
func (c *Config) Validate() error {
	if c.Children < 1 {
		return ferrors.ErrInvalidChildCount
	}
	return nil
}

// Save writes the configuration to path using a temp-file-plus-rename
// sequence so a crash mid-write never leaves a truncated config behind.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return ferrors.Wrap(err, ferrors.ErrInvalidConfig, "marshal config")
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return ferrors.Wrap(err, ferrors.ErrInvalidConfig, "create temp config")
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return ferrors.Wrap(err, ferrors.ErrInvalidConfig, "write temp config")
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return ferrors.Wrap(err, ferrors.ErrInvalidConfig, "sync temp config")
	}
	if err := tmpFile.Close(); err != nil {
		return ferrors.Wrap(err, ferrors.ErrInvalidConfig, "close temp config")
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return ferrors.Wrap(err, ferrors.ErrInvalidConfig, "chmod temp config")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return ferrors.Wrap(err, ferrors.ErrInvalidConfig, "rename temp config")
	}

	success = true
	return nil
}
