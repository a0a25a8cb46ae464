package config

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/scriptler-dev/scriptler/internal/errors"
	"github.com/scriptler-dev/scriptler/internal/files"
	"github.com/scriptler-dev/scriptler/internal/perms"
)

// Init creates the base skeleton configuration file for the scriptler project.
func (d *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	content := `repositories = []

[updates]
interval = "24h"
auto = false
`

	if err := os.WriteFile(path, []byte(content), perms.RegularFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (d *DefaultLoader) Load(path string) (Modifier, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrConfigLoadFailed)
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file cannot be found, run: 'scriptler init'", ErrConfigLoadFailed)
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	var cfg *Config
	_, err = toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", ErrConfigLoadFailed, path, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config file is empty (%s)", ErrConfigLoadFailed, path)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate existing config (%s): %w", ErrConfigLoadFailed, path, err)
	}

	// Update the path that loaded this file to track it.
	cfg.configFilePath = path

	return cfg, nil
}

// AddRepository persists a new user-added repository to the configuration file
// (.scriptler.toml). An empty ID is assigned a generated one. The entry with
// its final ID is returned.
func (c *Config) AddRepository(entry RepositoryEntry) (RepositoryEntry, error) {
	entry.ID = strings.TrimSpace(entry.ID)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	// Repositories added at runtime are always user-owned and removable.
	entry.UserAdded = true

	c.Repositories = append(c.Repositories, entry)

	if err := c.validate(); err != nil {
		c.Repositories = c.Repositories[:len(c.Repositories)-1]
		return RepositoryEntry{}, err
	}

	if err := c.saveConfig(); err != nil {
		return RepositoryEntry{}, fmt.Errorf("failed to save updated config: %w", err)
	}

	return entry, nil
}

// RemoveRepository removes a user-added repository by ID from the
// configuration file. Built-in repositories cannot be removed.
func (c *Config) RemoveRepository(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: repository id cannot be empty", errors.ErrBadRequest)
	}

	idx := slices.IndexFunc(c.Repositories, func(r RepositoryEntry) bool {
		return r.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("%w: repository '%s' not found in config", errors.ErrNotFound, id)
	}
	if !c.Repositories[idx].UserAdded {
		return fmt.Errorf("%w: repository '%s' is built-in and cannot be removed", errors.ErrBadRequest, id)
	}

	c.Repositories = slices.Delete(slices.Clone(c.Repositories), idx, idx+1)

	if err := c.validate(); err != nil {
		return err
	}

	if err := c.saveConfig(); err != nil {
		return fmt.Errorf("failed to save updated config: %w", err)
	}

	return nil
}

// ListRepositories returns a copy of the currently configured repositories,
// ordered by priority (stable for equal priorities).
// This provides read-only access without exposing mutation of the underlying slice.
func (c *Config) ListRepositories() []RepositoryEntry {
	repos := slices.Clone(c.Repositories)
	slices.SortStableFunc(repos, func(a, b RepositoryEntry) int {
		return a.Priority - b.Priority
	})
	return repos
}

// GetRepository returns the repository with the given ID.
func (c *Config) GetRepository(id string) (RepositoryEntry, bool) {
	for _, r := range c.Repositories {
		if r.ID == id {
			return r, true
		}
	}
	return RepositoryEntry{}, false
}

// UpdateSettings returns the configured update behavior.
func (c *Config) UpdateSettings() UpdateSettings {
	return c.Updates
}

// SaveConfig saves the current configuration to the config file.
func (c *Config) SaveConfig() error {
	return c.saveConfig()
}

func (c *Config) saveConfig() error {
	if strings.TrimSpace(c.configFilePath) == "" {
		return fmt.Errorf("config file path is not set")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := files.WriteAtomic(c.configFilePath, buf.Bytes(), perms.RegularFile); err != nil {
		return fmt.Errorf("failed to write config file (%s): %w", c.configFilePath, err)
	}

	return nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Repositories))
	for _, r := range c.Repositories {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("%w: id is required", ErrInvalidRepository)
		}
		if strings.ContainsAny(id, `/\`) {
			return fmt.Errorf("%w: id '%s' must not contain path separators", ErrInvalidRepository, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate repository id '%s'", ErrInvalidRepository, id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(r.Source) == "" {
			return fmt.Errorf("%w: repository '%s' has no manifest source", ErrInvalidRepository, id)
		}
	}
	return nil
}
