package config

import (
	"strings"
	"time"
)

var (
	_ Provider = (*DefaultLoader)(nil)
	_ Modifier = (*Config)(nil)
)

// DefaultUpdateInterval is the minimum re-check interval applied when the
// config does not set one.
const DefaultUpdateInterval = 24 * time.Hour

type Loader interface {
	Load(path string) (Modifier, error)
}

type Initializer interface {
	Init(path string) error
}

type Provider interface {
	Initializer
	Loader
}

// Modifier is the mutable view of the configuration handed to the repository
// manager and the CLI.
type Modifier interface {
	AddRepository(entry RepositoryEntry) (RepositoryEntry, error)
	RemoveRepository(id string) error
	ListRepositories() []RepositoryEntry
	GetRepository(id string) (RepositoryEntry, bool)
	UpdateSettings() UpdateSettings
	SaveConfig() error
}

type DefaultLoader struct{}

// Config represents the .scriptler.toml file structure.
type Config struct {
	Repositories   []RepositoryEntry `toml:"repositories"`
	Updates        UpdateSettings    `toml:"updates"`
	configFilePath string            `toml:"-"`
}

// RepositoryEntry is one configured script repository.
type RepositoryEntry struct {
	// ID uniquely identifies the repository and namespaces its cache entries.
	ID string `json:"id" toml:"id" yaml:"id"`

	// Name is the human-readable repository name.
	Name string `json:"name" toml:"name" yaml:"name"`

	// Source is the manifest location: an http(s) URL, or a local path for
	// custom/offline repositories.
	Source string `json:"source" toml:"source" yaml:"source"`

	// Priority orders repositories in aggregated listings; lower comes first.
	Priority int `json:"priority,omitempty" toml:"priority,omitempty" yaml:"priority,omitempty"`

	// UserAdded marks repositories added by the user rather than shipped in
	// static configuration. Only user-added repositories may be removed.
	UserAdded bool `json:"userAdded,omitempty" toml:"user_added,omitempty" yaml:"user_added,omitempty"`
}

// UpdateSettings controls update-check throttling and automatic installation.
type UpdateSettings struct {
	// Interval is the minimum time between manifest re-checks per repository,
	// as a Go duration string (e.g. "24h"). Empty means the built-in default.
	Interval string `json:"interval,omitempty" toml:"interval,omitempty" yaml:"interval,omitempty"`

	// Auto triggers a batch update for updatable scripts as part of a
	// successful update check.
	Auto bool `json:"auto,omitempty" toml:"auto,omitempty" yaml:"auto,omitempty"`
}

// CheckInterval returns the configured re-check interval, falling back to the
// default when unset or unparseable (fail open: prefer an extra check).
func (u UpdateSettings) CheckInterval() time.Duration {
	raw := strings.TrimSpace(u.Interval)
	if raw == "" {
		return DefaultUpdateInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return DefaultUpdateInterval
	}
	return d
}
