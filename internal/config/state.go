package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scriptler-dev/scriptler/internal/files"
	"github.com/scriptler-dev/scriptler/internal/perms"
)

// stateFileName holds per-repository update-check timestamps, kept outside the
// user-edited TOML config because the application rewrites it on every check.
const stateFileName = "state.json"

// UpdateState tracks when each repository was last checked for updates.
// Timestamps persist across process restarts; a missing or unparseable value
// is equivalent to "never checked".
// LoadUpdateState should be used to create instances of UpdateState.
type UpdateState struct {
	mu     sync.Mutex
	path   string
	logger hclog.Logger

	// lastChecks maps repository ID to an RFC3339 timestamp.
	lastChecks map[string]string
}

// DefaultStatePath returns the location of the persisted update-check state,
// following the XDG Base Directory Specification.
func DefaultStatePath() (string, error) {
	base, err := files.UserSpecificCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine state directory: %w", err)
	}
	return filepath.Join(base, stateFileName), nil
}

// LoadUpdateState reads persisted state from path. A missing or corrupt file
// yields empty state rather than an error: losing check recency only causes
// an extra check, never a missed one.
func LoadUpdateState(logger hclog.Logger, path string) (*UpdateState, error) {
	s := &UpdateState{
		path:       path,
		logger:     logger.Named("state"),
		lastChecks: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read update state file '%s': %w", path, err)
	}

	var persisted struct {
		LastChecks map[string]string `json:"last_checks"`
	}
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.logger.Warn("Update state file is corrupt, treating all repositories as never checked", "path", path, "error", err)
		return s, nil
	}
	if persisted.LastChecks != nil {
		s.lastChecks = persisted.LastChecks
	}

	return s, nil
}

// LastCheck returns the recorded last-check instant for a repository.
// The second return value is false when no valid timestamp is recorded.
func (s *UpdateState) LastCheck(repositoryID string) (time.Time, bool) {
	s.mu.Lock()
	raw, ok := s.lastChecks[repositoryID]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.logger.Warn("Unparseable last-check timestamp, treating as never checked",
			"repository", repositoryID, "value", raw)
		return time.Time{}, false
	}
	return t, true
}

// SetLastCheck records and persists the last-check instant for a repository.
func (s *UpdateState) SetLastCheck(repositoryID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastChecks[repositoryID] = t.UTC().Format(time.RFC3339)
	return s.save()
}

// Forget drops the recorded state for a repository, e.g. when it is removed.
func (s *UpdateState) Forget(repositoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lastChecks[repositoryID]; !ok {
		return nil
	}
	delete(s.lastChecks, repositoryID)
	return s.save()
}

// save must be called with mu held.
func (s *UpdateState) save() error {
	if err := files.EnsureAtLeastRegularDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(struct {
		LastChecks map[string]string `json:"last_checks"`
	}{LastChecks: s.lastChecks}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode update state: %w", err)
	}

	if err := files.WriteAtomic(s.path, data, perms.RegularFile); err != nil {
		return fmt.Errorf("failed to write update state file '%s': %w", s.path, err)
	}
	return nil
}
