package daemon

import (
	"context"

	"github.com/scriptler-dev/scriptler/internal/api"
	"github.com/scriptler-dev/scriptler/internal/cache"
	"github.com/scriptler-dev/scriptler/internal/config"
	"github.com/scriptler-dev/scriptler/internal/repository"
)

var _ api.ManagerAccessor = (*stubManager)(nil)

// stubManager satisfies api.ManagerAccessor for server construction tests.
type stubManager struct{}

func (s *stubManager) GetScripts(context.Context, string) ([]repository.ScriptStatus, error) {
	return nil, nil
}

func (s *stubManager) DownloadScript(context.Context, string, string) (cache.Entry, error) {
	return cache.Entry{}, nil
}

func (s *stubManager) CheckForUpdates(context.Context, string, ...repository.CheckOption) (int, error) {
	return 0, nil
}

func (s *stubManager) UpdateAllScripts(context.Context, string) (repository.UpdateResult, error) {
	return repository.UpdateResult{}, nil
}

func (s *stubManager) AvailableUpdates(context.Context, string) ([]repository.ScriptStatus, error) {
	return nil, nil
}

func (s *stubManager) Orphans(context.Context, string) ([]cache.Entry, error) {
	return nil, nil
}

func (s *stubManager) ListRepositories() []config.RepositoryEntry {
	return nil
}

func (s *stubManager) AddRepository(entry config.RepositoryEntry) (config.RepositoryEntry, error) {
	return entry, nil
}

func (s *stubManager) RemoveRepository(string) error {
	return nil
}
