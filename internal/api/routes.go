// Package api defines the HTTP surface the front end talks to. The front end
// owns presentation and is never allowed to write into the cache directly;
// everything goes through the repository manager.
package api

import (
	"context"

	"github.com/scriptler-dev/scriptler/internal/cache"
	"github.com/scriptler-dev/scriptler/internal/config"
	"github.com/scriptler-dev/scriptler/internal/repository"
)

// ManagerAccessor is the slice of the repository manager the API needs.
type ManagerAccessor interface {
	GetScripts(ctx context.Context, repositoryID string) ([]repository.ScriptStatus, error)
	DownloadScript(ctx context.Context, repositoryID, scriptID string) (cache.Entry, error)
	CheckForUpdates(ctx context.Context, repositoryID string, opt ...repository.CheckOption) (int, error)
	UpdateAllScripts(ctx context.Context, repositoryID string) (repository.UpdateResult, error)
	AvailableUpdates(ctx context.Context, repositoryID string) ([]repository.ScriptStatus, error)
	Orphans(ctx context.Context, repositoryID string) ([]cache.Entry, error)
	ListRepositories() []config.RepositoryEntry
	AddRepository(entry config.RepositoryEntry) (config.RepositoryEntry, error)
	RemoveRepository(id string) error
}
