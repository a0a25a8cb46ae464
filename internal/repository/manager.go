package repository

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/scriptler-dev/scriptler/internal/cache"
	"github.com/scriptler-dev/scriptler/internal/config"
	"github.com/scriptler-dev/scriptler/internal/errors"
	"github.com/scriptler-dev/scriptler/internal/manifest"
)

const managerName = "manager"

// Dependencies bundles the collaborators a Manager needs.
type Dependencies struct {
	Logger hclog.Logger
	Config config.Modifier
	Cache  *cache.Cache
	Loader *manifest.Loader
	State  *config.UpdateState
}

// Validate ensures all dependencies are present.
func (d Dependencies) Validate() error {
	var errs []error
	if d.Logger == nil {
		errs = append(errs, fmt.Errorf("logger is required"))
	}
	if d.Config == nil {
		errs = append(errs, fmt.Errorf("config is required"))
	}
	if d.Cache == nil {
		errs = append(errs, fmt.Errorf("cache is required"))
	}
	if d.Loader == nil {
		errs = append(errs, fmt.Errorf("manifest loader is required"))
	}
	if d.State == nil {
		errs = append(errs, fmt.Errorf("update state is required"))
	}
	return stdErrors.Join(errs...)
}

// Manager coordinates manifest retrieval, verified downloads, and updates
// across all configured repositories. Repositories own disjoint cache
// namespaces and state entries, so different repositories may be processed
// concurrently; within one repository, update-check and batch-update serialize
// on a per-repository lock.
// NewManager should be used to create instances of Manager.
type Manager struct {
	logger hclog.Logger
	cfg    config.Modifier
	cache  *cache.Cache
	loader *manifest.Loader
	state  *config.UpdateState
	client *http.Client

	maxChecksumAttempts int

	// flights collapses concurrent update checks for the same repository.
	flights singleflight.Group

	// mu guards repoLocks and lastCounts.
	mu        sync.Mutex
	repoLocks map[string]*sync.Mutex

	// lastCounts remembers the most recent update count per repository, served
	// when throttling suppresses a re-fetch.
	lastCounts map[string]int
}

// NewManager creates a repository manager with the provided dependencies and options.
func NewManager(deps Dependencies, opt ...Option) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for repository manager: %w", err)
	}

	opts, err := NewManagerOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Manager{
		logger:              deps.Logger.Named(managerName),
		cfg:                 deps.Config,
		cache:               deps.Cache,
		loader:              deps.Loader,
		state:               deps.State,
		client:              opts.client,
		maxChecksumAttempts: opts.maxChecksumAttempts,
		repoLocks:           make(map[string]*sync.Mutex),
		lastCounts:          make(map[string]int),
	}, nil
}

// ListRepositories returns the configured repositories in priority order.
func (m *Manager) ListRepositories() []config.RepositoryEntry {
	return m.cfg.ListRepositories()
}

// AddRepository adds and persists a user-added repository.
func (m *Manager) AddRepository(entry config.RepositoryEntry) (config.RepositoryEntry, error) {
	added, err := m.cfg.AddRepository(entry)
	if err != nil {
		return config.RepositoryEntry{}, err
	}
	m.logger.Info("Added repository", "id", added.ID, "source", added.Source)
	return added, nil
}

// RemoveRepository removes a user-added repository along with its cached
// scripts and check state. Built-in repositories are refused by the config layer.
func (m *Manager) RemoveRepository(id string) error {
	if err := m.cfg.RemoveRepository(id); err != nil {
		return err
	}
	if err := m.cache.RemoveRepository(id); err != nil {
		m.logger.Warn("Failed to remove cached scripts for repository", "id", id, "error", err)
	}
	if err := m.state.Forget(id); err != nil {
		m.logger.Warn("Failed to remove check state for repository", "id", id, "error", err)
	}
	m.logger.Info("Removed repository", "id", id)
	return nil
}

// DownloadScript fetches a script by ID from a repository's manifest, verifies
// its checksum with bounded retries, and stores it in the cache.
func (m *Manager) DownloadScript(ctx context.Context, repositoryID, scriptID string) (cache.Entry, error) {
	repo, ok := m.cfg.GetRepository(repositoryID)
	if !ok {
		return cache.Entry{}, fmt.Errorf("%w: repository '%s' is not configured", errors.ErrNotFound, repositoryID)
	}

	man, err := m.loader.Load(ctx, repo.Source)
	if err != nil {
		return cache.Entry{}, err
	}

	entry, ok := man.Get(scriptID)
	if !ok {
		return cache.Entry{}, fmt.Errorf(
			"%w: script '%s' is not listed in repository '%s'",
			errors.ErrNotFound, scriptID, repositoryID,
		)
	}

	return m.downloadEntry(ctx, repo, entry)
}

// downloadEntry downloads one manifest entry with checksum verification.
// A transport failure is terminal immediately; a checksum mismatch retries
// with a fresh cache-defeating parameter, assuming a stale intermediary copy.
// Nothing is promoted into the cache until a download verifies.
func (m *Manager) downloadEntry(
	ctx context.Context,
	repo config.RepositoryEntry,
	entry manifest.ScriptEntry,
) (cache.Entry, error) {
	for attempt := 1; attempt <= m.maxChecksumAttempts; attempt++ {
		downloadURL, err := manifest.CacheBust(entry.URL, attempt)
		if err != nil {
			return cache.Entry{}, fmt.Errorf(
				"%w: invalid download URL '%s' for script '%s': %w",
				errors.ErrBadRequest, entry.URL, entry.ID, err,
			)
		}

		content, err := m.fetchContent(ctx, downloadURL)
		if err != nil {
			return cache.Entry{}, err
		}

		sum := cache.Checksum(content)
		if manifest.EqualChecksums(sum, entry.Checksum) {
			cached, err := m.cache.Put(repo.ID, entry, content)
			if err != nil {
				return cache.Entry{}, err
			}
			m.logger.Debug("Downloaded script",
				"repository", repo.ID, "script", entry.ID, "checksum", sum, "attempts", attempt)
			return cached, nil
		}

		m.logger.Warn("Checksum mismatch on download, retrying with fresh cache-defeating parameter",
			"repository", repo.ID,
			"script", entry.ID,
			"attempt", attempt,
			"expected", entry.Checksum,
			"actual", sum,
		)
	}

	return cache.Entry{}, fmt.Errorf(
		"%w: script '%s' from repository '%s' after %d attempts",
		errors.ErrChecksum, entry.ID, repo.ID, m.maxChecksumAttempts,
	)
}

// fetchContent downloads script bytes, honoring the caller's context and
// wrapping transport failures as ErrNetwork.
func (m *Manager) fetchContent(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request for '%s': %w", errors.ErrBadRequest, downloadURL, err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download '%s': %w", errors.ErrNetwork, downloadURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: non-OK HTTP status from '%s': %d", errors.ErrNetwork, downloadURL, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read content from '%s': %w", errors.ErrNetwork, downloadURL, err)
	}
	return content, nil
}

// CheckForUpdates fetches a repository's manifest (subject to throttling) and
// returns the number of cached scripts with an update available. Concurrent
// checks for the same repository collapse into a single flight. A successful
// fetch always persists the check timestamp, whether or not updates were
// found; a failed fetch leaves it untouched. When auto-update is configured,
// updatable scripts are batch-updated as part of this call.
func (m *Manager) CheckForUpdates(ctx context.Context, repositoryID string, opt ...CheckOption) (int, error) {
	repo, ok := m.cfg.GetRepository(repositoryID)
	if !ok {
		return 0, fmt.Errorf("%w: repository '%s' is not configured", errors.ErrNotFound, repositoryID)
	}

	opts, err := NewCheckOptions(m.cfg.UpdateSettings().CheckInterval(), opt...)
	if err != nil {
		return 0, err
	}

	v, err, shared := m.flights.Do("check:"+repo.ID, func() (any, error) {
		return m.checkRepository(ctx, repo, opts)
	})
	if err != nil {
		return 0, err
	}
	if shared {
		m.logger.Debug("Update check shared with concurrent caller", "repository", repo.ID)
	}
	return v.(int), nil
}

func (m *Manager) checkRepository(ctx context.Context, repo config.RepositoryEntry, opts CheckOptions) (int, error) {
	lock := m.repoLock(repo.ID)
	lock.Lock()
	defer lock.Unlock()

	last, known := m.state.LastCheck(repo.ID)
	if !opts.force && !UpdateCheckNeeded(last, known, opts.interval) {
		count := m.lastCount(repo.ID)
		m.logger.Debug("Update check throttled, returning previous count",
			"repository", repo.ID, "count", count, "last_check", last)
		return count, nil
	}

	man, err := m.loader.Load(ctx, repo.Source)
	if err != nil {
		return 0, err
	}

	updatable, _, err := m.partitionCached(repo.ID, man)
	if err != nil {
		return 0, err
	}
	count := len(updatable)

	// The timestamp reflects fetch success, not whether updates were found.
	if err := m.state.SetLastCheck(repo.ID, time.Now()); err != nil {
		return 0, err
	}
	m.setLastCount(repo.ID, count)

	m.logger.Info("Checked repository for updates", "repository", repo.ID, "updates", count)

	if m.cfg.UpdateSettings().Auto && count > 0 {
		result := m.updateEntries(ctx, repo, updatable)
		m.setLastCount(repo.ID, result.Failed)
		m.logger.Info("Auto-update finished",
			"repository", repo.ID, "updated", result.Updated, "failed", result.Failed)
	}

	return count, nil
}

// CheckAllRepositories runs CheckForUpdates for every configured repository
// concurrently and returns per-repository counts. Individual repository
// failures are logged and skipped rather than aborting the rest.
func (m *Manager) CheckAllRepositories(ctx context.Context, opt ...CheckOption) map[string]int {
	repos := m.cfg.ListRepositories()

	var mu sync.Mutex
	counts := make(map[string]int, len(repos))

	g, ctx := errgroup.WithContext(ctx)
	for _, repo := range repos {
		g.Go(func() error {
			count, err := m.CheckForUpdates(ctx, repo.ID, opt...)
			if err != nil {
				m.logger.Warn("Update check failed for repository ... continuing",
					"repository", repo.ID, "error", err)
				return nil
			}
			mu.Lock()
			counts[repo.ID] = count
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return counts
}

// UpdateAllScripts re-downloads every cached script in a repository whose
// manifest checksum differs from its cached checksum. Individual script
// failures are tallied and the batch continues; only a manifest-level failure
// aborts the whole batch.
func (m *Manager) UpdateAllScripts(ctx context.Context, repositoryID string) (UpdateResult, error) {
	repo, ok := m.cfg.GetRepository(repositoryID)
	if !ok {
		return UpdateResult{}, fmt.Errorf("%w: repository '%s' is not configured", errors.ErrNotFound, repositoryID)
	}

	lock := m.repoLock(repo.ID)
	lock.Lock()
	defer lock.Unlock()

	man, err := m.loader.Load(ctx, repo.Source)
	if err != nil {
		return UpdateResult{}, err
	}

	updatable, _, err := m.partitionCached(repo.ID, man)
	if err != nil {
		return UpdateResult{}, err
	}

	result := m.updateEntries(ctx, repo, updatable)
	m.setLastCount(repo.ID, result.Failed)
	return result, nil
}

// updateEntries downloads each updatable entry, tallying successes and
// failures. Callers hold the repository lock.
func (m *Manager) updateEntries(
	ctx context.Context,
	repo config.RepositoryEntry,
	updatable []manifest.ScriptEntry,
) UpdateResult {
	var result UpdateResult
	for _, entry := range updatable {
		if _, err := m.downloadEntry(ctx, repo, entry); err != nil {
			m.logger.Warn("Failed to update script ... continuing",
				"repository", repo.ID, "script", entry.ID, "error", err)
			result.Failed++
			continue
		}
		result.Updated++
	}
	return result
}

// AvailableUpdates is a read-only view of the scripts with an update
// available: it fetches the manifest but never persists a check timestamp and
// never triggers auto-update.
func (m *Manager) AvailableUpdates(ctx context.Context, repositoryID string) ([]ScriptStatus, error) {
	repo, ok := m.cfg.GetRepository(repositoryID)
	if !ok {
		return nil, fmt.Errorf("%w: repository '%s' is not configured", errors.ErrNotFound, repositoryID)
	}

	man, err := m.loader.Load(ctx, repo.Source)
	if err != nil {
		return nil, err
	}

	updatable, _, err := m.partitionCached(repo.ID, man)
	if err != nil {
		return nil, err
	}

	statuses := make([]ScriptStatus, 0, len(updatable))
	for _, entry := range updatable {
		cached, err := m.cache.Get(repo.ID, entry.ID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, ScriptStatus{
			ScriptEntry:     entry,
			RepositoryID:    repo.ID,
			Cached:          true,
			CachedChecksum:  cached.Checksum,
			CachedPath:      cached.Path,
			UpdateAvailable: true,
		})
	}
	return statuses, nil
}

// Orphans lists cached scripts whose IDs no longer appear in the repository's
// current manifest. Orphans are never counted as updatable and never removed
// automatically.
func (m *Manager) Orphans(ctx context.Context, repositoryID string) ([]cache.Entry, error) {
	repo, ok := m.cfg.GetRepository(repositoryID)
	if !ok {
		return nil, fmt.Errorf("%w: repository '%s' is not configured", errors.ErrNotFound, repositoryID)
	}

	man, err := m.loader.Load(ctx, repo.Source)
	if err != nil {
		return nil, err
	}

	_, orphans, err := m.partitionCached(repo.ID, man)
	return orphans, err
}

// GetScripts merges manifest entries with cache status for one repository, or
// aggregates across all configured repositories when repositoryID is empty.
// In aggregate mode an unreachable repository is logged and skipped so one
// broken source doesn't blank the whole listing.
func (m *Manager) GetScripts(ctx context.Context, repositoryID string) ([]ScriptStatus, error) {
	if repositoryID != "" {
		repo, ok := m.cfg.GetRepository(repositoryID)
		if !ok {
			return nil, fmt.Errorf("%w: repository '%s' is not configured", errors.ErrNotFound, repositoryID)
		}
		return m.repositoryScripts(ctx, repo)
	}

	repos := m.cfg.ListRepositories()

	results := make([][]ScriptStatus, len(repos))
	g, ctx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		g.Go(func() error {
			statuses, err := m.repositoryScripts(ctx, repo)
			if err != nil {
				m.logger.Warn("Failed to list scripts for repository ... continuing",
					"repository", repo.ID, "error", err)
				return nil
			}
			results[i] = statuses
			return nil
		})
	}
	_ = g.Wait()

	var all []ScriptStatus
	for _, statuses := range results {
		all = append(all, statuses...)
	}
	return all, nil
}

func (m *Manager) repositoryScripts(ctx context.Context, repo config.RepositoryEntry) ([]ScriptStatus, error) {
	man, err := m.loader.Load(ctx, repo.Source)
	if err != nil {
		return nil, err
	}

	cached, err := m.cache.ListRepository(repo.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]cache.Entry, len(cached))
	for _, entry := range cached {
		byID[entry.ScriptID] = entry
	}

	entries := man.Entries()
	statuses := make([]ScriptStatus, 0, len(entries))
	for _, entry := range entries {
		status := ScriptStatus{
			ScriptEntry:  entry,
			RepositoryID: repo.ID,
		}
		if ce, ok := byID[entry.ID]; ok {
			status.Cached = true
			status.CachedChecksum = ce.Checksum
			status.CachedPath = ce.Path
			status.UpdateAvailable = !manifest.EqualChecksums(ce.Checksum, entry.Checksum)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// partitionCached splits a repository's cached scripts against a fresh
// manifest: entries to update (manifest checksum differs from cached), and
// orphans (cached but absent from the manifest). Scripts in the manifest but
// never cached appear in neither.
func (m *Manager) partitionCached(
	repositoryID string,
	man *manifest.Manifest,
) ([]manifest.ScriptEntry, []cache.Entry, error) {
	cached, err := m.cache.ListRepository(repositoryID)
	if err != nil {
		return nil, nil, err
	}

	var updatable []manifest.ScriptEntry
	var orphans []cache.Entry
	for _, ce := range cached {
		entry, ok := man.Get(ce.ScriptID)
		if !ok {
			orphans = append(orphans, ce)
			continue
		}
		if !manifest.EqualChecksums(entry.Checksum, ce.Checksum) {
			updatable = append(updatable, entry)
		}
	}
	return updatable, orphans, nil
}

func (m *Manager) repoLock(repositoryID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.repoLocks[repositoryID]
	if !ok {
		lock = &sync.Mutex{}
		m.repoLocks[repositoryID] = lock
	}
	return lock
}

func (m *Manager) lastCount(repositoryID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCounts[repositoryID]
}

func (m *Manager) setLastCount(repositoryID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCounts[repositoryID] = count
}
