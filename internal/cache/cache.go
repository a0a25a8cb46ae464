// Package cache is the on-disk store of verified script content, keyed by
// (repository ID, script ID). Content is written to a temporary file and
// renamed into place, and the metadata sidecar that makes an entry visible is
// promoted last, so readers never observe a half-written entry.
package cache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scriptler-dev/scriptler/internal/errors"
	"github.com/scriptler-dev/scriptler/internal/files"
	"github.com/scriptler-dev/scriptler/internal/manifest"
	"github.com/scriptler-dev/scriptler/internal/perms"
)

const (
	cacheName = "cache"

	// metaFileName is the per-entry metadata sidecar.
	metaFileName = "entry.json"

	// digestPrefixLen is how many checksum characters prefix a content file name.
	digestPrefixLen = 12
)

// Cache manages cached script content and metadata.
// NewCache should be used to create instances of Cache.
type Cache struct {
	// dir is the root directory where cached scripts are stored.
	dir string

	// logger is used for logging cache operations.
	logger hclog.Logger

	// mu guards locks.
	mu sync.Mutex

	// locks serializes writers per (repository, script) key.
	locks map[string]*sync.Mutex
}

// NewCache creates a script cache rooted at the configured directory.
func NewCache(logger hclog.Logger, opts ...Option) (*Cache, error) {
	options, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	if err := files.EnsureAtLeastRegularDir(options.dir); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Cache{
		dir:    options.dir,
		logger: logger.Named(cacheName),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Put stores verified content for a script and returns the promoted Entry.
// The checksum recorded is computed from content here, never trusted from the
// caller; verification against the manifest's declared checksum happens before
// Put, at download time. Two concurrent writers for the same key serialize and
// the metadata reflects the last promote.
func (c *Cache) Put(repositoryID string, entry manifest.ScriptEntry, content []byte) (Entry, error) {
	entryDir, err := c.entryDir(repositoryID, entry.ID)
	if err != nil {
		return Entry{}, err
	}

	lock := c.keyLock(repositoryID, entry.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := files.EnsureAtLeastRegularDir(entryDir); err != nil {
		return Entry{}, fmt.Errorf("failed to create cache entry directory: %w", err)
	}

	sum := Checksum(content)
	contentPath := filepath.Join(entryDir, contentFileName(sum, entry))

	// Content first: a digest-named file either exists in full or not at all.
	if err := files.WriteAtomic(contentPath, content, perms.ScriptFile); err != nil {
		return Entry{}, fmt.Errorf("failed to write cached content for '%s/%s': %w", repositoryID, entry.ID, err)
	}

	promoted := Entry{
		ScriptID:         entry.ID,
		RepositoryID:     repositoryID,
		Path:             contentPath,
		Checksum:         sum,
		ManifestChecksum: entry.Checksum,
		CachedAt:         time.Now().UTC(),
	}

	meta, err := json.MarshalIndent(promoted, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode cache metadata for '%s/%s': %w", repositoryID, entry.ID, err)
	}

	// Metadata last: promotion makes the new content visible atomically.
	if err := files.WriteAtomic(filepath.Join(entryDir, metaFileName), meta, perms.RegularFile); err != nil {
		return Entry{}, fmt.Errorf("failed to write cache metadata for '%s/%s': %w", repositoryID, entry.ID, err)
	}

	// Anything the promoted metadata doesn't reference is unreachable now:
	// superseded content, and strays left behind by an interrupted write or a
	// corrupt sidecar. Removal is best effort.
	c.sweepEntryDir(entryDir, filepath.Base(contentPath))

	c.logger.Debug("Cached script", "repository", repositoryID, "script", entry.ID, "checksum", sum)
	return promoted, nil
}

// Get returns the cache entry for the given key, or ErrNotFound when absent.
// The recorded checksum is not re-verified on read; callers compare it against
// freshly fetched manifest values.
func (c *Cache) Get(repositoryID, scriptID string) (Entry, error) {
	entryDir, err := c.entryDir(repositoryID, scriptID)
	if err != nil {
		return Entry{}, err
	}

	entry, err := c.readMeta(entryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, fmt.Errorf(
				"%w: script '%s' is not cached for repository '%s'",
				errors.ErrNotFound, scriptID, repositoryID,
			)
		}
		return Entry{}, fmt.Errorf("failed to read cache metadata for '%s/%s': %w", repositoryID, scriptID, err)
	}
	return entry, nil
}

// List enumerates every cached script across all repositories.
func (c *Cache) List() ([]Entry, error) {
	repos, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory '%s': %w", c.dir, err)
	}

	var entries []Entry
	for _, repo := range repos {
		if !repo.IsDir() {
			continue
		}
		repoEntries, err := c.ListRepository(repo.Name())
		if err != nil {
			return nil, err
		}
		entries = append(entries, repoEntries...)
	}
	return entries, nil
}

// ListRepository enumerates cached scripts belonging to one repository.
// An unknown repository yields an empty result, not an error.
func (c *Cache) ListRepository(repositoryID string) ([]Entry, error) {
	repoDir, err := c.repoDir(repositoryID)
	if err != nil {
		return nil, err
	}

	scripts, err := os.ReadDir(repoDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory '%s': %w", repoDir, err)
	}

	var entries []Entry
	for _, script := range scripts {
		if !script.IsDir() {
			continue
		}
		entry, err := c.readMeta(filepath.Join(repoDir, script.Name()))
		if err != nil {
			if os.IsNotExist(err) {
				// Interrupted before promotion; the entry never became visible.
				continue
			}
			return nil, fmt.Errorf("failed to read cache metadata under '%s': %w", repoDir, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Remove deletes a cached script's content and metadata.
// Removing an absent entry is not an error.
func (c *Cache) Remove(repositoryID, scriptID string) error {
	entryDir, err := c.entryDir(repositoryID, scriptID)
	if err != nil {
		return err
	}

	lock := c.keyLock(repositoryID, scriptID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.RemoveAll(entryDir); err != nil {
		return fmt.Errorf("failed to remove cache entry '%s/%s': %w", repositoryID, scriptID, err)
	}

	c.logger.Debug("Removed cached script", "repository", repositoryID, "script", scriptID)
	return nil
}

// RemoveRepository deletes every cached script for a repository. Idempotent.
func (c *Cache) RemoveRepository(repositoryID string) error {
	repoDir, err := c.repoDir(repositoryID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(repoDir); err != nil {
		return fmt.Errorf("failed to remove cached repository '%s': %w", repositoryID, err)
	}
	return nil
}

// sweepEntryDir removes every file in an entry directory except the metadata
// sidecar and the content file it references. Callers hold the key lock.
func (c *Cache) sweepEntryDir(entryDir, keep string) {
	dirEntries, err := os.ReadDir(entryDir)
	if err != nil {
		c.logger.Warn("Failed to scan cache entry directory", "dir", entryDir, "error", err)
		return
	}
	for _, de := range dirEntries {
		name := de.Name()
		if name == metaFileName || name == keep {
			continue
		}
		stray := filepath.Join(entryDir, name)
		if err := os.Remove(stray); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("Failed to remove unreferenced cached content", "path", stray, "error", err)
		}
	}
}

func (c *Cache) readMeta(entryDir string) (Entry, error) {
	data, err := os.ReadFile(filepath.Join(entryDir, metaFileName))
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("corrupt cache metadata in '%s': %w", entryDir, err)
	}
	return entry, nil
}

func (c *Cache) repoDir(repositoryID string) (string, error) {
	if err := validateKeyComponent(repositoryID); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, repositoryID), nil
}

func (c *Cache) entryDir(repositoryID, scriptID string) (string, error) {
	if err := validateKeyComponent(repositoryID); err != nil {
		return "", err
	}
	if err := validateKeyComponent(scriptID); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, repositoryID, scriptID), nil
}

func (c *Cache) keyLock(repositoryID, scriptID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := repositoryID + "/" + scriptID
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

// validateKeyComponent rejects IDs that would escape the cache directory.
func validateKeyComponent(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("%w: cache key component cannot be empty", errors.ErrBadRequest)
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("%w: cache key component '%s' contains path separators", errors.ErrBadRequest, trimmed)
	}
	return nil
}

// contentFileName names content by digest prefix plus the basename from the
// entry's URL, so overwrites promote to a fresh path and the execution layer
// still sees a recognizable file name.
func contentFileName(sum string, entry manifest.ScriptEntry) string {
	base := ""
	if u, err := url.Parse(entry.URL); err == nil {
		base = path.Base(u.Path)
	}
	if base == "." || base == "/" || base == "" {
		base = entry.ID
	}
	if len(sum) > digestPrefixLen {
		sum = sum[:digestPrefixLen]
	}
	return sum + "-" + base
}
