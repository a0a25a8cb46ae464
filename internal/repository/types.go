// Package repository orchestrates configured script repositories: manifest
// retrieval, script download with checksum verification and retry, throttled
// update detection, and batch update.
package repository

import (
	"github.com/scriptler-dev/scriptler/internal/manifest"
)

// ScriptStatus is a manifest entry enriched with cache presence and
// update-available flags, tagged with its owning repository so identical
// script IDs in different repositories never collide.
type ScriptStatus struct {
	manifest.ScriptEntry

	// RepositoryID is the owning repository.
	RepositoryID string `json:"repositoryId"`

	// Cached reports whether verified content for this script is on disk.
	Cached bool `json:"cached"`

	// CachedChecksum is the checksum of the cached content, empty when not cached.
	CachedChecksum string `json:"cachedChecksum,omitempty"`

	// CachedPath is the resolvable location of the cached content, empty when
	// not cached.
	CachedPath string `json:"cachedPath,omitempty"`

	// UpdateAvailable is true when the script is cached and the manifest
	// declares a different checksum than the cached content.
	UpdateAvailable bool `json:"updateAvailable"`
}

// UpdateResult tallies a batch update. Updated+Failed equals the number of
// cache-resident scripts whose manifest checksum differed from their cached
// checksum when the batch started.
type UpdateResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
