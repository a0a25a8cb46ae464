package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry records one verified cached script. The content at Path always
// matches Checksum: the metadata file naming an entry is only promoted after
// the fully-written content it points at.
type Entry struct {
	// ScriptID is the script's ID within its repository's manifest.
	ScriptID string `json:"script_id"`

	// RepositoryID identifies the repository the script came from.
	RepositoryID string `json:"repository_id"`

	// Path is the absolute location of the cached content, stable for the
	// execution layer to resolve and run.
	Path string `json:"path"`

	// Checksum is the hex SHA-256 of the bytes at Path, computed at write time.
	Checksum string `json:"checksum"`

	// ManifestChecksum is the checksum the repository's manifest declared for
	// this script when it was cached.
	ManifestChecksum string `json:"manifest_checksum"`

	// CachedAt is when the entry was last successfully promoted.
	CachedAt time.Time `json:"cached_at"`
}

// Checksum returns the lowercase hex SHA-256 digest of content.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
