// Package manifest models repository manifests and loads them from remote or
// local sources. Both supported wire layouts (a flat sequence of entries, or
// entries grouped under category keys) normalize to the same Manifest value at
// parse time, so no other component branches on layout.
package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/scriptler-dev/scriptler/internal/errors"
)

// Format identifies the wire layout a manifest was parsed from.
type Format string

const (
	// FormatFlat is a manifest document containing a sequence of script entries.
	FormatFlat Format = "flat"

	// FormatNested is a manifest document mapping category names to sequences
	// of script entries.
	FormatNested Format = "nested"
)

// ScriptEntry is one script's metadata within a manifest.
type ScriptEntry struct {
	// ID uniquely identifies the script within its manifest and is stable
	// across manifest revisions for the same logical script.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable script name.
	Name string `json:"name" yaml:"name"`

	// Category groups related scripts. For nested manifests this is filled
	// from the enclosing category key when the entry doesn't set it.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// URL is the script content download location.
	URL string `json:"url" yaml:"url"`

	// Checksum is the hex-encoded SHA-256 of the script content. It changes
	// when and only when the content changes.
	Checksum string `json:"checksum" yaml:"checksum"`

	// Dependencies lists IDs of scripts this script declares it needs.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Version is an optional human-facing version label.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Manifest is an immutable snapshot of the scripts a repository offers.
// New should be used to create instances of Manifest.
type Manifest struct {
	format  Format
	entries []ScriptEntry
	index   map[string]int
}

// New builds a Manifest from already-decoded entries, enforcing ID uniqueness.
// A duplicate ID fails with ErrValidation and no partial manifest is returned.
func New(format Format, entries []ScriptEntry) (*Manifest, error) {
	index := make(map[string]int, len(entries))
	for i, entry := range entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty id", errors.ErrValidation, i)
		}
		if prev, exists := index[id]; exists {
			return nil, fmt.Errorf(
				"%w: duplicate script id '%s' (entries %d and %d)",
				errors.ErrValidation, id, prev, i,
			)
		}
		index[id] = i
	}

	return &Manifest{
		format:  format,
		entries: slices.Clone(entries),
		index:   index,
	}, nil
}

// Format returns the wire layout this manifest was parsed from.
func (m *Manifest) Format() Format {
	return m.format
}

// Len returns the number of script entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns a copy of all script entries in manifest order.
func (m *Manifest) Entries() []ScriptEntry {
	return slices.Clone(m.entries)
}

// Get returns the entry for the given script ID.
func (m *Manifest) Get(id string) (ScriptEntry, bool) {
	i, ok := m.index[strings.TrimSpace(id)]
	if !ok {
		return ScriptEntry{}, false
	}
	return m.entries[i], true
}

// EqualChecksums reports whether two checksum values refer to the same digest.
// Manifests in the wild mix hex casing, so comparison is case-insensitive.
func EqualChecksums(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
