package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/scriptler-dev/scriptler/internal/errors"
	"github.com/scriptler-dev/scriptler/internal/manifest"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := NewCache(hclog.NewNullLogger(), WithDirectory(t.TempDir()))
	require.NoError(t, err)
	return c
}

func testEntry(id string) manifest.ScriptEntry {
	return manifest.ScriptEntry{
		ID:       id,
		Name:     id,
		URL:      "https://example.com/" + id + ".sh",
		Checksum: Checksum([]byte("content of " + id)),
	}
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	content := []byte("#!/bin/sh\necho hello\n")
	entry := testEntry("hello")
	entry.Checksum = Checksum(content)

	cached, err := c.Put("core", entry, content)
	require.NoError(t, err)
	require.Equal(t, "hello", cached.ScriptID)
	require.Equal(t, "core", cached.RepositoryID)
	require.Equal(t, Checksum(content), cached.Checksum)
	require.Equal(t, entry.Checksum, cached.ManifestChecksum)
	require.False(t, cached.CachedAt.IsZero())

	// The recorded checksum always matches the bytes on disk.
	onDisk, err := os.ReadFile(cached.Path)
	require.NoError(t, err)
	require.Equal(t, cached.Checksum, Checksum(onDisk))

	got, err := c.Get("core", "hello")
	require.NoError(t, err)
	require.Equal(t, cached, got)
}

func TestCache_GetAbsent(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	_, err := c.Get("core", "missing")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCache_PutOverwritePromotesNewContent(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	entry := testEntry("script")

	first, err := c.Put("core", entry, []byte("version one"))
	require.NoError(t, err)

	second, err := c.Put("core", entry, []byte("version two"))
	require.NoError(t, err)
	require.NotEqual(t, first.Checksum, second.Checksum)
	require.NotEqual(t, first.Path, second.Path, "content files are digest-addressed")

	got, err := c.Get("core", "script")
	require.NoError(t, err)
	require.Equal(t, second.Checksum, got.Checksum)

	onDisk, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	require.Equal(t, "version two", string(onDisk))

	// The superseded content file is gone.
	_, err = os.Stat(first.Path)
	require.True(t, os.IsNotExist(err))
}

func TestCache_ConcurrentPutsSameKey(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	entry := testEntry("racy")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := c.Put("core", entry, []byte{byte(n)})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Whatever won, metadata and content agree.
	got, err := c.Get("core", "racy")
	require.NoError(t, err)
	onDisk, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	require.Equal(t, got.Checksum, Checksum(onDisk))
}

func TestCache_ListScopesByRepository(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	_, err := c.Put("core", testEntry("a"), []byte("a"))
	require.NoError(t, err)
	_, err = c.Put("core", testEntry("b"), []byte("b"))
	require.NoError(t, err)
	_, err = c.Put("extras", testEntry("a"), []byte("different a"))
	require.NoError(t, err)

	all, err := c.List()
	require.NoError(t, err)
	require.Len(t, all, 3)

	core, err := c.ListRepository("core")
	require.NoError(t, err)
	require.Len(t, core, 2)

	// Same script id under another repository never collides.
	extras, err := c.ListRepository("extras")
	require.NoError(t, err)
	require.Len(t, extras, 1)
	require.Equal(t, "extras", extras[0].RepositoryID)

	none, err := c.ListRepository("unknown")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCache_RemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	cached, err := c.Put("core", testEntry("gone"), []byte("bye"))
	require.NoError(t, err)

	require.NoError(t, c.Remove("core", "gone"))
	_, err = os.Stat(cached.Path)
	require.True(t, os.IsNotExist(err))

	_, err = c.Get("core", "gone")
	require.ErrorIs(t, err, errors.ErrNotFound)

	// Removing an absent entry is not an error.
	require.NoError(t, c.Remove("core", "gone"))
	require.NoError(t, c.Remove("core", "never-existed"))
}

func TestCache_RemoveRepository(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	_, err := c.Put("core", testEntry("a"), []byte("a"))
	require.NoError(t, err)

	require.NoError(t, c.RemoveRepository("core"))
	require.NoError(t, c.RemoveRepository("core"))

	entries, err := c.ListRepository("core")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCache_RejectsUnsafeKeys(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	tc := []struct {
		name     string
		repoID   string
		scriptID string
	}{
		{name: "empty repository id", repoID: "", scriptID: "x"},
		{name: "empty script id", repoID: "core", scriptID: " "},
		{name: "path separator in repository id", repoID: "a/b", scriptID: "x"},
		{name: "path separator in script id", repoID: "core", scriptID: `..\up`},
		{name: "dot dot script id", repoID: "core", scriptID: ".."},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := c.Get(testCase.repoID, testCase.scriptID)
			require.ErrorIs(t, err, errors.ErrBadRequest)
		})
	}
}

func TestContentFileName(t *testing.T) {
	t.Parallel()

	sum := Checksum([]byte("x"))
	entry := manifest.ScriptEntry{ID: "tidy", URL: "https://example.com/scripts/tidy.sh?v=2"}
	name := contentFileName(sum, entry)
	require.Equal(t, sum[:digestPrefixLen]+"-tidy.sh", name)

	// URL without a usable basename falls back to the script id.
	entry = manifest.ScriptEntry{ID: "tidy", URL: "https://example.com/"}
	name = contentFileName(sum, entry)
	require.Equal(t, sum[:digestPrefixLen]+"-tidy", name)
}

func TestCache_PutSweepsUnreferencedContent(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	entry := testEntry("script")

	first, err := c.Put("core", entry, []byte("version one"))
	require.NoError(t, err)

	// A corrupt sidecar no longer names the old content file; the next
	// promote must still clean it up rather than leak it forever.
	entryDir := filepath.Dir(first.Path)
	require.NoError(t, os.WriteFile(filepath.Join(entryDir, "entry.json"), []byte("{corrupt"), 0o644))

	// A stray file from an interrupted write is equally unreferenced.
	stray := filepath.Join(entryDir, "deadbeef0000-script.sh")
	require.NoError(t, os.WriteFile(stray, []byte("half"), 0o755))

	second, err := c.Put("core", entry, []byte("version two"))
	require.NoError(t, err)

	_, err = os.Stat(first.Path)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(stray)
	require.True(t, os.IsNotExist(err))

	// Only the promoted content and its sidecar remain.
	dirEntries, err := os.ReadDir(entryDir)
	require.NoError(t, err)
	require.Len(t, dirEntries, 2)

	got, err := c.Get("core", "script")
	require.NoError(t, err)
	require.Equal(t, second.Checksum, got.Checksum)
}

func TestCache_InterruptedWriteInvisible(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	// A content file without promoted metadata never surfaces as an entry.
	dir := filepath.Join(c.Dir(), "core", "partial")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deadbeef-partial.sh"), []byte("half"), 0o755))

	entries, err := c.ListRepository("core")
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = c.Get("core", "partial")
	require.ErrorIs(t, err, errors.ErrNotFound)
}
