package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/scriptler-dev/scriptler/internal/errors"
)

const flatManifest = `[
  {"id": "backup", "name": "Backup", "url": "https://example.com/backup.sh", "checksum": "aa11", "category": "system"},
  {"id": "cleanup", "name": "Cleanup", "url": "https://example.com/cleanup.sh", "checksum": "bb22", "category": "system", "dependencies": ["backup"]}
]`

const nestedManifest = `{
  "system": [
    {"id": "backup", "name": "Backup", "url": "https://example.com/backup.sh", "checksum": "aa11"},
    {"id": "cleanup", "name": "Cleanup", "url": "https://example.com/cleanup.sh", "checksum": "bb22", "dependencies": ["backup"]}
  ]
}`

func TestParse_LayoutInvariance(t *testing.T) {
	t.Parallel()

	flat, err := Parse([]byte(flatManifest))
	require.NoError(t, err)
	require.Equal(t, FormatFlat, flat.Format())

	nested, err := Parse([]byte(nestedManifest))
	require.NoError(t, err)
	require.Equal(t, FormatNested, nested.Format())

	// Both layouts normalize to the same scripts, category filled from the
	// enclosing key for the nested form.
	require.Equal(t, flat.Len(), nested.Len())
	for _, want := range flat.Entries() {
		got, ok := nested.Get(want.ID)
		require.True(t, ok, "script %q missing from nested parse", want.ID)
		require.Equal(t, want, got)
	}
}

func TestParse_NestedYAML(t *testing.T) {
	t.Parallel()

	doc := `
system:
  - id: backup
    name: Backup
    url: https://example.com/backup.sh
    checksum: aa11
network:
  - id: ping-sweep
    name: Ping sweep
    url: https://example.com/ping.sh
    checksum: cc33
`

	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, FormatNested, m.Format())
	require.Equal(t, 2, m.Len())

	entry, ok := m.Get("ping-sweep")
	require.True(t, ok)
	require.Equal(t, "network", entry.Category)
}

func TestParse_EntryCategoryWinsOverGroupKey(t *testing.T) {
	t.Parallel()

	doc := `{"misc": [{"id": "x", "name": "X", "url": "https://example.com/x", "checksum": "aa", "category": "tools"}]}`

	m, err := Parse([]byte(doc))
	require.NoError(t, err)

	entry, ok := m.Get("x")
	require.True(t, ok)
	require.Equal(t, "tools", entry.Category)
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()

	tc := []struct {
		name        string
		doc         string
		expectError error
	}{
		{
			name:        "not a document",
			doc:         `{{{`,
			expectError: errors.ErrParse,
		},
		{
			name:        "scalar document",
			doc:         `42`,
			expectError: errors.ErrParse,
		},
		{
			name:        "flat entry missing checksum",
			doc:         `[{"id": "x", "name": "X", "url": "https://example.com/x"}]`,
			expectError: errors.ErrValidation,
		},
		{
			name:        "flat entry missing url",
			doc:         `[{"id": "x", "name": "X", "checksum": "aa"}]`,
			expectError: errors.ErrValidation,
		},
		{
			name:        "flat entry missing id",
			doc:         `[{"name": "X", "url": "https://example.com/x", "checksum": "aa"}]`,
			expectError: errors.ErrValidation,
		},
		{
			name:        "nested entry missing checksum",
			doc:         `{"system": [{"id": "x", "name": "X", "url": "https://example.com/x"}]}`,
			expectError: errors.ErrValidation,
		},
		{
			name:        "duplicate ids across categories",
			doc:         `{"a": [{"id": "x", "name": "X", "url": "u", "checksum": "aa"}], "b": [{"id": "x", "name": "X", "url": "u", "checksum": "bb"}]}`,
			expectError: errors.ErrValidation,
		},
		{
			name:        "duplicate ids in flat list",
			doc:         `[{"id": "x", "name": "X", "url": "u", "checksum": "aa"}, {"id": "x", "name": "X", "url": "u", "checksum": "bb"}]`,
			expectError: errors.ErrValidation,
		},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			m, err := Parse([]byte(testCase.doc))
			require.ErrorIs(t, err, testCase.expectError)
			require.Nil(t, m, "no partial manifest on failure")
		})
	}
}

func TestLoader_Load_Remote(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(flatManifest))
	}))
	defer server.Close()

	loader, err := NewLoader(hclog.NewNullLogger())
	require.NoError(t, err)

	m, err := loader.Load(context.Background(), server.URL+"/manifest.json")
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	// The fetch must carry a cache-defeating parameter.
	require.NotEmpty(t, gotQuery.Get("ts"))
}

func TestLoader_Load_RemoteFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	loader, err := NewLoader(hclog.NewNullLogger())
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), server.URL)
	require.ErrorIs(t, err, errors.ErrNetwork)

	// Unreachable host.
	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	_, err = loader.Load(context.Background(), closedURL)
	require.ErrorIs(t, err, errors.ErrNetwork)
}

func TestLoader_Load_RemoteCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	loader, err := NewLoader(hclog.NewNullLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = loader.Load(ctx, server.URL)
	require.ErrorIs(t, err, errors.ErrNetwork)
}

func TestLoader_Load_Local(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(nestedManifest), 0o644))

	loader, err := NewLoader(hclog.NewNullLogger())
	require.NoError(t, err)

	m, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	// file:// prefix resolves to the same path.
	m2, err := loader.Load(context.Background(), "file://"+path)
	require.NoError(t, err)
	require.Equal(t, m.Len(), m2.Len())
}

func TestLoader_Load_LocalMissing(t *testing.T) {
	t.Parallel()

	loader, err := NewLoader(hclog.NewNullLogger())
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.NotErrorIs(t, err, errors.ErrNetwork)
}

func TestCacheBust(t *testing.T) {
	t.Parallel()

	busted, err := CacheBust("https://example.com/s.sh?v=1", 0)
	require.NoError(t, err)

	u, err := url.Parse(busted)
	require.NoError(t, err)
	require.Equal(t, "1", u.Query().Get("v"), "existing query parameters survive")
	require.NotEmpty(t, u.Query().Get("ts"))
	require.Empty(t, u.Query().Get("attempt"))

	retried, err := CacheBust("https://example.com/s.sh", 2)
	require.NoError(t, err)

	u, err = url.Parse(retried)
	require.NoError(t, err)
	require.Equal(t, "2", u.Query().Get("attempt"), "retries carry a distinct attempt ordinal")
}
