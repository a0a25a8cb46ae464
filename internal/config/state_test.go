package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) (*UpdateState, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), stateFileName)
	s, err := LoadUpdateState(hclog.NewNullLogger(), path)
	require.NoError(t, err)
	return s, path
}

func TestUpdateState_RoundTrip(t *testing.T) {
	t.Parallel()

	s, path := newTestState(t)

	_, known := s.LastCheck("core")
	require.False(t, known)

	when := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.SetLastCheck("core", when))

	got, known := s.LastCheck("core")
	require.True(t, known)
	require.True(t, got.Equal(when))

	// Timestamps survive a reload.
	reloaded, err := LoadUpdateState(hclog.NewNullLogger(), path)
	require.NoError(t, err)

	got, known = reloaded.LastCheck("core")
	require.True(t, known)
	require.True(t, got.Equal(when))
}

func TestUpdateState_MissingFileMeansNeverChecked(t *testing.T) {
	t.Parallel()

	s, err := LoadUpdateState(hclog.NewNullLogger(), filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, known := s.LastCheck("core")
	require.False(t, known)
}

func TestUpdateState_CorruptFileMeansNeverChecked(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), stateFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := LoadUpdateState(hclog.NewNullLogger(), path)
	require.NoError(t, err)

	_, known := s.LastCheck("core")
	require.False(t, known)
}

func TestUpdateState_UnparseableTimestampMeansNeverChecked(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), stateFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"last_checks": {"core": "yesterday-ish"}}`), 0o644))

	s, err := LoadUpdateState(hclog.NewNullLogger(), path)
	require.NoError(t, err)

	_, known := s.LastCheck("core")
	require.False(t, known)
}

func TestUpdateState_Forget(t *testing.T) {
	t.Parallel()

	s, path := newTestState(t)

	require.NoError(t, s.SetLastCheck("core", time.Now()))
	require.NoError(t, s.Forget("core"))

	_, known := s.LastCheck("core")
	require.False(t, known)

	// Forgetting an unknown repository is a no-op.
	require.NoError(t, s.Forget("never-seen"))

	reloaded, err := LoadUpdateState(hclog.NewNullLogger(), path)
	require.NoError(t, err)
	_, known = reloaded.LastCheck("core")
	require.False(t, known)
}
