package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	cfg, err := LoadEmbedded()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "txreplay", cfg.Store.Firestore.CollectionPrefix)
	assert.False(t, cfg.Output.DumpTransactions)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: sqlite
  sqlite:
    path: /tmp/ledger.db
output:
  format: json
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/ledger.db", cfg.Store.SQLite.Path)
	assert.Equal(t, "json", cfg.Output.Format)
	// Untouched fields keep embedded defaults.
	assert.Equal(t, "txreplay", cfg.Store.Firestore.CollectionPrefix)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: redis\n"), 0644))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestValidateFirestoreRequiresProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: firestore\n"), 0644))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "project_id")
}

func TestValidateRejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0644))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "unknown output format")
}
