package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "events.csv")
	require.NoError(t, os.WriteFile(path, []byte("type,client,tx,amount\n"), 0644))

	files, err := New(path).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestScanDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	sub := filepath.Join(tmpDir, "2026-01")
	require.NoError(t, os.MkdirAll(sub, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "b.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "stmt.qfx"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "report.pdf"), []byte("x"), 0644))

	files, err := New(tmpDir).Scan()
	require.NoError(t, err)

	// Lexical order by full path, unknown extensions skipped.
	assert.Equal(t, []string{
		filepath.Join(sub, "stmt.qfx"),
		filepath.Join(tmpDir, "a.csv"),
		filepath.Join(tmpDir, "b.csv"),
	}, files)
}

func TestScanMissingPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent")).Scan()
	assert.Error(t, err)
}

func TestScanEmptyDirectory(t *testing.T) {
	files, err := New(t.TempDir()).Scan()
	require.NoError(t, err)
	assert.Empty(t, files)
}
