package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtxerr/pqbench/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCountCSV_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "x,y\n1,\"two, quoted\"\n3,4\n")

	stats, err := CountCSV(dir)
	require.NoError(t, err)
	assert.Equal(t, CSVStats{Files: 1, Header: []string{"x", "y"}, Rows: 2}, stats)
}

func TestCountCSV_Partitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "s", "part-00000.csv"), "x,y\n1,2\n3,4\n")
	writeFile(t, filepath.Join(dir, "s", "part-00001.csv"), "x,y\n5,6\n")
	writeFile(t, filepath.Join(dir, "s", "notes.txt"), "ignored\n")

	stats, err := CountCSV(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, int64(3), stats.Rows, "repeated headers are not data rows")
	assert.Equal(t, []string{"x", "y"}, stats.Header)
}

func TestCountCSV_HeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "part-00000.csv"), "x,y\n1,2\n")
	writeFile(t, filepath.Join(dir, "part-00001.csv"), "x,z\n1,2\n")

	_, err := CountCSV(dir)
	assert.ErrorIs(t, err, errors.ErrMalformedRecord)
}

func TestCountCSV_Empty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.csv"), "")

	stats, err := CountCSV(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Zero(t, stats.Rows)
	assert.Nil(t, stats.Header)
}
