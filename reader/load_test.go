package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Dispatch(t *testing.T) {
	pq := writeParquet(t, samplePeople())

	byName, err := Load("people.parquet", pq, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, byName.NumRows())

	byMagic, err := Load("people.bin", pq, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, byMagic.NumRows())

	text, err := Load("people.csv", []byte("a\n1\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, text.ColumnNames())
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "c.tsv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o600))
	}

	paths, err := ExpandPaths([]string{filepath.Join(dir, "*.csv"), filepath.Join(dir, "a.csv"), "plain.csv"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"), "plain.csv"}, paths)

	_, err = ExpandPaths([]string{filepath.Join(dir, "*.json")})
	assert.Error(t, err)
}
