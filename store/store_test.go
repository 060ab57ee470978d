package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/csvview/reader"
)

func TestStore_LoadAndGet(t *testing.T) {
	s := New()

	tbl, err := s.Load("a.csv", []byte("x,y\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())

	got, err := s.Get("a.csv")
	require.NoError(t, err)
	assert.Same(t, tbl, got)

	_, err = s.Get("missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CacheHit(t *testing.T) {
	s := New()
	data := []byte("x\n1\n")

	first, err := s.Load("a.csv", data)
	require.NoError(t, err)
	second, err := s.Load("a.csv", append([]byte(nil), data...))
	require.NoError(t, err)
	assert.Same(t, first, second, "identical bytes must reuse the cached table")

	third, err := s.Load("a.csv", []byte("x\n2\n"))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, int64(2), third.Value(0, 0))

	other, err := s.Load("b.csv", data)
	require.NoError(t, err)
	assert.NotSame(t, first, other, "cache key includes the name")
}

func TestStore_FailedReloadRemovesEntry(t *testing.T) {
	s := New()
	_, err := s.Load("a.csv", []byte("x\n1\n"))
	require.NoError(t, err)

	_, err = s.Load("a.csv", []byte("x,y\n1\n"))
	var pe *reader.ParseError
	require.ErrorAs(t, err, &pe)

	_, err = s.Get("a.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStore_NamesOrderAndRemove(t *testing.T) {
	s := New()
	for _, name := range []string{"c.csv", "a.csv", "b.csv"} {
		_, err := s.Load(name, []byte("x\n1\n"))
		require.NoError(t, err)
	}
	// Reloading keeps the original position.
	_, err := s.Load("c.csv", []byte("x\n9\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"c.csv", "a.csv", "b.csv"}, s.Names())
	assert.True(t, s.Remove("a.csv"))
	assert.False(t, s.Remove("a.csv"))
	assert.Equal(t, []string{"c.csv", "b.csv"}, s.Names())
	assert.Equal(t, 2, s.Len())
}

func TestStore_Bindings(t *testing.T) {
	s := New()
	_, err := s.Load("a.csv", []byte("x\n1\n"))
	require.NoError(t, err)
	_, err = s.Load("b.csv", []byte("y\n2\n"))
	require.NoError(t, err)

	all, err := s.Bindings()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := s.Bindings("b.csv")
	require.NoError(t, err)
	assert.Len(t, one, 1)
	assert.Contains(t, one, "b.csv")

	_, err = s.Bindings("a.csv", "zzz.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReaderOptions(t *testing.T) {
	s := New(WithReaderOptions(reader.Options{Delimiter: ';'}))
	tbl, err := s.Load("semi.csv", []byte("a;b\n1;2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
}

func TestStore_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nann\n"), 0o600))

	s := New()
	_, err := s.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"people.csv"}, s.Names())

	_, err = s.LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestStore_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	good1 := filepath.Join(dir, "one.csv")
	bad := filepath.Join(dir, "bad.csv")
	good2 := filepath.Join(dir, "two.csv")
	require.NoError(t, os.WriteFile(good1, []byte("a\n1\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte(""), 0o600))
	require.NoError(t, os.WriteFile(good2, []byte("b\n2\n"), 0o600))

	s := New(WithConcurrency(2))
	results, err := s.LoadFiles(context.Background(), good1, bad, good2, filepath.Join(dir, "gone.csv"))
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "one.csv", results[0].Name)
	var pe *reader.ParseError
	assert.ErrorAs(t, results[1].Err, &pe)
	assert.NoError(t, results[2].Err)
	assert.Error(t, results[3].Err)

	assert.Equal(t, []string{"one.csv", "two.csv"}, s.Names())
}

func TestStore_LoadFilesCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	_, err := s.LoadFiles(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}

func TestStore_ConcurrentReads(t *testing.T) {
	s := New()
	_, err := s.Load("a.csv", []byte("x\n1\n"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Get("a.csv")
			_ = s.Names()
			_, _ = s.Load("a.csv", []byte("x\n1\n"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
