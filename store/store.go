// Package store holds the named tables of a session.
//
// A Store maps file names to parsed tables. Entries are created when a file
// parses successfully and replaced or removed on reload; a cache keyed by
// name and content hash lets an identical re-upload skip parsing.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vegasq/csvview/reader"
	"github.com/vegasq/csvview/table"
)

// ErrNotFound is returned when no table is registered under a name
var ErrNotFound = errors.New("table not found")

// DefaultConcurrency bounds parallel parsing in LoadFiles.
const DefaultConcurrency = 8

type entry struct {
	table *table.Table
	hash  uint64
}

// Store is a concurrency-safe registry of named tables.
type Store struct {
	mu          sync.RWMutex
	tables      map[string]entry
	order       []string
	opts        reader.Options
	logger      *slog.Logger
	concurrency int
}

// Option configures a Store.
type Option func(*Store)

// WithReaderOptions sets the parsing options used for every load.
func WithReaderOptions(opts reader.Options) Option {
	return func(s *Store) { s.opts = opts }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithConcurrency sets how many files LoadFiles parses at once.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables:      make(map[string]entry),
		logger:      slog.New(slog.DiscardHandler),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load parses data and registers the result under name.
//
// Loading byte-identical content under a name that is already registered
// returns the cached table. A failed load removes any previous entry under
// the same name.
func (s *Store) Load(name string, data []byte) (*table.Table, error) {
	hash := xxhash.Sum64(data)
	if t, ok := s.cached(name, hash); ok {
		s.logger.Debug("table cache hit", "table", name)
		return t, nil
	}

	t, err := reader.Load(name, data, s.opts)
	s.commit(name, hash, t, err)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile reads the file at path and registers it under its base name.
func (s *Store) LoadFile(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.Load(filepath.Base(path), data)
}

// LoadResult is the outcome of loading one file in LoadFiles.
type LoadResult struct {
	Path  string
	Name  string
	Table *table.Table
	Err   error
}

// LoadFiles parses files concurrently and registers each success under its
// base name. A failing file does not prevent the others from loading.
// Results follow the order of paths; tables are registered in that order
// too, so a repeated base name resolves to the last path given.
func (s *Store) LoadFiles(ctx context.Context, paths ...string) ([]LoadResult, error) {
	type parsed struct {
		hash  uint64
		table *table.Table
		err   error
	}

	results := make([]LoadResult, len(paths))
	staged := make([]parsed, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, path := range paths {
		results[i] = LoadResult{Path: path, Name: filepath.Base(path)}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				staged[i].err = fmt.Errorf("failed to read %s: %w", path, err)
				return nil
			}
			staged[i].hash = xxhash.Sum64(data)
			if t, ok := s.cached(results[i].Name, staged[i].hash); ok {
				staged[i].table = t
				return nil
			}
			staged[i].table, staged[i].err = reader.Load(results[i].Name, data, s.opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}

	for i := range results {
		s.commit(results[i].Name, staged[i].hash, staged[i].table, staged[i].err)
		results[i].Table = staged[i].table
		results[i].Err = staged[i].err
	}

	return results, nil
}

// Get returns the table registered under name.
func (s *Store) Get(name string) (*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e.table, nil
}

// Names returns the registered names in the order they were first loaded.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len returns the number of registered tables.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Remove drops the table registered under name and reports whether it
// existed.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(name)
}

// Bindings returns the named tables keyed by name, for handing to the
// query engine. With no names every registered table is bound.
func (s *Store) Bindings(names ...string) (map[string]*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(names) == 0 {
		names = s.order
	}

	bindings := make(map[string]*table.Table, len(names))
	for _, name := range names {
		e, ok := s.tables[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		bindings[name] = e.table
	}
	return bindings, nil
}

func (s *Store) cached(name string, hash uint64) (*table.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tables[name]
	if !ok || e.hash != hash {
		return nil, false
	}
	return e.table, true
}

func (s *Store) commit(name string, hash uint64, t *table.Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.removeLocked(name) {
			s.logger.Info("table removed after failed reload", "table", name)
		}
		s.logger.Warn("table load failed", "table", name, "error", err)
		return
	}

	if _, exists := s.tables[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tables[name] = entry{table: t, hash: hash}
	s.logger.Info("table loaded", "table", name, "rows", t.NumRows(), "columns", t.NumColumns())
}

func (s *Store) removeLocked(name string) bool {
	if _, ok := s.tables[name]; !ok {
		return false
	}
	delete(s.tables, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
