// Package session ties one user's tables to the engines.
//
// A Session owns a private table store and exposes every operation
// (load, preview, filter, sort, join, query, chart) as a method that logs
// the interaction. A Manager hands out sessions by id and expires the ones
// left idle, so no two sessions ever see each other's tables.
package session

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vegasq/csvview/chart"
	"github.com/vegasq/csvview/output"
	"github.com/vegasq/csvview/query"
	"github.com/vegasq/csvview/reader"
	"github.com/vegasq/csvview/store"
	"github.com/vegasq/csvview/table"
	"github.com/vegasq/csvview/transform"
)

// DefaultAlias is the binding name of the selected table in queries.
const DefaultAlias = "df"

// DefaultQuery is the query offered before the user writes one.
const DefaultQuery = "SELECT * FROM df LIMIT 5"

// Options configures new sessions.
type Options struct {
	Reader reader.Options

	// now is the clock, replaced in tests
	now func() time.Time
}

// Session is one user's isolated workspace.
type Session struct {
	id       string
	created  time.Time
	lastUsed atomic.Int64
	store    *store.Store
	logger   *slog.Logger
	now      func() time.Time
}

// TableInfo summarizes a loaded table.
type TableInfo struct {
	Name    string         `json:"name"`
	Rows    int            `json:"rows"`
	Columns []table.Column `json:"columns"`
}

// New creates a session with a random id and an empty store.
func New(logger *slog.Logger, opts Options) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}

	id := uuid.NewString()
	logger = logger.With("session", id)
	s := &Session{
		id:      id,
		created: now(),
		store:   store.New(store.WithReaderOptions(opts.Reader), store.WithLogger(logger)),
		logger:  logger,
		now:     now,
	}
	s.touch()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Created returns when the session was created.
func (s *Session) Created() time.Time { return s.created }

// LastUsed returns the time of the latest operation.
func (s *Session) LastUsed() time.Time { return time.Unix(0, s.lastUsed.Load()) }

func (s *Session) touch() { s.lastUsed.Store(s.now().UnixNano()) }

// Load parses data and registers it under name.
func (s *Session) Load(name string, data []byte) (*table.Table, error) {
	s.touch()
	t, err := s.store.Load(name, data)
	if err != nil {
		s.logger.Warn("table load failed", "table", name, "bytes", len(data), "error", err)
		return nil, err
	}
	s.logger.Info("table loaded", "table", name, "rows", t.NumRows(), "columns", t.NumColumns())
	return t, nil
}

// Table returns the named table.
func (s *Session) Table(name string) (*table.Table, error) {
	s.touch()
	return s.store.Get(name)
}

// Tables describes every loaded table in load order.
func (s *Session) Tables() []TableInfo {
	s.touch()
	names := s.store.Names()
	infos := make([]TableInfo, 0, len(names))
	for _, name := range names {
		t, err := s.store.Get(name)
		if err != nil {
			// removed concurrently
			continue
		}
		infos = append(infos, TableInfo{Name: name, Rows: t.NumRows(), Columns: t.Columns()})
	}
	return infos
}

// Remove drops the named table.
func (s *Session) Remove(name string) error {
	s.touch()
	if !s.store.Remove(name) {
		return fmt.Errorf("%w: %q", store.ErrNotFound, name)
	}
	s.logger.Info("table removed", "table", name)
	return nil
}

// Preview returns the chosen columns and at most maxRows rows of a table.
func (s *Session) Preview(name string, columns []string, maxRows int) (*table.Table, error) {
	t, err := s.Table(name)
	if err != nil {
		return nil, err
	}
	return output.Preview(t, columns, maxRows)
}

// Filter keeps the rows of a table whose column passes the filter for its
// type: greater than value for numeric columns, equal to it otherwise.
func (s *Session) Filter(name, column, value string) (*table.Table, error) {
	t, err := s.Table(name)
	if err != nil {
		return nil, err
	}
	result, err := transform.Filter(t, column, value)
	if err != nil {
		s.logger.Warn("filter failed", "table", name, "column", column, "error", err)
		return nil, err
	}
	s.logger.Info("table filtered", "table", name, "column", column, "rows", result.NumRows())
	return result, nil
}

// Sort returns a table sorted by one column.
func (s *Session) Sort(name, column string, ascending bool) (*table.Table, error) {
	t, err := s.Table(name)
	if err != nil {
		return nil, err
	}
	result, err := transform.SortBy(t, column, ascending)
	if err != nil {
		s.logger.Warn("sort failed", "table", name, "column", column, "error", err)
		return nil, err
	}
	s.logger.Info("table sorted", "table", name, "column", column, "ascending", ascending)
	return result, nil
}

// JoinColumns lists the columns two tables share.
func (s *Session) JoinColumns(left, right string) ([]string, error) {
	l, err := s.Table(left)
	if err != nil {
		return nil, err
	}
	r, err := s.Table(right)
	if err != nil {
		return nil, err
	}
	return transform.CommonColumns(l, r), nil
}

// Join joins two loaded tables on a shared column.
func (s *Session) Join(left, right, column string, kind transform.JoinKind) (*table.Table, error) {
	l, err := s.Table(left)
	if err != nil {
		return nil, err
	}
	r, err := s.Table(right)
	if err != nil {
		return nil, err
	}
	result, err := transform.Join(l, r, column, kind)
	if err != nil {
		s.logger.Warn("join failed", "left", left, "right", right, "column", column, "kind", kind.String(), "error", err)
		return nil, err
	}
	s.logger.Info("tables joined", "left", left, "right", right, "column", column, "kind", kind.String(), "rows", result.NumRows())
	return result, nil
}

// Query runs sql against the listed tables. The table named by selected is
// also bound as df; with no selection, a single bound table becomes df. When
// no tables are listed only the selected table is bound, or the only table
// of the session when nothing is selected.
func (s *Session) Query(sql string, tables []string, selected string) (*table.Table, error) {
	s.touch()
	bindings, err := s.bindings(tables, selected)
	if err != nil {
		return nil, err
	}

	start := s.now()
	result, err := query.Execute(sql, bindings)
	if err != nil {
		s.logger.Warn("query failed", "sql", sql, "error", err)
		return nil, err
	}
	s.logger.Info("query executed", "sql", sql, "rows", result.NumRows(), "columns", result.NumColumns(), "duration", s.now().Sub(start))
	return result, nil
}

func (s *Session) bindings(tables []string, selected string) (query.Bindings, error) {
	if len(tables) == 0 {
		switch names := s.store.Names(); {
		case selected != "":
			tables = []string{selected}
		case len(names) == 1:
			tables = names
		default:
			return query.Bindings{}, nil
		}
	}

	bound, err := s.store.Bindings(tables...)
	if err != nil {
		return nil, err
	}
	bindings := query.Bindings(bound)

	if _, taken := bindings[DefaultAlias]; taken {
		return bindings, nil
	}
	switch {
	case selected != "":
		t, err := s.store.Get(selected)
		if err != nil {
			return nil, err
		}
		bindings[DefaultAlias] = t
	case len(bindings) == 1:
		for _, t := range bound {
			bindings[DefaultAlias] = t
		}
	}
	return bindings, nil
}

// Chart projects two numeric columns of a table into a chart spec.
func (s *Session) Chart(name, x, y string, kind chart.Kind) (*chart.Spec, error) {
	t, err := s.Table(name)
	if err != nil {
		return nil, err
	}
	spec, err := chart.Project(t, x, y, kind)
	if err != nil {
		s.logger.Warn("chart failed", "table", name, "x", x, "y", y, "error", err)
		return nil, err
	}
	s.logger.Info("chart projected", "table", name, "kind", string(kind), "points", len(spec.Points))
	return spec, nil
}
