package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vegasq/csvview/chart"
	"github.com/vegasq/csvview/output"
	"github.com/vegasq/csvview/session"
	"github.com/vegasq/csvview/table"
	"github.com/vegasq/csvview/transform"
)

type sessionResponse struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

type tablesResponse struct {
	Tables []session.TableInfo `json:"tables"`
}

type columnsResponse struct {
	Columns []string `json:"columns"`
}

type filterRequest struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

type sortRequest struct {
	Column    string `json:"column"`
	Ascending *bool  `json:"ascending"` // default true
}

type chartRequest struct {
	X    string `json:"x"`
	Y    string `json:"y"`
	Kind string `json:"kind"` // default scatter
}

type joinRequest struct {
	Left   string `json:"left"`
	Right  string `json:"right"`
	Column string `json:"column"`
	Kind   string `json:"kind"` // default inner
}

type queryRequest struct {
	SQL    *string  `json:"sql"`    // absent runs the default query
	Tables []string `json:"tables"` // empty binds only the selected table
	Table  string   `json:"table"`  // bound as df
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID(), Created: sess.Created()})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "session")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tablesResponse{Tables: sess.Tables()})
}

func (s *Server) handleUploadTable(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name, err := tableParam(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			err = badRequest("read body: %v", err)
		}
		writeError(w, s.logger, err)
		return
	}

	t, err := sess.Load(name, data)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session.TableInfo{Name: name, Rows: t.NumRows(), Columns: t.Columns()})
}

func (s *Server) handlePreviewTable(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name, err := tableParam(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	var columns []string
	if raw := r.URL.Query().Get("columns"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}
	}
	rows := 0
	if raw := r.URL.Query().Get("rows"); raw != "" {
		rows, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, s.logger, badRequest("rows must be an integer, got %q", raw))
			return
		}
	}

	t, err := sess.Preview(name, columns, rows)
	s.writeTable(w, t, err)
}

func (s *Server) handleRemoveTable(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name, err := tableParam(r)
	if err == nil {
		err = sess.Remove(name)
	}
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	sess, name, ok := s.tableRequest(w, r, &req)
	if !ok {
		return
	}
	if req.Column == "" {
		writeError(w, s.logger, badRequest("column is required"))
		return
	}
	t, err := sess.Filter(name, req.Column, req.Value)
	s.writeTable(w, t, err)
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	sess, name, ok := s.tableRequest(w, r, &req)
	if !ok {
		return
	}
	if req.Column == "" {
		writeError(w, s.logger, badRequest("column is required"))
		return
	}
	ascending := req.Ascending == nil || *req.Ascending
	t, err := sess.Sort(name, req.Column, ascending)
	s.writeTable(w, t, err)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	sess, name, ok := s.tableRequest(w, r, &req)
	if !ok {
		return
	}
	kind := chart.Scatter
	if req.Kind != "" {
		var err error
		if kind, err = chart.ParseKind(req.Kind); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}
	spec, err := sess.Chart(name, req.X, req.Y, kind)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.Left == "" || req.Right == "" {
		writeError(w, s.logger, badRequest("left and right are required"))
		return
	}

	kind := transform.JoinInner
	if req.Kind != "" {
		var err error
		if kind, err = transform.ParseJoinKind(req.Kind); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}
	t, err := sess.Join(req.Left, req.Right, req.Column, kind)
	s.writeTable(w, t, err)
}

func (s *Server) handleJoinColumns(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	left, right := r.URL.Query().Get("left"), r.URL.Query().Get("right")
	if left == "" || right == "" {
		writeError(w, s.logger, badRequest("left and right are required"))
		return
	}
	columns, err := sess.JoinColumns(left, right)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if columns == nil {
		columns = []string{}
	}
	writeJSON(w, http.StatusOK, columnsResponse{Columns: columns})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	sql := session.DefaultQuery
	if req.SQL != nil {
		sql = *req.SQL
	}
	t, err := sess.Query(sql, req.Tables, req.Table)
	s.writeTable(w, t, err)
}

// session resolves the {session} URL parameter, writing a 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		writeError(w, s.logger, err)
		return nil, false
	}
	return sess, true
}

// tableRequest resolves the session and table of a per-table POST and
// decodes its JSON body into req.
func (s *Server) tableRequest(w http.ResponseWriter, r *http.Request, req interface{}) (*session.Session, string, bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return nil, "", false
	}
	name, err := tableParam(r)
	if err == nil {
		err = decodeJSON(r, req)
	}
	if err != nil {
		writeError(w, s.logger, err)
		return nil, "", false
	}
	return sess, name, true
}

func (s *Server) writeTable(w http.ResponseWriter, t *table.Table, err error) {
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewDocument(t))
}

func tableParam(r *http.Request) (string, error) {
	name, err := url.PathUnescape(chi.URLParam(r, "table"))
	if err != nil || name == "" {
		return "", badRequest("invalid table name %q", chi.URLParam(r, "table"))
	}
	return name, nil
}

// decodeJSON decodes a JSON request body into v. An empty body leaves v
// at its zero value.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
