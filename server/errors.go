package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vegasq/csvview/chart"
	"github.com/vegasq/csvview/query"
	"github.com/vegasq/csvview/reader"
	"github.com/vegasq/csvview/session"
	"github.com/vegasq/csvview/store"
	"github.com/vegasq/csvview/table"
	"github.com/vegasq/csvview/transform"
)

// Error kinds reported in the "kind" field of error bodies.
const (
	KindParse       = "parse"
	KindJoin        = "join"
	KindQuery       = "query"
	KindNotFound    = "not_found"
	KindBadRequest  = "bad_request"
	KindTooLarge    = "too_large"
	KindRateLimited = "rate_limited"
	KindInternal    = "internal"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// requestError is a client mistake detected by a handler itself.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// classify maps an error to its HTTP status, error kind and optional detail.
func classify(err error) (int, string, string) {
	var (
		parseErr *reader.ParseError
		joinErr  *transform.JoinError
		queryErr *query.QueryError
		reqErr   *requestError
		maxErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, KindTooLarge, ""
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, KindParse, ""
	case errors.As(err, &joinErr):
		return http.StatusBadRequest, KindJoin, ""
	case errors.As(err, &queryErr):
		if queryErr.Kind == query.Internal {
			return http.StatusInternalServerError, KindQuery, queryErr.Kind.String()
		}
		return http.StatusBadRequest, KindQuery, queryErr.Kind.String()
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, KindNotFound, ""
	case errors.As(err, &reqErr),
		errors.Is(err, table.ErrColumnNotFound),
		errors.Is(err, transform.ErrUnknownColumn),
		errors.Is(err, transform.ErrTypeMismatch),
		errors.Is(err, chart.ErrNotEnoughNumeric),
		errors.Is(err, chart.ErrNotNumeric),
		errors.Is(err, chart.ErrUnknownKind):
		return http.StatusBadRequest, KindBadRequest, ""
	default:
		return http.StatusInternalServerError, KindInternal, ""
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, kind, detail := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		if kind == KindInternal {
			msg = "internal server error"
		}
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind, Detail: detail})
}
