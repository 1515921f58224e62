// Package common holds HTTP helpers shared by the API handlers.
package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bgsc/vaultui/app"
	"github.com/bgsc/vaultui/deposit"
	"github.com/bgsc/vaultui/vault"
)

// ErrBadRequest is returned when the provided HTTP request is malformed.
var ErrBadRequest = errors.New("invalid request parameters")

// HumanReadableError is a JSON error.
type HumanReadableError struct {
	Msg string `json:"msg"`
}

// HttpCodeForError maps an error to the status code it is reported with.
func HttpCodeForError(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, vault.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNoFlow):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNotConnected),
		errors.Is(err, app.ErrBusy),
		errors.Is(err, deposit.ErrBusy),
		errors.Is(err, deposit.ErrCompleted):
		return http.StatusConflict
	case errors.Is(err, deposit.ErrFlowClosed):
		return http.StatusGone
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HumanReadableJsonErrorHandler renders any error as human-readable JSON
// to the HTTP response stream `w`.
func HumanReadableJsonErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("x-content-type-options", "nosniff")
	w.WriteHeader(HttpCodeForError(err))

	_ = json.NewEncoder(w).Encode(HumanReadableError{Msg: err.Error()})
}
