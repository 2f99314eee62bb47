// internal/app/features/errors/errors.go

// Package errors holds the JSON error surface shared by every API
// feature. All error bodies have the shape {"error":"..."}.
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// JSON writes v with the given status. Encode failures are ignored; the
// status line is already on the wire.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error string `json:"error"`
}

// Error writes a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errBody{Error: msg})
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

// Forbidden writes a 403 with msg.
func Forbidden(w http.ResponseWriter, msg string) {
	Error(w, http.StatusForbidden, msg)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "not found"
	}
	Error(w, http.StatusNotFound, msg)
}

// Conflict writes a 409 with msg.
func Conflict(w http.ResponseWriter, msg string) {
	Error(w, http.StatusConflict, msg)
}

// ErrorLogger pairs error responses with structured log entries so
// handlers do not repeat the log-then-respond dance.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger on the app logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Internal logs err under op and writes a generic 500. The real error
// never reaches the client.
func (el *ErrorLogger) Internal(w http.ResponseWriter, op string, err error) {
	el.log.Error(op, zap.Error(err))
	Error(w, http.StatusInternalServerError, "internal error")
}

// Warn logs err under op at warn level without writing a response. For
// best-effort side work (notification fanout, blob cleanup) where the
// request itself succeeded.
func (el *ErrorLogger) Warn(op string, err error) {
	el.log.Warn(op, zap.Error(err))
}
