// Package response writes JSON bodies. Success bodies are the domain payload
// itself; error bodies are {"error": message, "kind": kind, "fields": {...}}.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/grinfood/pkg/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Kind   apperr.Kind       `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Success sends a 200 with data.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 with data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Err sends the response for err, choosing the status from its Kind.
func Err(w http.ResponseWriter, err error) {
	kind, msg, fields := apperr.Public(err)
	JSON(w, apperr.HTTPStatus(kind), ErrorBody{Error: msg, Kind: kind, Fields: fields})
}

// Error sends a plain error with an explicit status.
func Error(w http.ResponseWriter, status int, kind apperr.Kind, message string) {
	JSON(w, status, ErrorBody{Error: message, Kind: kind})
}

// ValidationError sends a 400 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Err(w, apperr.Validation(errs))
}

// Forbidden sends a 403 insufficient_role.
func Forbidden(w http.ResponseWriter) {
	Err(w, apperr.New(apperr.KindInsufficientRole, "Insufficient rights"))
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Err(w, apperr.New(apperr.KindNotFound, "Not found"))
}
