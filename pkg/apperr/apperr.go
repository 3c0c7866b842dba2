// Package apperr defines the error taxonomy shared by services and the HTTP
// layer. Every error that crosses a service boundary carries a stable Kind,
// which decides the HTTP status and is echoed to clients as a
// machine-readable "kind" field.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindNoCredential       Kind = "no_credential"
	KindInvalidCredential  Kind = "invalid_credential"
	KindInsufficientRole   Kind = "insufficient_role"
	KindValidation         Kind = "validation_error"
	KindNotFound           Kind = "not_found"
	KindInvalidTransition  Kind = "invalid_transition"
	KindConflict           Kind = "conflict"
	KindCollaboratorFailed Kind = "collaborator_failure"
)

// Error is the concrete error type carried through the application.
type Error struct {
	Kind    Kind
	Op      string            // operation that failed, e.g. "orders.transition"
	Message string            // client-safe message
	Fields  map[string]string // per-field validation messages
	Err     error             // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(k + ": " + e.Fields[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of kind with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. An err that already carries a Kind keeps
// it; only Op is filled in when missing.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Op == "" {
			ae.Op = op
		}
		return err
	}
	return &Error{Kind: kind, Op: op, Message: defaultMessage(kind), Err: err}
}

// Collaborator wraps a store, provider or gateway failure.
func Collaborator(op string, err error) error {
	return Wrap(KindCollaboratorFailed, op, err)
}

// Validation builds a validation error from a field → message map.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// Field builds a single-field validation error.
func Field(field, message string) *Error {
	return Validation(map[string]string{field: message})
}

// KindOf returns the Kind carried by err, or KindCollaboratorFailed for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindCollaboratorFailed
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a Kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNoCredential, KindInvalidCredential, KindInsufficientRole:
		return http.StatusForbidden
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the kind, message and fields that may be shown to a client.
// Unclassified errors are reported as a generic collaborator failure.
func Public(err error) (Kind, string, map[string]string) {
	var ae *Error
	if errors.As(err, &ae) {
		msg := ae.Message
		if msg == "" {
			msg = defaultMessage(ae.Kind)
		}
		return ae.Kind, msg, ae.Fields
	}
	return KindCollaboratorFailed, defaultMessage(KindCollaboratorFailed), nil
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindNoCredential:
		return "No credential provided"
	case KindInvalidCredential:
		return "Invalid or expired credential"
	case KindInsufficientRole:
		return "Insufficient rights"
	case KindValidation:
		return "Validation failed"
	case KindNotFound:
		return "Not found"
	case KindInvalidTransition:
		return "Invalid status transition"
	case KindConflict:
		return "Conflict"
	default:
		return "Internal server error"
	}
}
