// Package apperr defines the error taxonomy shared by handlers, stores and
// the HTTP transport.
//
// Handlers return these errors (wrapped with context as needed). The action
// wrapper converts them into a uniform Result, and the transport maps the
// result code onto an HTTP status or redirect.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Result codes carried by action results.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeInvalidInput    = "invalid_input"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeUpstream        = "upstream_failure"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal"
)

var (
	// ErrUnauthenticated means there is no valid session for the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound means the tenant-scoped lookup matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness rule was violated.
	ErrConflict = errors.New("conflict")
	// ErrUpstream means the email sender or payment provider failed.
	ErrUpstream = errors.New("upstream failure")
	// ErrRateLimited means the caller exceeded a rate limit.
	ErrRateLimited = errors.New("rate limited")
)

// InvalidInputError carries field-level validation messages.
type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// InvalidField is shorthand for a single-field InvalidInputError.
func InvalidField(field, msg string) error {
	return &InvalidInputError{Fields: map[string]string{field: msg}}
}

// NotFound wraps ErrNotFound with a user-facing message.
func NotFound(msg string) error {
	return &messageError{msg: msg, kind: ErrNotFound}
}

// Conflict wraps ErrConflict with a user-facing message.
func Conflict(msg string) error {
	return &messageError{msg: msg, kind: ErrConflict}
}

// Upstream wraps ErrUpstream around the underlying provider error.
func Upstream(msg string, err error) error {
	return &messageError{msg: msg, kind: ErrUpstream, cause: err}
}

// messageError pairs a sentinel with a message that is safe to show users.
type messageError struct {
	msg   string
	kind  error
	cause error
}

func (e *messageError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *messageError) Is(target error) bool { return target == e.kind }

func (e *messageError) Unwrap() error { return e.cause }

// Code maps err onto one of the result codes.
func Code(err error) string {
	var inv *InvalidInputError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inv):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrUpstream):
		return CodeUpstream
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}

// PublicMessage returns the message that may be shown to a user for err.
// Internal errors never leak their detail.
func PublicMessage(err error) string {
	var me *messageError
	if errors.As(err, &me) {
		return me.msg
	}
	switch Code(err) {
	case CodeUnauthenticated:
		return "Please sign in to continue."
	case CodeInvalidInput:
		return "Please correct the highlighted fields."
	case CodeNotFound:
		return "Not found."
	case CodeConflict:
		return "That already exists."
	case CodeUpstream:
		return "A dependent service is unavailable. Please try again."
	case CodeRateLimited:
		return "Too many requests. Please wait and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
