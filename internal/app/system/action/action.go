// Package action composes session resolution, input validation and a
// business handler into a single callable with a uniform result shape.
//
// A handler wrapped by Wrap never observes a missing session or an input
// that failed validation. Errors it returns are mapped onto result codes
// through apperr; anything unclassified is logged and reported as a
// generic internal failure.
package action

import (
	"context"
	"errors"

	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// SessionResolver returns the principal for ctx, or (nil, nil) when the
// caller is signed out.
type SessionResolver func(ctx context.Context) (*auth.SessionUser, error)

// Request is what a wrapped handler receives.
type Request[In any] struct {
	Session *auth.SessionUser
	Input   In
}

// Result is the uniform outcome of every action.
type Result[Out any] struct {
	Success     bool              `json:"success"`
	Data        Out               `json:"data,omitempty"`
	Code        string            `json:"code,omitempty"`
	Message     string            `json:"message,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Runner holds what every wrapped action shares.
type Runner struct {
	Resolve SessionResolver
	Log     *zap.Logger
}

// NewRunner returns a Runner that resolves sessions from the request
// context populated by auth.SessionManager.LoadSessionUser.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{Resolve: auth.Resolve, Log: logger}
}

// Wrap returns a callable that resolves the session, validates the input
// and only then invokes h. name identifies the action in logs.
func Wrap[In validation.Validatable, Out any](rn *Runner, name string, h func(context.Context, Request[In]) (Out, error)) func(context.Context, In) Result[Out] {
	return func(ctx context.Context, in In) Result[Out] {
		user, err := rn.Resolve(ctx)
		if err != nil {
			return fail[Out](rn, name, err)
		}
		if user == nil {
			return fail[Out](rn, name, apperr.ErrUnauthenticated)
		}
		return run(ctx, rn, name, h, Request[In]{Session: user, Input: in})
	}
}

// WrapPublic is Wrap without the session requirement. It serves the few
// operations a signed-out visitor may perform, such as accepting an
// invitation. req.Session is nil unless the visitor happens to be signed in.
func WrapPublic[In validation.Validatable, Out any](rn *Runner, name string, h func(context.Context, Request[In]) (Out, error)) func(context.Context, In) Result[Out] {
	return func(ctx context.Context, in In) Result[Out] {
		user, err := rn.Resolve(ctx)
		if err != nil {
			return fail[Out](rn, name, err)
		}
		return run(ctx, rn, name, h, Request[In]{Session: user, Input: in})
	}
}

func run[In validation.Validatable, Out any](ctx context.Context, rn *Runner, name string, h func(context.Context, Request[In]) (Out, error), req Request[In]) Result[Out] {
	if err := schema.Check(req.Input); err != nil {
		return fail[Out](rn, name, err)
	}
	out, err := h(ctx, req)
	if err != nil {
		return fail[Out](rn, name, err)
	}
	return Result[Out]{Success: true, Data: out}
}

// Fail builds a failed Result from err.
func Fail[Out any](err error) Result[Out] {
	r := Result[Out]{
		Code:    apperr.Code(err),
		Message: apperr.PublicMessage(err),
	}
	var inv *apperr.InvalidInputError
	if errors.As(err, &inv) {
		r.FieldErrors = inv.Fields
	}
	return r
}

func fail[Out any](rn *Runner, name string, err error) Result[Out] {
	r := Fail[Out](err)
	switch r.Code {
	case apperr.CodeInternal:
		rn.Log.Error("action failed", zap.String("action", name), zap.Error(err))
	case apperr.CodeUpstream:
		rn.Log.Warn("action upstream failure", zap.String("action", name), zap.Error(err))
	}
	return r
}
