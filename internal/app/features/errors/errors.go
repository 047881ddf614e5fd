// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// GenericMessage is what callers see for any internal failure.
const GenericMessage = "Something went wrong. Please try again."

// ErrorLogger logs failures that happen in a handler outside an action
// (sessions, cookies, request bodies) and renders a response for them.
// Action failures are logged by the action runner instead.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err at error level and renders a generic 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	e.Log.Error(msg, fields...)
	respond.JSON(w, http.StatusInternalServerError, action.Result[struct{}]{
		Code:    apperr.CodeInternal,
		Message: GenericMessage,
	})
}

// LogBadRequest logs err at info level and renders a 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Info(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	respond.JSON(w, http.StatusBadRequest, action.Result[struct{}]{
		Code:    apperr.CodeInvalidInput,
		Message: userMsg,
	})
}
