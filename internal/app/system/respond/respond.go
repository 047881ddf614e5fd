// Package respond turns action results into HTTP responses and request
// bodies into action inputs.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
)

// MaxBody caps request bodies.
const MaxBody = 1 << 20

// Status maps a result code onto an HTTP status.
func Status(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeUpstream:
		return http.StatusBadGateway
	case apperr.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Result writes res. Successes use okStatus; a signed-out browser is sent
// to the login page instead of receiving a 401.
func Result[Out any](w http.ResponseWriter, r *http.Request, res action.Result[Out], okStatus int) {
	if res.Success {
		if okStatus == http.StatusNoContent {
			w.WriteHeader(okStatus)
			return
		}
		JSON(w, okStatus, res)
		return
	}
	if res.Code == apperr.CodeUnauthenticated && auth.WantsHTML(r) {
		http.Redirect(w, r, "/login?return="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	JSON(w, Status(res.Code), res)
}

// Fail writes err as a failed result.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	Result(w, r, action.Fail[struct{}](err), http.StatusOK)
}

// BadBody reports a request body Decode could not read.
func BadBody(w http.ResponseWriter) {
	JSON(w, http.StatusBadRequest, action.Result[struct{}]{
		Code:    apperr.CodeInvalidInput,
		Message: "The request body could not be read.",
	})
}

// ErrBadBody is returned by Decode for unreadable bodies.
var ErrBadBody = errors.New("request body could not be read")

// Decode fills dst, a pointer to a struct, from a JSON body or from form
// values. Form fields are matched by the struct's json tag names.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBody))
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %v", ErrBadBody, err)
		}
		return nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxBody)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return decodeForm(r.PostForm, dst)
}

func decodeForm(form url.Values, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("respond: decode into %T", dst)
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		vals, ok := form[name]
		if !ok {
			// Unchecked checkboxes are simply absent.
			continue
		}
		fv := v.Field(i)
		switch {
		case fv.Kind() == reflect.String:
			fv.SetString(vals[0])
		case fv.Kind() == reflect.Bool:
			fv.SetBool(truthy(vals[len(vals)-1]))
		case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.String:
			out := make([]string, 0, len(vals))
			for _, s := range vals {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			fv.Set(reflect.ValueOf(out))
		}
	}
	return nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Handle builds a handler for call. The input is decoded from the body
// (for non-GET requests) and then bind, if set, copies URL parameters in.
func Handle[In any, Out any](call func(context.Context, In) action.Result[Out], okStatus int, bind func(*http.Request, *In)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if r.Method != http.MethodGet {
			if err := Decode(r, &in); err != nil {
				BadBody(w)
				return
			}
		}
		if bind != nil {
			bind(r, &in)
		}
		Result(w, r, call(r.Context(), in), okStatus)
	}
}
