package web

// Errors reach clients as core.UserMessage values: the technical error is
// logged with the request ID, and the client receives the mapped message,
// action and code as JSON on /api routes or as an HTML page elsewhere.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/payrecon/internal/core"
	"github.com/JonMunkholm/payrecon/internal/loader"
	"github.com/JonMunkholm/payrecon/internal/logging"
	"github.com/JonMunkholm/payrecon/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Source  string `json:"source,omitempty"`
}

// statusFor picks the HTTP status of an error returned by the service.
func statusFor(err error) int {
	var (
		hnf *core.HeaderNotFoundError
		mce *core.MissingColumnError
	)
	switch {
	case errors.Is(err, core.ErrUnknownProfile), errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	case errors.As(err, &hnf), errors.As(err, &mce):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loader.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, loader.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	}

	if code := core.MapError(err).Code; strings.HasPrefix(code, "FILE") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorSource names the export an engine error refers to.
func errorSource(err error) string {
	var (
		hnf *core.HeaderNotFoundError
		mce *core.MissingColumnError
	)
	switch {
	case errors.As(err, &hnf):
		return string(hnf.Source)
	case errors.As(err, &mce):
		return string(mce.Source)
	}
	return ""
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		log.Error("request error", args...)
	} else {
		log.Warn("request error", args...)
	}

	if wantsJSON(r) {
		resp := errorResponse(msg)
		resp.Source = errorSource(err)
		writeJSONStatus(w, r, status, resp)
		return
	}
	respondMessage(w, r, status, msg)
}

// respondMessage writes msg without logging.
func respondMessage(w http.ResponseWriter, r *http.Request, status int, msg core.UserMessage) {
	if wantsJSON(r) {
		writeJSONStatus(w, r, status, errorResponse(msg))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

func errorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// wantsJSON reports whether the client should get a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
