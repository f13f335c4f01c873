package web

// errors.go provides unified error response handling for the web layer.
//
// Errors are logged with their technical details and answered with the
// localized user message of their code: JSON for API clients, a full HTML
// page otherwise.

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/JonMunkholm/formatbridge/internal/web/templates"
)

var (
	errNotFound    = errors.New("page not found")
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("invalid request body")
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// userMessage maps err and translates the message for the request locale.
func (s *Server) userMessage(r *http.Request, err error) core.UserMessage {
	return core.LocalizedMessage(s.catalog, s.localeFor(r), core.MapError(err))
}

// respondError logs err and writes the user-facing message in the format
// the client expects.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := s.userMessage(r, err)

	level := slog.LevelWarn
	if statusCode >= 500 || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	)

	if wantsJSON(r) {
		writeJSON(w, r, statusCode, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}
	s.renderErrorPage(w, r, msg, statusCode)
}

func (s *Server) renderErrorPage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	locale := s.localeFor(r)
	s.render(w, r, statusCode, templates.Error(templates.ErrorPage{
		Page:   s.basePage(r, locale, s.catalog.T(locale, "page.error_title", "Error")),
		Status: statusCode,
		Alert:  alert(msg),
		Home:   "/" + locale + "/",
	}))
}

// statusForCode picks the HTTP status of a failed conversion or tool run.
func statusForCode(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case "CONV002", "CONV003", "FILE004", "REQ001":
		return http.StatusBadRequest
	case "CONV001", "CONV004", "CONV005", "FILE002", "PDF001", "PDF002":
		return http.StatusUnprocessableEntity
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "TOOL001", "REQ002":
		return http.StatusNotFound
	case "JOB001":
		return http.StatusServiceUnavailable
	case "RATE001":
		return http.StatusTooManyRequests
	case "UPL004":
		return http.StatusBadRequest
	case "UPL005":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func alert(msg core.UserMessage) templates.Alert {
	return templates.Alert{Message: msg.Message, Action: msg.Action, Code: msg.Code}
}
