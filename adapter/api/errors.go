package api

import (
	"errors"
	"log/slog"
	"net/http"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	taskDomain "github.com/felixgeelhaar/flowboard/internal/tasks/domain"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
)

// Codes of errors raised by the HTTP layer itself.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeTenantRequired = "TENANT_REQUIRED"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
	From    string              `json:"from,omitempty"`
	To      string              `json:"to,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeDomainError maps operational errors to their HTTP status. Anything
// unrecognized is logged and reported as an internal error.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	resp := ErrorResponse{Code: domain.ErrorCode(err), Message: err.Error()}

	var status int
	switch resp.Code {
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeConflict:
		status = http.StatusConflict
	case domain.CodeValidation:
		status = http.StatusUnprocessableEntity
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			resp.Fields = ve.Fields
		}
	case domain.CodeTransitionNotAllowed:
		status = http.StatusConflict
		var tna *domain.TransitionNotAllowedError
		if errors.As(err, &tna) {
			resp.From, resp.To = tna.From, tna.To
		}
	default:
		switch {
		case errors.Is(err, sharedApplication.ErrMissingTenant):
			status, resp.Code = http.StatusBadRequest, CodeTenantRequired
		case errors.Is(err, taskDomain.ErrTaskEmptyTitle), errors.Is(err, taskDomain.ErrTaskTitleTooLong):
			status, resp.Code = http.StatusUnprocessableEntity, domain.CodeValidation
			resp.Fields = map[string][]string{"title": {err.Error()}}
		case errors.Is(err, taskDomain.ErrStaleTransition):
			status, resp.Code = http.StatusConflict, domain.CodeConflict
		default:
			logger.ErrorContext(r.Context(), "request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			status = http.StatusInternalServerError
			resp = ErrorResponse{Code: CodeInternal, Message: "internal server error"}
		}
	}
	writeJSON(w, status, resp)
}
