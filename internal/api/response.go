package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"reportdesk/pkg/reportdesk"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// pageResponse wraps list results.
type pageResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type errorMessageSetter interface {
	SetErrorMessage(message string)
}

// writeError writes a plain error with an explicit status.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if setter, ok := w.(errorMessageSetter); ok {
		setter.SetErrorMessage(message)
	}
	response := ErrorResponse{Code: status, Message: message}
	if r != nil {
		response.RequestID = middleware.GetReqID(r.Context())
	}
	writeJSON(w, status, response)
}

// writeErrorResponse maps a core error to its HTTP status.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	response := ErrorResponse{Message: err.Error()}

	var coreErr *reportdesk.Error
	if errors.As(err, &coreErr) {
		status = mapErrorCodeToHTTPStatus(coreErr.Code)
		response.ErrorCode = string(coreErr.Code)
		response.Message = coreErr.Message
		if coreErr.Err != nil {
			response.Message += ": " + coreErr.Err.Error()
		}
	}
	response.Code = status
	if r != nil {
		response.RequestID = middleware.GetReqID(r.Context())
	}
	if setter, ok := w.(errorMessageSetter); ok {
		setter.SetErrorMessage(err.Error())
	}
	writeJSON(w, status, response)
}

func mapErrorCodeToHTTPStatus(code reportdesk.ErrorCode) int {
	switch code {
	case reportdesk.ErrCodeInvalidInput, reportdesk.ErrCodeValidation:
		return http.StatusBadRequest
	case reportdesk.ErrCodeNotFound:
		return http.StatusNotFound
	case reportdesk.ErrCodeUpstream:
		return http.StatusBadGateway
	case reportdesk.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
