package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reportdesk/pkg/reportdesk"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, nil, http.StatusBadRequest, "bad input")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != http.StatusBadRequest || resp.Message != "bad input" || resp.ErrorCode != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	t.Run("structured error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeErrorResponse(rr, nil, reportdesk.NewError(reportdesk.ErrCodeNotFound, "credit report not found"))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ErrorCode != string(reportdesk.ErrCodeNotFound) || resp.Message != "credit report not found" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("wrapped cause", func(t *testing.T) {
		rr := httptest.NewRecorder()
		err := reportdesk.WrapError(reportdesk.ErrCodeUpstream, "model request failed", errors.New("timeout"))
		writeErrorResponse(rr, nil, err)

		if rr.Code != http.StatusBadGateway {
			t.Fatalf("expected status 502, got %d", rr.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Message != "model request failed: timeout" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeErrorResponse(rr, nil, errors.New("boom"))
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rr.Code)
		}
	})
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code reportdesk.ErrorCode
		want int
	}{
		{reportdesk.ErrCodeInvalidInput, http.StatusBadRequest},
		{reportdesk.ErrCodeValidation, http.StatusBadRequest},
		{reportdesk.ErrCodeNotFound, http.StatusNotFound},
		{reportdesk.ErrCodeUpstream, http.StatusBadGateway},
		{reportdesk.ErrCodeUnsupported, http.StatusNotImplemented},
		{reportdesk.ErrCodeDatabase, http.StatusInternalServerError},
		{reportdesk.ErrCodeInternal, http.StatusInternalServerError},
		{reportdesk.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapErrorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.code, tt.want, got)
		}
	}
}
