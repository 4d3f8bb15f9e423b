package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"familyvault/internal/service"
	"familyvault/internal/validation"
)

func TestRespondServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", validation.ValidationError{Field: "title", Message: "Title is required"}, http.StatusBadRequest},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired session", service.ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"family name taken", service.ErrFamilyNameTaken, http.StatusConflict},
		{"duplicate member", service.ErrDuplicateMember, http.StatusConflict},
		{"invalid invitation", service.ErrInvalidInvitation, http.StatusBadRequest},
		{"wrapped sentinel", errors.Join(errors.New("context"), service.ErrForbidden), http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondServiceError(recorder, tc.err)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, recorder.Code)
			}
		})
	}
}

func TestRespondServiceErrorValidationIncludesField(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondServiceError(recorder, validation.ValidationError{Field: "email", Message: "Invalid email format"})

	var resp errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Field != "email" {
		t.Fatalf("expected field 'email', got %q", resp.Field)
	}
	if resp.Error != "Invalid email format" {
		t.Fatalf("expected validation message, got %q", resp.Error)
	}
}

func TestRespondServiceErrorHidesInternalDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	respondServiceError(recorder, errors.New("pq: connection refused"))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "connection refused") {
		t.Fatalf("internal detail leaked to client: %s", recorder.Body.String())
	}
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected log to include error, got %q", buf.String())
	}
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var dst struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(req, &dst); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestDecodeJSONReadsBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Rose"}`))
	var dst struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(req, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Name != "Rose" {
		t.Fatalf("expected name 'Rose', got %q", dst.Name)
	}
}
