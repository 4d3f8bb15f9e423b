package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"familyvault/internal/security"
)

func TestCSRFProtectRejectsMissingToken(t *testing.T) {
	m := NewMiddleware(nil, security.NewCSRFGenerator("test-secret"), nil)
	handler := m.CSRFProtect(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodPost, "/vault/createVault", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "some-session"})
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
}

func TestCSRFProtectAcceptsValidHeaderToken(t *testing.T) {
	csrf := security.NewCSRFGenerator("test-secret")
	m := NewMiddleware(nil, csrf, nil)

	reached := false
	handler := m.CSRFProtect(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})

	token, err := csrf.GenerateToken("some-session")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/vault/createVault", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "some-session"})
	req.Header.Set("X-CSRF-Token", token)
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if !reached {
		t.Fatalf("expected handler to be reached, got status %d", recorder.Code)
	}
}

func TestCSRFProtectRejectsTokenForOtherSession(t *testing.T) {
	csrf := security.NewCSRFGenerator("test-secret")
	m := NewMiddleware(nil, csrf, nil)
	handler := m.CSRFProtect(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	token, err := csrf.GenerateToken("other-session")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/vault/createVault", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "some-session"})
	req.Header.Set("X-CSRF-Token", token)
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	m := NewMiddleware(nil, nil, security.NewRateLimiter(2, time.Minute))
	handler := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/family/loginfamily", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		recorder := httptest.NewRecorder()
		handler(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, recorder.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/family/loginfamily", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", recorder.Code)
	}
}
