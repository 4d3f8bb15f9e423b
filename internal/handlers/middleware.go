package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"familyvault/internal/models"
	"familyvault/internal/security"
	"familyvault/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionContextKey ContextKey = "session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService  *service.AuthService
	csrf         *security.CSRFGenerator
	loginLimiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, loginLimiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService:  authService,
		csrf:         csrf,
		loginLimiter: loginLimiter,
	}
}

// RequireSession validates the session cookie and stores the identity
// snapshot in the request context. The snapshot is taken exactly once
// here; handlers and services never re-read the session mid-action.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
			return
		}

		session, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			// Clear invalid cookie
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect validates the CSRF token on mutating requests. The token
// is read from the X-CSRF-Token header or, for form posts, the
// csrf_token field.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondJSON(w, http.StatusForbidden, errorResponse{Error: "Missing session"})
			return
		}

		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.FormValue("csrf_token")
		}
		if !m.csrf.ValidateToken(cookie.Value, token) {
			respondJSON(w, http.StatusForbidden, errorResponse{Error: "Invalid CSRF token"})
			return
		}

		next(w, r)
	}
}

// RateLimit throttles a handler per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.loginLimiter.Allow(ip) {
			respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// SessionFromContext retrieves the session snapshot from the request
// context
func SessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
