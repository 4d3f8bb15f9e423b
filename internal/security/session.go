package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID returns a fresh UUID to use as a session key. The
// same generator also names OAuth state values.
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest reports whether the request arrived over HTTPS,
// either directly or through a terminating proxy
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	// Terminated upstream by a reverse proxy or load balancer
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}

	if r.URL.Scheme == "https" {
		return true
	}

	return false
}

// CreateSessionCookie builds the login cookie: HttpOnly, SameSite-Lax,
// Secure whenever the request itself was secure
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie builds the expiring counterpart of a session
// cookie, used on logout and when an invalid cookie is cleared
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	}
}
