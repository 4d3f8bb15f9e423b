package handlers

import (
	"log"
	"net/http"

	"familyvault/internal/security"
	"familyvault/internal/service"
	"familyvault/internal/storage"
)

// AuthHandler handles authentication HTTP requests for both the family
// root account and members
type AuthHandler struct {
	authService          *service.AuthService
	emailService         *service.EmailService
	csrf                 *security.CSRFGenerator
	media                *storage.MediaStore
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService, csrf *security.CSRFGenerator, media *storage.MediaStore, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		emailService:         emailService,
		csrf:                 csrf,
		media:                media,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

// RegisterFamily handles POST /family/registerfamily. The request is
// multipart: familyName, description, email, password and an optional
// profileImage file.
func (h *AuthHandler) RegisterFamily(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	profileImage, err := saveProfileImage(h.media, r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	family, err := h.authService.RegisterFamily(
		r.FormValue("familyName"),
		r.FormValue("email"),
		r.FormValue("password"),
		r.FormValue("description"),
		profileImage,
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if h.emailService != nil && h.emailService.IsEnabled() {
		if err := h.emailService.SendWelcomeEmail(r.Context(), family.Email, family.Name); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", family.Email, err)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"family": family})
}

// LoginFamily handles POST /family/loginfamily
func (h *AuthHandler) LoginFamily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		FamilyName string `json:"familyName"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	session, family, err := h.authService.LoginFamily(req.Email, req.FamilyName, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"family":     family,
		"loginType":  session.LoginType,
		"loginEmail": session.LoginEmail,
	})
}

// LoginMember handles POST /member/loginmember
func (h *AuthHandler) LoginMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	session, member, err := h.authService.LoginMember(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"member":     member,
		"loginType":  session.LoginType,
		"loginEmail": session.LoginEmail,
	})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		_ = h.authService.Logout(cookie.Value)
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// CSRFToken handles GET /csrf-token: it returns the token clients must
// send on mutating requests
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
		return
	}
	token, err := h.csrf.GenerateToken(cookie.Value)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// Me handles GET /me: it returns the current session snapshot
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
		return
	}
	respondJSON(w, http.StatusOK, session)
}
