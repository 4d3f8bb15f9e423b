package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"familyvault/internal/security"
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
	AuthParams  map[string]string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || provider.Config == nil || provider.Config.ClientID == "" || provider.Config.ClientSecret == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "OAuth provider not configured"})
		return
	}

	state := security.GenerateSessionID()

	h.setTempCookie(w, r, "oauth_state", state, 10*time.Minute)
	h.setTempCookie(w, r, "oauth_provider", providerKey, 10*time.Minute)

	redirectURL := h.oauthRedirectURL(r, providerKey)
	config := *provider.Config
	config.RedirectURL = redirectURL

	options := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	for key, value := range provider.AuthParams {
		options = append(options, oauth2.SetAuthURLParam(key, value))
	}

	authURL := config.AuthCodeURL(state, options...)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || provider.Config == nil || provider.Config.ClientID == "" || provider.Config.ClientSecret == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "OAuth provider not configured"})
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing authorization code"})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid OAuth state"})
		return
	}
	if providerCookie, err := r.Cookie("oauth_provider"); err == nil {
		if providerCookie.Value != providerKey {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "OAuth provider mismatch"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	redirectURL := h.oauthRedirectURL(r, providerKey)
	config := *provider.Config
	config.RedirectURL = redirectURL

	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Failed to exchange OAuth code"})
		return
	}

	userInfo, err := h.fetchGoogleUser(ctx, provider, token)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.clearTempCookie(w, r, "oauth_state")
	h.clearTempCookie(w, r, "oauth_provider")

	session, member, err := h.authService.OAuthLoginMember(providerKey, userInfo.Subject, userInfo.Email, userInfo.Name)
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

func (h *AuthHandler) fetchGoogleUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch Google user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch Google user info")
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse Google user info")
	}

	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
