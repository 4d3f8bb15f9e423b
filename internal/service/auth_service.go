package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"familyvault/internal/models"
	"familyvault/internal/repository"
	"familyvault/internal/security"
	"familyvault/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrFamilyNameTaken    = errors.New("family name already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("not allowed")
	ErrNotFound           = errors.New("not found")
)

// AuthService handles authentication business logic for both the family
// root account and individual members
type AuthService struct {
	familyRepo      *repository.FamilyRepository
	memberRepo      *repository.MemberRepository
	sessionRepo     *repository.SessionRepository
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(familyRepo *repository.FamilyRepository, memberRepo *repository.MemberRepository, sessionRepo *repository.SessionRepository, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		familyRepo:      familyRepo,
		memberRepo:      memberRepo,
		sessionRepo:     sessionRepo,
		sessionDuration: sessionDuration,
	}
}

// RegisterFamily creates a new family root account
func (s *AuthService) RegisterFamily(name, email, password, description, profileImage string) (*models.Family, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.familyRepo.GetFamilyByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing family: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.familyRepo.GetFamilyByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to check family name: %w", err)
	}
	if existing != nil {
		return nil, ErrFamilyNameTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	family, err := s.familyRepo.CreateFamily(name, email, passwordHash, description, profileImage)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	return family, nil
}

// LoginFamily authenticates the family root account and creates a
// family-typed session. Both the email and the family name must match.
func (s *AuthService) LoginFamily(email, familyName, password string) (*models.Session, *models.Family, error) {
	family, err := s.familyRepo.GetFamilyByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get family: %w", err)
	}
	if family == nil || family.Name != familyName {
		return nil, nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, family.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session := &models.Session{
		ID:         security.GenerateSessionID(),
		LoginType:  models.LoginTypeFamily,
		FamilyID:   family.ID,
		LoginEmail: family.Email,
		ExpiresAt:  time.Now().Add(s.sessionDuration),
	}
	if err := s.sessionRepo.CreateSession(session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, family, nil
}

// LoginMember authenticates a member and creates a member-typed session
// carrying a snapshot of the member's role at login time
func (s *AuthService) LoginMember(email, password string) (*models.Session, *models.Member, error) {
	member, err := s.memberRepo.GetMemberByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil || member.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, member.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createMemberSession(member)
	if err != nil {
		return nil, nil, err
	}

	return session, member, nil
}

func (s *AuthService) createMemberSession(member *models.Member) (*models.Session, error) {
	session := &models.Session{
		ID:         security.GenerateSessionID(),
		LoginType:  models.LoginTypeMember,
		FamilyID:   member.FamilyID,
		MemberID:   member.ID,
		Role:       member.Role,
		LoginEmail: member.Email,
		ExpiresAt:  time.Now().Add(s.sessionDuration),
	}
	if err := s.sessionRepo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession checks a session and returns its identity snapshot
func (s *AuthService) ValidateSession(sessionID string) (*models.Session, error) {
	session, err := s.sessionRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		// Clean up expired session
		_ = s.sessionRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.sessionRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.sessionRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// OAuthLoginMember authenticates a member through an OAuth provider.
// The member account must already exist (created by enrollment); the
// provider is linked to it on first login.
func (s *AuthService) OAuthLoginMember(provider, subject, email, name string) (*models.Session, *models.Member, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	member, err := s.memberRepo.GetMemberByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth member: %w", err)
	}

	if member == nil {
		existing, err := s.memberRepo.GetMemberByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing member: %w", err)
		}
		if existing == nil {
			return nil, nil, ErrInvalidCredentials
		}
		if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
			return nil, nil, ErrEmailTaken
		}
		if err := s.memberRepo.LinkOAuthProvider(existing.ID, provider, subject); err != nil {
			return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
		}
		member = existing
	}

	// Fill the display name if the provider supplied one and we have none
	if member.Name == "" && name != "" {
		member.Name = strings.TrimSpace(name)
		_ = s.memberRepo.UpdateMember(member)
	}

	session, err := s.createMemberSession(member)
	if err != nil {
		return nil, nil, err
	}

	return session, member, nil
}
