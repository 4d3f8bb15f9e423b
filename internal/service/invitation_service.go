package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"familyvault/internal/authz"
	"familyvault/internal/models"
	"familyvault/internal/repository"
	"familyvault/internal/security"
	"familyvault/internal/validation"
)

var ErrInvalidInvitation = errors.New("invalid or expired invitation")

// inviteClaims is the signed payload of an enrollment invitation token
type inviteClaims struct {
	FamilyID int64  `json:"familyId"`
	Email    string `json:"email"`
	Relation string `json:"relation"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// InvitationService issues and redeems signed enrollment invitations.
// Tokens are HS256-signed and also recorded in the database, so a token
// can be revoked by deleting its row and can be used at most once.
type InvitationService struct {
	invitationRepo *repository.InvitationRepository
	memberRepo     *repository.MemberRepository
	familyRepo     *repository.FamilyRepository
	secret         []byte
	duration       time.Duration
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invitationRepo *repository.InvitationRepository, memberRepo *repository.MemberRepository, familyRepo *repository.FamilyRepository, secret string, duration time.Duration) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		memberRepo:     memberRepo,
		familyRepo:     familyRepo,
		secret:         []byte(secret),
		duration:       duration,
	}
}

// InviteMember issues an invitation for an email to join the family and
// sends the enrollment link. Requires invite rights.
func (s *InvitationService) InviteMember(ctx context.Context, actor *models.Session, familyID int64, email, relationSelected, relationText, role string, emailService *EmailService) (*models.Invitation, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionInvite, authz.Target{Kind: authz.TargetMember, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if !models.ValidRole(role) {
		return nil, validation.ValidationError{Field: "role", Message: "role must be Admin or Member"}
	}
	relation, err := models.ResolveRelation(relationSelected, relationText)
	if err != nil {
		return nil, validation.ValidationError{Field: "relation", Message: err.Error()}
	}

	existing, err := s.memberRepo.GetMemberByEmailAndFamily(familyID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateMember
	}

	family, err := s.familyRepo.GetFamilyByID(familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNotFound
	}

	expiresAt := time.Now().Add(s.duration)
	claims := inviteClaims{
		FamilyID: familyID,
		Email:    email,
		Relation: relation.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        security.GenerateSessionID(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign invitation: %w", err)
	}

	invitation, err := s.invitationRepo.CreateInvitation(&models.Invitation{
		FamilyID:  familyID,
		Email:     email,
		Relation:  relation.String(),
		Role:      role,
		Token:     token,
		InvitedBy: actor.MemberID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store invitation: %w", err)
	}

	if emailService != nil && emailService.IsEnabled() {
		if err := emailService.SendInvitationEmail(ctx, email, family.Name, token); err != nil {
			return nil, fmt.Errorf("failed to send invitation email: %w", err)
		}
	}

	return invitation, nil
}

// ValidateInvitation verifies a token's signature and its stored row.
// It returns the invitation when the token is still redeemable.
func (s *InvitationService) ValidateInvitation(token string) (*models.Invitation, error) {
	claims := &inviteClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidInvitation
	}

	invitation, err := s.invitationRepo.GetInvitationByToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if invitation == nil || !invitation.IsValid() {
		return nil, ErrInvalidInvitation
	}

	return invitation, nil
}

// AcceptInvitation redeems a token: the invited person picks a name and
// password and becomes a member with the invited relation and role
func (s *InvitationService) AcceptInvitation(token, name, password string) (*models.Member, error) {
	invitation, err := s.ValidateInvitation(token)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.memberRepo.GetMemberByEmailAndFamily(invitation.FamilyID, invitation.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateMember
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member, err := s.memberRepo.CreateMember(&models.Member{
		FamilyID:     invitation.FamilyID,
		Name:         name,
		Email:        invitation.Email,
		Relation:     invitation.Relation,
		Role:         invitation.Role,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, err
	}

	if err := s.invitationRepo.MarkInvitationUsed(token); err != nil {
		return nil, fmt.Errorf("failed to mark invitation used: %w", err)
	}

	return member, nil
}

// ListInvitations returns a family's invitations. Requires invite
// rights.
func (s *InvitationService) ListInvitations(actor *models.Session, familyID int64) ([]models.Invitation, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionInvite, authz.Target{Kind: authz.TargetMember, FamilyID: familyID}) {
		return nil, ErrForbidden
	}
	return s.invitationRepo.GetInvitationsByFamily(familyID)
}
