package service

import (
	"errors"
	"fmt"

	"familyvault/internal/authz"
	"familyvault/internal/models"
	"familyvault/internal/repository"
	"familyvault/internal/security"
	"familyvault/internal/validation"
)

var ErrDuplicateMember = errors.New("member with this email already exists in the family")

// MemberInput carries the enrollment form fields for a new member
type MemberInput struct {
	Name         string
	Bio          string
	DateOfBirth  string
	Email        string
	Phone        string
	ProfileImage string
	Relation     string // enumerated selection, may be "Other"
	RelationText string // free text, required when Relation is "Other"
	Role         string
	Password     string
}

// MemberService handles member enrollment and lookup
type MemberService struct {
	memberRepo *repository.MemberRepository
	familyRepo *repository.FamilyRepository
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo *repository.MemberRepository, familyRepo *repository.FamilyRepository) *MemberService {
	return &MemberService{memberRepo: memberRepo, familyRepo: familyRepo}
}

// AddMember enrolls a new member with a full profile. Requires invite
// rights in the target family.
func (s *MemberService) AddMember(actor *models.Session, familyID int64, input MemberInput) (*models.Member, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionInvite, authz.Target{Kind: authz.TargetMember, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	if err := validation.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if !models.ValidRole(input.Role) {
		return nil, validation.ValidationError{Field: "role", Message: "role must be Admin or Member"}
	}
	relation, err := models.ResolveRelation(input.Relation, input.RelationText)
	if err != nil {
		return nil, validation.ValidationError{Field: "relation", Message: err.Error()}
	}

	existing, err := s.memberRepo.GetMemberByEmailAndFamily(familyID, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateMember
	}

	var passwordHash string
	if input.Password != "" {
		if err := validation.ValidatePassword(input.Password); err != nil {
			return nil, err
		}
		passwordHash, err = security.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	member := &models.Member{
		FamilyID:     familyID,
		Name:         input.Name,
		Bio:          input.Bio,
		DateOfBirth:  input.DateOfBirth,
		Email:        input.Email,
		Phone:        input.Phone,
		ProfileImage: input.ProfileImage,
		Relation:     relation.String(),
		Role:         input.Role,
		PasswordHash: passwordHash,
	}

	return s.memberRepo.CreateMember(member)
}

// AddExistingMember links an already-registered account into the acting
// family: the account is looked up globally by email and its profile is
// copied into a new member row under the new relation and role.
func (s *MemberService) AddExistingMember(actor *models.Session, familyID int64, email, relationSelected, relationText, role string) (*models.Member, error) {
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

	source, err := s.memberRepo.GetMemberByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if source == nil {
		return nil, ErrNotFound
	}

	existing, err := s.memberRepo.GetMemberByEmailAndFamily(familyID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateMember
	}

	member := &models.Member{
		FamilyID:     familyID,
		Name:         source.Name,
		Bio:          source.Bio,
		DateOfBirth:  source.DateOfBirth,
		Email:        source.Email,
		Phone:        source.Phone,
		ProfileImage: source.ProfileImage,
		Relation:     relation.String(),
		Role:         role,
		PasswordHash: source.PasswordHash,
	}

	return s.memberRepo.CreateMember(member)
}

// FindMemberByEmailAndFamily looks a member up by email within a family
func (s *MemberService) FindMemberByEmailAndFamily(actor *models.Session, familyID int64, email string) (*models.Member, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.Target{Kind: authz.TargetMember, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	member, err := s.memberRepo.GetMemberByEmailAndFamily(familyID, email)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotFound
	}
	return member, nil
}

// GetMember retrieves a member by ID, scoped to the actor's family
func (s *MemberService) GetMember(actor *models.Session, memberID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotFound
	}
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.MemberTarget(member)) {
		return nil, ErrForbidden
	}
	return member, nil
}
