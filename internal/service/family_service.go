package service

import (
	"fmt"

	"familyvault/internal/authz"
	"familyvault/internal/models"
	"familyvault/internal/repository"
)

// FamilyService handles family profile and dashboard operations
type FamilyService struct {
	familyRepo *repository.FamilyRepository
	memberRepo *repository.MemberRepository
	vaultRepo  *repository.VaultRepository
	memoryRepo *repository.MemoryRepository
}

// NewFamilyService creates a new family service
func NewFamilyService(familyRepo *repository.FamilyRepository, memberRepo *repository.MemberRepository, vaultRepo *repository.VaultRepository, memoryRepo *repository.MemoryRepository) *FamilyService {
	return &FamilyService{
		familyRepo: familyRepo,
		memberRepo: memberRepo,
		vaultRepo:  vaultRepo,
		memoryRepo: memoryRepo,
	}
}

// actorSnapshot converts a stored session into the resolver's identity
// snapshot. Taken once per user action.
func actorSnapshot(s *models.Session) authz.Session {
	if s == nil {
		return authz.Session{}
	}
	if s.LoginType == models.LoginTypeFamily {
		return authz.FamilySession(s.FamilyID)
	}
	return authz.MemberSession(s.FamilyID, s.MemberID, s.Role)
}

// FamilyProfile returns a family with its full member roster
func (s *FamilyService) FamilyProfile(actor *models.Session, familyID int64) (*models.FamilyProfile, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.Target{Kind: authz.TargetFamily, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	family, err := s.familyRepo.GetFamilyByID(familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNotFound
	}

	members, err := s.memberRepo.GetMembersByFamily(familyID)
	if err != nil {
		return nil, err
	}

	profile := &models.FamilyProfile{Family: *family}
	for _, m := range members {
		profile.Members = append(profile.Members, models.MemberEntry{
			Member:   m,
			Relation: m.Relation,
			Role:     m.Role,
		})
	}

	return profile, nil
}

// Stats aggregates the dashboard counters for a family
func (s *FamilyService) Stats(actor *models.Session, familyID int64) (*models.FamilyStats, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.Target{Kind: authz.TargetFamily, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	memories, err := s.memoryRepo.CountByFamily(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}
	members, err := s.memberRepo.CountByFamily(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	vaults, err := s.vaultRepo.CountByFamily(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count vaults: %w", err)
	}

	return &models.FamilyStats{
		TotalMemory: memories,
		TotalMember: members,
		TotalVault:  vaults,
	}, nil
}

// OwnsImage reports whether a stored image path is one of the actor's
// family's profile or cover images
func (s *FamilyService) OwnsImage(actor *models.Session, path string) (bool, error) {
	if actor == nil || path == "" {
		return false, nil
	}
	return s.familyRepo.OwnsImage(actor.FamilyID, path)
}

// UpdateFamily updates the family profile. Requires the family root
// login or an admin member.
func (s *FamilyService) UpdateFamily(actor *models.Session, familyID int64, name, description, profileImage string) (*models.Family, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionManageSettings, authz.Target{Kind: authz.TargetFamily, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	family, err := s.familyRepo.GetFamilyByID(familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNotFound
	}

	if name == "" {
		name = family.Name
	}
	if err := s.familyRepo.UpdateFamily(familyID, name, description, profileImage); err != nil {
		return nil, err
	}

	return s.familyRepo.GetFamilyByID(familyID)
}
