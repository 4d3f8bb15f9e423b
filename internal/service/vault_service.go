package service

import (
	"fmt"

	"familyvault/internal/authz"
	"familyvault/internal/models"
	"familyvault/internal/repository"
	"familyvault/internal/validation"
)

// VaultInput carries the fields of a vault create or update request
type VaultInput struct {
	Name        string
	Description string
	CoverImage  string
	Theme       string
	Privacy     string
	Members     []int64
}

// VaultService handles vault lifecycle and visibility
type VaultService struct {
	vaultRepo  *repository.VaultRepository
	memberRepo *repository.MemberRepository
	memoryRepo *repository.MemoryRepository
}

// NewVaultService creates a new vault service
func NewVaultService(vaultRepo *repository.VaultRepository, memberRepo *repository.MemberRepository, memoryRepo *repository.MemoryRepository) *VaultService {
	return &VaultService{vaultRepo: vaultRepo, memberRepo: memberRepo, memoryRepo: memoryRepo}
}

// CreateVault creates a vault in the actor's family. The actor becomes
// the creator; listed members must belong to the same family.
func (s *VaultService) CreateVault(actor *models.Session, familyID int64, input VaultInput) (*models.Vault, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionCreate, authz.Target{Kind: authz.TargetVault, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	if err := validation.ValidateRequired("vaultName", input.Name); err != nil {
		return nil, err
	}
	if input.Privacy == "" {
		input.Privacy = models.VaultPrivate
	}
	if !models.ValidPrivacy(input.Privacy) {
		return nil, validation.ValidationError{Field: "privacy", Message: "privacy must be Private or Public"}
	}

	for _, memberID := range input.Members {
		member, err := s.memberRepo.GetMemberByID(memberID)
		if err != nil {
			return nil, err
		}
		if member == nil || member.FamilyID != familyID {
			return nil, validation.ValidationError{Field: "members", Message: fmt.Sprintf("member %d is not in this family", memberID)}
		}
	}

	vault := &models.Vault{
		FamilyID:    familyID,
		Name:        input.Name,
		Description: input.Description,
		CoverImage:  input.CoverImage,
		Theme:       input.Theme,
		Privacy:     input.Privacy,
		CreatedBy:   actor.MemberID,
		Members:     input.Members,
	}

	return s.vaultRepo.CreateVault(vault)
}

// GetVault retrieves one vault, enforcing its visibility rule
func (s *VaultService) GetVault(actor *models.Session, vaultID int64) (*models.Vault, error) {
	vault, err := s.vaultRepo.GetVaultByID(vaultID)
	if err != nil {
		return nil, err
	}
	if vault == nil {
		return nil, ErrNotFound
	}
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.VaultTarget(vault)) {
		return nil, ErrForbidden
	}

	memoryIDs, err := s.memoryRepo.GetMemoryIDsByVault(vault.ID)
	if err != nil {
		return nil, err
	}
	vault.Memories = memoryIDs

	return vault, nil
}

// ListFamilyVaults returns the family's vaults the actor may see.
// Visibility is resolved per vault on the server; a private vault the
// actor is not listed in (and did not create) is simply absent from the
// result.
func (s *VaultService) ListFamilyVaults(actor *models.Session, familyID int64) ([]models.Vault, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.Target{Kind: authz.TargetFamily, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	vaults, err := s.vaultRepo.GetVaultsByFamily(familyID)
	if err != nil {
		return nil, err
	}

	snapshot := actorSnapshot(actor)
	visible := make([]models.Vault, 0, len(vaults))
	for _, vault := range vaults {
		if !authz.CanPerform(snapshot, authz.ActionView, authz.VaultTarget(&vault)) {
			continue
		}
		memoryIDs, err := s.memoryRepo.GetMemoryIDsByVault(vault.ID)
		if err != nil {
			return nil, err
		}
		vault.Memories = memoryIDs
		visible = append(visible, vault)
	}

	return visible, nil
}

// UpdateVault updates a vault's fields and member list. Requires admin
// rights or the family root login; the vault's creator may also edit it.
func (s *VaultService) UpdateVault(actor *models.Session, vaultID int64, input VaultInput) (*models.Vault, error) {
	vault, err := s.vaultRepo.GetVaultByID(vaultID)
	if err != nil {
		return nil, err
	}
	if vault == nil {
		return nil, ErrNotFound
	}

	snapshot := actorSnapshot(actor)
	allowed := authz.CanPerform(snapshot, authz.ActionManageSettings, authz.VaultTarget(vault))
	if !allowed && actor.LoginType == models.LoginTypeMember && actor.MemberID == vault.CreatedBy {
		allowed = true
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if input.Name != "" {
		vault.Name = input.Name
	}
	vault.Description = input.Description
	vault.CoverImage = input.CoverImage
	vault.Theme = input.Theme
	if input.Privacy != "" {
		if !models.ValidPrivacy(input.Privacy) {
			return nil, validation.ValidationError{Field: "privacy", Message: "privacy must be Private or Public"}
		}
		vault.Privacy = input.Privacy
	}
	if input.Members != nil {
		for _, memberID := range input.Members {
			member, err := s.memberRepo.GetMemberByID(memberID)
			if err != nil {
				return nil, err
			}
			if member == nil || member.FamilyID != vault.FamilyID {
				return nil, validation.ValidationError{Field: "members", Message: fmt.Sprintf("member %d is not in this family", memberID)}
			}
		}
		vault.Members = input.Members
	}

	if err := s.vaultRepo.UpdateVault(vault); err != nil {
		return nil, err
	}

	return s.vaultRepo.GetVaultByID(vaultID)
}

// DeleteVault deletes a vault and its memories. Admin only.
func (s *VaultService) DeleteVault(actor *models.Session, vaultID int64) error {
	vault, err := s.vaultRepo.GetVaultByID(vaultID)
	if err != nil {
		return err
	}
	if vault == nil {
		return ErrNotFound
	}
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionDelete, authz.VaultTarget(vault)) {
		return ErrForbidden
	}

	return s.vaultRepo.DeleteVault(vaultID)
}
