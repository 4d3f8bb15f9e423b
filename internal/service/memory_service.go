package service

import (
	"fmt"
	"mime/multipart"

	"familyvault/internal/authz"
	"familyvault/internal/models"
	"familyvault/internal/repository"
	"familyvault/internal/storage"
	"familyvault/internal/upload"
	"familyvault/internal/validation"
)

// MemoryInput carries the metadata fields of an upload or edit request
type MemoryInput struct {
	Title       string
	Description string
	Kind        upload.Kind
	VaultID     int64 // 0 = family-wide
}

// MemoryService handles the memory lifecycle: upload, edit, delete and
// visibility-scoped listing
type MemoryService struct {
	memoryRepo *repository.MemoryRepository
	vaultRepo  *repository.VaultRepository
	memberRepo *repository.MemberRepository
	familyRepo *repository.FamilyRepository
	media      *storage.MediaStore
}

// NewMemoryService creates a new memory service
func NewMemoryService(memoryRepo *repository.MemoryRepository, vaultRepo *repository.VaultRepository, memberRepo *repository.MemberRepository, familyRepo *repository.FamilyRepository, media *storage.MediaStore) *MemoryService {
	return &MemoryService{
		memoryRepo: memoryRepo,
		vaultRepo:  vaultRepo,
		memberRepo: memberRepo,
		familyRepo: familyRepo,
		media:      media,
	}
}

// uploaderName resolves the display name recorded alongside a memory
func (s *MemoryService) uploaderName(actor *models.Session) (string, error) {
	if actor.LoginType == models.LoginTypeMember {
		member, err := s.memberRepo.GetMemberByID(actor.MemberID)
		if err != nil {
			return "", err
		}
		if member != nil {
			return member.Name, nil
		}
		return "", nil
	}
	family, err := s.familyRepo.GetFamilyByID(actor.FamilyID)
	if err != nil {
		return "", err
	}
	if family != nil {
		return family.Name, nil
	}
	return "", nil
}

// vaultViewable checks the owning vault's visibility rule for the actor
func (s *MemoryService) vaultViewable(actor *models.Session, vaultID int64) (bool, error) {
	vault, err := s.vaultRepo.GetVaultByID(vaultID)
	if err != nil {
		return false, err
	}
	if vault == nil {
		return false, nil
	}
	return authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.VaultTarget(vault)), nil
}

// UploadMemory validates and stores a new memory. The file must already
// have been extracted from the request under the kind's dispatch slot.
func (s *MemoryService) UploadMemory(actor *models.Session, familyID int64, input MemoryInput, file *multipart.FileHeader) (*models.Memory, error) {
	target := authz.Target{Kind: authz.TargetMemory, FamilyID: familyID, UploaderID: actor.MemberID}
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionCreate, target) {
		return nil, ErrForbidden
	}

	if err := validation.ValidateTitle(input.Title); err != nil {
		return nil, err
	}
	if !upload.ValidKind(input.Kind) {
		return nil, validation.ValidationError{Field: "uploadKind", Message: fmt.Sprintf("unknown upload kind %q", input.Kind)}
	}
	if file == nil {
		rule, _ := upload.RuleFor(input.Kind)
		return nil, validation.ValidationError{Field: rule.FieldName, Message: fmt.Sprintf("a file is required for a %s upload", input.Kind)}
	}

	// A vault-scoped memory requires view access to the vault
	if input.VaultID != 0 {
		ok, err := s.vaultViewable(actor, input.VaultID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrForbidden
		}
	}

	name, err := s.uploaderName(actor)
	if err != nil {
		return nil, err
	}

	mediaPath, err := s.media.Save(file, input.Kind)
	if err != nil {
		return nil, validation.ValidationError{Field: "media", Message: err.Error()}
	}

	memory := &models.Memory{
		FamilyID:     familyID,
		VaultID:      input.VaultID,
		Title:        input.Title,
		Description:  input.Description,
		Kind:         string(input.Kind),
		Media:        mediaPath,
		UploaderID:   actor.MemberID,
		UploaderName: name,
	}

	created, err := s.memoryRepo.CreateMemory(memory)
	if err != nil {
		_ = s.media.Remove(mediaPath)
		return nil, err
	}

	return created, nil
}

// EditMemory updates a memory's metadata and, when a replacement file
// is supplied, its media. A nil file keeps the existing media untouched.
func (s *MemoryService) EditMemory(actor *models.Session, memoryID int64, input MemoryInput, file *multipart.FileHeader) (*models.Memory, error) {
	memory, err := s.memoryRepo.GetMemoryByID(memoryID)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, ErrNotFound
	}
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionEdit, authz.MemoryTarget(memory)) {
		return nil, ErrForbidden
	}

	if err := validation.ValidateTitle(input.Title); err != nil {
		return nil, err
	}
	// A memory's kind is fixed: a replacement file would land in the
	// wrong dispatch slot and the stored preview mode would be wrong
	if input.Kind != "" && string(input.Kind) != memory.Kind {
		return nil, validation.ValidationError{Field: "uploadKind", Message: fmt.Sprintf("a %s memory cannot be changed to %s", memory.Kind, input.Kind)}
	}

	oldMedia := ""
	if file != nil {
		mediaPath, err := s.media.Save(file, upload.Kind(memory.Kind))
		if err != nil {
			return nil, validation.ValidationError{Field: "media", Message: err.Error()}
		}
		oldMedia = memory.Media
		memory.Media = mediaPath
	}

	memory.Title = input.Title
	memory.Description = input.Description

	if err := s.memoryRepo.UpdateMemory(memory); err != nil {
		if file != nil {
			_ = s.media.Remove(memory.Media)
		}
		return nil, err
	}

	if oldMedia != "" {
		_ = s.media.Remove(oldMedia)
	}

	return s.memoryRepo.GetMemoryByID(memoryID)
}

// DeleteMemory deletes a memory addressed by its composite scope and
// removes its media file. Admin only.
func (s *MemoryService) DeleteMemory(actor *models.Session, familyID, vaultID, memoryID int64) error {
	memory, err := s.memoryRepo.GetMemoryByID(memoryID)
	if err != nil {
		return err
	}
	if memory == nil {
		return ErrNotFound
	}
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionDelete, authz.MemoryTarget(memory)) {
		return ErrForbidden
	}

	deleted, err := s.memoryRepo.DeleteMemory(familyID, vaultID, memoryID)
	if err != nil {
		return err
	}
	if !deleted {
		// The composite address did not match the memory's actual scope
		return ErrNotFound
	}

	_ = s.media.Remove(memory.Media)
	return nil
}

// checkView runs the full visibility decision for one memory: the
// resolver first, then the owning vault's rule for vault-scoped ones
func (s *MemoryService) checkView(actor *models.Session, memory *models.Memory) error {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.MemoryTarget(memory)) {
		return ErrForbidden
	}
	if memory.VaultID != 0 {
		ok, err := s.vaultViewable(actor, memory.VaultID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
	}
	return nil
}

// GetMemory retrieves one memory, enforcing vault visibility for
// vault-scoped memories
func (s *MemoryService) GetMemory(actor *models.Session, memoryID int64) (*models.Memory, error) {
	memory, err := s.memoryRepo.GetMemoryByID(memoryID)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, ErrNotFound
	}
	if err := s.checkView(actor, memory); err != nil {
		return nil, err
	}

	return memory, nil
}

// GetMemoryByMedia resolves a stored media path back to its memory and
// runs the same visibility decision as GetMemory. Serving a media file
// goes through here so a leaked path is worthless outside the family.
func (s *MemoryService) GetMemoryByMedia(actor *models.Session, mediaPath string) (*models.Memory, error) {
	memory, err := s.memoryRepo.GetMemoryByMedia(mediaPath)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, ErrNotFound
	}
	if err := s.checkView(actor, memory); err != nil {
		return nil, err
	}

	return memory, nil
}

// ListFamilyMemories returns the family's memories the actor may see.
// Family-wide memories are visible to every member; vault-scoped ones
// follow their vault's visibility rule.
func (s *MemoryService) ListFamilyMemories(actor *models.Session, familyID int64) ([]models.Memory, error) {
	if !authz.CanPerform(actorSnapshot(actor), authz.ActionView, authz.Target{Kind: authz.TargetFamily, FamilyID: familyID}) {
		return nil, ErrForbidden
	}

	memories, err := s.memoryRepo.GetMemoriesByFamily(familyID)
	if err != nil {
		return nil, err
	}

	vaultVisible := make(map[int64]bool)
	visible := make([]models.Memory, 0, len(memories))
	for _, memory := range memories {
		if memory.VaultID != 0 {
			ok, known := vaultVisible[memory.VaultID]
			if !known {
				ok, err = s.vaultViewable(actor, memory.VaultID)
				if err != nil {
					return nil, err
				}
				vaultVisible[memory.VaultID] = ok
			}
			if !ok {
				continue
			}
		}
		visible = append(visible, memory)
	}

	return visible, nil
}

// ListVaultMemories returns one vault's memories after its view check
func (s *MemoryService) ListVaultMemories(actor *models.Session, vaultID int64) ([]models.Memory, error) {
	ok, err := s.vaultViewable(actor, vaultID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	return s.memoryRepo.GetMemoriesByVault(vaultID)
}
