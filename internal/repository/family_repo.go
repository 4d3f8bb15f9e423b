package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familyvault/internal/database"
	"familyvault/internal/models"
)

// FamilyRepository handles database operations for family accounts
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// CreateFamily inserts a new family account
func (r *FamilyRepository) CreateFamily(name, email, passwordHash, description, profileImage string) (*models.Family, error) {
	query := `
		INSERT INTO families (name, email, password_hash, description, profile_image)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, name, email, passwordHash, description, profileImage)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	family := &models.Family{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Description:  description,
		ProfileImage: profileImage,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	return family, nil
}

// GetFamilyByID retrieves a family by ID
func (r *FamilyRepository) GetFamilyByID(id int64) (*models.Family, error) {
	query := `
		SELECT id, name, email, password_hash, description, profile_image, created_at, updated_at
		FROM families
		WHERE id = ?
	`
	family := &models.Family{}
	err := r.db.QueryRow(query, id).Scan(
		&family.ID,
		&family.Name,
		&family.Email,
		&family.PasswordHash,
		&family.Description,
		&family.ProfileImage,
		&family.CreatedAt,
		&family.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}

	return family, nil
}

// GetFamilyByEmail retrieves a family by its login email
func (r *FamilyRepository) GetFamilyByEmail(email string) (*models.Family, error) {
	query := `
		SELECT id, name, email, password_hash, description, profile_image, created_at, updated_at
		FROM families
		WHERE email = ?
	`
	family := &models.Family{}
	err := r.db.QueryRow(query, email).Scan(
		&family.ID,
		&family.Name,
		&family.Email,
		&family.PasswordHash,
		&family.Description,
		&family.ProfileImage,
		&family.CreatedAt,
		&family.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family by email: %w", err)
	}

	return family, nil
}

// GetFamilyByName retrieves a family by its unique name
func (r *FamilyRepository) GetFamilyByName(name string) (*models.Family, error) {
	query := `
		SELECT id, name, email, password_hash, description, profile_image, created_at, updated_at
		FROM families
		WHERE name = ?
	`
	family := &models.Family{}
	err := r.db.QueryRow(query, name).Scan(
		&family.ID,
		&family.Name,
		&family.Email,
		&family.PasswordHash,
		&family.Description,
		&family.ProfileImage,
		&family.CreatedAt,
		&family.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family by name: %w", err)
	}

	return family, nil
}

// OwnsImage reports whether a stored image path belongs to the family:
// its own profile image, a member's profile image or a vault cover.
func (r *FamilyRepository) OwnsImage(familyID int64, path string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT id FROM families WHERE id = ? AND profile_image = ?
			UNION ALL
			SELECT id FROM members WHERE family_id = ? AND profile_image = ?
			UNION ALL
			SELECT id FROM vaults WHERE family_id = ? AND cover_image = ?
		) owned
	`
	var count int64
	err := r.db.QueryRow(query, familyID, path, familyID, path, familyID, path).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check image ownership: %w", err)
	}
	return count > 0, nil
}

// UpdateFamily updates a family's profile fields
func (r *FamilyRepository) UpdateFamily(id int64, name, description, profileImage string) error {
	query := `
		UPDATE families
		SET name = ?, description = ?, profile_image = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, name, description, profileImage, id)
	if err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}
	return nil
}
