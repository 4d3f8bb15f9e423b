package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familyvault/internal/database"
	"familyvault/internal/models"
)

// VaultRepository handles database operations for vaults and their
// member lists
type VaultRepository struct {
	db *database.DB
}

// NewVaultRepository creates a new vault repository
func NewVaultRepository(db *database.DB) *VaultRepository {
	return &VaultRepository{db: db}
}

// CreateVault inserts a vault and its member list in one transaction
func (r *VaultRepository) CreateVault(v *models.Vault) (*models.Vault, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO vaults (family_id, name, description, cover_image, theme, privacy, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := tx.ExecReturningID(query,
		v.FamilyID, v.Name, v.Description, v.CoverImage, v.Theme, v.Privacy, v.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault: %w", err)
	}

	for i, memberID := range v.Members {
		_, err := tx.Exec("INSERT INTO vault_members (vault_id, member_id, position) VALUES (?, ?, ?)",
			id, memberID, i)
		if err != nil {
			return nil, fmt.Errorf("failed to add vault member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit vault: %w", err)
	}

	created := *v
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = time.Now()
	return &created, nil
}

// GetVaultByID retrieves a vault with its member list
func (r *VaultRepository) GetVaultByID(id int64) (*models.Vault, error) {
	query := `
		SELECT id, family_id, name, description, cover_image, theme, privacy, COALESCE(created_by, 0), created_at, updated_at
		FROM vaults
		WHERE id = ?
	`
	vault := &models.Vault{}
	err := r.db.QueryRow(query, id).Scan(
		&vault.ID,
		&vault.FamilyID,
		&vault.Name,
		&vault.Description,
		&vault.CoverImage,
		&vault.Theme,
		&vault.Privacy,
		&vault.CreatedBy,
		&vault.CreatedAt,
		&vault.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}

	members, err := r.GetVaultMemberIDs(id)
	if err != nil {
		return nil, err
	}
	vault.Members = members

	return vault, nil
}

// GetVaultsByFamily retrieves all vaults of a family with member lists
func (r *VaultRepository) GetVaultsByFamily(familyID int64) ([]models.Vault, error) {
	query := `
		SELECT id, family_id, name, description, cover_image, theme, privacy, COALESCE(created_by, 0), created_at, updated_at
		FROM vaults
		WHERE family_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vaults: %w", err)
	}
	defer rows.Close()

	var vaults []models.Vault
	for rows.Next() {
		var vault models.Vault
		if err := rows.Scan(
			&vault.ID,
			&vault.FamilyID,
			&vault.Name,
			&vault.Description,
			&vault.CoverImage,
			&vault.Theme,
			&vault.Privacy,
			&vault.CreatedBy,
			&vault.CreatedAt,
			&vault.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vault: %w", err)
		}
		vaults = append(vaults, vault)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vaults: %w", err)
	}

	for i := range vaults {
		members, err := r.GetVaultMemberIDs(vaults[i].ID)
		if err != nil {
			return nil, err
		}
		vaults[i].Members = members
	}

	return vaults, nil
}

// GetVaultMemberIDs retrieves the ordered member list of a vault
func (r *VaultRepository) GetVaultMemberIDs(vaultID int64) ([]int64, error) {
	rows, err := r.db.Query("SELECT member_id FROM vault_members WHERE vault_id = ? ORDER BY position ASC", vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vault members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vault member: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// UpdateVault updates a vault's fields and replaces its member list
func (r *VaultRepository) UpdateVault(v *models.Vault) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE vaults
		SET name = ?, description = ?, cover_image = ?, theme = ?, privacy = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := tx.Exec(query, v.Name, v.Description, v.CoverImage, v.Theme, v.Privacy, v.ID); err != nil {
		return fmt.Errorf("failed to update vault: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM vault_members WHERE vault_id = ?", v.ID); err != nil {
		return fmt.Errorf("failed to clear vault members: %w", err)
	}
	for i, memberID := range v.Members {
		_, err := tx.Exec("INSERT INTO vault_members (vault_id, member_id, position) VALUES (?, ?, ?)",
			v.ID, memberID, i)
		if err != nil {
			return fmt.Errorf("failed to add vault member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vault update: %w", err)
	}
	return nil
}

// DeleteVault deletes a vault; memories and member rows cascade
func (r *VaultRepository) DeleteVault(id int64) error {
	_, err := r.db.Exec("DELETE FROM vaults WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete vault: %w", err)
	}
	return nil
}

// CountByFamily counts the vaults of a family
func (r *VaultRepository) CountByFamily(familyID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM vaults WHERE family_id = ?", familyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vaults: %w", err)
	}
	return count, nil
}
