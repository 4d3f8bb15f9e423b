package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familyvault/internal/database"
	"familyvault/internal/models"
)

// MemoryRepository handles database operations for memories
type MemoryRepository struct {
	db *database.DB
}

// NewMemoryRepository creates a new memory repository
func NewMemoryRepository(db *database.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// CreateMemory inserts a new memory. A zero VaultID stores NULL: the
// memory is family-wide rather than vault-scoped.
func (r *MemoryRepository) CreateMemory(m *models.Memory) (*models.Memory, error) {
	query := `
		INSERT INTO memories (family_id, vault_id, title, description, kind, media, uploader_id, uploader_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var vaultID any
	if m.VaultID != 0 {
		vaultID = m.VaultID
	}
	id, err := r.db.ExecReturningID(query,
		m.FamilyID, vaultID, m.Title, m.Description, m.Kind, m.Media, m.UploaderID, m.UploaderName)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	created := *m
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = time.Now()
	return &created, nil
}

// GetMemoryByID retrieves a memory by ID
func (r *MemoryRepository) GetMemoryByID(id int64) (*models.Memory, error) {
	query := `
		SELECT id, family_id, COALESCE(vault_id, 0), title, description, kind, media, COALESCE(uploader_id, 0), uploader_name, created_at, updated_at
		FROM memories
		WHERE id = ?
	`
	memory := &models.Memory{}
	err := r.db.QueryRow(query, id).Scan(
		&memory.ID,
		&memory.FamilyID,
		&memory.VaultID,
		&memory.Title,
		&memory.Description,
		&memory.Kind,
		&memory.Media,
		&memory.UploaderID,
		&memory.UploaderName,
		&memory.CreatedAt,
		&memory.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}

	return memory, nil
}

// GetMemoryByMedia retrieves the memory that owns a stored media path
func (r *MemoryRepository) GetMemoryByMedia(media string) (*models.Memory, error) {
	query := `
		SELECT id, family_id, COALESCE(vault_id, 0), title, description, kind, media, COALESCE(uploader_id, 0), uploader_name, created_at, updated_at
		FROM memories
		WHERE media = ?
	`
	memory := &models.Memory{}
	err := r.db.QueryRow(query, media).Scan(
		&memory.ID,
		&memory.FamilyID,
		&memory.VaultID,
		&memory.Title,
		&memory.Description,
		&memory.Kind,
		&memory.Media,
		&memory.UploaderID,
		&memory.UploaderName,
		&memory.CreatedAt,
		&memory.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory by media: %w", err)
	}

	return memory, nil
}

// GetMemoriesByFamily retrieves all memories of a family, newest first
func (r *MemoryRepository) GetMemoriesByFamily(familyID int64) ([]models.Memory, error) {
	query := `
		SELECT id, family_id, COALESCE(vault_id, 0), title, description, kind, media, COALESCE(uploader_id, 0), uploader_name, created_at, updated_at
		FROM memories
		WHERE family_id = ?
		ORDER BY created_at DESC
	`
	return r.queryMemories(query, familyID)
}

// GetMemoriesByVault retrieves the memories of one vault, newest first
func (r *MemoryRepository) GetMemoriesByVault(vaultID int64) ([]models.Memory, error) {
	query := `
		SELECT id, family_id, COALESCE(vault_id, 0), title, description, kind, media, COALESCE(uploader_id, 0), uploader_name, created_at, updated_at
		FROM memories
		WHERE vault_id = ?
		ORDER BY created_at DESC
	`
	return r.queryMemories(query, vaultID)
}

func (r *MemoryRepository) queryMemories(query string, args ...interface{}) ([]models.Memory, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var memories []models.Memory
	for rows.Next() {
		var memory models.Memory
		if err := rows.Scan(
			&memory.ID,
			&memory.FamilyID,
			&memory.VaultID,
			&memory.Title,
			&memory.Description,
			&memory.Kind,
			&memory.Media,
			&memory.UploaderID,
			&memory.UploaderName,
			&memory.CreatedAt,
			&memory.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memories: %w", err)
	}

	return memories, nil
}

// UpdateMemory updates a memory's metadata and media path
func (r *MemoryRepository) UpdateMemory(m *models.Memory) error {
	query := `
		UPDATE memories
		SET title = ?, description = ?, media = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, m.Title, m.Description, m.Media, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update memory: %w", err)
	}
	return nil
}

// DeleteMemory deletes a memory addressed by its full composite scope.
// The family and vault IDs are part of the match, so a memory can never
// be deleted through another family's or vault's address.
func (r *MemoryRepository) DeleteMemory(familyID, vaultID, memoryID int64) (bool, error) {
	query := "DELETE FROM memories WHERE id = ? AND family_id = ?"
	args := []interface{}{memoryID, familyID}
	if vaultID != 0 {
		query += " AND vault_id = ?"
		args = append(args, vaultID)
	} else {
		query += " AND vault_id IS NULL"
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete memory: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return rows > 0, nil
}

// CountByFamily counts the memories of a family
func (r *MemoryRepository) CountByFamily(familyID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM memories WHERE family_id = ?", familyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return count, nil
}

// GetMemoryIDsByVault retrieves the IDs of a vault's memories
func (r *MemoryRepository) GetMemoryIDsByVault(vaultID int64) ([]int64, error) {
	rows, err := r.db.Query("SELECT id FROM memories WHERE vault_id = ? ORDER BY created_at DESC", vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan memory id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
