package repository

import (
	"database/sql"
	"time"

	"familyvault/internal/database"
	"familyvault/internal/models"
)

type InvitationRepository struct {
	db *database.DB
}

func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// CreateInvitation persists a signed enrollment invitation
func (r *InvitationRepository) CreateInvitation(inv *models.Invitation) (*models.Invitation, error) {
	query := `
		INSERT INTO invitations (family_id, email, relation, role, token, invited_by, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		inv.FamilyID, inv.Email, inv.Relation, inv.Role, inv.Token, inv.InvitedBy, inv.ExpiresAt)
	if err != nil {
		return nil, err
	}

	created := *inv
	created.ID = id
	created.CreatedAt = time.Now()
	return &created, nil
}

// GetInvitationByToken retrieves an invitation by its token
func (r *InvitationRepository) GetInvitationByToken(token string) (*models.Invitation, error) {
	query := `
		SELECT id, family_id, email, relation, role, token, COALESCE(invited_by, 0), used_at, expires_at, created_at
		FROM invitations
		WHERE token = ?
	`

	var inv models.Invitation
	var usedAt sql.NullTime

	err := r.db.QueryRow(query, token).Scan(
		&inv.ID, &inv.FamilyID, &inv.Email, &inv.Relation, &inv.Role,
		&inv.Token, &inv.InvitedBy, &usedAt, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if usedAt.Valid {
		t := usedAt.Time
		inv.UsedAt = &t
	}

	return &inv, nil
}

// GetInvitationsByFamily retrieves a family's invitations, newest first
func (r *InvitationRepository) GetInvitationsByFamily(familyID int64) ([]models.Invitation, error) {
	query := `
		SELECT id, family_id, email, relation, role, token, COALESCE(invited_by, 0), used_at, expires_at, created_at
		FROM invitations
		WHERE family_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var usedAt sql.NullTime

		err := rows.Scan(
			&inv.ID, &inv.FamilyID, &inv.Email, &inv.Relation, &inv.Role,
			&inv.Token, &inv.InvitedBy, &usedAt, &inv.ExpiresAt, &inv.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if usedAt.Valid {
			t := usedAt.Time
			inv.UsedAt = &t
		}

		invitations = append(invitations, inv)
	}

	return invitations, nil
}

// MarkInvitationUsed marks an invitation as used
func (r *InvitationRepository) MarkInvitationUsed(token string) error {
	query := `UPDATE invitations SET used_at = ? WHERE token = ?`
	_, err := r.db.Exec(query, time.Now(), token)
	return err
}

// DeleteInvitation deletes an invitation by ID
func (r *InvitationRepository) DeleteInvitation(id int64) error {
	query := `DELETE FROM invitations WHERE id = ?`
	_, err := r.db.Exec(query, id)
	return err
}
