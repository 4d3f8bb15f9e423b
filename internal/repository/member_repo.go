package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familyvault/internal/database"
	"familyvault/internal/models"
)

const memberColumns = `id, family_id, name, bio, date_of_birth, email, phone, profile_image,
		relation, role, password_hash, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at`

// MemberRepository handles database operations for family members
type MemberRepository struct {
	db *database.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	member := &models.Member{}
	err := row.Scan(
		&member.ID,
		&member.FamilyID,
		&member.Name,
		&member.Bio,
		&member.DateOfBirth,
		&member.Email,
		&member.Phone,
		&member.ProfileImage,
		&member.Relation,
		&member.Role,
		&member.PasswordHash,
		&member.OAuthProvider,
		&member.OAuthSubject,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return member, nil
}

// CreateMember inserts a new member into a family
func (r *MemberRepository) CreateMember(m *models.Member) (*models.Member, error) {
	query := `
		INSERT INTO members (family_id, name, bio, date_of_birth, email, phone, profile_image, relation, role, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		m.FamilyID, m.Name, m.Bio, m.DateOfBirth, m.Email, m.Phone,
		m.ProfileImage, m.Relation, m.Role, m.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	created := *m
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = time.Now()
	return &created, nil
}

// GetMemberByID retrieves a member by ID
func (r *MemberRepository) GetMemberByID(id int64) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members WHERE id = ?", memberColumns)
	member, err := scanMember(r.db.QueryRow(query, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetMemberByEmailAndFamily retrieves a member by email within one family
func (r *MemberRepository) GetMemberByEmailAndFamily(familyID int64, email string) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members WHERE family_id = ? AND email = ?", memberColumns)
	member, err := scanMember(r.db.QueryRow(query, familyID, email))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}

	return member, nil
}

// GetMemberByEmail retrieves the most recently created member account
// registered under an email, across all families
func (r *MemberRepository) GetMemberByEmail(email string) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members WHERE email = ? ORDER BY created_at DESC, id DESC LIMIT 1", memberColumns)
	member, err := scanMember(r.db.QueryRow(query, email))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}

	return member, nil
}

// GetMembersByFamily retrieves all members of a family
func (r *MemberRepository) GetMembersByFamily(familyID int64) ([]models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members WHERE family_id = ? ORDER BY created_at ASC", memberColumns)
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *member)
	}

	return members, nil
}

// CountByFamily counts the members of a family
func (r *MemberRepository) CountByFamily(familyID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM members WHERE family_id = ?", familyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// UpdateMember updates a member's profile fields
func (r *MemberRepository) UpdateMember(m *models.Member) error {
	query := `
		UPDATE members
		SET name = ?, bio = ?, date_of_birth = ?, phone = ?, profile_image = ?, relation = ?, role = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, m.Name, m.Bio, m.DateOfBirth, m.Phone, m.ProfileImage, m.Relation, m.Role, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}

// GetMemberByOAuth retrieves a member by OAuth provider and subject
func (r *MemberRepository) GetMemberByOAuth(provider, subject string) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members WHERE oauth_provider = ? AND oauth_subject = ?", memberColumns)
	member, err := scanMember(r.db.QueryRow(query, provider, subject))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by oauth: %w", err)
	}

	return member, nil
}

// LinkOAuthProvider links a member account to an OAuth provider
func (r *MemberRepository) LinkOAuthProvider(memberID int64, provider, subject string) error {
	query := `
		UPDATE members
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.Exec(query, provider, subject, memberID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}

	return nil
}
