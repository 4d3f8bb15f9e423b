package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familyvault/internal/database"
	"familyvault/internal/models"
)

// SessionRepository handles database operations for login sessions
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession persists a new session
func (r *SessionRepository) CreateSession(s *models.Session) error {
	query := `
		INSERT INTO sessions (id, login_type, family_id, member_id, role, login_email, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var memberID any
	if s.MemberID != 0 {
		memberID = s.MemberID
	}
	_, err := r.db.Exec(query, s.ID, s.LoginType, s.FamilyID, memberID, s.Role, s.LoginEmail, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID
func (r *SessionRepository) GetSession(sessionID string) (*models.Session, error) {
	query := `
		SELECT id, login_type, family_id, COALESCE(member_id, 0), role, login_email, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.LoginType,
		&session.FamilyID,
		&session.MemberID,
		&session.Role,
		&session.LoginEmail,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// DeleteSession removes a session from the database
func (r *SessionRepository) DeleteSession(sessionID string) error {
	query := "DELETE FROM sessions WHERE id = ?"
	_, err := r.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *SessionRepository) DeleteExpiredSessions() error {
	query := "DELETE FROM sessions WHERE expires_at < ?"
	_, err := r.db.Exec(query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
