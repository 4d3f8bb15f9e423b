package models

import "time"

// Login types carried by a session
const (
	LoginTypeFamily = "Family"
	LoginTypeMember = "Member"
)

// Session is an authenticated identity: either the family root account
// or a member acting within its family. The role is snapshotted at login
// so a single action never sees two different roles.
type Session struct {
	ID         string    `json:"-"`
	LoginType  string    `json:"loginType"`
	FamilyID   int64     `json:"familyId"`
	MemberID   int64     `json:"memberId,omitempty"`
	Role       string    `json:"role,omitempty"`
	LoginEmail string    `json:"loginEmail"`
	ExpiresAt  time.Time `json:"-"`
	CreatedAt  time.Time `json:"-"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
