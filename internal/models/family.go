package models

import "time"

// Family is the root tenant account. It owns members and vaults and can
// authenticate directly with elevated rights over everything it owns.
type Family struct {
	ID           int64     `json:"id"`
	Name         string    `json:"familyName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Description  string    `json:"description"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FamilyProfile combines a family with its member roster
type FamilyProfile struct {
	Family  Family        `json:"family"`
	Members []MemberEntry `json:"member"`
}

// MemberEntry is one roster line: the member plus its relation and role
type MemberEntry struct {
	Member   Member `json:"member"`
	Relation string `json:"relation"`
	Role     string `json:"role"`
}

// FamilyStats aggregates counts for the dashboard
type FamilyStats struct {
	TotalMemory int64 `json:"totalMemory"`
	TotalMember int64 `json:"totalmember"`
	TotalVault  int64 `json:"totalvault"`
}
