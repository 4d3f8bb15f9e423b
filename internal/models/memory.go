package models

import "time"

// Memory is one uploaded media artifact with metadata. VaultID is zero
// for family-wide memories that live outside any vault.
type Memory struct {
	ID           int64     `json:"id"`
	FamilyID     int64     `json:"familyId"`
	VaultID      int64     `json:"vaultId,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Kind         string    `json:"uploadKind"`
	Media        string    `json:"media"`
	UploaderID   int64     `json:"uploaderId"`
	UploaderName string    `json:"uploaderName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
