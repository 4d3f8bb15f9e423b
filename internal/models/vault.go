package models

import "time"

// Vault privacy levels
const (
	VaultPrivate = "Private"
	VaultPublic  = "Public"
)

// ValidPrivacy reports whether privacy is one of the two accepted values
func ValidPrivacy(privacy string) bool {
	return privacy == VaultPrivate || privacy == VaultPublic
}

// Vault is a named, themed collection of memories scoped to one family.
// A Private vault is visible only to the listed members plus its creator;
// a Public vault is visible to any member of the owning family.
type Vault struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"familyId"`
	Name        string    `json:"vaultName"`
	Description string    `json:"description"`
	CoverImage  string    `json:"coverImage"`
	Theme       string    `json:"theme"`
	Privacy     string    `json:"privacy"`
	CreatedBy   int64     `json:"createdBy"`
	Members     []int64   `json:"members"`
	Memories    []int64   `json:"memories"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
