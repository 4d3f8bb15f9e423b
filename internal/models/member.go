package models

import (
	"errors"
	"time"
)

// Access roles a member can hold within its family
const (
	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

// ValidRole reports whether role is one of the two accepted values
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// Member is a person linked to exactly one family. Effective rights are
// governed by its access role, not by family-level rights.
type Member struct {
	ID            int64     `json:"id"`
	FamilyID      int64     `json:"familyId"`
	Name          string    `json:"name"`
	Bio           string    `json:"bio"`
	DateOfBirth   string    `json:"dateOfBirth"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	ProfileImage  string    `json:"profileImage"`
	Relation      string    `json:"relation"`
	Role          string    `json:"role"`
	PasswordHash  string    `json:"-"`
	OAuthProvider string    `json:"-"`
	OAuthSubject  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RelationOther is the sentinel selection that defers to free text
const RelationOther = "Other"

// KnownRelations are the enumerated kin labels offered at enrollment
var KnownRelations = []string{
	"Father", "Mother", "Son", "Daughter", "Brother", "Sister",
	"Grandfather", "Grandmother", "Uncle", "Aunt", "Cousin", RelationOther,
}

var ErrRelationRequired = errors.New("relation is required")

// Relation is a kin label: either an enumerated value or the free text
// entered when the enumerated selection is "Other". It is resolved to a
// plain string only at the serialization boundary, so the "Other"
// sentinel can never be stored by accident.
type Relation struct {
	value  string
	custom bool
}

// KnownRelation wraps an enumerated relation value
func KnownRelation(value string) Relation {
	return Relation{value: value}
}

// CustomRelation wraps a free-text relation label
func CustomRelation(text string) Relation {
	return Relation{value: text, custom: true}
}

// ResolveRelation turns an enrollment form's (selection, free text) pair
// into a Relation. Selecting "Other" requires non-empty free text; the
// sentinel itself is never the resolved value.
func ResolveRelation(selected, freeText string) (Relation, error) {
	if selected == RelationOther {
		if freeText == "" {
			return Relation{}, ErrRelationRequired
		}
		return CustomRelation(freeText), nil
	}
	if selected == "" {
		return Relation{}, ErrRelationRequired
	}
	return KnownRelation(selected), nil
}

// IsCustom reports whether the relation came from free text
func (r Relation) IsCustom() bool {
	return r.custom
}

// String resolves the relation to the stored label
func (r Relation) String() string {
	return r.value
}
