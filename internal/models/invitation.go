package models

import "time"

type Invitation struct {
	ID        int64
	FamilyID  int64
	Email     string
	Relation  string
	Role      string
	Token     string
	InvitedBy int64
	UsedAt    *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

func (i *Invitation) IsValid() bool {
	return !i.IsExpired() && !i.IsUsed()
}
