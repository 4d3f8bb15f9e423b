// Package authz decides whether an authenticated session may perform an
// action on a target. The decision is pure: it depends only on the
// session snapshot and the target snapshot handed in, never on storage.
// Handlers consult it before every mutating action, and repositories
// independently scope queries by family id, so the resolver is never
// the sole enforcement point.
package authz

import "familyvault/internal/models"

// Action is one of the operations a session can request on a target
type Action string

const (
	ActionView           Action = "view"
	ActionCreate         Action = "create"
	ActionEdit           Action = "edit"
	ActionDelete         Action = "delete"
	ActionInvite         Action = "invite"
	ActionManageSettings Action = "manage-settings"
)

// TargetKind discriminates the entity a target snapshot describes
type TargetKind string

const (
	TargetFamily TargetKind = "family"
	TargetMember TargetKind = "member"
	TargetVault  TargetKind = "vault"
	TargetMemory TargetKind = "memory"
)

// Session is the identity snapshot captured once per user action.
// It is never re-read mid-decision, so a role change cannot produce a
// split decision within one action.
type Session struct {
	LoginType string
	FamilyID  int64
	MemberID  int64
	Role      string
}

// FamilySession builds the snapshot for a family root login
func FamilySession(familyID int64) Session {
	return Session{LoginType: models.LoginTypeFamily, FamilyID: familyID}
}

// MemberSession builds the snapshot for a member login
func MemberSession(familyID, memberID int64, role string) Session {
	return Session{
		LoginType: models.LoginTypeMember,
		FamilyID:  familyID,
		MemberID:  memberID,
		Role:      role,
	}
}

// Target is the entity snapshot an action is requested against
type Target struct {
	Kind     TargetKind
	FamilyID int64

	// Vault fields
	Privacy   string
	Members   []int64
	CreatedBy int64

	// Memory fields
	UploaderID int64
}

// VaultTarget builds a target snapshot from a vault
func VaultTarget(v *models.Vault) Target {
	return Target{
		Kind:      TargetVault,
		FamilyID:  v.FamilyID,
		Privacy:   v.Privacy,
		Members:   v.Members,
		CreatedBy: v.CreatedBy,
	}
}

// MemoryTarget builds a target snapshot from a memory
func MemoryTarget(m *models.Memory) Target {
	return Target{
		Kind:       TargetMemory,
		FamilyID:   m.FamilyID,
		UploaderID: m.UploaderID,
	}
}

// MemberTarget builds a target snapshot from a member
func MemberTarget(m *models.Member) Target {
	return Target{Kind: TargetMember, FamilyID: m.FamilyID}
}

// CanPerform evaluates the rule set in order; the first match wins.
//
//  1. Cross-tenant targets are denied unconditionally.
//  2. A family root login may do anything with its own data.
//  3. Admin members may manage settings, invite and delete in-family.
//  4. A memory may be created or edited by its uploader or an admin.
//  5. A vault is viewable when public, or by a listed member, or by its
//     creator.
//  6. Any member may create a vault in its own family, and view the
//     family profile, the roster and family-wide memories; vault-scoped
//     memory visibility is resolved through the owning vault's rule
//     above.
//  7. Everything else is denied.
func CanPerform(session Session, action Action, target Target) bool {
	// Rule 1: tenant isolation has no exceptions
	if session.FamilyID == 0 || session.FamilyID != target.FamilyID {
		return false
	}

	// Rule 2: family root override
	if session.LoginType == models.LoginTypeFamily {
		return true
	}
	if session.LoginType != models.LoginTypeMember || session.MemberID == 0 {
		return false
	}

	// Rule 3: admin-only actions
	switch action {
	case ActionManageSettings, ActionInvite, ActionDelete:
		return session.Role == models.RoleAdmin
	}

	// Rule 4: memory create/edit is uploader-or-admin
	if target.Kind == TargetMemory && (action == ActionCreate || action == ActionEdit) {
		return session.MemberID == target.UploaderID || session.Role == models.RoleAdmin
	}

	// Rule 5: vault visibility
	if target.Kind == TargetVault && action == ActionView {
		if target.Privacy == models.VaultPublic {
			return true
		}
		if session.MemberID == target.CreatedBy {
			return true
		}
		for _, id := range target.Members {
			if id == session.MemberID {
				return true
			}
		}
		return false
	}

	// Rule 6: in-family member allowances
	if target.Kind == TargetVault && action == ActionCreate {
		return true
	}
	if action == ActionView {
		switch target.Kind {
		case TargetMemory, TargetFamily, TargetMember:
			return true
		}
	}

	return false
}
