package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"familyvault/internal/database"
	"familyvault/internal/models"
	"familyvault/internal/repository"
	"familyvault/internal/storage"
	"familyvault/internal/upload"
	"familyvault/internal/validation"
)

type testEnv struct {
	auth        *AuthService
	families    *FamilyService
	members     *MemberService
	vaults      *VaultService
	memories    *MemoryService
	invitations *InvitationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	media, err := storage.NewMediaStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}

	familyRepo := repository.NewFamilyRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	vaultRepo := repository.NewVaultRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	return &testEnv{
		auth:        NewAuthService(familyRepo, memberRepo, sessionRepo, 24*time.Hour),
		families:    NewFamilyService(familyRepo, memberRepo, vaultRepo, memoryRepo),
		members:     NewMemberService(memberRepo, familyRepo),
		vaults:      NewVaultService(vaultRepo, memberRepo, memoryRepo),
		memories:    NewMemoryService(memoryRepo, vaultRepo, memberRepo, familyRepo, media),
		invitations: NewInvitationService(invitationRepo, memberRepo, familyRepo, "test-invite-secret", 7*24*time.Hour),
	}
}

// registerAndLogin registers a family and returns its root session
func (e *testEnv) registerAndLogin(t *testing.T, name, email string) (*models.Session, *models.Family) {
	t.Helper()

	family, err := e.auth.RegisterFamily(name, email, "password123", "", "")
	if err != nil {
		t.Fatalf("RegisterFamily() error = %v", err)
	}
	session, _, err := e.auth.LoginFamily(email, name, "password123")
	if err != nil {
		t.Fatalf("LoginFamily() error = %v", err)
	}
	return session, family
}

// addMember enrolls a member and returns its session
func (e *testEnv) addMember(t *testing.T, familySession *models.Session, name, email, role string) (*models.Session, *models.Member) {
	t.Helper()

	member, err := e.members.AddMember(familySession, familySession.FamilyID, MemberInput{
		Name:     name,
		Email:    email,
		Relation: "Mother",
		Role:     role,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	session, _, err := e.auth.LoginMember(email, "password123")
	if err != nil {
		t.Fatalf("LoginMember() error = %v", err)
	}
	return session, member
}

// photoHeader builds a multipart.FileHeader carrying a small image
func photoHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="profileImage"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	if _, err := part.Write([]byte("jpeg-bytes")); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("reading form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["profileImage"][0]
}

func TestFamilyRegistrationAndLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	session, family := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")
	if session.LoginType != models.LoginTypeFamily {
		t.Errorf("LoginType = %q, want %q", session.LoginType, models.LoginTypeFamily)
	}

	// Wrong family name must fail even with the right password
	if _, _, err := env.auth.LoginFamily("whitfield@example.com", "NotWhitfield", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("login with wrong family name: error = %v, want ErrInvalidCredentials", err)
	}

	// Duplicate registrations are rejected
	if _, err := env.auth.RegisterFamily("Other", "whitfield@example.com", "password123", "", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: error = %v, want ErrEmailTaken", err)
	}
	if _, err := env.auth.RegisterFamily("Whitfield", "other@example.com", "password123", "", ""); !errors.Is(err, ErrFamilyNameTaken) {
		t.Errorf("duplicate name: error = %v, want ErrFamilyNameTaken", err)
	}

	// Session validation round-trips the snapshot
	validated, err := env.auth.ValidateSession(session.ID)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if validated.FamilyID != family.ID {
		t.Errorf("FamilyID = %d, want %d", validated.FamilyID, family.ID)
	}

	if err := env.auth.Logout(session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := env.auth.ValidateSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("after logout: error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemberEnrollment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	familySession, family := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")
	memberSession, member := env.addMember(t, familySession, "Rose Whitfield", "rose@example.com", models.RoleMember)

	if memberSession.LoginType != models.LoginTypeMember {
		t.Errorf("LoginType = %q, want %q", memberSession.LoginType, models.LoginTypeMember)
	}
	if memberSession.Role != models.RoleMember {
		t.Errorf("Role = %q, want %q", memberSession.Role, models.RoleMember)
	}

	// Duplicate email within the family is a conflict
	_, err := env.members.AddMember(familySession, family.ID, MemberInput{
		Name: "Rose Again", Email: "rose@example.com", Relation: "Sister", Role: models.RoleMember,
	})
	if !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("duplicate member: error = %v, want ErrDuplicateMember", err)
	}

	// Plain members may not enroll others
	_, err = env.members.AddMember(memberSession, family.ID, MemberInput{
		Name: "Uninvited", Email: "x@example.com", Relation: "Uncle", Role: models.RoleMember,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("member enrolling: error = %v, want ErrForbidden", err)
	}

	// "Other" relation resolves to the free text
	custom, err := env.members.AddMember(familySession, family.ID, MemberInput{
		Name: "Jo Family-Friend", Email: "jo@example.com",
		Relation: models.RelationOther, RelationText: "Godparent", Role: models.RoleMember,
	})
	if err != nil {
		t.Fatalf("AddMember with custom relation: error = %v", err)
	}
	if custom.Relation != "Godparent" {
		t.Errorf("Relation = %q, want %q", custom.Relation, "Godparent")
	}

	found, err := env.members.FindMemberByEmailAndFamily(familySession, family.ID, "rose@example.com")
	if err != nil {
		t.Fatalf("FindMemberByEmailAndFamily() error = %v", err)
	}
	if found.ID != member.ID {
		t.Errorf("found member %d, want %d", found.ID, member.ID)
	}

	profile, err := env.families.FamilyProfile(memberSession, family.ID)
	if err != nil {
		t.Fatalf("FamilyProfile() error = %v", err)
	}
	if len(profile.Members) != 2 {
		t.Errorf("roster size = %d, want 2", len(profile.Members))
	}
}

func TestAddExistingMember(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	sessionA, _ := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")
	sessionB, familyB := env.registerAndLogin(t, "Okafor", "okafor@example.com")

	_, source := env.addMember(t, sessionA, "Rose Whitfield", "rose@example.com", models.RoleMember)

	linked, err := env.members.AddExistingMember(sessionB, familyB.ID, "rose@example.com", "Aunt", "", models.RoleAdmin)
	if err != nil {
		t.Fatalf("AddExistingMember() error = %v", err)
	}
	if linked.FamilyID != familyB.ID {
		t.Errorf("FamilyID = %d, want %d", linked.FamilyID, familyB.ID)
	}
	if linked.Name != source.Name {
		t.Errorf("Name = %q, want copied %q", linked.Name, source.Name)
	}
	if linked.Relation != "Aunt" || linked.Role != models.RoleAdmin {
		t.Errorf("relation/role = %q/%q, want Aunt/Admin", linked.Relation, linked.Role)
	}

	// Linking again into the same family conflicts
	if _, err := env.members.AddExistingMember(sessionB, familyB.ID, "rose@example.com", "Aunt", "", models.RoleMember); !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("second link: error = %v, want ErrDuplicateMember", err)
	}

	// Unknown email is not found
	if _, err := env.members.AddExistingMember(sessionB, familyB.ID, "ghost@example.com", "Uncle", "", models.RoleMember); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: error = %v, want ErrNotFound", err)
	}
}

func TestVaultVisibilityFiltering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	familySession, family := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")
	roseSession, rose := env.addMember(t, familySession, "Rose Whitfield", "rose@example.com", models.RoleMember)
	samSession, sam := env.addMember(t, familySession, "Sam Whitfield", "sam@example.com", models.RoleMember)

	// Rose creates a private vault listing only herself
	private, err := env.vaults.CreateVault(roseSession, family.ID, VaultInput{
		Name: "Rose's corner", Privacy: models.VaultPrivate, Members: []int64{rose.ID},
	})
	if err != nil {
		t.Fatalf("CreateVault() error = %v", err)
	}

	// Sam creates a public vault
	if _, err := env.vaults.CreateVault(samSession, family.ID, VaultInput{
		Name: "Holidays", Privacy: models.VaultPublic, Members: []int64{sam.ID},
	}); err != nil {
		t.Fatalf("CreateVault() error = %v", err)
	}

	// Sam sees only the public vault
	samVaults, err := env.vaults.ListFamilyVaults(samSession, family.ID)
	if err != nil {
		t.Fatalf("ListFamilyVaults() error = %v", err)
	}
	if len(samVaults) != 1 || samVaults[0].Name != "Holidays" {
		t.Errorf("sam sees %d vaults, want only Holidays", len(samVaults))
	}

	// Rose sees both: her own private vault and the public one
	roseVaults, err := env.vaults.ListFamilyVaults(roseSession, family.ID)
	if err != nil {
		t.Fatalf("ListFamilyVaults() error = %v", err)
	}
	if len(roseVaults) != 2 {
		t.Errorf("rose sees %d vaults, want 2", len(roseVaults))
	}

	// The family root sees everything
	allVaults, err := env.vaults.ListFamilyVaults(familySession, family.ID)
	if err != nil {
		t.Fatalf("ListFamilyVaults() error = %v", err)
	}
	if len(allVaults) != 2 {
		t.Errorf("family root sees %d vaults, want 2", len(allVaults))
	}

	// Direct access to the private vault is denied for Sam
	if _, err := env.vaults.GetVault(samSession, private.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("sam opening private vault: error = %v, want ErrForbidden", err)
	}
}

func TestMemoryLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	familySession, family := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")
	roseSession, _ := env.addMember(t, familySession, "Rose Whitfield", "rose@example.com", models.RoleMember)
	adminSession, _ := env.addMember(t, familySession, "Ada Whitfield", "ada@example.com", models.RoleAdmin)

	memory, err := env.memories.UploadMemory(roseSession, family.ID, MemoryInput{
		Title: "Beach day", Description: "first swim", Kind: upload.KindPhoto,
	}, photoHeader(t, "beach.jpg"))
	if err != nil {
		t.Fatalf("UploadMemory() error = %v", err)
	}
	if memory.UploaderName != "Rose Whitfield" {
		t.Errorf("UploaderName = %q, want Rose Whitfield", memory.UploaderName)
	}

	// Upload without a file is rejected before anything is stored
	if _, err := env.memories.UploadMemory(roseSession, family.ID, MemoryInput{
		Title: "No file", Kind: upload.KindVideo,
	}, nil); err == nil {
		t.Error("expected error for upload without a file")
	}

	// Edit without a replacement file keeps the existing media
	edited, err := env.memories.EditMemory(roseSession, memory.ID, MemoryInput{
		Title: "Beach day 2024", Description: "first swim",
	}, nil)
	if err != nil {
		t.Fatalf("EditMemory() error = %v", err)
	}
	if edited.Media != memory.Media {
		t.Errorf("Media changed on file-less edit: %q -> %q", memory.Media, edited.Media)
	}
	if edited.Title != "Beach day 2024" {
		t.Errorf("Title = %q", edited.Title)
	}

	// Edit with a replacement file swaps the media path
	replaced, err := env.memories.EditMemory(roseSession, memory.ID, MemoryInput{
		Title: "Beach day 2024", Description: "first swim",
	}, photoHeader(t, "beach2.jpg"))
	if err != nil {
		t.Fatalf("EditMemory() with file error = %v", err)
	}
	if replaced.Media == memory.Media {
		t.Error("Media should change when a replacement file is supplied")
	}

	// A memory's kind is fixed: declaring a different one is rejected
	// before any file is touched
	var verr validation.ValidationError
	if _, err := env.memories.EditMemory(roseSession, memory.ID, MemoryInput{
		Title: "Beach day 2024", Kind: upload.KindVideo,
	}, nil); !errors.As(err, &verr) || verr.Field != "uploadKind" {
		t.Errorf("kind change: error = %v, want ValidationError on uploadKind", err)
	}

	// Another plain member may not edit someone else's memory
	samSession, _ := env.addMember(t, familySession, "Sam Whitfield", "sam@example.com", models.RoleMember)
	if _, err := env.memories.EditMemory(samSession, memory.ID, MemoryInput{Title: "Hijack"}, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-uploader edit: error = %v, want ErrForbidden", err)
	}

	// Delete requires admin rights
	if err := env.memories.DeleteMemory(roseSession, family.ID, 0, memory.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("plain member delete: error = %v, want ErrForbidden", err)
	}
	if err := env.memories.DeleteMemory(adminSession, family.ID, 0, memory.ID); err != nil {
		t.Fatalf("admin delete: error = %v", err)
	}
	if _, err := env.memories.GetMemory(adminSession, memory.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}

	stats, err := env.families.Stats(familySession, family.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalMemory != 0 || stats.TotalMember != 3 || stats.TotalVault != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestVaultScopedMemoryVisibility(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	familySession, family := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")
	roseSession, rose := env.addMember(t, familySession, "Rose Whitfield", "rose@example.com", models.RoleMember)
	samSession, _ := env.addMember(t, familySession, "Sam Whitfield", "sam@example.com", models.RoleMember)

	private, err := env.vaults.CreateVault(roseSession, family.ID, VaultInput{
		Name: "Rose's corner", Privacy: models.VaultPrivate, Members: []int64{rose.ID},
	})
	if err != nil {
		t.Fatalf("CreateVault() error = %v", err)
	}

	hidden, err := env.memories.UploadMemory(roseSession, family.ID, MemoryInput{
		Title: "Secret", Kind: upload.KindPhoto, VaultID: private.ID,
	}, photoHeader(t, "secret.jpg"))
	if err != nil {
		t.Fatalf("UploadMemory() error = %v", err)
	}
	if _, err := env.memories.UploadMemory(roseSession, family.ID, MemoryInput{
		Title: "Open", Kind: upload.KindPhoto,
	}, photoHeader(t, "open.jpg")); err != nil {
		t.Fatalf("UploadMemory() error = %v", err)
	}

	// Sam's family-wide listing omits the vault-scoped memory
	visible, err := env.memories.ListFamilyMemories(samSession, family.ID)
	if err != nil {
		t.Fatalf("ListFamilyMemories() error = %v", err)
	}
	if len(visible) != 1 || visible[0].Title != "Open" {
		t.Errorf("sam sees %d memories, want only Open", len(visible))
	}

	// Direct fetch is denied too
	if _, err := env.memories.GetMemory(samSession, hidden.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("sam fetching hidden memory: error = %v, want ErrForbidden", err)
	}

	// Rose and the family root see both
	roseList, err := env.memories.ListFamilyMemories(roseSession, family.ID)
	if err != nil {
		t.Fatalf("ListFamilyMemories() error = %v", err)
	}
	if len(roseList) != 2 {
		t.Errorf("rose sees %d memories, want 2", len(roseList))
	}
}

func TestMediaPathTenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	familySession, family := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")
	roseSession, rose := env.addMember(t, familySession, "Rose Whitfield", "rose@example.com", models.RoleMember)
	samSession, _ := env.addMember(t, familySession, "Sam Whitfield", "sam@example.com", models.RoleMember)

	private, err := env.vaults.CreateVault(roseSession, family.ID, VaultInput{
		Name: "Rose's corner", Privacy: models.VaultPrivate, Members: []int64{rose.ID},
	})
	if err != nil {
		t.Fatalf("CreateVault() error = %v", err)
	}
	hidden, err := env.memories.UploadMemory(roseSession, family.ID, MemoryInput{
		Title: "Secret", Kind: upload.KindPhoto, VaultID: private.ID,
	}, photoHeader(t, "secret.jpg"))
	if err != nil {
		t.Fatalf("UploadMemory() error = %v", err)
	}

	// The stored path resolves for its uploader
	if _, err := env.memories.GetMemoryByMedia(roseSession, hidden.Media); err != nil {
		t.Fatalf("GetMemoryByMedia() error = %v", err)
	}

	// A session from another family cannot use a leaked path
	otherSession, _ := env.registerAndLogin(t, "Okafor", "okafor@example.com")
	if _, err := env.memories.GetMemoryByMedia(otherSession, hidden.Media); !errors.Is(err, ErrForbidden) {
		t.Errorf("cross-family media fetch: error = %v, want ErrForbidden", err)
	}

	// An in-family member outside the private vault is denied too
	if _, err := env.memories.GetMemoryByMedia(samSession, hidden.Media); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-listed member media fetch: error = %v, want ErrForbidden", err)
	}

	// A path no memory owns is not found
	if _, err := env.memories.GetMemoryByMedia(roseSession, "photos/no-such-file.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown media path: error = %v, want ErrNotFound", err)
	}

	// Profile imagery is family-scoped the same way
	if _, err := env.families.UpdateFamily(familySession, family.ID, "", "", "photos/cover.jpg"); err != nil {
		t.Fatalf("UpdateFamily() error = %v", err)
	}
	owned, err := env.families.OwnsImage(familySession, "photos/cover.jpg")
	if err != nil {
		t.Fatalf("OwnsImage() error = %v", err)
	}
	if !owned {
		t.Error("family should own its stored cover image")
	}
	owned, err = env.families.OwnsImage(otherSession, "photos/cover.jpg")
	if err != nil {
		t.Fatalf("OwnsImage() error = %v", err)
	}
	if owned {
		t.Error("another family must not own this cover image")
	}
}

func TestInvitationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)

	familySession, family := env.registerAndLogin(t, "Whitfield", "whitfield@example.com")

	invitation, err := env.invitations.InviteMember(t.Context(), familySession, family.ID, "new@example.com", "Cousin", "", models.RoleMember, nil)
	if err != nil {
		t.Fatalf("InviteMember() error = %v", err)
	}

	member, err := env.invitations.AcceptInvitation(invitation.Token, "Nia Whitfield", "password123")
	if err != nil {
		t.Fatalf("AcceptInvitation() error = %v", err)
	}
	if member.Relation != "Cousin" || member.Role != models.RoleMember {
		t.Errorf("relation/role = %q/%q", member.Relation, member.Role)
	}

	// A redeemed token cannot be reused
	if _, err := env.invitations.AcceptInvitation(invitation.Token, "Again", "password123"); !errors.Is(err, ErrInvalidInvitation) {
		t.Errorf("reuse: error = %v, want ErrInvalidInvitation", err)
	}

	// A forged token is rejected
	if _, err := env.invitations.ValidateInvitation(invitation.Token + "x"); !errors.Is(err, ErrInvalidInvitation) {
		t.Errorf("forged token: error = %v, want ErrInvalidInvitation", err)
	}

	// The invited member can log in
	if _, _, err := env.auth.LoginMember("new@example.com", "password123"); err != nil {
		t.Fatalf("LoginMember() after acceptance: error = %v", err)
	}
}
