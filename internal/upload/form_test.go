package upload

import (
	"bytes"
	"errors"
	"mime"
	"mime/multipart"
	"testing"

	"familyvault/internal/validation"
)

func TestSelectKindResetsFile(t *testing.T) {
	f := NewForm()
	if err := f.AttachFile("beach.jpg", "image/jpeg", []byte("jpeg")); err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}
	if f.File() == nil {
		t.Fatal("file not staged")
	}

	if err := f.SelectKind(KindVideo); err != nil {
		t.Fatalf("SelectKind() error = %v", err)
	}
	if f.File() != nil {
		t.Error("switching kind should discard the staged file")
	}
	if f.PreviewMode() != PreviewNone {
		t.Errorf("preview after switch = %q, want %q", f.PreviewMode(), PreviewNone)
	}
}

func TestSelectSameKindStillResets(t *testing.T) {
	f := NewForm()
	if err := f.AttachFile("beach.jpg", "image/jpeg", []byte("jpeg")); err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}
	if err := f.SelectKind(KindPhoto); err != nil {
		t.Fatalf("SelectKind() error = %v", err)
	}
	if f.File() != nil {
		t.Error("reselecting the active kind should still discard the file")
	}
}

func TestAttachFileRejectsWrongType(t *testing.T) {
	f := NewForm()
	if err := f.SelectKind(KindVideo); err != nil {
		t.Fatalf("SelectKind() error = %v", err)
	}

	err := f.AttachFile("song.mp3", "audio/mpeg", []byte("mpeg"))
	var verr validation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("AttachFile() error = %v, want ValidationError", err)
	}
	if f.File() != nil {
		t.Error("rejected file must not be staged")
	}
}

func TestValidateRequiresFile(t *testing.T) {
	f := NewForm()
	f.Title = "First steps"
	if err := f.SelectKind(KindVideo); err != nil {
		t.Fatalf("SelectKind() error = %v", err)
	}

	err := f.Validate()
	var verr validation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want ValidationError", err)
	}
	if verr.Field != "video" {
		t.Errorf("Field = %q, want %q", verr.Field, "video")
	}

	// A rejected submit leaves the composed text intact.
	if f.Title != "First steps" {
		t.Errorf("Title = %q after failed validate, want unchanged", f.Title)
	}
	if f.Kind != KindVideo {
		t.Errorf("Kind = %q after failed validate, want %q", f.Kind, KindVideo)
	}
}

func TestValidateRequiresTitle(t *testing.T) {
	f := NewForm()
	if err := f.AttachFile("beach.jpg", "image/jpeg", []byte("jpeg")); err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}
	if err := f.Validate(); err == nil {
		t.Error("expected error for empty title")
	}
}

// parsePayload decodes a built payload back into a multipart form
func parsePayload(t *testing.T, body []byte, contentType string) *multipart.Form {
	t.Helper()

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parsing content type: %v", err)
	}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("reading form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form
}

func TestBuildPayload(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		fileName string
		fileType string
		wantSlot string
	}{
		{name: "photo payload", kind: KindPhoto, fileName: "beach.jpg", fileType: "image/jpeg", wantSlot: "profileImage"},
		{name: "video payload", kind: KindVideo, fileName: "clip.mp4", fileType: "video/mp4", wantSlot: "video"},
		{name: "audio payload", kind: KindAudio, fileName: "song.mp3", fileType: "audio/mpeg", wantSlot: "audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm()
			if err := f.SelectKind(tt.kind); err != nil {
				t.Fatalf("SelectKind() error = %v", err)
			}
			f.Title = "A moment"
			f.Description = "worth keeping"
			f.VaultID = 7
			if err := f.AttachFile(tt.fileName, tt.fileType, []byte("data")); err != nil {
				t.Fatalf("AttachFile() error = %v", err)
			}

			body, contentType, err := f.BuildPayload(3, 1)
			if err != nil {
				t.Fatalf("BuildPayload() error = %v", err)
			}

			form := parsePayload(t, body, contentType)
			if got := form.Value["title"]; len(got) != 1 || got[0] != "A moment" {
				t.Errorf("title = %v", got)
			}
			if got := form.Value["uploadKind"]; len(got) != 1 || got[0] != string(tt.kind) {
				t.Errorf("uploadKind = %v, want %s", got, tt.kind)
			}
			if got := form.Value["uploaderId"]; len(got) != 1 || got[0] != "3" {
				t.Errorf("uploaderId = %v", got)
			}
			if got := form.Value["familyId"]; len(got) != 1 || got[0] != "1" {
				t.Errorf("familyId = %v", got)
			}
			if got := form.Value["vaultId"]; len(got) != 1 || got[0] != "7" {
				t.Errorf("vaultId = %v", got)
			}

			// The file must land under the kind's slot and nowhere else.
			for _, slot := range SlotNames() {
				files := form.File[slot]
				if slot == tt.wantSlot {
					if len(files) != 1 || files[0].Filename != tt.fileName {
						t.Errorf("slot %q = %v, want %s", slot, files, tt.fileName)
					}
				} else if len(files) != 0 {
					t.Errorf("slot %q unexpectedly populated", slot)
				}
			}
		})
	}
}

func TestBuildPayloadOmitsVaultIDWhenZero(t *testing.T) {
	f := NewForm()
	f.Title = "Family-wide"
	if err := f.AttachFile("beach.jpg", "image/jpeg", []byte("data")); err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}

	body, contentType, err := f.BuildPayload(3, 1)
	if err != nil {
		t.Fatalf("BuildPayload() error = %v", err)
	}
	form := parsePayload(t, body, contentType)
	if _, ok := form.Value["vaultId"]; ok {
		t.Error("vaultId should be omitted for a family-wide memory")
	}
}

func TestBuildEditPayloadWithoutFile(t *testing.T) {
	f := NewForm()
	if err := f.SelectKind(KindVideo); err != nil {
		t.Fatalf("SelectKind() error = %v", err)
	}
	f.Title = "Renamed clip"

	body, contentType, err := f.BuildEditPayload(3, 1)
	if err != nil {
		t.Fatalf("BuildEditPayload() error = %v", err)
	}

	form := parsePayload(t, body, contentType)
	if got := form.Value["title"]; len(got) != 1 || got[0] != "Renamed clip" {
		t.Errorf("title = %v", got)
	}
	for _, slot := range SlotNames() {
		if len(form.File[slot]) != 0 {
			t.Errorf("edit without a new file must not carry a %q part", slot)
		}
	}
}

func TestBuildEditPayloadWithReplacement(t *testing.T) {
	f := NewForm()
	if err := f.SelectKind(KindAudio); err != nil {
		t.Fatalf("SelectKind() error = %v", err)
	}
	f.Title = "New recording"
	if err := f.AttachFile("take2.mp3", "audio/mpeg", []byte("data")); err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}

	body, contentType, err := f.BuildEditPayload(3, 1)
	if err != nil {
		t.Fatalf("BuildEditPayload() error = %v", err)
	}
	form := parsePayload(t, body, contentType)
	if files := form.File["audio"]; len(files) != 1 || files[0].Filename != "take2.mp3" {
		t.Errorf("audio slot = %v, want take2.mp3", files)
	}
}

func TestResetAfterSuccess(t *testing.T) {
	f := NewForm()
	if err := f.SelectKind(KindAudio); err != nil {
		t.Fatalf("SelectKind() error = %v", err)
	}
	f.Title = "A moment"
	f.Description = "worth keeping"
	f.VaultID = 7
	if err := f.AttachFile("song.mp3", "audio/mpeg", []byte("data")); err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}

	f.Reset()

	if f.Kind != KindPhoto {
		t.Errorf("Kind = %q after reset, want %q", f.Kind, KindPhoto)
	}
	if f.Title != "" || f.Description != "" || f.VaultID != 0 {
		t.Error("text fields should be cleared after reset")
	}
	if f.File() != nil {
		t.Error("file should be cleared after reset")
	}
}
