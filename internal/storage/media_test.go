package storage

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"familyvault/internal/upload"
)

// fileHeader builds a multipart.FileHeader by round-tripping a form
func fileHeader(t *testing.T, field, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
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
	return form.File[field][0]
}

func TestSaveAndRemove(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewMediaStore() error = %v", err)
	}

	header := fileHeader(t, "profileImage", "beach.jpg", "image/jpeg", []byte("jpeg-bytes"))
	relPath, err := store.Save(header, upload.KindPhoto)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(relPath, "photos"+string(filepath.Separator)) {
		t.Errorf("relPath = %q, want photos/ prefix", relPath)
	}
	if filepath.Ext(relPath) != ".jpg" {
		t.Errorf("relPath = %q, want .jpg extension", relPath)
	}

	fullPath, err := store.Path(relPath)
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("stored content = %q", data)
	}

	if err := store.Remove(relPath); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
		t.Error("file should be gone after Remove")
	}

	// Removing again is not an error
	if err := store.Remove(relPath); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestSaveRejectsWrongContentType(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewMediaStore() error = %v", err)
	}

	header := fileHeader(t, "video", "song.mp3", "audio/mpeg", []byte("mpeg"))
	if _, err := store.Save(header, upload.KindVideo); err == nil {
		t.Error("expected error saving audio file as Video")
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewMediaStore() error = %v", err)
	}

	header := fileHeader(t, "profileImage", "big.jpg", "image/jpeg", []byte("more-than-four-bytes"))
	if _, err := store.Save(header, upload.KindPhoto); err == nil {
		t.Error("expected error for oversized file")
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewMediaStore() error = %v", err)
	}

	if _, err := store.Path("../../etc/passwd"); err == nil {
		t.Error("expected error for traversal path")
	}
}
