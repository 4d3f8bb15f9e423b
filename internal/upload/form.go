package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"familyvault/internal/validation"
)

// File is a pending attachment held by a Form before submit
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Form models the upload composition state: a selected kind, the text
// fields, and at most one attached file matching the kind. Selecting a
// kind always clears any attachment, even when reselecting the current
// kind.
type Form struct {
	Kind        Kind
	Title       string
	Description string
	VaultID     int64 // 0 = family-wide memory
	file        *File
}

// NewForm returns a form in its initial state: kind Photo, no file
func NewForm() *Form {
	return &Form{Kind: KindPhoto}
}

// SelectKind switches the active kind and discards any attached file
// and its preview state
func (f *Form) SelectKind(kind Kind) error {
	if !ValidKind(kind) {
		return fmt.Errorf("unknown upload kind: %q", kind)
	}
	f.Kind = kind
	f.file = nil
	return nil
}

// AttachFile stages a file for the active kind. Files whose content
// type does not match the kind's MIME filter are rejected and leave
// the form unchanged.
func (f *Form) AttachFile(name, contentType string, content []byte) error {
	rule, err := RuleFor(f.Kind)
	if err != nil {
		return err
	}
	if !rule.Accepts(contentType) {
		return validation.ValidationError{
			Field:   rule.FieldName,
			Message: fmt.Sprintf("%s upload requires a %s* file", f.Kind, rule.MIMEPrefix),
		}
	}
	f.file = &File{Name: name, ContentType: contentType, Content: content}
	return nil
}

// File returns the staged attachment, or nil when none is attached
func (f *Form) File() *File {
	return f.file
}

// PreviewMode returns how the staged file should be presented, or
// PreviewNone when nothing is attached
func (f *Form) PreviewMode() Preview {
	if f.file == nil {
		return PreviewNone
	}
	rule, _ := RuleFor(f.Kind)
	return rule.Preview
}

// Validate checks the form before payload assembly. A new upload must
// carry a file for its kind; this runs before any dispatch so a Video
// selection with no file never reaches the wire.
func (f *Form) Validate() error {
	if err := validation.ValidateTitle(f.Title); err != nil {
		return err
	}
	if f.file == nil {
		rule, err := RuleFor(f.Kind)
		if err != nil {
			return err
		}
		return validation.ValidationError{
			Field:   rule.FieldName,
			Message: fmt.Sprintf("a file is required for a %s upload", f.Kind),
		}
	}
	return nil
}

// ValidateEdit checks the form for an edit submission, where the file
// is optional: omitting it keeps the memory's existing media
func (f *Form) ValidateEdit() error {
	return validation.ValidateTitle(f.Title)
}

// Reset returns the form to its initial state after a successful
// submit: kind Photo, empty text fields, no file
func (f *Form) Reset() {
	*f = Form{Kind: KindPhoto}
}

// BuildPayload assembles the multipart body for a new upload. The file
// is written under the field name the kind table dictates, never under
// any other slot.
func (f *Form) BuildPayload(uploaderID, familyID int64) ([]byte, string, error) {
	if err := f.Validate(); err != nil {
		return nil, "", err
	}
	return f.encode(uploaderID, familyID, true)
}

// BuildEditPayload assembles the multipart body for an edit. When no
// file is staged the payload carries only the text fields, signalling
// the server to keep the existing media.
func (f *Form) BuildEditPayload(uploaderID, familyID int64) ([]byte, string, error) {
	if err := f.ValidateEdit(); err != nil {
		return nil, "", err
	}
	return f.encode(uploaderID, familyID, f.file != nil)
}

func (f *Form) encode(uploaderID, familyID int64, withFile bool) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       f.Title,
		"description": f.Description,
		"uploadKind":  string(f.Kind),
		"uploaderId":  strconv.FormatInt(uploaderID, 10),
		"familyId":    strconv.FormatInt(familyID, 10),
	}
	if f.VaultID != 0 {
		fields["vaultId"] = strconv.FormatInt(f.VaultID, 10)
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", name, err)
		}
	}

	if withFile {
		rule, err := RuleFor(f.Kind)
		if err != nil {
			return nil, "", err
		}
		part, err := w.CreateFormFile(rule.FieldName, f.file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(f.file.Content)); err != nil {
			return nil, "", fmt.Errorf("writing file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing payload: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
