// Package upload implements the media upload dispatch: a single table
// maps an upload kind to its accepted MIME filter, its multipart field
// name and its preview mode, and a small form state machine shapes the
// outbound payload. The same table is used server-side to pull the one
// expected file part out of an inbound request.
package upload

import (
	"fmt"
	"mime/multipart"
	"strings"
)

// Kind discriminates the media type of a memory
type Kind string

const (
	KindPhoto Kind = "Photo"
	KindVideo Kind = "Video"
	KindAudio Kind = "Audio"
)

// Preview selects how an attached file is presented before submit
type Preview string

const (
	PreviewImage      Preview = "image"       // static image
	PreviewMutedVideo Preview = "muted-video" // autoplaying, muted
	PreviewNone       Preview = "none"        // textual placeholder
)

// Rule is one row of the kind dispatch table
type Rule struct {
	Kind       Kind
	MIMEPrefix string
	FieldName  string
	Preview    Preview
}

// rules is the authoritative kind table. Exactly one of the three field
// names may appear in any upload payload.
var rules = map[Kind]Rule{
	KindPhoto: {Kind: KindPhoto, MIMEPrefix: "image/", FieldName: "profileImage", Preview: PreviewImage},
	KindVideo: {Kind: KindVideo, MIMEPrefix: "video/", FieldName: "video", Preview: PreviewMutedVideo},
	KindAudio: {Kind: KindAudio, MIMEPrefix: "audio/", FieldName: "audio", Preview: PreviewNone},
}

// slotOrder lists every media field name the dispatcher recognizes
var slotOrder = []string{"profileImage", "video", "audio"}

// RuleFor returns the dispatch rule for a kind
func RuleFor(kind Kind) (Rule, error) {
	rule, ok := rules[kind]
	if !ok {
		return Rule{}, fmt.Errorf("unknown upload kind: %q", kind)
	}
	return rule, nil
}

// ValidKind reports whether kind is one of Photo, Video, Audio
func ValidKind(kind Kind) bool {
	_, ok := rules[kind]
	return ok
}

// SlotNames returns the three media field names in table order
func SlotNames() []string {
	out := make([]string, len(slotOrder))
	copy(out, slotOrder)
	return out
}

// Accepts reports whether a file of the given content type may be
// attached under this rule
func (r Rule) Accepts(contentType string) bool {
	return strings.HasPrefix(contentType, r.MIMEPrefix)
}

// FilePart extracts the one media file from an inbound multipart form
// for the declared kind. It returns an error when the kind's slot is
// empty or when any other media slot is also populated: more than one
// attached file, or a file under the wrong slot, is a contract
// violation regardless of what else the form carries.
func FilePart(form *multipart.Form, kind Kind) (*multipart.FileHeader, error) {
	rule, err := RuleFor(kind)
	if err != nil {
		return nil, err
	}

	var header *multipart.FileHeader
	for _, slot := range slotOrder {
		files := form.File[slot]
		if len(files) == 0 {
			continue
		}
		if slot != rule.FieldName {
			return nil, fmt.Errorf("unexpected %q file for %s upload", slot, kind)
		}
		if len(files) > 1 {
			return nil, fmt.Errorf("multiple files in %q slot", slot)
		}
		header = files[0]
	}

	if header == nil {
		return nil, fmt.Errorf("missing %q file for %s upload", rule.FieldName, kind)
	}
	return header, nil
}

// OptionalFilePart is FilePart for edit requests: a missing file means
// the existing media is kept, so only a wrongly-slotted or duplicated
// file is an error
func OptionalFilePart(form *multipart.Form, kind Kind) (*multipart.FileHeader, error) {
	rule, err := RuleFor(kind)
	if err != nil {
		return nil, err
	}

	var header *multipart.FileHeader
	for _, slot := range slotOrder {
		files := form.File[slot]
		if len(files) == 0 {
			continue
		}
		if slot != rule.FieldName {
			return nil, fmt.Errorf("unexpected %q file for %s upload", slot, kind)
		}
		if len(files) > 1 {
			return nil, fmt.Errorf("multiple files in %q slot", slot)
		}
		header = files[0]
	}

	return header, nil
}
