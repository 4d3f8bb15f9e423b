package handlers

import (
	"net/http"

	"familyvault/internal/storage"
	"familyvault/internal/upload"
)

// saveProfileImage stores the optional profileImage part of a multipart
// form and returns its media path. Missing file means no image, not an
// error.
func saveProfileImage(media *storage.MediaStore, r *http.Request) (string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["profileImage"]) == 0 {
		return "", nil
	}
	return media.Save(r.MultipartForm.File["profileImage"][0], upload.KindPhoto)
}
