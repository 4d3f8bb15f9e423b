package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"familyvault/internal/service"
	"familyvault/internal/storage"
	"familyvault/internal/upload"
)

// maxMultipartMemory bounds how much of a media upload is buffered in
// memory before spilling to disk
const maxMultipartMemory = 32 << 20

// MemoryHandler handles memory upload, edit, delete and listing requests
type MemoryHandler struct {
	memoryService *service.MemoryService
	familyService *service.FamilyService
	media         *storage.MediaStore
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memoryService *service.MemoryService, familyService *service.FamilyService, media *storage.MediaStore) *MemoryHandler {
	return &MemoryHandler{memoryService: memoryService, familyService: familyService, media: media}
}

// memoryInput reads the common multipart form fields of an upload or
// edit request
func memoryInput(r *http.Request) (service.MemoryInput, error) {
	vaultID := int64(0)
	if raw := r.FormValue("vaultId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return service.MemoryInput{}, err
		}
		vaultID = parsed
	}
	return service.MemoryInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Kind:        upload.Kind(r.FormValue("uploadKind")),
		VaultID:     vaultID,
	}, nil
}

// Upload handles POST /memory/uploadMemory. The request is multipart:
// text fields plus the media file under the field name the upload kind
// dictates.
func (h *MemoryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	familyID, err := strconv.ParseInt(r.FormValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	input, err := memoryInput(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}
	if !upload.ValidKind(input.Kind) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Unknown upload kind"})
		return
	}

	file, err := upload.FilePart(r.MultipartForm, input.Kind)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	memory, err := h.memoryService.UploadMemory(session, familyID, input, file)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"memory": memory})
}

// Edit handles PUT /memory/editMemory/{memoryId}. Omitting the file
// part keeps the existing media.
func (h *MemoryHandler) Edit(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	memoryID, err := strconv.ParseInt(r.PathValue("memoryId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	input, err := memoryInput(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}
	if !upload.ValidKind(input.Kind) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Unknown upload kind"})
		return
	}

	file, err := upload.OptionalFilePart(r.MultipartForm, input.Kind)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	memory, err := h.memoryService.EditMemory(session, memoryID, input, file)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"memory": memory})
}

// Delete handles DELETE /memory/deleteMemory/{familyId}/{vaultId}/{memoryId}.
// A vaultId of 0 addresses a family-wide memory.
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}
	vaultID, err := strconv.ParseInt(r.PathValue("vaultId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}
	memoryID, err := strconv.ParseInt(r.PathValue("memoryId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	if err := h.memoryService.DeleteMemory(session, familyID, vaultID, memoryID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{})
}

// AllFamilyMemory handles GET /memory/allfamilymemory/{familyId}
func (h *MemoryHandler) AllFamilyMemory(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	memories, err := h.memoryService.ListFamilyMemories(session, familyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, memories)
}

// Get handles GET /memory/memory/{memoryId}
func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	memoryID, err := strconv.ParseInt(r.PathValue("memoryId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	memory, err := h.memoryService.GetMemory(session, memoryID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, memory)
}

// VaultMemories handles GET /memory/vault/{vaultId}
func (h *MemoryHandler) VaultMemories(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	vaultID, err := strconv.ParseInt(r.PathValue("vaultId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	memories, err := h.memoryService.ListVaultMemories(session, vaultID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, memories)
}

// ServeMedia handles GET /media/{path...}: it streams a stored media
// file. The path is resolved back to its owner before any bytes leave:
// memory media runs the full view decision, and a path that is not a
// memory's must be one of the session family's profile or cover images.
func (h *MemoryHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	relPath := r.PathValue("path")

	_, err := h.memoryService.GetMemoryByMedia(session, relPath)
	if errors.Is(err, service.ErrNotFound) {
		owned, ownErr := h.familyService.OwnsImage(session, relPath)
		if ownErr != nil {
			respondServiceError(w, ownErr)
			return
		}
		if !owned {
			respondServiceError(w, service.ErrNotFound)
			return
		}
	} else if err != nil {
		respondServiceError(w, err)
		return
	}

	fullPath, err := h.media.Path(relPath)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}
	http.ServeFile(w, r, fullPath)
}
