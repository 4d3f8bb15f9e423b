package handlers

import (
	"net/http"
	"strconv"

	"familyvault/internal/service"
	"familyvault/internal/storage"
)

// VaultHandler handles vault lifecycle requests
type VaultHandler struct {
	vaultService *service.VaultService
	media        *storage.MediaStore
}

// NewVaultHandler creates a new vault handler
func NewVaultHandler(vaultService *service.VaultService, media *storage.MediaStore) *VaultHandler {
	return &VaultHandler{vaultService: vaultService, media: media}
}

type vaultRequest struct {
	Name        string  `json:"vaultName"`
	Description string  `json:"description"`
	CoverImage  string  `json:"coverImage"`
	Theme       string  `json:"theme"`
	Privacy     string  `json:"privacy"`
	Members     []int64 `json:"members"`
}

func (req vaultRequest) input() service.VaultInput {
	return service.VaultInput{
		Name:        req.Name,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Theme:       req.Theme,
		Privacy:     req.Privacy,
		Members:     req.Members,
	}
}

// Create handles POST /vault/createVault. The request is multipart:
// vaultName, description, privacy, theme, familyId, a repeated members
// field and an optional profileImage cover file.
func (h *VaultHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var members []int64
	for _, raw := range r.MultipartForm.Value["members"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
			return
		}
		members = append(members, id)
	}

	coverImage, err := saveProfileImage(h.media, r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	vault, err := h.vaultService.CreateVault(session, familyID, service.VaultInput{
		Name:        r.FormValue("vaultName"),
		Description: r.FormValue("description"),
		CoverImage:  coverImage,
		Theme:       r.FormValue("theme"),
		Privacy:     r.FormValue("privacy"),
		Members:     members,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"vault": vault})
}

// ListFamilyVaults handles GET /vault/getfamilyvaults/{familyId}/{memberId}.
// The memberId path segment must match the logged-in member; the family
// root session passes 0.
func (h *VaultHandler) ListFamilyVaults(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}
	memberID, err := strconv.ParseInt(r.PathValue("memberId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}
	if memberID != session.MemberID {
		respondJSON(w, http.StatusForbidden, errorResponse{Error: "Access denied"})
		return
	}

	vaults, err := h.vaultService.ListFamilyVaults(session, familyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"vaults": vaults})
}

// Get handles GET /vault/{vaultId}
func (h *VaultHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	vaultID, err := strconv.ParseInt(r.PathValue("vaultId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	vault, err := h.vaultService.GetVault(session, vaultID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vault)
}

// Update handles PUT /vault/{vaultId}
func (h *VaultHandler) Update(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	vaultID, err := strconv.ParseInt(r.PathValue("vaultId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	var req vaultRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	vault, err := h.vaultService.UpdateVault(session, vaultID, req.input())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vault)
}

// Delete handles DELETE /vault/{vaultId}
func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	vaultID, err := strconv.ParseInt(r.PathValue("vaultId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	if err := h.vaultService.DeleteVault(session, vaultID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
