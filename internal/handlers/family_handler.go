package handlers

import (
	"net/http"
	"strconv"

	"familyvault/internal/service"
)

// FamilyHandler handles family profile and stats requests
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

// Profile handles GET /family/familyProfile/{familyId}
func (h *FamilyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	profile, err := h.familyService.FamilyProfile(session, familyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Stats handles GET /family/allstats/{familyId}
func (h *FamilyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	stats, err := h.familyService.Stats(session, familyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Update handles PUT /family/{familyId}
func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	var req struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		ProfileImage string `json:"profileImage"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	family, err := h.familyService.UpdateFamily(session, familyID, req.Name, req.Description, req.ProfileImage)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, family)
}
