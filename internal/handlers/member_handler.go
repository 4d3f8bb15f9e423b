package handlers

import (
	"net/http"
	"strconv"

	"familyvault/internal/service"
	"familyvault/internal/storage"
)

// MemberHandler handles member enrollment, lookup and invitation requests
type MemberHandler struct {
	memberService     *service.MemberService
	invitationService *service.InvitationService
	emailService      *service.EmailService
	media             *storage.MediaStore
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *service.MemberService, invitationService *service.InvitationService, emailService *service.EmailService, media *storage.MediaStore) *MemberHandler {
	return &MemberHandler{
		memberService:     memberService,
		invitationService: invitationService,
		emailService:      emailService,
		media:             media,
	}
}

// AddMember handles POST /member/addmember. The request is multipart:
// the full member profile plus an optional profileImage file.
func (h *MemberHandler) AddMember(w http.ResponseWriter, r *http.Request) {
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

	profileImage, err := saveProfileImage(h.media, r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	member, err := h.memberService.AddMember(session, familyID, service.MemberInput{
		Name:         r.FormValue("name"),
		Bio:          r.FormValue("bio"),
		DateOfBirth:  r.FormValue("dateOfBirth"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("phone"),
		ProfileImage: profileImage,
		Relation:     r.FormValue("relation"),
		RelationText: r.FormValue("relationText"),
		Role:         r.FormValue("role"),
		Password:     r.FormValue("password"),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"member": member})
}

// AddExistingMember handles POST /member/addexistingmember
func (h *MemberHandler) AddExistingMember(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	var req struct {
		FamilyID     int64  `json:"familyId"`
		Email        string `json:"email"`
		Relation     string `json:"relation"`
		RelationText string `json:"relationText"`
		Role         string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	if _, err := h.memberService.AddExistingMember(session, req.FamilyID, req.Email, req.Relation, req.RelationText, req.Role); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{})
}

// FindByEmailAndFamily handles GET /member/findMemberByEmailandFamilyId/{familyId}/{email}
func (h *MemberHandler) FindByEmailAndFamily(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	member, err := h.memberService.FindMemberByEmailAndFamily(session, familyID, r.PathValue("email"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"member": member})
}

// Get handles GET /member/{memberId}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	memberID, err := strconv.ParseInt(r.PathValue("memberId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	member, err := h.memberService.GetMember(session, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// Invite handles POST /member/invite
func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	var req struct {
		FamilyID     int64  `json:"familyId"`
		Email        string `json:"email"`
		Relation     string `json:"relation"`
		RelationText string `json:"relationText"`
		Role         string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	invitation, err := h.invitationService.InviteMember(r.Context(), session, req.FamilyID, req.Email, req.Relation, req.RelationText, req.Role, h.emailService)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, invitation)
}

// ListInvitations handles GET /member/invitations/{familyId}
func (h *MemberHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	familyID, err := strconv.ParseInt(r.PathValue("familyId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	invitations, err := h.invitationService.ListInvitations(session, familyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invitations)
}

// ValidateInvitation handles GET /invite/accept: it checks a token
// before the invitee fills in their details
func (h *MemberHandler) ValidateInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	invitation, err := h.invitationService.ValidateInvitation(token)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invitation)
}

// AcceptInvitation handles POST /invite/accept
func (h *MemberHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidFormData})
		return
	}

	member, err := h.invitationService.AcceptInvitation(req.Token, req.Name, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, member)
}
