package handlers

import (
	"net/http"

	"familyhub/internal/service"
)

// FamilyHandler serves onboarding and family membership requests
type FamilyHandler struct {
	base
	exports *service.ExportService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(membership *service.MembershipService, exports *service.ExportService, responder *Responder) *FamilyHandler {
	return &FamilyHandler{
		base:    base{membership: membership, responder: responder},
		exports: exports,
	}
}

// Onboarding reports where the caller is in the signup flow. Never cached.
func (h *FamilyHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	state, err := h.membership.Onboarding(r.Context(), GetIdentityFromContext(r.Context()))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, state)
}

// List returns the caller's families with their role in each
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.membership.GetMembershipsFor(r.Context(), GetIdentityFromContext(r.Context()))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, memberships)
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

// Create makes a new family owned by the caller
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	family, err := h.membership.CreateFamily(r.Context(), GetIdentityFromContext(r.Context()), req.Name)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, family)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	detail, err := h.membership.GetFamily(r.Context(), GetIdentityFromContext(r.Context()), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

type joinFamilyRequest struct {
	InviteCode string `json:"invite_code"`
}

// Join adds the caller to the family owning the invite code
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinFamilyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	family, err := h.membership.JoinByInviteCode(r.Context(), GetIdentityFromContext(r.Context()), req.InviteCode)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.membership.LeaveFamily(r.Context(), GetIdentityFromContext(r.Context()), familyID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegenerateInviteCode replaces the family's join code. Owners only.
func (h *FamilyHandler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	family, err := h.membership.RegenerateInviteCode(r.Context(), GetIdentityFromContext(r.Context()), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, family)
}

// Export downloads everything the family owns as one JSON document
func (h *FamilyHandler) Export(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	export, err := h.exports.ExportForMember(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\"family-export.json\"")
	respondJSON(w, http.StatusOK, export)
}
