package handlers

import (
	"net/http"
	"time"

	"familyhub/internal/service"
)

// InviteHandler serves email invitations
type InviteHandler struct {
	base
	invites *service.InviteService
}

func NewInviteHandler(membership *service.MembershipService, invites *service.InviteService, responder *Responder) *InviteHandler {
	return &InviteHandler{
		base:    base{membership: membership, responder: responder},
		invites: invites,
	}
}

type createInviteRequest struct {
	FamilyID *int64 `json:"family_id"`
	Email    string `json:"email"`
}

// Create invites an email address into a family the caller belongs to.
// Without family_id in the body the usual family selection applies.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var familyID int64
	if req.FamilyID != nil {
		familyID = *req.FamilyID
	} else {
		selected, err := h.familyID(r)
		if err != nil {
			h.responder.Error(w, r, err)
			return
		}
		familyID = selected
	}

	invite, err := h.invites.CreateInvite(r.Context(), GetIdentityFromContext(r.Context()), familyID, req.Email)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, invite)
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	invites, err := h.invites.ListInvites(r.Context(), GetIdentityFromContext(r.Context()), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invites)
}

type invitePreview struct {
	Email      string    `json:"email"`
	FamilyID   int64     `json:"family_id"`
	FamilyName string    `json:"family_name"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Preview shows a pending invite to anyone holding its token
func (h *InviteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	invite, family, err := h.invites.ResolveInvite(r.Context(), r.PathValue("token"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invitePreview{
		Email:      invite.Email,
		FamilyID:   family.ID,
		FamilyName: family.Name,
		ExpiresAt:  invite.ExpiresAt,
	})
}

func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	membership, err := h.invites.AcceptInvite(r.Context(), GetIdentityFromContext(r.Context()), r.PathValue("token"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, membership)
}

// Revoke cancels a pending invite. The path segment is the invite id.
func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	inviteID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.invites.RevokeInvite(r.Context(), GetIdentityFromContext(r.Context()), inviteID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
