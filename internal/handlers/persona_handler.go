package handlers

import (
	"net/http"

	"familyhub/internal/service"
)

// PersonaHandler serves /family-members, the people a family tracks
type PersonaHandler struct {
	base
	personas *service.PersonaService
}

func NewPersonaHandler(membership *service.MembershipService, personas *service.PersonaService, responder *Responder) *PersonaHandler {
	return &PersonaHandler{
		base:     base{membership: membership, responder: responder},
		personas: personas,
	}
}

func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	personas, err := h.personas.List(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, personas)
}

func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var in service.PersonaInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	persona, err := h.personas.Create(r.Context(), h.userID(r), familyID, in)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, persona)
}

func (h *PersonaHandler) Update(w http.ResponseWriter, r *http.Request) {
	personaID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var patch service.PersonaPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	persona, err := h.personas.Update(r.Context(), h.userID(r), personaID, patch)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, persona)
}

func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	personaID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.personas.Delete(r.Context(), h.userID(r), personaID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
