package handlers

import (
	"net/http"

	"familyhub/internal/service"
)

// ChoreHandler serves chores, completions and the points leaderboard
type ChoreHandler struct {
	base
	chores *service.ChoreService
}

func NewChoreHandler(membership *service.MembershipService, chores *service.ChoreService, responder *Responder) *ChoreHandler {
	return &ChoreHandler{
		base:   base{membership: membership, responder: responder},
		chores: chores,
	}
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	chores, err := h.chores.List(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var in service.ChoreInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	chore, err := h.chores.Create(r.Context(), h.userID(r), familyID, in)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	choreID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var patch service.ChorePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	chore, err := h.chores.Update(r.Context(), h.userID(r), choreID, patch)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	choreID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.chores.Delete(r.Context(), h.userID(r), choreID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete records a completion and credits the chore's points.
// An empty body credits the chore's assignee.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	choreID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var in service.CompleteInput
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.Error(w, r, err)
			return
		}
	}

	completion, err := h.chores.Complete(r.Context(), h.userID(r), choreID, in)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, completion)
}

func (h *ChoreHandler) Completions(w http.ResponseWriter, r *http.Request) {
	choreID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	completions, err := h.chores.Completions(r.Context(), h.userID(r), choreID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, completions)
}

// Points returns the leaderboard of points per persona
func (h *ChoreHandler) Points(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	totals, err := h.chores.Points(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}
