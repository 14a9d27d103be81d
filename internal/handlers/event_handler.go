package handlers

import (
	"net/http"

	"familyhub/internal/service"
)

// EventHandler serves the family calendar
type EventHandler struct {
	base
	events *service.EventService
}

func NewEventHandler(membership *service.MembershipService, events *service.EventService, responder *Responder) *EventHandler {
	return &EventHandler{
		base:   base{membership: membership, responder: responder},
		events: events,
	}
}

// List returns events, optionally limited to those overlapping [from, to)
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	from, err := queryTime(r, "from")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	events, err := h.events.List(r.Context(), h.userID(r), familyID, from, to)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var in service.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	event, err := h.events.Create(r.Context(), h.userID(r), familyID, in)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var patch service.EventPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	event, err := h.events.Update(r.Context(), h.userID(r), eventID, patch)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.events.Delete(r.Context(), h.userID(r), eventID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
