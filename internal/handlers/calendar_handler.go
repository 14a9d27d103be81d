package handlers

import (
	"net/http"

	"familyhub/internal/service"
)

// CalendarHandler serves the external calendar connection flow
type CalendarHandler struct {
	base
	calendar *service.CalendarService
}

func NewCalendarHandler(membership *service.MembershipService, calendar *service.CalendarService, responder *Responder) *CalendarHandler {
	return &CalendarHandler{
		base:     base{membership: membership, responder: responder},
		calendar: calendar,
	}
}

type connectResponse struct {
	URL string `json:"url"`
}

// Connect returns the provider consent URL for the selected family
func (h *CalendarHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if h.calendar == nil {
		h.responder.Error(w, r, service.ErrNotConfigured)
		return
	}

	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	url, err := h.calendar.ConnectURL(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, connectResponse{URL: url})
}

// Callback completes the consent flow. The state parameter carries the
// user and family, so no bearer token is needed.
func (h *CalendarHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.calendar == nil {
		h.responder.Error(w, r, service.ErrNotConfigured)
		return
	}

	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		respondWithError(w, http.StatusBadRequest, "consent_denied", "Calendar access was not granted: "+reason, nil)
		return
	}

	conn, err := h.calendar.Callback(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, conn)
}

func (h *CalendarHandler) Connections(w http.ResponseWriter, r *http.Request) {
	if h.calendar == nil {
		h.responder.Error(w, r, service.ErrNotConfigured)
		return
	}

	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	conns, err := h.calendar.Connections(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, conns)
}

// Sync pulls upcoming events from each of the caller's connections
func (h *CalendarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h.calendar == nil {
		h.responder.Error(w, r, service.ErrNotConfigured)
		return
	}

	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	result, err := h.calendar.Sync(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
