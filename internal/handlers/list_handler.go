package handlers

import (
	"net/http"

	"familyhub/internal/service"
)

// ListHandler handles shopping and to-do list HTTP requests
type ListHandler struct {
	base
	lists *service.ListService
}

// NewListHandler creates a new list handler
func NewListHandler(membership *service.MembershipService, lists *service.ListService, responder *Responder) *ListHandler {
	return &ListHandler{
		base:  base{membership: membership, responder: responder},
		lists: lists,
	}
}

// List returns the family's lists with their items
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	lists, err := h.lists.List(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lists)
}

// Create handles list creation
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var in service.ListInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	list, err := h.lists.Create(r.Context(), h.userID(r), familyID, in)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, list)
}

// Update handles list rename and type changes
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var patch service.ListPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	list, err := h.lists.Update(r.Context(), h.userID(r), listID, patch)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Delete handles list deletion
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.lists.Delete(r.Context(), h.userID(r), listID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) Items(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	items, err := h.lists.Items(r.Context(), h.userID(r), listID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// AddItem adds an item to a list
func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var in service.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	item, err := h.lists.AddItem(r.Context(), h.userID(r), listID, in)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// UpdateItem edits an item. Toggling purchased stamps or clears purchased_at.
func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	var patch service.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	item, err := h.lists.UpdateItem(r.Context(), h.userID(r), listID, itemID, patch)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteItem removes an item from a list
func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.lists.DeleteItem(r.Context(), h.userID(r), listID, itemID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
