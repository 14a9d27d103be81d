package handlers

import (
	"io"
	"net/http"

	"familyhub/internal/service"
	"familyhub/internal/validation"
)

const StripeSignatureHeader = "Stripe-Signature"

// SubscriptionHandler serves the family's billing mirror
type SubscriptionHandler struct {
	base
	subscriptions *service.SubscriptionService
}

func NewSubscriptionHandler(membership *service.MembershipService, subscriptions *service.SubscriptionService, responder *Responder) *SubscriptionHandler {
	return &SubscriptionHandler{
		base:          base{membership: membership, responder: responder},
		subscriptions: subscriptions,
	}
}

// Create starts a subscription for the selected family and returns the
// client secret needed to confirm payment
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	created, err := h.subscriptions.Create(r.Context(), GetIdentityFromContext(r.Context()), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	sub, err := h.subscriptions.Get(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

type webhookAck struct {
	Received bool `json:"received"`
}

// Webhook applies provider subscription events to the mirror
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.responder.Error(w, r, validation.Error{Field: "body", Message: "request body too large"})
		return
	}

	if err := h.subscriptions.HandleWebhook(r.Context(), payload, r.Header.Get(StripeSignatureHeader)); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, webhookAck{Received: true})
}
