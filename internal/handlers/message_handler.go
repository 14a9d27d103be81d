package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"familyhub/internal/security"
	"familyhub/internal/service"
	"familyhub/internal/validation"

	"go.uber.org/zap"
)

const WebhookSignatureHeader = "X-Webhook-Signature"

// MessageHandler serves the family inbox and its ingestion webhook
type MessageHandler struct {
	base
	messages *service.MessageService
	signer   *security.PayloadSigner
	logger   *zap.Logger
}

func NewMessageHandler(membership *service.MembershipService, messages *service.MessageService, signer *security.PayloadSigner, responder *Responder, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		base:     base{membership: membership, responder: responder},
		messages: messages,
		signer:   signer,
		logger:   logger,
	}
}

// List returns the family's messages, newest first
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := h.familyID(r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	messages, err := h.messages.List(r.Context(), h.userID(r), familyID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	message, err := h.messages.MarkRead(r.Context(), h.userID(r), messageID)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, message)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "id")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.messages.Delete(r.Context(), h.userID(r), messageID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Webhook ingests a message forwarded by a mail relay. When a webhook secret
// is configured the raw body must carry a matching HMAC signature.
func (h *MessageHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	familyID, err := pathID(r, "familyId")
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.responder.Error(w, r, validation.Error{Field: "body", Message: "request body too large"})
		return
	}

	if !h.signer.Verify(payload, r.Header.Get(WebhookSignatureHeader)) {
		h.logger.Warn("message webhook signature mismatch", zap.Int64("family_id", familyID))
		respondWithError(w, http.StatusUnauthorized, "invalid_signature", "Webhook signature is missing or invalid", nil)
		return
	}

	var in service.IncomingMessage
	if err := json.Unmarshal(payload, &in); err != nil {
		h.responder.Error(w, r, validation.Error{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}

	message, err := h.messages.Ingest(r.Context(), familyID, in)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}
