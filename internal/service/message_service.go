package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/validation"

	"go.uber.org/zap"
)

const previewLength = 160

// IncomingMessage is the body posted to the message ingestion webhook
type IncomingMessage struct {
	Subject     string     `json:"subject"`
	Sender      string     `json:"sender"`
	SenderEmail string     `json:"sender_email"`
	Body        string     `json:"body"`
	Preview     string     `json:"preview"`
	IsUrgent    bool       `json:"is_urgent"`
	ReceivedAt  *time.Time `json:"received_at"`
}

// MessageService manages aggregated school and activity messages
type MessageService struct {
	messages *repository.MessageRepository
	families *repository.FamilyRepository
	access   *MembershipService
	logger   *zap.Logger
	now      func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(messages *repository.MessageRepository, families *repository.FamilyRepository, access *MembershipService, logger *zap.Logger) *MessageService {
	return &MessageService{messages: messages, families: families, access: access, logger: logger, now: time.Now}
}

func (s *MessageService) List(ctx context.Context, userID string, familyID int64) ([]models.Message, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	return s.messages.GetFamilyMessages(ctx, familyID)
}

func (s *MessageService) MarkRead(ctx context.Context, userID string, messageID int64) (*models.Message, error) {
	m, err := s.load(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkRead(ctx, messageID); err != nil {
		return nil, err
	}
	m.IsRead = true
	return m, nil
}

func (s *MessageService) Delete(ctx context.Context, userID string, messageID int64) error {
	if _, err := s.load(ctx, userID, messageID); err != nil {
		return err
	}
	return s.messages.DeleteMessage(ctx, messageID)
}

// Ingest stores a message pushed by an external mail integration. The
// caller is not a user, so only the family's existence is checked.
func (s *MessageService) Ingest(ctx context.Context, familyID int64, in IncomingMessage) (*models.Message, error) {
	family, err := s.families.GetFamilyByID(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNotFound
	}

	m := &models.Message{
		FamilyID:    familyID,
		Subject:     strings.TrimSpace(in.Subject),
		Sender:      strings.TrimSpace(in.Sender),
		SenderEmail: validation.NormalizeEmail(in.SenderEmail),
		Body:        in.Body,
		Preview:     strings.TrimSpace(in.Preview),
		IsUrgent:    in.IsUrgent,
		ReceivedAt:  s.now().UTC(),
	}
	if in.ReceivedAt != nil {
		m.ReceivedAt = in.ReceivedAt.UTC()
	}
	if err := validation.ValidateRequired("subject", m.Subject, 300); err != nil {
		return nil, err
	}
	if m.SenderEmail != "" {
		if err := validation.ValidateEmail(m.SenderEmail); err != nil {
			return nil, validation.Error{Field: "sender_email", Message: "invalid email format"}
		}
	}
	if m.Preview == "" {
		m.Preview = Preview(m.Body)
	}

	if err := s.messages.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("message ingested", zap.Int64("family_id", familyID), zap.Int64("message_id", m.ID), zap.Bool("urgent", m.IsUrgent))
	return m, nil
}

// Preview collapses whitespace and cuts the body to a short teaser
func Preview(body string) string {
	text := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimSpace(string(runes[:previewLength]))
	if i := strings.LastIndex(cut, " "); i > previewLength/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

func (s *MessageService) load(ctx context.Context, userID string, messageID int64) (*models.Message, error) {
	m, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	if _, err := s.access.RequireMember(ctx, userID, m.FamilyID); err != nil {
		return nil, err
	}
	return m, nil
}
