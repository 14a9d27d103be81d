package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"familyhub/internal/models"
	"familyhub/internal/repository"

	"go.uber.org/zap"
)

const exportVersion = "1"

// FamilyExport is the complete data of one family. Calendar tokens and
// invite tokens are never exported.
type FamilyExport struct {
	Version      string                 `json:"version"`
	ExportedAt   time.Time              `json:"exported_at"`
	Family       models.Family          `json:"family"`
	Members      []models.MemberUser    `json:"members"`
	Personas     []models.FamilyMember  `json:"personas"`
	Events       []models.Event         `json:"events"`
	Lists        []models.ListWithItems `json:"lists"`
	Chores       []ChoreExport          `json:"chores"`
	Messages     []models.Message       `json:"messages"`
	Subscription *models.Subscription   `json:"subscription,omitempty"`
}

// ChoreExport is a chore with its completion history
type ChoreExport struct {
	models.Chore
	Completions []models.ChoreCompletion `json:"completions"`
}

// ExportService writes family data as JSON for members and operators
type ExportService struct {
	families      *repository.FamilyRepository
	personas      *repository.PersonaRepository
	events        *repository.EventRepository
	lists         *repository.ListRepository
	chores        *repository.ChoreRepository
	messages      *repository.MessageRepository
	subscriptions *repository.SubscriptionRepository
	access        *MembershipService
	logger        *zap.Logger
	now           func() time.Time
}

// NewExportService creates a new export service
func NewExportService(families *repository.FamilyRepository, personas *repository.PersonaRepository, events *repository.EventRepository,
	lists *repository.ListRepository, chores *repository.ChoreRepository, messages *repository.MessageRepository,
	subscriptions *repository.SubscriptionRepository, access *MembershipService, logger *zap.Logger) *ExportService {
	return &ExportService{
		families:      families,
		personas:      personas,
		events:        events,
		lists:         lists,
		chores:        chores,
		messages:      messages,
		subscriptions: subscriptions,
		access:        access,
		logger:        logger,
		now:           time.Now,
	}
}

// ExportForMember builds the export of a family the caller belongs to
func (s *ExportService) ExportForMember(ctx context.Context, userID string, familyID int64) (*FamilyExport, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	return s.Export(ctx, familyID)
}

// Export collects all data of a family. No access checks; used by the export CLI.
func (s *ExportService) Export(ctx context.Context, familyID int64) (*FamilyExport, error) {
	family, err := s.families.GetFamilyByID(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNotFound
	}

	export := &FamilyExport{
		Version:    exportVersion,
		ExportedAt: s.now().UTC(),
		Family:     *family,
	}

	if export.Members, err = s.families.GetFamilyMembers(ctx, familyID); err != nil {
		return nil, fmt.Errorf("failed to export members: %w", err)
	}
	if export.Personas, err = s.personas.GetFamilyPersonas(ctx, familyID); err != nil {
		return nil, fmt.Errorf("failed to export personas: %w", err)
	}
	if export.Events, err = s.events.GetFamilyEvents(ctx, familyID, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to export events: %w", err)
	}
	if err := s.exportLists(ctx, export); err != nil {
		return nil, fmt.Errorf("failed to export lists: %w", err)
	}
	if err := s.exportChores(ctx, export); err != nil {
		return nil, fmt.Errorf("failed to export chores: %w", err)
	}
	if export.Messages, err = s.messages.GetFamilyMessages(ctx, familyID); err != nil {
		return nil, fmt.Errorf("failed to export messages: %w", err)
	}
	if export.Subscription, err = s.subscriptions.GetFamilySubscription(ctx, familyID); err != nil {
		return nil, fmt.Errorf("failed to export subscription: %w", err)
	}

	return export, nil
}

// ExportAll writes every family as one JSON array, for operator backups
func (s *ExportService) ExportAll(ctx context.Context, w io.Writer) (int, error) {
	s.logger.Info("starting export of all families")

	families, err := s.families.GetAllFamilies(ctx)
	if err != nil {
		return 0, err
	}

	exports := make([]*FamilyExport, 0, len(families))
	for _, f := range families {
		export, err := s.Export(ctx, f.ID)
		if err != nil {
			return 0, fmt.Errorf("family %d: %w", f.ID, err)
		}
		exports = append(exports, export)
	}

	if err := WriteJSON(w, exports); err != nil {
		return 0, err
	}
	s.logger.Info("export completed", zap.Int("families", len(exports)))
	return len(exports), nil
}

// WriteJSON encodes v with indentation
func WriteJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

func (s *ExportService) exportLists(ctx context.Context, export *FamilyExport) error {
	lists, err := s.lists.GetFamilyLists(ctx, export.Family.ID)
	if err != nil {
		return err
	}
	export.Lists = make([]models.ListWithItems, 0, len(lists))
	for _, l := range lists {
		items, err := s.lists.GetListItems(ctx, l.ID)
		if err != nil {
			return err
		}
		export.Lists = append(export.Lists, models.ListWithItems{List: l, Items: items})
	}
	return nil
}

func (s *ExportService) exportChores(ctx context.Context, export *FamilyExport) error {
	chores, err := s.chores.GetFamilyChores(ctx, export.Family.ID)
	if err != nil {
		return err
	}
	export.Chores = make([]ChoreExport, 0, len(chores))
	for _, c := range chores {
		completions, err := s.chores.GetChoreCompletions(ctx, c.ID)
		if err != nil {
			return err
		}
		export.Chores = append(export.Chores, ChoreExport{Chore: c, Completions: completions})
	}
	return nil
}
