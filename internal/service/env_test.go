package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"familyhub/internal/cache"
	"familyhub/internal/calendar"
	"familyhub/internal/database/dbtest"
	"familyhub/internal/identity"
	"familyhub/internal/models"
	"familyhub/internal/payments"
	"familyhub/internal/repository"
	"familyhub/internal/security"
)

type testEnv struct {
	membership    *MembershipService
	invites       *InviteService
	personas      *PersonaService
	events        *EventService
	lists         *ListService
	chores        *ChoreService
	messages      *MessageService
	calendar      *CalendarService
	subscriptions *SubscriptionService
	export        *ExportService

	eventRepo *repository.EventRepository
	subRepo   *repository.SubscriptionRepository
	provider  *fakeCalendar
	payments  *payments.Fake
	store     *cache.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	logger := zap.NewNop()

	users := repository.NewUserRepository(db)
	families := repository.NewFamilyRepository(db)
	personas := repository.NewPersonaRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	eventRepo := repository.NewEventRepository(db)
	listRepo := repository.NewListRepository(db)
	choreRepo := repository.NewChoreRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	sealer, err := security.NewSealer("test-sealing-key")
	require.NoError(t, err)

	env := &testEnv{
		eventRepo: eventRepo,
		subRepo:   subRepo,
		provider:  newFakeCalendar(),
		payments:  payments.NewFake("whsec_fake"),
		store:     cache.NewMemoryStore(),
	}
	env.membership = NewMembershipService(users, families, personas, logger)
	env.invites = NewInviteService(inviteRepo, families, env.membership, logger)
	env.personas = NewPersonaService(personas, env.membership)
	env.events = NewEventService(eventRepo, personas, env.membership)
	env.lists = NewListService(listRepo, personas, env.membership)
	env.chores = NewChoreService(choreRepo, personas, env.membership)
	env.messages = NewMessageService(messageRepo, families, env.membership, logger)
	env.calendar = NewCalendarService(calendarRepo, eventRepo, env.membership, env.provider, env.store, sealer, logger)
	env.subscriptions = NewSubscriptionService(subRepo, env.membership, env.payments, "price_family", logger)
	env.export = NewExportService(families, personas, eventRepo, listRepo, choreRepo, messageRepo, subRepo, env.membership, logger)
	return env
}

// signIn creates the profile the middleware would create on first request
func (e *testEnv) signIn(t *testing.T, id, email string) *identity.Identity {
	t.Helper()
	ident := &identity.Identity{ID: id, Email: email, FullName: id}
	_, err := e.membership.EnsureUserProfile(context.Background(), ident)
	require.NoError(t, err)
	return ident
}

func (e *testEnv) family(t *testing.T, owner *identity.Identity, name string) *models.Family {
	t.Helper()
	f, err := e.membership.CreateFamily(context.Background(), owner, name)
	require.NoError(t, err)
	return f
}

type fakeCalendar struct {
	events      []calendar.Event
	refreshes   int
	listCalls   int
	lastToken   string
	expiry      time.Time
	exchangeErr error
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{expiry: time.Now().Add(time.Hour)}
}

func (f *fakeCalendar) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeCalendar) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, Expiry: f.expiry}, nil
}

func (f *fakeCalendar) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.refreshes++
	return &oauth2.Token{AccessToken: "refreshed-access", Expiry: time.Now().Add(time.Hour)}, nil
}

func (f *fakeCalendar) AccountEmail(ctx context.Context, accessToken string) (string, error) {
	return "calendar@example.com", nil
}

func (f *fakeCalendar) ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]calendar.Event, error) {
	f.listCalls++
	f.lastToken = accessToken
	return f.events, nil
}
