package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"familyhub/internal/database/dbtest"
	"familyhub/internal/identity"
	"familyhub/internal/logging"
	"familyhub/internal/models"
	"familyhub/internal/payments"
	"familyhub/internal/repository"
	"familyhub/internal/security"
	"familyhub/internal/service"
)

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "test-webhook-secret"
)

type testServer struct {
	handler http.Handler
	signer  *security.PayloadSigner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.New(t)
	logger := zap.NewNop()

	users := repository.NewUserRepository(db)
	families := repository.NewFamilyRepository(db)
	personas := repository.NewPersonaRepository(db)
	events := repository.NewEventRepository(db)
	lists := repository.NewListRepository(db)
	chores := repository.NewChoreRepository(db)
	messages := repository.NewMessageRepository(db)
	subs := repository.NewSubscriptionRepository(db)

	membership := service.NewMembershipService(users, families, personas, logger)
	signer := security.NewPayloadSigner(testWebhookSecret)

	handler := NewRouter(Deps{
		Resolver:      identity.NewResolver(identity.NewJWTVerifier(testJWTSecret), time.Second),
		Membership:    membership,
		Invites:       service.NewInviteService(repository.NewInviteRepository(db), families, membership, logger),
		Personas:      service.NewPersonaService(personas, membership),
		Events:        service.NewEventService(events, personas, membership),
		Lists:         service.NewListService(lists, personas, membership),
		Chores:        service.NewChoreService(chores, personas, membership),
		Messages:      service.NewMessageService(messages, families, membership, logger),
		Subscriptions: service.NewSubscriptionService(subs, membership, payments.NewFake("whsec_test"), "price_family", logger),
		Exports:       service.NewExportService(families, personas, events, lists, chores, messages, subs, membership, logger),
		DB:            db,
		Signer:        signer,
		Reporter:      logging.NewReporter("", "test", logger),
		Logger:        logger,
	})
	return &testServer{handler: handler, signer: signer}
}

func token(t *testing.T, subject, email string) string {
	t.Helper()
	signed, err := identity.SignToken(testJWTSecret, identity.Claims{
		Email:        email,
		UserMetadata: map[string]interface{}{"full_name": subject},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return signed
}

type call struct {
	method  string
	path    string
	token   string
	body    interface{}
	headers map[string]string
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func (s *testServer) createFamily(t *testing.T, tok, name string) models.Family {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/families", token: tok, body: map[string]string{"name": name}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Family](t, rec)
}

func familyHeader(id int64) map[string]string {
	return map[string]string{FamilyIDHeader: fmt.Sprint(id)}
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/families", "/events", "/lists", "/chores", "/messages", "/points"} {
		rec := s.do(t, call{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "unauthenticated", decode[ErrorResponse](t, rec).Error, path)
	}

	rec := s.do(t, call{method: http.MethodGet, path: "/families", token: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: http.MethodGet, path: "/healthz", headers: map[string]string{RequestIDHeader: "req-123"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = s.do(t, call{method: http.MethodGet, path: "/healthz"})
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestOnboardingStates(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")

	rec := s.do(t, call{method: http.MethodGet, path: "/onboarding"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.StateUnauthenticated, decode[service.Onboarding](t, rec).State)

	rec = s.do(t, call{method: http.MethodGet, path: "/onboarding", token: alice})
	assert.Equal(t, service.StateNoFamily, decode[service.Onboarding](t, rec).State)

	s.createFamily(t, alice, "Smiths")

	rec = s.do(t, call{method: http.MethodGet, path: "/onboarding", token: alice})
	state := decode[service.Onboarding](t, rec)
	assert.Equal(t, service.StateWithFamily, state.State)
	require.Len(t, state.Memberships, 1)
	assert.Equal(t, models.RoleOwner, state.Memberships[0].Role)
}

func TestFamilySelection(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")

	rec := s.do(t, call{method: http.MethodGet, path: "/events", token: alice})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_family", decode[ErrorResponse](t, rec).Error)

	first := s.createFamily(t, alice, "Smiths")
	rec = s.do(t, call{method: http.MethodGet, path: "/events", token: alice})
	assert.Equal(t, http.StatusOK, rec.Code)

	second := s.createFamily(t, alice, "Cabin Trip")
	rec = s.do(t, call{method: http.MethodGet, path: "/events", token: alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "family_selection_required", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, call{method: http.MethodGet, path: "/events", token: alice, headers: familyHeader(second.ID)})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/events?family_id=%d", first.ID), token: alice})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantIsolationReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	bob := token(t, "bob", "bob@example.com")

	smiths := s.createFamily(t, alice, "Smiths")
	s.createFamily(t, bob, "Joneses")

	rec := s.do(t, call{method: http.MethodPost, path: "/events", token: alice, body: map[string]interface{}{
		"title":      "Swim practice",
		"start_time": time.Now().Add(24 * time.Hour).UTC(),
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode[models.Event](t, rec)

	// Bob can address the event by id but must not learn it exists
	rec = s.do(t, call{method: http.MethodPatch, path: fmt.Sprintf("/events/%d", event.ID), token: bob, body: map[string]string{"title": "Hijacked"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/events/%d", event.ID), token: bob})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/events", token: bob, headers: familyHeader(smiths.ID)})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/families/%d", smiths.ID), token: bob})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodDelete, path: "/events/abc", token: bob})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/events", token: alice})
	events := decode[[]models.Event](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, "Swim practice", events[0].Title)
}

func TestEventsFilterWithOffsetWindow(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	s.createFamily(t, alice, "Smiths")

	rec := s.do(t, call{method: http.MethodPost, path: "/events", token: alice, body: map[string]string{
		"title":      "Recital",
		"start_time": "2026-05-01T11:00:00Z",
		"end_time":   "2026-05-01T11:30:00Z",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	list := func(from, to string) []models.Event {
		q := url.Values{"from": {from}, "to": {to}}
		rec := s.do(t, call{method: http.MethodGet, path: "/events?" + q.Encode(), token: alice})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[[]models.Event](t, rec)
	}

	assert.Len(t, list("2026-05-01T12:00:00+02:00", "2026-05-01T14:00:00+02:00"), 1)
	assert.Len(t, list("2026-05-01T10:00:00Z", "2026-05-01T12:00:00Z"), 1)
	assert.Empty(t, list("2026-05-01T13:45:00+02:00", "2026-05-01T14:00:00+02:00"))
	assert.Empty(t, list("2026-05-01T04:00:00-07:00", "2026-05-01T05:00:00-07:00"))
}

func TestPatchNullClearsEventFields(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	s.createFamily(t, alice, "Smiths")

	rec := s.do(t, call{method: http.MethodPost, path: "/family-members", token: alice, body: map[string]string{"name": "Sam"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sam := decode[models.FamilyMember](t, rec)

	rec = s.do(t, call{method: http.MethodPost, path: "/events", token: alice, body: map[string]interface{}{
		"title":              "Swim",
		"start_time":         "2026-05-01T09:00:00Z",
		"end_time":           "2026-05-01T10:00:00Z",
		"assigned_member_id": sam.ID,
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode[models.Event](t, rec)
	path := fmt.Sprintf("/events/%d", event.ID)

	rec = s.do(t, call{method: http.MethodPatch, path: path, token: alice, body: map[string]string{"title": "Swim lesson"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	event = decode[models.Event](t, rec)
	assert.NotNil(t, event.EndTime)
	assert.NotNil(t, event.AssignedMemberID)

	rec = s.do(t, call{method: http.MethodPatch, path: path, token: alice, body: map[string]interface{}{"assigned_member_id": nil, "end_time": nil}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	event = decode[models.Event](t, rec)
	assert.Nil(t, event.EndTime)
	assert.Nil(t, event.AssignedMemberID)
	assert.Equal(t, "Swim lesson", event.Title)
}

func TestInviteFlow(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	bob := token(t, "bob", "Bob@Example.com")
	carol := token(t, "carol", "carol@example.com")

	smiths := s.createFamily(t, alice, "Smiths")

	rec := s.do(t, call{method: http.MethodPost, path: "/invites", token: carol, body: map[string]interface{}{"family_id": smiths.ID, "email": "bob@example.com"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/invites", token: alice, body: map[string]string{"email": " bob@example.com "}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invite := decode[models.Invite](t, rec)
	require.NotEmpty(t, invite.Token)

	rec = s.do(t, call{method: http.MethodGet, path: "/invites/" + invite.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[invitePreview](t, rec)
	assert.Equal(t, "Smiths", preview.FamilyName)
	assert.Equal(t, smiths.ID, preview.FamilyID)

	rec = s.do(t, call{method: http.MethodPost, path: "/invites/" + invite.Token + "/accept", token: carol})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/invites/" + invite.Token + "/accept", token: bob})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	membership := decode[models.Membership](t, rec)
	assert.Equal(t, smiths.ID, membership.FamilyID)

	rec = s.do(t, call{method: http.MethodPost, path: "/invites/" + invite.Token + "/accept", token: bob})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/invites/" + invite.Token})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/invites/does-not-exist"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/onboarding", token: bob})
	assert.Equal(t, service.StateWithFamily, decode[service.Onboarding](t, rec).State)
}

func TestRevokeInviteByID(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	mallory := token(t, "mallory", "mallory@example.com")
	s.createFamily(t, alice, "Smiths")
	s.createFamily(t, mallory, "Others")

	rec := s.do(t, call{method: http.MethodPost, path: "/invites", token: alice, body: map[string]string{"email": "bob@example.com"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invite := decode[models.Invite](t, rec)
	path := fmt.Sprintf("/invites/%d", invite.ID)

	rec = s.do(t, call{method: http.MethodDelete, path: "/invites/" + invite.Token, token: alice})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodDelete, path: path, token: mallory})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodDelete, path: path, token: alice})
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodGet, path: "/invites/" + invite.Token})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodDelete, path: path, token: alice})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinByInviteCode(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	bob := token(t, "bob", "bob@example.com")

	smiths := s.createFamily(t, alice, "Smiths")

	rec := s.do(t, call{method: http.MethodPost, path: "/families/join", token: bob, body: map[string]string{"invite_code": "NOPE-0000"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/families/join", token: bob, body: map[string]string{"invite_code": smiths.InviteCode}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodPost, path: "/families/join", token: bob, body: map[string]string{"invite_code": smiths.InviteCode}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: fmt.Sprintf("/families/%d/invite-code", smiths.ID), token: bob})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChoreCompletionCreditsPoints(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	s.createFamily(t, alice, "Smiths")

	rec := s.do(t, call{method: http.MethodPost, path: "/family-members", token: alice, body: map[string]string{"name": "Sam", "role": "child"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sam := decode[models.FamilyMember](t, rec)

	rec = s.do(t, call{method: http.MethodPost, path: "/chores", token: alice, body: map[string]interface{}{"title": "Feed the cat", "points": 5}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	chore := decode[models.Chore](t, rec)

	rec = s.do(t, call{method: http.MethodPost, path: fmt.Sprintf("/chores/%d/complete", chore.ID), token: alice, body: map[string]interface{}{"member_id": sam.ID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 5, decode[models.ChoreCompletion](t, rec).PointsAwarded)

	rec = s.do(t, call{method: http.MethodGet, path: "/points", token: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	var samPoints int
	for _, total := range decode[[]models.PointsTotal](t, rec) {
		if total.MemberID == sam.ID {
			samPoints = total.Points
		}
	}
	assert.Equal(t, 5, samPoints)
}

func TestMessageWebhookSignature(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	smiths := s.createFamily(t, alice, "Smiths")

	payload := []byte(`{"subject":"Field trip","body":"Permission slips due Friday","is_urgent":true}`)
	path := fmt.Sprintf("/webhooks/messages/%d", smiths.ID)

	post := func(path string, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
		if signature != "" {
			req.Header.Set(WebhookSignatureHeader, signature)
		}
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post(path, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(path, "sha256=deadbeef").Code)
	assert.Equal(t, http.StatusNotFound, post("/webhooks/messages/999999", s.signer.Sign(payload)).Code)

	rec := post(path, "sha256="+s.signer.Sign(payload))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msg := decode[models.Message](t, rec)
	assert.Equal(t, "Permission slips due Friday", msg.Preview)
	assert.True(t, msg.IsUrgent)

	rec = s.do(t, call{method: http.MethodGet, path: "/messages", token: alice})
	require.Len(t, decode[[]models.Message](t, rec), 1)
}

func TestCalendarRoutesWithoutProvider(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")
	s.createFamily(t, alice, "Smiths")

	rec := s.do(t, call{method: http.MethodGet, path: "/calendar/connect", token: alice})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_configured", decode[ErrorResponse](t, rec).Error)
}

func TestSubscriptionWebhookRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: http.MethodPost, path: "/webhooks/stripe", body: map[string]string{"type": "customer.subscription.updated"}, headers: map[string]string{StripeSignatureHeader: "wrong"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_signature", decode[ErrorResponse](t, rec).Error)
}

func TestInvalidBodyIsValidationError(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "alice@example.com")

	req := httptest.NewRequest(http.MethodPost, "/families", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+alice)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, KindValidation, body.Error)
	assert.Equal(t, "body", body.Field)
}
