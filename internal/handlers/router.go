package handlers

import (
	"net/http"

	"familyhub/internal/identity"
	"familyhub/internal/logging"
	"familyhub/internal/security"
	"familyhub/internal/service"

	"go.uber.org/zap"
)

// Deps is everything the HTTP layer needs. Calendar and Subscriptions may be
// nil when their integrations are not configured.
type Deps struct {
	Resolver      *identity.Resolver
	Membership    *service.MembershipService
	Invites       *service.InviteService
	Personas      *service.PersonaService
	Events        *service.EventService
	Lists         *service.ListService
	Chores        *service.ChoreService
	Messages      *service.MessageService
	Calendar      *service.CalendarService
	Subscriptions *service.SubscriptionService
	Exports       *service.ExportService

	Startup  *StartupStatus
	DB       Pinger
	Limiter  *security.RateLimiter
	Signer   *security.PayloadSigner
	Origins  []string
	Reporter *logging.Reporter
	Logger   *zap.Logger
}

// NewRouter registers every route and wraps the mux in the shared middleware chain
func NewRouter(d Deps) http.Handler {
	if d.Startup == nil {
		d.Startup = NewStartupStatus()
		d.Startup.MarkReady()
	}
	responder := NewResponder(d.Logger, d.Reporter)
	middleware := NewMiddleware(d.Resolver, d.Membership, responder, d.Reporter, d.Logger)
	auth := middleware.RequireIdentity
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		return d.Limiter.Middleware(h).ServeHTTP
	}

	familyHandler := NewFamilyHandler(d.Membership, d.Exports, responder)
	inviteHandler := NewInviteHandler(d.Membership, d.Invites, responder)
	personaHandler := NewPersonaHandler(d.Membership, d.Personas, responder)
	eventHandler := NewEventHandler(d.Membership, d.Events, responder)
	listHandler := NewListHandler(d.Membership, d.Lists, responder)
	choreHandler := NewChoreHandler(d.Membership, d.Chores, responder)
	messageHandler := NewMessageHandler(d.Membership, d.Messages, d.Signer, responder, d.Logger)
	calendarHandler := NewCalendarHandler(d.Membership, d.Calendar, responder)
	subscriptionHandler := NewSubscriptionHandler(d.Membership, d.Subscriptions, responder)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", HealthHandler(d.Startup, d.DB))
	mux.HandleFunc("GET /onboarding", middleware.OptionalIdentity(familyHandler.Onboarding))

	// Families
	mux.HandleFunc("GET /families", auth(familyHandler.List))
	mux.HandleFunc("POST /families", auth(familyHandler.Create))
	mux.HandleFunc("POST /families/join", auth(familyHandler.Join))
	mux.HandleFunc("GET /families/{id}", auth(familyHandler.Get))
	mux.HandleFunc("POST /families/{id}/leave", auth(familyHandler.Leave))
	mux.HandleFunc("POST /families/{id}/invite-code", auth(familyHandler.RegenerateInviteCode))
	mux.HandleFunc("GET /families/{id}/export", auth(familyHandler.Export))

	// Invites
	mux.HandleFunc("POST /invites", auth(inviteHandler.Create))
	mux.HandleFunc("GET /families/{id}/invites", auth(inviteHandler.List))
	mux.HandleFunc("GET /invites/{token}", limited(inviteHandler.Preview))
	mux.HandleFunc("POST /invites/{token}/accept", auth(inviteHandler.Accept))
	mux.HandleFunc("DELETE /invites/{id}", auth(inviteHandler.Revoke))

	// Personas
	mux.HandleFunc("GET /family-members", auth(personaHandler.List))
	mux.HandleFunc("POST /family-members", auth(personaHandler.Create))
	mux.HandleFunc("PATCH /family-members/{id}", auth(personaHandler.Update))
	mux.HandleFunc("DELETE /family-members/{id}", auth(personaHandler.Delete))

	// Events
	mux.HandleFunc("GET /events", auth(eventHandler.List))
	mux.HandleFunc("POST /events", auth(eventHandler.Create))
	mux.HandleFunc("PATCH /events/{id}", auth(eventHandler.Update))
	mux.HandleFunc("DELETE /events/{id}", auth(eventHandler.Delete))

	// Lists
	mux.HandleFunc("GET /lists", auth(listHandler.List))
	mux.HandleFunc("POST /lists", auth(listHandler.Create))
	mux.HandleFunc("PATCH /lists/{id}", auth(listHandler.Update))
	mux.HandleFunc("DELETE /lists/{id}", auth(listHandler.Delete))
	mux.HandleFunc("GET /lists/{id}/items", auth(listHandler.Items))
	mux.HandleFunc("POST /lists/{id}/items", auth(listHandler.AddItem))
	mux.HandleFunc("PATCH /lists/{id}/items/{itemId}", auth(listHandler.UpdateItem))
	mux.HandleFunc("DELETE /lists/{id}/items/{itemId}", auth(listHandler.DeleteItem))

	// Chores
	mux.HandleFunc("GET /chores", auth(choreHandler.List))
	mux.HandleFunc("POST /chores", auth(choreHandler.Create))
	mux.HandleFunc("PATCH /chores/{id}", auth(choreHandler.Update))
	mux.HandleFunc("DELETE /chores/{id}", auth(choreHandler.Delete))
	mux.HandleFunc("POST /chores/{id}/complete", auth(choreHandler.Complete))
	mux.HandleFunc("GET /chores/{id}/completions", auth(choreHandler.Completions))
	mux.HandleFunc("GET /points", auth(choreHandler.Points))

	// Messages
	mux.HandleFunc("GET /messages", auth(messageHandler.List))
	mux.HandleFunc("POST /messages/{id}/read", auth(messageHandler.MarkRead))
	mux.HandleFunc("DELETE /messages/{id}", auth(messageHandler.Delete))
	mux.HandleFunc("POST /webhooks/messages/{familyId}", limited(messageHandler.Webhook))

	// Calendar
	mux.HandleFunc("GET /calendar/connect", auth(calendarHandler.Connect))
	mux.HandleFunc("GET /calendar/callback", calendarHandler.Callback)
	mux.HandleFunc("GET /calendar/connections", auth(calendarHandler.Connections))
	mux.HandleFunc("POST /calendar/sync", auth(calendarHandler.Sync))

	// Subscriptions
	mux.HandleFunc("POST /subscriptions", auth(subscriptionHandler.Create))
	mux.HandleFunc("GET /subscriptions", auth(subscriptionHandler.Get))
	mux.HandleFunc("POST /webhooks/stripe", subscriptionHandler.Webhook)

	var handler http.Handler = mux
	handler = security.CORS(d.Origins)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recover(handler)
	handler = RequestID(handler)
	return handler
}
