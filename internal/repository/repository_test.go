package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyhub/internal/database"
	"familyhub/internal/database/dbtest"
	"familyhub/internal/models"
)

func seedUser(t *testing.T, db *database.DB, id, email string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Email: email, FullName: id}
	require.NoError(t, NewUserRepository(db).CreateUser(context.Background(), user))
	return user
}

func seedFamily(t *testing.T, db *database.DB, ownerID, name, code string) *models.Family {
	t.Helper()
	family := &models.Family{Name: name, InviteCode: code}
	_, err := NewFamilyRepository(db).CreateFamily(context.Background(), family, ownerID, nil)
	require.NoError(t, err)
	return family
}

func TestCreateUserDuplicate(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &models.User{ID: "u1", Email: "a@example.com"}))
	err := repo.CreateUser(ctx, &models.User{ID: "u1", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	user, err := repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, models.DefaultUserRole, user.Role)

	missing, err := repo.GetUserByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateFamilyWritesFamilyMembershipAndPersona(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")

	repo := NewFamilyRepository(db)
	ownerID := "owner"
	family := &models.Family{Name: "Smiths", InviteCode: "brave-otter-12"}
	persona := &models.FamilyMember{UserID: &ownerID, Name: "Pat", Role: "parent"}

	membership, err := repo.CreateFamily(ctx, family, ownerID, persona)
	require.NoError(t, err)
	assert.NotZero(t, family.ID)
	assert.Equal(t, models.RoleOwner, membership.Role)
	assert.Equal(t, family.ID, persona.FamilyID)
	assert.Equal(t, models.DefaultPersonaColor, persona.Color)

	memberships, err := repo.GetUserMemberships(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "Smiths", memberships[0].Family.Name)
	assert.Equal(t, models.RoleOwner, memberships[0].Role)

	byCode, err := repo.GetFamilyByInviteCode(ctx, "brave-otter-12")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, family.ID, byCode.ID)
}

func TestCreateFamilyRollsBackOnFailure(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	seedFamily(t, db, "owner", "First", "taken-code")

	repo := NewFamilyRepository(db)
	_, err := repo.CreateFamily(ctx, &models.Family{Name: "Second", InviteCode: "taken-code"}, "owner", nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	// Membership insert fails on the unknown user, so the family row must not survive.
	_, err = repo.CreateFamily(ctx, &models.Family{Name: "Ghost", InviteCode: "ghost-code"}, "no-such-user", nil)
	require.Error(t, err)
	ghost, err := repo.GetFamilyByInviteCode(ctx, "ghost-code")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestAddMembershipDuplicate(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	seedUser(t, db, "b", "b@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	repo := NewFamilyRepository(db)
	_, err := repo.AddMembership(ctx, family.ID, "b", models.RoleParent)
	require.NoError(t, err)
	_, err = repo.AddMembership(ctx, family.ID, "b", models.RoleParent)
	assert.ErrorIs(t, err, ErrDuplicate)

	members, err := repo.GetFamilyMembers(ctx, family.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestAcceptInviteOnlyOnce(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	seedUser(t, db, "b", "b@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	invites := NewInviteRepository(db)
	now := time.Now().UTC()
	inv := &models.Invite{FamilyID: family.ID, Email: "b@example.com", InvitedBy: "owner", Token: "tok", ExpiresAt: now.Add(models.InviteTTL), CreatedAt: now}
	require.NoError(t, invites.CreateInvite(ctx, inv))

	membership, err := invites.AcceptInvite(ctx, inv.ID, "b", models.RoleParent, now)
	require.NoError(t, err)
	assert.Equal(t, family.ID, membership.FamilyID)

	_, err = invites.AcceptInvite(ctx, inv.ID, "b", models.RoleParent, now)
	assert.ErrorIs(t, err, ErrInviteNotPending)

	stored, err := invites.GetInviteByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, stored.Status)
	require.NotNil(t, stored.AcceptedBy)
	assert.Equal(t, "b", *stored.AcceptedBy)
	assert.Equal(t, "Smiths", stored.FamilyName)

	assert.ErrorIs(t, invites.DeleteInvite(ctx, inv.ID), ErrInviteNotPending)
}

func TestAcceptInviteExistingMemberLeavesInvitePending(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	invites := NewInviteRepository(db)
	now := time.Now().UTC()
	inv := &models.Invite{FamilyID: family.ID, Email: "owner@example.com", InvitedBy: "owner", Token: "tok", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, invites.CreateInvite(ctx, inv))

	_, err := invites.AcceptInvite(ctx, inv.ID, "owner", models.RoleParent, now)
	assert.ErrorIs(t, err, ErrDuplicate)

	stored, err := invites.GetInviteByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, stored.Status)
}

func TestEnsureUserPersonaIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	repo := NewPersonaRepository(db)
	userID := "owner"
	first, err := repo.EnsureUserPersona(ctx, &models.FamilyMember{FamilyID: family.ID, UserID: &userID, Name: "Pat"})
	require.NoError(t, err)
	second, err := repo.EnsureUserPersona(ctx, &models.FamilyMember{FamilyID: family.ID, UserID: &userID, Name: "Pat again"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	personas, err := repo.GetFamilyPersonas(ctx, family.ID)
	require.NoError(t, err)
	assert.Len(t, personas, 1)
}

func TestUpsertExternalEvent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	repo := NewEventRepository(db)
	extID := "google-123"
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	created, err := repo.UpsertExternalEvent(ctx, &models.Event{FamilyID: family.ID, ExternalEventID: &extID, Title: "Dentist", StartTime: start})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.UpsertExternalEvent(ctx, &models.Event{FamilyID: family.ID, ExternalEventID: &extID, Title: "Dentist (moved)", StartTime: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, created)

	events, err := repo.GetFamilyEvents(ctx, family.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist (moved)", events[0].Title)
	assert.True(t, events[0].StartTime.Equal(start.Add(time.Hour)))
}

func TestGetFamilyEventsOverlapFilter(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	repo := NewEventRepository(db)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := func(h int) *time.Time { t := day.Add(time.Duration(h) * time.Hour); return &t }

	fixtures := []models.Event{
		{FamilyID: family.ID, Title: "before", StartTime: day.Add(-3 * time.Hour), EndTime: end(-2)},
		{FamilyID: family.ID, Title: "spans start", StartTime: day.Add(-1 * time.Hour), EndTime: end(1)},
		{FamilyID: family.ID, Title: "inside", StartTime: day.Add(10 * time.Hour)},
		{FamilyID: family.ID, Title: "after", StartTime: day.Add(24 * time.Hour)},
	}
	for i := range fixtures {
		require.NoError(t, repo.CreateEvent(ctx, &fixtures[i]))
	}

	from, to := day, day.Add(24*time.Hour)
	events, err := repo.GetFamilyEvents(ctx, family.ID, &from, &to)
	require.NoError(t, err)

	var titles []string
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"spans start", "inside"}, titles)
}

func TestFamilyPointsLeaderboard(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	personas := NewPersonaRepository(db)
	emma := &models.FamilyMember{FamilyID: family.ID, Name: "Emma"}
	leo := &models.FamilyMember{FamilyID: family.ID, Name: "Leo"}
	require.NoError(t, personas.CreatePersona(ctx, emma))
	require.NoError(t, personas.CreatePersona(ctx, leo))

	chores := NewChoreRepository(db)
	chore := &models.Chore{FamilyID: family.ID, Title: "Dishes", Points: 10}
	require.NoError(t, chores.CreateChore(ctx, chore))
	require.NoError(t, chores.RecordCompletion(ctx, &models.ChoreCompletion{ChoreID: chore.ID, CompletedByID: emma.ID, PointsAwarded: 10}))
	require.NoError(t, chores.RecordCompletion(ctx, &models.ChoreCompletion{ChoreID: chore.ID, CompletedByID: emma.ID, PointsAwarded: 10}))

	totals, err := chores.GetFamilyPoints(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, models.PointsTotal{MemberID: emma.ID, Name: "Emma", Color: models.DefaultPersonaColor, Points: 20, Completions: 2}, totals[0])
	assert.Equal(t, 0, totals[1].Points)
}

func TestDeleteFamilyCascades(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	seedUser(t, db, "owner", "owner@example.com")
	family := seedFamily(t, db, "owner", "Smiths", "code-1")

	lists := NewListRepository(db)
	list := &models.List{FamilyID: family.ID, Name: "Groceries", Type: models.DefaultListType}
	require.NoError(t, lists.CreateList(ctx, list))
	require.NoError(t, lists.AddItem(ctx, &models.ListItem{ListID: list.ID, Title: "Milk"}))

	require.NoError(t, NewFamilyRepository(db).DeleteFamily(ctx, family.ID))

	gone, err := lists.GetListByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	memberships, err := NewFamilyRepository(db).GetUserMemberships(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, memberships)
}
