package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"cartshare/internal/database"
	"cartshare/internal/models"
)

func newTestReconciler(store *fakeStore) (*Reconciler, *Resolver) {
	resolver := NewResolver(store, newFakeKV(), testLogger())
	return NewReconciler(store, resolver, testLogger()), resolver
}

func TestInviteToWorkspace(t *testing.T) {
	groceries := testWorkspace("Groceries", 7)
	store := &fakeStore{owned: []models.Workspace{groceries}}
	reconciler, _ := newTestReconciler(store)

	err := reconciler.InviteToWorkspace(context.Background(), testIdent, groceries.ID.String(), "  Sam@Example.COM ")
	require.NoError(t, err)

	require.Len(t, store.upserts, 1)
	require.Equal(t, groceries.ID, store.upserts[0].workspaceID)
	require.Equal(t, "sam@example.com", store.upserts[0].email)
	require.Equal(t, models.RoleMember, store.upserts[0].role)
	require.Equal(t, 7, store.upserts[0].invitedBy)
}

func TestInviteToWorkspaceIsIdempotent(t *testing.T) {
	groceries := testWorkspace("Groceries", 7)
	store := &fakeStore{owned: []models.Workspace{groceries}}
	reconciler, _ := newTestReconciler(store)
	workspaceID := groceries.ID.String()

	require.NoError(t, reconciler.InviteToWorkspace(context.Background(), testIdent, workspaceID, "sam@example.com"))
	require.NoError(t, reconciler.InviteToWorkspace(context.Background(), testIdent, workspaceID, "sam@example.com"))
}

func TestInviteRequiresMembership(t *testing.T) {
	groceries := testWorkspace("Groceries", 1)
	store := &fakeStore{owned: []models.Workspace{groceries}}
	reconciler, _ := newTestReconciler(store)

	// A stranger cannot invite themselves into someone else's workspace.
	stranger := Identity{UserID: 99, Email: "mallory@example.com"}
	err := reconciler.InviteToWorkspace(context.Background(), stranger, groceries.ID.String(), "mallory@example.com")
	require.ErrorIs(t, err, ErrNotMember)
	require.Empty(t, store.upserts)
}

func TestInviteRequiresOwnerRole(t *testing.T) {
	workspaceID := uuid.New()
	store := &fakeStore{access: map[uuid.UUID]models.MemberRole{workspaceID: models.RoleMember}}
	reconciler, _ := newTestReconciler(store)

	err := reconciler.InviteToWorkspace(context.Background(), testIdent, workspaceID.String(), "sam@example.com")
	require.ErrorIs(t, err, ErrNotOwner)
	require.Empty(t, store.upserts)
}

func TestInviteRejectsInvalidEmail(t *testing.T) {
	store := &fakeStore{}
	reconciler, _ := newTestReconciler(store)

	for _, email := range []string{"", "   ", "not-an-email"} {
		err := reconciler.InviteToWorkspace(context.Background(), testIdent, uuid.New().String(), email)
		require.ErrorIs(t, err, ErrInvalidEmail)
	}
	require.Empty(t, store.upserts)
}

func TestInviteUnavailableInFallbackMode(t *testing.T) {
	store := &fakeStore{ownedErr: database.ErrSchemaMissing}
	reconciler, resolver := newTestReconciler(store)

	// A refresh that hits a missing schema flips the flag.
	_, err := resolver.Refresh(context.Background(), testIdent)
	require.NoError(t, err)
	require.False(t, resolver.SchemaReady())

	err = reconciler.InviteToWorkspace(context.Background(), testIdent, uuid.New().String(), "sam@example.com")
	require.ErrorIs(t, err, ErrInvitesUnavailable)
	require.Empty(t, store.upserts)
}

func TestInviteSchemaMissingMidFlight(t *testing.T) {
	groceries := testWorkspace("Groceries", 7)
	store := &fakeStore{owned: []models.Workspace{groceries}, upsertErr: database.ErrSchemaMissing}
	reconciler, resolver := newTestReconciler(store)

	err := reconciler.InviteToWorkspace(context.Background(), testIdent, groceries.ID.String(), "sam@example.com")
	require.ErrorIs(t, err, ErrInvitesUnavailable)
	require.False(t, resolver.SchemaReady())
}

// testInvite is a pending invite row addressed to the email.
func testInvite(id uuid.UUID, email string) *models.WorkspaceMember {
	return &models.WorkspaceMember{
		ID:           id,
		WorkspaceID:  uuid.New(),
		InvitedEmail: email,
		Role:         models.RoleMember,
		Status:       models.StatusPending,
	}
}

func TestRespondToInviteAccept(t *testing.T) {
	inviteID := uuid.New()
	store := &fakeStore{
		owned:   []models.Workspace{testWorkspace("Groceries", 7)},
		invites: map[uuid.UUID]*models.WorkspaceMember{inviteID: testInvite(inviteID, "dana@example.com")},
	}
	reconciler, _ := newTestReconciler(store)

	err := reconciler.RespondToInvite(context.Background(), testIdent, inviteID.String(), "accepted")
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{inviteID}, store.accepted)
	require.Empty(t, store.deleted)
}

func TestRespondToInviteDeclineDeletesRow(t *testing.T) {
	inviteID := uuid.New()
	store := &fakeStore{
		owned:   []models.Workspace{testWorkspace("Groceries", 7)},
		invites: map[uuid.UUID]*models.WorkspaceMember{inviteID: testInvite(inviteID, "dana@example.com")},
	}
	reconciler, _ := newTestReconciler(store)

	err := reconciler.RespondToInvite(context.Background(), testIdent, inviteID.String(), "declined")
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{inviteID}, store.deleted)
	require.Empty(t, store.accepted)
}

func TestRespondToInviteForSomeoneElseRejected(t *testing.T) {
	inviteID := uuid.New()
	store := &fakeStore{
		invites: map[uuid.UUID]*models.WorkspaceMember{inviteID: testInvite(inviteID, "sam@example.com")},
	}
	reconciler, _ := newTestReconciler(store)

	// An invite addressed to sam cannot be accepted or declined by a
	// different account.
	stranger := Identity{UserID: 42, Email: "stranger@example.com"}
	err := reconciler.RespondToInvite(context.Background(), stranger, inviteID.String(), "accepted")
	require.ErrorIs(t, err, ErrInvalidInvite)

	err = reconciler.RespondToInvite(context.Background(), stranger, inviteID.String(), "declined")
	require.ErrorIs(t, err, ErrInvalidInvite)

	require.Empty(t, store.accepted)
	require.Empty(t, store.deleted)
}

func TestRespondToInviteValidation(t *testing.T) {
	inviteID := uuid.New()
	store := &fakeStore{
		invites: map[uuid.UUID]*models.WorkspaceMember{inviteID: testInvite(inviteID, "dana@example.com")},
	}
	reconciler, _ := newTestReconciler(store)

	err := reconciler.RespondToInvite(context.Background(), testIdent, "not-a-uuid", "accepted")
	require.ErrorIs(t, err, ErrInvalidInvite)

	// Unknown row.
	err = reconciler.RespondToInvite(context.Background(), testIdent, uuid.New().String(), "accepted")
	require.ErrorIs(t, err, ErrInvalidInvite)

	// Unknown status.
	err = reconciler.RespondToInvite(context.Background(), testIdent, inviteID.String(), "maybe")
	require.ErrorIs(t, err, ErrInvalidInvite)
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "", UserMessage(nil))
	require.Equal(t, ErrDuplicateName.Error(), UserMessage(ErrDuplicateName))
	require.Equal(t, ErrDuplicateName.Error(), UserMessage(database.ErrUniqueViolation))
	require.Equal(t, ErrInvitesUnavailable.Error(), UserMessage(database.ErrSchemaMissing))
	require.Equal(t, "Something went wrong", UserMessage(errors.New("pq: deadlock detected")))
}
