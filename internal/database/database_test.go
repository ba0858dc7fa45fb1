package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"cartshare/internal/models"
)

// mustStartPostgresContainer starts a postgres container and returns a
// teardown function, a connection string, and an error.
func mustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, string, error) {
	var (
		dbName = "test_db"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, "", fmt.Errorf("failed to get container mapped port: %w", err)
	}

	connStr := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPwd, host, port.Port(), dbName)

	return dbContainer.Terminate, connStr, nil
}

func TestMain(m *testing.M) {
	teardown, testDbString, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container for tests: %v", err)
	}

	os.Setenv("DB_STRING", testDbString)
	os.Setenv("MIGRATIONS_PATH", "../../migrations")
	dbInstance = nil

	exitCode := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(exitCode)
}

func TestHealth(t *testing.T) {
	srv := New()

	stats := srv.Health()
	require.Equal(t, "up", stats["status"])
	require.NotContains(t, stats, "error")
	require.Equal(t, "It's healthy", stats["message"])
}

func mustCreateUser(t *testing.T, srv Service, email string) *models.User {
	t.Helper()
	user := &models.User{
		Provider:   "google",
		ProviderID: "pid_" + email,
		Email:      email,
		Name:       "Test User",
	}
	require.NoError(t, srv.CreateOrUpdateUser(user))
	require.NotZero(t, user.ID)
	return user
}

// TestWorkspaceStore walks the workspace schema lifecycle in order:
// classification before migrations, then migrations, then the invite
// upsert semantics on the real constraint.
func TestWorkspaceStore(t *testing.T) {
	ctx := context.Background()
	srv := New()

	t.Run("queries before migrations classify as schema missing", func(t *testing.T) {
		_, err := srv.OwnedWorkspaces(ctx, 1)
		require.ErrorIs(t, err, ErrSchemaMissing)

		_, err = srv.PendingWorkspaceInvites(ctx, "nobody@example.com")
		require.ErrorIs(t, err, ErrSchemaMissing)
	})

	t.Run("migrations apply and are idempotent", func(t *testing.T) {
		require.NoError(t, srv.RunMigrations())
		require.NoError(t, srv.RunMigrations())
	})

	owner := mustCreateUser(t, srv, "owner@example.com")
	invitee := mustCreateUser(t, srv, "invitee@example.com")

	var wsUUID uuid.UUID
	t.Run("insert workspace with owner membership", func(t *testing.T) {
		created, err := srv.InsertWorkspace(ctx, "Shared Home", owner.ID)
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, created.ID)
		wsUUID = created.ID

		require.NoError(t, srv.UpsertWorkspaceMember(ctx, created.ID, owner.Email, models.RoleOwner, owner.ID))

		// The owner row is accepted immediately, so the workspace
		// shows up via membership too.
		member, err := srv.MemberWorkspaces(ctx, owner.Email)
		require.NoError(t, err)
		require.Len(t, member, 1)
		require.Equal(t, "Shared Home", member[0].Name)
	})

	t.Run("duplicate name for same owner is a unique violation", func(t *testing.T) {
		_, err := srv.InsertWorkspace(ctx, "shared home", owner.ID)
		require.ErrorIs(t, err, ErrUniqueViolation)

		// A different owner may reuse the name.
		other := mustCreateUser(t, srv, "other@example.com")
		_, err = srv.InsertWorkspace(ctx, "Shared Home", other.ID)
		require.NoError(t, err)
	})

	t.Run("re-inviting a pending email is a no-op", func(t *testing.T) {
		require.NoError(t, srv.UpsertWorkspaceMember(ctx, wsUUID, invitee.Email, models.RoleMember, owner.ID))
		require.NoError(t, srv.UpsertWorkspaceMember(ctx, wsUUID, invitee.Email, models.RoleMember, owner.ID))

		pending, err := srv.PendingWorkspaceInvites(ctx, invitee.Email)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, "Shared Home", pending[0].WorkspaceName)
		require.Equal(t, "member", pending[0].Role)
	})

	t.Run("accept stamps the user and survives a re-invite", func(t *testing.T) {
		pending, err := srv.PendingWorkspaceInvites(ctx, invitee.Email)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		require.NoError(t, srv.AcceptWorkspaceInvite(ctx, pending[0].ID, invitee.ID))

		member, err := srv.WorkspaceMemberByID(ctx, pending[0].ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusAccepted, member.Status)
		require.NotNil(t, member.UserID)
		require.Equal(t, invitee.ID, *member.UserID)

		// An accepted member is never knocked back to pending.
		require.NoError(t, srv.UpsertWorkspaceMember(ctx, wsUUID, invitee.Email, models.RoleMember, owner.ID))
		member, err = srv.WorkspaceMemberByID(ctx, pending[0].ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusAccepted, member.Status)

		stillPending, err := srv.PendingWorkspaceInvites(ctx, invitee.Email)
		require.NoError(t, err)
		require.Empty(t, stillPending)
	})

	t.Run("decline deletes the row so a re-invite starts fresh", func(t *testing.T) {
		decliner := mustCreateUser(t, srv, "decliner@example.com")
		require.NoError(t, srv.UpsertWorkspaceMember(ctx, wsUUID, decliner.Email, models.RoleMember, owner.ID))

		pending, err := srv.PendingWorkspaceInvites(ctx, decliner.Email)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		require.NoError(t, srv.DeleteWorkspaceMember(ctx, pending[0].ID))

		gone, err := srv.PendingWorkspaceInvites(ctx, decliner.Email)
		require.NoError(t, err)
		require.Empty(t, gone)

		require.NoError(t, srv.UpsertWorkspaceMember(ctx, wsUUID, decliner.Email, models.RoleMember, owner.ID))
		fresh, err := srv.PendingWorkspaceInvites(ctx, decliner.Email)
		require.NoError(t, err)
		require.Len(t, fresh, 1)
		require.NotEqual(t, pending[0].ID, fresh[0].ID)
	})

	t.Run("access check distinguishes owner, member and stranger", func(t *testing.T) {
		role, err := srv.CheckWorkspaceAccess(ctx, wsUUID, owner.ID, owner.Email)
		require.NoError(t, err)
		require.Equal(t, models.RoleOwner, role)

		role, err = srv.CheckWorkspaceAccess(ctx, wsUUID, invitee.ID, invitee.Email)
		require.NoError(t, err)
		require.Equal(t, models.RoleMember, role)

		// A pending invite grants nothing yet.
		_, err = srv.CheckWorkspaceAccess(ctx, wsUUID, 0, "decliner@example.com")
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)

		stranger := mustCreateUser(t, srv, "stranger@example.com")
		_, err = srv.CheckWorkspaceAccess(ctx, wsUUID, stranger.ID, stranger.Email)
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)

		// The creator counts as owner even without a membership row.
		bare, err := srv.InsertWorkspace(ctx, "Access Check", owner.ID)
		require.NoError(t, err)
		role, err = srv.CheckWorkspaceAccess(ctx, bare.ID, owner.ID, owner.Email)
		require.NoError(t, err)
		require.Equal(t, models.RoleOwner, role)
	})
}

func TestListStore(t *testing.T) {
	ctx := context.Background()
	srv := New()
	require.NoError(t, srv.RunMigrations())

	owner := mustCreateUser(t, srv, "list-owner@example.com")
	friend := mustCreateUser(t, srv, "list-friend@example.com")

	list := &models.List{OwnerID: owner.ID, Name: "Groceries", Position: time.Now().UTC()}
	require.NoError(t, srv.InsertList(ctx, list))

	t.Run("unscoped lists are visible to the owner only", func(t *testing.T) {
		visible, err := srv.ListsVisibleTo(ctx, nil, owner.ID, owner.Email)
		require.NoError(t, err)
		require.Len(t, visible, 1)

		none, err := srv.ListsVisibleTo(ctx, nil, friend.ID, friend.Email)
		require.NoError(t, err)
		require.Empty(t, none)

		ok, err := srv.CanAccessList(ctx, list.ID, owner.ID, owner.Email)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = srv.CanAccessList(ctx, list.ID, friend.ID, friend.Email)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("swap exchanges item positions", func(t *testing.T) {
		milk := &models.Item{ListID: list.ID, Name: "Milk", AddedBy: owner.ID,
			Position: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		eggs := &models.Item{ListID: list.ID, Name: "Eggs", AddedBy: owner.ID,
			Position: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
		require.NoError(t, srv.InsertItem(ctx, milk))
		require.NoError(t, srv.InsertItem(ctx, eggs))

		before, err := srv.ItemsForList(ctx, list.ID)
		require.NoError(t, err)
		require.Equal(t, "Milk", before[0].Name)

		require.NoError(t, srv.SwapItemPositions(ctx, milk.ID, eggs.ID))

		after, err := srv.ItemsForList(ctx, list.ID)
		require.NoError(t, err)
		require.Equal(t, "Eggs", after[0].Name)
		require.Equal(t, "Milk", after[1].Name)
	})

	var shareID uuid.UUID
	t.Run("share upsert is idempotent and accept grants access", func(t *testing.T) {
		require.NoError(t, srv.UpsertListShare(ctx, list.ID, friend.Email, owner.ID))
		require.NoError(t, srv.UpsertListShare(ctx, list.ID, friend.Email, owner.ID))

		pending, err := srv.PendingListShares(ctx, friend.Email)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		shareID = pending[0].ID

		require.NoError(t, srv.AcceptListShare(ctx, pending[0].ID, friend.ID))

		ok, err := srv.CanAccessList(ctx, list.ID, friend.ID, friend.Email)
		require.NoError(t, err)
		require.True(t, ok)

		visible, err := srv.ListsVisibleTo(ctx, nil, friend.ID, friend.Email)
		require.NoError(t, err)
		require.Len(t, visible, 1)
	})

	t.Run("deleting a list removes items and shares", func(t *testing.T) {
		require.NoError(t, srv.DeleteListRow(ctx, list.ID))

		items, err := srv.ItemsForList(ctx, list.ID)
		require.NoError(t, err)
		require.Empty(t, items)

		_, err = srv.ListShareByID(ctx, shareID)
		require.Error(t, err)
	})
}
