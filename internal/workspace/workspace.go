// Package workspace holds the resolver and invite reconciler: given an
// authenticated identity it produces the authoritative set of
// workspaces, pending invites, and the active-workspace pointer,
// degrading to a device-local workspace list whenever the workspace
// schema is unavailable.
package workspace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cartshare/internal/database"
	"cartshare/internal/models"
)

// Identity is the authenticated user. It is passed explicitly into
// every operation; nothing in this package reads ambient session
// state.
type Identity struct {
	UserID int
	Email  string
}

// Workspace is the client-facing view. IDs are strings because
// fallback workspaces carry locally generated ids and the synthetic
// personal workspace uses a fixed sentinel.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int       `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Fallback  bool      `json:"fallback"`
}

// Invite is a pending workspace invitation addressed to the user.
type Invite struct {
	ID            string `json:"id"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name,omitempty"`
	Role          string `json:"role"`
	InvitedBy     int    `json:"invited_by"`
}

// Snapshot is the resolver's output: the full workspace state for one
// user as of one refresh.
type Snapshot struct {
	Workspaces        []Workspace `json:"workspaces"`
	Invites           []Invite    `json:"invites"`
	ActiveWorkspaceID string      `json:"active_workspace_id,omitempty"`
	SchemaReady       bool        `json:"schema_ready"`
}

// Store is the slice of the database surface the resolver and
// reconciler need. Errors must already be classified
// (database.ErrSchemaMissing / database.ErrUniqueViolation).
type Store interface {
	OwnedWorkspaces(ctx context.Context, userID int) ([]models.Workspace, error)
	MemberWorkspaces(ctx context.Context, email string) ([]models.Workspace, error)
	PendingWorkspaceInvites(ctx context.Context, email string) ([]database.PendingInvite, error)
	InsertWorkspace(ctx context.Context, name string, ownerID int) (*models.Workspace, error)
	UpsertWorkspaceMember(ctx context.Context, workspaceID uuid.UUID, email string, role models.MemberRole, invitedBy int) error
	CheckWorkspaceAccess(ctx context.Context, workspaceID uuid.UUID, userID int, email string) (models.MemberRole, error)
	WorkspaceMemberByID(ctx context.Context, id uuid.UUID) (*models.WorkspaceMember, error)
	AcceptWorkspaceInvite(ctx context.Context, id uuid.UUID, userID int) error
	DeleteWorkspaceMember(ctx context.Context, id uuid.UUID) error
}

// KV is the device-local key-value store holding the active-workspace
// pointer and the fallback workspace list.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

func fromModel(w models.Workspace) Workspace {
	return Workspace{
		ID:        w.ID.String(),
		Name:      w.Name,
		CreatedBy: w.CreatedBy,
		CreatedAt: w.CreatedAt,
	}
}

func personalWorkspace() Workspace {
	return Workspace{
		ID:       models.PersonalWorkspaceID,
		Name:     "Personal",
		Fallback: true,
	}
}
