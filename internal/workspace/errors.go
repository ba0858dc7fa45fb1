package workspace

import (
	"errors"

	"cartshare/internal/database"
)

var (
	// ErrNameRequired rejects blank workspace names before anything
	// reaches the database.
	ErrNameRequired = errors.New("workspace name is required")

	// ErrDuplicateName rejects a workspace name already used by the
	// same owner, in either remote or local mode.
	ErrDuplicateName = errors.New("a workspace with that name already exists")

	// ErrInvalidEmail rejects invite addresses that are empty or have
	// no @.
	ErrInvalidEmail = errors.New("a valid email address is required")

	// ErrInvitesUnavailable is the capability error for invite
	// operations in fallback mode: local workspaces have no remote
	// identity to notify.
	ErrInvitesUnavailable = errors.New("sharing needs the workspace tables; ask your administrator to run the database migrations")

	// ErrInvalidInvite rejects malformed invite ids, unknown response
	// statuses, and responses to invites addressed to someone else.
	ErrInvalidInvite = errors.New("invalid invite")

	// ErrNotMember rejects workspace operations by callers without an
	// accepted membership in the target workspace.
	ErrNotMember = errors.New("you do not have access to this workspace")

	// ErrNotOwner guards owner-only workspace operations such as
	// inviting members.
	ErrNotOwner = errors.New("only the workspace owner can do that")
)

// UserMessage maps an operation error to the string shown to users.
// Generic failures all collapse to "Something went wrong" so database
// internals never reach the client.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvitesUnavailable),
		errors.Is(err, ErrInvalidInvite),
		errors.Is(err, ErrNotMember),
		errors.Is(err, ErrNotOwner):
		return err.Error()
	case errors.Is(err, database.ErrUniqueViolation):
		return ErrDuplicateName.Error()
	case errors.Is(err, database.ErrSchemaMissing):
		return ErrInvitesUnavailable.Error()
	default:
		return "Something went wrong"
	}
}
