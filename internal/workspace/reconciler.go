package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cartshare/internal/database"
	"cartshare/internal/models"
)

// Reconciler drives the invite lifecycle: create, accept, decline.
// Every successful mutation triggers a full resolver refresh so the
// workspace and invite lists reflect the change immediately.
type Reconciler struct {
	store    Store
	resolver *Resolver
	log      *slog.Logger
}

// NewReconciler creates a reconciler sharing the resolver's store.
func NewReconciler(store Store, resolver *Resolver, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, resolver: resolver, log: log}
}

// InviteToWorkspace upserts the pending membership row for
// (workspaceID, email). Re-inviting the same address is idempotent.
// Only the workspace owner may invite. Workspace invites have no
// local-fallback equivalent: there is no remote identity to notify, so
// this fails outright when the schema is not ready.
func (c *Reconciler) InviteToWorkspace(ctx context.Context, ident Identity, workspaceID, email string) error {
	if !c.resolver.SchemaReady() {
		return ErrInvitesUnavailable
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	id, err := uuid.Parse(workspaceID)
	if err != nil {
		return fmt.Errorf("invalid workspace id %q", workspaceID)
	}

	role, err := c.store.CheckWorkspaceAccess(ctx, id, ident.UserID, ident.Email)
	if err != nil {
		if errors.Is(err, database.ErrSchemaMissing) {
			c.resolver.setSchemaReady(false)
			return ErrInvitesUnavailable
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}
	if role != models.RoleOwner {
		return ErrNotOwner
	}

	if err := c.store.UpsertWorkspaceMember(ctx, id, email, models.RoleMember, ident.UserID); err != nil {
		if errors.Is(err, database.ErrSchemaMissing) {
			c.resolver.setSchemaReady(false)
			return ErrInvitesUnavailable
		}
		return err
	}

	c.refresh(ctx, ident)
	return nil
}

// RespondToInvite applies the invited user's decision. Accepting marks
// the row accepted and binds it to the responding account; declining
// deletes the row so a later re-invite starts fresh. Only the invited
// address may respond.
func (c *Reconciler) RespondToInvite(ctx context.Context, ident Identity, inviteID, status string) error {
	id, err := uuid.Parse(inviteID)
	if err != nil {
		return ErrInvalidInvite
	}

	member, err := c.store.WorkspaceMemberByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrSchemaMissing) {
			c.resolver.setSchemaReady(false)
			return ErrInvitesUnavailable
		}
		return ErrInvalidInvite
	}
	if !strings.EqualFold(member.InvitedEmail, strings.TrimSpace(ident.Email)) {
		return ErrInvalidInvite
	}

	switch status {
	case string(models.StatusAccepted):
		err = c.store.AcceptWorkspaceInvite(ctx, id, ident.UserID)
	case "declined":
		err = c.store.DeleteWorkspaceMember(ctx, id)
	default:
		return ErrInvalidInvite
	}

	if err != nil {
		if errors.Is(err, database.ErrSchemaMissing) {
			c.resolver.setSchemaReady(false)
			return ErrInvitesUnavailable
		}
		return err
	}

	c.refresh(ctx, ident)
	return nil
}

func (c *Reconciler) refresh(ctx context.Context, ident Identity) {
	if _, err := c.resolver.Refresh(ctx, ident); err != nil {
		c.log.Warn("refresh after invite change failed", "user", ident.UserID, "error", err)
	}
}
