package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cartshare/internal/models"
)

// PendingInvite is the invite view handed to the resolver: the member
// row plus the joined workspace name, collapsed to a single value (or
// empty when the workspace row is gone).
type PendingInvite struct {
	ID            uuid.UUID `json:"id"`
	WorkspaceID   uuid.UUID `json:"workspace_id"`
	WorkspaceName string    `json:"workspace_name"`
	InvitedEmail  string    `json:"invited_email"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	InvitedBy     int       `json:"invited_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// OwnedWorkspaces returns workspaces created by the user.
func (s *service) OwnedWorkspaces(ctx context.Context, userID int) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := s.gorm.WithContext(ctx).
		Where("created_by = ?", userID).
		Find(&workspaces).Error
	return workspaces, classify(err)
}

// MemberWorkspaces returns workspaces where the email holds an accepted
// membership. Emails are matched lowercased.
func (s *service) MemberWorkspaces(ctx context.Context, email string) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := s.gorm.WithContext(ctx).
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.invited_email = ? AND workspace_members.status = ?",
			strings.ToLower(email), models.StatusAccepted).
		Find(&workspaces).Error
	return workspaces, classify(err)
}

// PendingWorkspaceInvites returns open invites addressed to the email.
func (s *service) PendingWorkspaceInvites(ctx context.Context, email string) ([]PendingInvite, error) {
	var invites []PendingInvite
	query := `
		SELECT wm.id, wm.workspace_id, COALESCE(w.name, '') AS workspace_name,
		       wm.invited_email, wm.role, wm.status, wm.invited_by, wm.created_at
		FROM workspace_members wm
		LEFT JOIN workspaces w ON w.id = wm.workspace_id
		WHERE wm.invited_email = ? AND wm.status = ?
		ORDER BY wm.created_at DESC`

	err := s.gorm.WithContext(ctx).
		Raw(query, strings.ToLower(email), models.StatusPending).
		Scan(&invites).Error
	return invites, classify(err)
}

// InsertWorkspace creates a workspace row owned by the user.
func (s *service) InsertWorkspace(ctx context.Context, name string, ownerID int) (*models.Workspace, error) {
	workspace := &models.Workspace{
		Name:      name,
		CreatedBy: ownerID,
	}
	if err := s.gorm.WithContext(ctx).Create(workspace).Error; err != nil {
		return nil, classify(err)
	}
	return workspace, nil
}

// UpsertWorkspaceMember writes the single membership row for
// (workspace_id, invited_email). Re-inviting a pending email is a
// no-op, re-inviting a previously declined (deleted) email starts
// fresh, and an accepted member keeps accepted status rather than
// being knocked back to pending.
func (s *service) UpsertWorkspaceMember(ctx context.Context, workspaceID uuid.UUID, email string, role models.MemberRole, invitedBy int) error {
	member := models.WorkspaceMember{
		WorkspaceID:  workspaceID,
		InvitedEmail: strings.ToLower(email),
		Role:         role,
		Status:       models.StatusPending,
		InvitedBy:    invitedBy,
	}
	if role == models.RoleOwner {
		member.Status = models.StatusAccepted
		member.UserID = &invitedBy
	}

	err := s.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}, {Name: "invited_email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status": gorm.Expr(
				"CASE WHEN workspace_members.status = 'accepted' THEN workspace_members.status ELSE excluded.status END"),
			"role":       gorm.Expr("workspace_members.role"),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&member).Error

	return classify(err)
}

// CheckWorkspaceAccess returns the caller's role in the workspace. The
// creator counts as owner even without a membership row; anyone else
// needs an accepted membership under their email. No access is
// gorm.ErrRecordNotFound.
func (s *service) CheckWorkspaceAccess(ctx context.Context, workspaceID uuid.UUID, userID int, email string) (models.MemberRole, error) {
	var member models.WorkspaceMember
	err := s.gorm.WithContext(ctx).
		Where("workspace_id = ? AND invited_email = ? AND status = ?",
			workspaceID, strings.ToLower(email), models.StatusAccepted).
		First(&member).Error
	if err == nil {
		return member.Role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", classify(err)
	}

	var workspace models.Workspace
	if err := s.gorm.WithContext(ctx).
		First(&workspace, "id = ? AND created_by = ?", workspaceID, userID).Error; err != nil {
		return "", classify(err)
	}
	return models.RoleOwner, nil
}

// WorkspaceMemberByID retrieves a single membership row.
func (s *service) WorkspaceMemberByID(ctx context.Context, id uuid.UUID) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := s.gorm.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &member, nil
}

// AcceptWorkspaceInvite marks the row accepted and binds the
// previously email-only invite to a concrete account.
func (s *service) AcceptWorkspaceInvite(ctx context.Context, id uuid.UUID, userID int) error {
	result := s.gorm.WithContext(ctx).
		Model(&models.WorkspaceMember{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.StatusAccepted,
			"user_id": userID,
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWorkspaceMember removes the row outright. Declined invites
// leave no trace.
func (s *service) DeleteWorkspaceMember(ctx context.Context, id uuid.UUID) error {
	err := s.gorm.WithContext(ctx).
		Delete(&models.WorkspaceMember{}, "id = ?", id).Error
	return classify(err)
}

// WorkspaceMembers returns every membership row of a workspace,
// pending invites included.
func (s *service) WorkspaceMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	err := s.gorm.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&members).Error
	return members, classify(err)
}
