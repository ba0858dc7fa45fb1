package models

import (
	"time"

	"github.com/google/uuid"
)

// Workspace represents a shared collaboration scope owning zero or more
// lists.
type Workspace struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedBy int       `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	Members []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
}

// TableName specifies the table name for the Workspace model
func (Workspace) TableName() string {
	return "workspaces"
}

// WorkspaceMember is both the invite and the membership: a pending row
// is a visible invite to the invited email, an accepted row is durable
// membership. Exactly one row exists per (workspace_id, invited_email),
// enforced by a unique index and upsert semantics.
type WorkspaceMember struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_member_email" json:"workspace_id"`
	InvitedEmail string       `gorm:"column:invited_email;not null;uniqueIndex:idx_workspace_member_email" json:"invited_email"`
	UserID       *int         `gorm:"column:user_id" json:"user_id,omitempty"`
	Role         MemberRole   `gorm:"column:role;not null;default:'member'" json:"role"`
	Status       MemberStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	InvitedBy    int          `gorm:"column:invited_by;not null" json:"invited_by"`
	CreatedAt    time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

// TableName specifies the table name for the WorkspaceMember model
func (WorkspaceMember) TableName() string {
	return "workspace_members"
}

// IsPending reports whether the row is still an open invite.
func (m *WorkspaceMember) IsPending() bool {
	return m.Status == StatusPending
}

// IsOwner reports whether the row carries the owner role.
func (m *WorkspaceMember) IsOwner() bool {
	return m.Role == RoleOwner
}
