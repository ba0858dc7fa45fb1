// Package models defines the GORM models for users, workspaces,
// workspace membership, lists, and items.
package models

// Custom types to match PostgreSQL enums
type MemberRole string
type MemberStatus string

const (
	// Member roles
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"

	// Member / share status. Declined invites are deleted outright
	// rather than kept as a declined row, so there is no constant for
	// that state here.
	StatusPending  MemberStatus = "pending"
	StatusAccepted MemberStatus = "accepted"
)

// PersonalWorkspaceID is the sentinel id of the synthetic per-user
// workspace used when the workspace schema is unavailable. It is never
// persisted remotely.
const PersonalWorkspaceID = "personal"
