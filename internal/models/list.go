package models

import (
	"time"

	"github.com/google/uuid"
)

// List is a grocery list. It belongs to exactly one workspace, or to a
// user directly when created in personal/fallback mode (WorkspaceID
// nil, OwnerID set either way).
type List struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID *uuid.UUID `gorm:"type:uuid" json:"workspace_id,omitempty"`
	OwnerID     int        `gorm:"column:owner_id;not null" json:"owner_id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	// Position orders lists without a drag index: reordering swaps the
	// timestamps of two rows.
	Position  time.Time `gorm:"column:position;not null" json:"position"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	Items []Item `gorm:"foreignKey:ListID" json:"items,omitempty"`
}

// TableName specifies the table name for the List model
func (List) TableName() string {
	return "lists"
}

// Item is a single grocery item on a list.
type Item struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ListID   uuid.UUID `gorm:"type:uuid;not null" json:"list_id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	Quantity string    `gorm:"column:quantity" json:"quantity"`
	Checked  bool      `gorm:"column:checked;not null;default:false" json:"checked"`
	// PhotoKey is the object-storage key of the item photo, empty when
	// no photo has been attached.
	PhotoKey  string    `gorm:"column:photo_key" json:"photo_key,omitempty"`
	AddedBy   int       `gorm:"column:added_by;not null" json:"added_by"`
	Position  time.Time `gorm:"column:position;not null" json:"position"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// ListShare mirrors WorkspaceMember for a single list: one row per
// (list_id, invited_email), pending until accepted, deleted on decline.
// There is no role field; any accepted share can edit the list.
type ListShare struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ListID       uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_list_share_email" json:"list_id"`
	InvitedEmail string       `gorm:"column:invited_email;not null;uniqueIndex:idx_list_share_email" json:"invited_email"`
	UserID       *int         `gorm:"column:user_id" json:"user_id,omitempty"`
	Status       MemberStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	InvitedBy    int          `gorm:"column:invited_by;not null" json:"invited_by"`
	CreatedAt    time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updated_at"`

	// Associations
	List List `gorm:"foreignKey:ListID" json:"list,omitempty"`
}

// TableName specifies the table name for the ListShare model
func (ListShare) TableName() string {
	return "list_shares"
}
