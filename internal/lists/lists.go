// Package lists is the view-model behind the list and item endpoints:
// CRUD over lists and items plus list-level sharing, which follows the
// same pending/accepted/declined lifecycle as workspace invites.
package lists

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cartshare/internal/models"
	"cartshare/internal/workspace"
)

var (
	// ErrNameRequired rejects blank list and item names.
	ErrNameRequired = errors.New("a name is required")

	// ErrNotFound covers lists, items, and shares the caller cannot
	// see. Access denials use it too, so probing ids reveals nothing.
	ErrNotFound = errors.New("not found")

	// ErrNotOwner guards owner-only operations (delete, share).
	ErrNotOwner = errors.New("only the list owner can do that")

	// ErrInvalidShare rejects malformed share ids, unknown response
	// statuses, and responses to shares addressed to someone else.
	ErrInvalidShare = errors.New("invalid share")
)

// Store is the slice of the database surface this package needs.
type Store interface {
	ListsVisibleTo(ctx context.Context, workspaceID *uuid.UUID, userID int, email string) ([]models.List, error)
	GetList(ctx context.Context, id uuid.UUID) (*models.List, error)
	InsertList(ctx context.Context, list *models.List) error
	UpdateList(ctx context.Context, list *models.List) error
	DeleteListRow(ctx context.Context, id uuid.UUID) error

	ItemsForList(ctx context.Context, listID uuid.UUID) ([]models.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	InsertItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItemRow(ctx context.Context, id uuid.UUID) error
	SwapItemPositions(ctx context.Context, a, b uuid.UUID) error
	CanAccessList(ctx context.Context, listID uuid.UUID, userID int, email string) (bool, error)

	UpsertListShare(ctx context.Context, listID uuid.UUID, email string, invitedBy int) error
	ListShareByID(ctx context.Context, id uuid.UUID) (*models.ListShare, error)
	PendingListShares(ctx context.Context, email string) ([]models.ListShare, error)
	AcceptListShare(ctx context.Context, id uuid.UUID, userID int) error
	DeleteListShare(ctx context.Context, id uuid.UUID) error
}

// Service wires list operations to the store.
type Service struct {
	store Store
	log   *slog.Logger
}

// NewService creates a list service.
func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// scopeFor maps a client workspace id to a query scope. The personal
// sentinel and locally generated fallback ids are not server
// workspaces; their lists live unscoped under the owner.
func scopeFor(workspaceID string) *uuid.UUID {
	id, err := uuid.Parse(workspaceID)
	if err != nil {
		return nil
	}
	return &id
}

// ListsFor returns the lists visible to the user inside one workspace
// scope.
func (s *Service) ListsFor(ctx context.Context, ident workspace.Identity, workspaceID string) ([]models.List, error) {
	return s.store.ListsVisibleTo(ctx, scopeFor(workspaceID), ident.UserID, ident.Email)
}

// CreateList creates a list in the given workspace scope.
func (s *Service) CreateList(ctx context.Context, ident workspace.Identity, workspaceID, name string) (*models.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	list := &models.List{
		WorkspaceID: scopeFor(workspaceID),
		OwnerID:     ident.UserID,
		Name:        name,
		Position:    time.Now().UTC(),
	}
	if err := s.store.InsertList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// RenameList renames a list the user can access.
func (s *Service) RenameList(ctx context.Context, ident workspace.Identity, listID uuid.UUID, name string) (*models.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	list, err := s.accessibleList(ctx, ident, listID)
	if err != nil {
		return nil, err
	}
	list.Name = name
	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteList removes a list, its items, and its shares. Owner only.
func (s *Service) DeleteList(ctx context.Context, ident workspace.Identity, listID uuid.UUID) error {
	list, err := s.accessibleList(ctx, ident, listID)
	if err != nil {
		return err
	}
	if list.OwnerID != ident.UserID {
		return ErrNotOwner
	}
	return s.store.DeleteListRow(ctx, listID)
}

// Items returns a list's items in display order.
func (s *Service) Items(ctx context.Context, ident workspace.Identity, listID uuid.UUID) ([]models.Item, error) {
	if _, err := s.accessibleList(ctx, ident, listID); err != nil {
		return nil, err
	}
	return s.store.ItemsForList(ctx, listID)
}

// Item returns a single item the user can access.
func (s *Service) Item(ctx context.Context, ident workspace.Identity, itemID uuid.UUID) (*models.Item, error) {
	return s.accessibleItem(ctx, ident, itemID)
}

// AddItem appends an item to a list the user can access.
func (s *Service) AddItem(ctx context.Context, ident workspace.Identity, listID uuid.UUID, name, quantity string) (*models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := s.accessibleList(ctx, ident, listID); err != nil {
		return nil, err
	}

	item := &models.Item{
		ListID:   listID,
		Name:     name,
		Quantity: strings.TrimSpace(quantity),
		AddedBy:  ident.UserID,
		Position: time.Now().UTC(),
	}
	if err := s.store.InsertItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ItemPatch carries the fields UpdateItem may change. Nil means leave
// as is.
type ItemPatch struct {
	Name     *string
	Quantity *string
	Checked  *bool
	PhotoKey *string
}

// UpdateItem applies a patch to an item on a list the user can access.
func (s *Service) UpdateItem(ctx context.Context, ident workspace.Identity, itemID uuid.UUID, patch ItemPatch) (*models.Item, error) {
	item, err := s.accessibleItem(ctx, ident, itemID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		item.Name = name
	}
	if patch.Quantity != nil {
		item.Quantity = strings.TrimSpace(*patch.Quantity)
	}
	if patch.Checked != nil {
		item.Checked = *patch.Checked
	}
	if patch.PhotoKey != nil {
		item.PhotoKey = *patch.PhotoKey
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item from a list the user can access.
func (s *Service) DeleteItem(ctx context.Context, ident workspace.Identity, itemID uuid.UUID) error {
	if _, err := s.accessibleItem(ctx, ident, itemID); err != nil {
		return err
	}
	return s.store.DeleteItemRow(ctx, itemID)
}

// ReorderItems swaps the position timestamps of two items on the same
// list. Moving an item one slot is one swap; there is no drag index.
func (s *Service) ReorderItems(ctx context.Context, ident workspace.Identity, a, b uuid.UUID) error {
	first, err := s.accessibleItem(ctx, ident, a)
	if err != nil {
		return err
	}
	second, err := s.store.GetItem(ctx, b)
	if err != nil {
		return ErrNotFound
	}
	if first.ListID != second.ListID {
		return ErrNotFound
	}
	return s.store.SwapItemPositions(ctx, a, b)
}

// ShareList invites an email to a list. Owner only; re-sharing the
// same address is idempotent.
func (s *Service) ShareList(ctx context.Context, ident workspace.Identity, listID uuid.UUID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return workspace.ErrInvalidEmail
	}

	list, err := s.accessibleList(ctx, ident, listID)
	if err != nil {
		return err
	}
	if list.OwnerID != ident.UserID {
		return ErrNotOwner
	}
	return s.store.UpsertListShare(ctx, listID, email, ident.UserID)
}

// PendingShares returns open list shares addressed to the user.
func (s *Service) PendingShares(ctx context.Context, ident workspace.Identity) ([]models.ListShare, error) {
	return s.store.PendingListShares(ctx, strings.ToLower(strings.TrimSpace(ident.Email)))
}

// RespondToShare applies the invited user's decision on a list share:
// accept stamps the responder onto the row, decline deletes it.
func (s *Service) RespondToShare(ctx context.Context, ident workspace.Identity, shareID uuid.UUID, status string) error {
	share, err := s.store.ListShareByID(ctx, shareID)
	if err != nil {
		return ErrInvalidShare
	}
	if !strings.EqualFold(share.InvitedEmail, strings.TrimSpace(ident.Email)) {
		return ErrInvalidShare
	}

	switch status {
	case string(models.StatusAccepted):
		return s.store.AcceptListShare(ctx, shareID, ident.UserID)
	case "declined":
		return s.store.DeleteListShare(ctx, shareID)
	default:
		return ErrInvalidShare
	}
}

func (s *Service) accessibleList(ctx context.Context, ident workspace.Identity, listID uuid.UUID) (*models.List, error) {
	ok, err := s.store.CanAccessList(ctx, listID, ident.UserID, ident.Email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.store.GetList(ctx, listID)
}

func (s *Service) accessibleItem(ctx context.Context, ident workspace.Identity, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, ErrNotFound
	}
	if _, err := s.accessibleList(ctx, ident, item.ListID); err != nil {
		return nil, err
	}
	return item, nil
}
