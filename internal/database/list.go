package database

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cartshare/internal/models"
)

// ListsVisibleTo returns the lists the user can see inside one
// workspace (or their personal lists when workspaceID is nil): lists
// they own plus lists shared with their email and accepted.
func (s *service) ListsVisibleTo(ctx context.Context, workspaceID *uuid.UUID, userID int, email string) ([]models.List, error) {
	var lists []models.List

	q := s.gorm.WithContext(ctx).
		Distinct("lists.*").
		Joins("LEFT JOIN list_shares ON list_shares.list_id = lists.id").
		Where("lists.owner_id = ? OR (list_shares.invited_email = ? AND list_shares.status = ?)",
			userID, strings.ToLower(email), models.StatusAccepted)

	if workspaceID != nil {
		q = q.Where("lists.workspace_id = ?", *workspaceID)
	} else {
		q = q.Where("lists.workspace_id IS NULL")
	}

	err := q.Order("lists.position ASC").Find(&lists).Error
	return lists, classify(err)
}

// GetList retrieves a single list.
func (s *service) GetList(ctx context.Context, id uuid.UUID) (*models.List, error) {
	var list models.List
	if err := s.gorm.WithContext(ctx).First(&list, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &list, nil
}

// InsertList creates a list row.
func (s *service) InsertList(ctx context.Context, list *models.List) error {
	return classify(s.gorm.WithContext(ctx).Create(list).Error)
}

// UpdateList saves list changes.
func (s *service) UpdateList(ctx context.Context, list *models.List) error {
	return classify(s.gorm.WithContext(ctx).Save(list).Error)
}

// DeleteListRow removes a list and its items and shares.
func (s *service) DeleteListRow(ctx context.Context, id uuid.UUID) error {
	err := s.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Item{}, "list_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ListShare{}, "list_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.List{}, "id = ?", id).Error
	})
	return classify(err)
}

// ItemsForList returns a list's items in display order.
func (s *service) ItemsForList(ctx context.Context, listID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	err := s.gorm.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("position ASC").
		Find(&items).Error
	return items, classify(err)
}

// GetItem retrieves a single item.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := s.gorm.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &item, nil
}

// InsertItem creates an item row.
func (s *service) InsertItem(ctx context.Context, item *models.Item) error {
	return classify(s.gorm.WithContext(ctx).Create(item).Error)
}

// UpdateItem saves item changes.
func (s *service) UpdateItem(ctx context.Context, item *models.Item) error {
	return classify(s.gorm.WithContext(ctx).Save(item).Error)
}

// DeleteItemRow removes an item.
func (s *service) DeleteItemRow(ctx context.Context, id uuid.UUID) error {
	return classify(s.gorm.WithContext(ctx).Delete(&models.Item{}, "id = ?", id).Error)
}

// SwapItemPositions exchanges the position timestamps of two items in
// one transaction. This is the whole reorder scheme: no index column,
// just swapped timestamps.
func (s *service) SwapItemPositions(ctx context.Context, a, b uuid.UUID) error {
	err := s.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var first, second models.Item
		if err := tx.First(&first, "id = ?", a).Error; err != nil {
			return err
		}
		if err := tx.First(&second, "id = ?", b).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Item{}).Where("id = ?", a).
			Update("position", second.Position).Error; err != nil {
			return err
		}
		return tx.Model(&models.Item{}).Where("id = ?", b).
			Update("position", first.Position).Error
	})
	return classify(err)
}

// CanAccessList reports whether the user may read or edit the list:
// its owner, an accepted share for their email, or accepted membership
// in the list's workspace.
func (s *service) CanAccessList(ctx context.Context, listID uuid.UUID, userID int, email string) (bool, error) {
	email = strings.ToLower(email)

	var count int64
	query := `
		SELECT COUNT(*) FROM lists l
		WHERE l.id = ?
		AND (
			l.owner_id = ?
			OR EXISTS (
				SELECT 1 FROM list_shares ls
				WHERE ls.list_id = l.id AND ls.invited_email = ? AND ls.status = 'accepted'
			)
			OR (
				l.workspace_id IS NOT NULL AND EXISTS (
					SELECT 1 FROM workspace_members wm
					WHERE wm.workspace_id = l.workspace_id
					AND wm.invited_email = ? AND wm.status = 'accepted'
				)
			)
		)`

	err := s.gorm.WithContext(ctx).Raw(query, listID, userID, email, email).Scan(&count).Error
	if err != nil {
		err = classify(err)
		// Without the workspace tables only ownership and shares count.
		if errors.Is(err, ErrSchemaMissing) {
			fallback := `
				SELECT COUNT(*) FROM lists l
				WHERE l.id = ?
				AND (
					l.owner_id = ?
					OR EXISTS (
						SELECT 1 FROM list_shares ls
						WHERE ls.list_id = l.id AND ls.invited_email = ? AND ls.status = 'accepted'
					)
				)`
			err = classify(s.gorm.WithContext(ctx).Raw(fallback, listID, userID, email).Scan(&count).Error)
		}
		if err != nil {
			return false, err
		}
	}
	return count > 0, nil
}

// UpsertListShare writes the single share row for
// (list_id, invited_email), following the same rules as workspace
// membership upserts.
func (s *service) UpsertListShare(ctx context.Context, listID uuid.UUID, email string, invitedBy int) error {
	share := models.ListShare{
		ListID:       listID,
		InvitedEmail: strings.ToLower(email),
		Status:       models.StatusPending,
		InvitedBy:    invitedBy,
	}

	err := s.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "list_id"}, {Name: "invited_email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status": gorm.Expr(
				"CASE WHEN list_shares.status = 'accepted' THEN list_shares.status ELSE excluded.status END"),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&share).Error

	return classify(err)
}

// ListShareByID retrieves a single share row.
func (s *service) ListShareByID(ctx context.Context, id uuid.UUID) (*models.ListShare, error) {
	var share models.ListShare
	if err := s.gorm.WithContext(ctx).First(&share, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &share, nil
}

// PendingListShares returns open list shares addressed to the email.
func (s *service) PendingListShares(ctx context.Context, email string) ([]models.ListShare, error) {
	var shares []models.ListShare
	err := s.gorm.WithContext(ctx).
		Where("invited_email = ? AND status = ?", strings.ToLower(email), models.StatusPending).
		Order("created_at DESC").
		Find(&shares).Error
	return shares, classify(err)
}

// AcceptListShare marks the share accepted and stamps the responder.
func (s *service) AcceptListShare(ctx context.Context, id uuid.UUID, userID int) error {
	result := s.gorm.WithContext(ctx).
		Model(&models.ListShare{}).
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

// DeleteListShare removes the share row outright.
func (s *service) DeleteListShare(ctx context.Context, id uuid.UUID) error {
	return classify(s.gorm.WithContext(ctx).Delete(&models.ListShare{}, "id = ?", id).Error)
}
