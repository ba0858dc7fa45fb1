package database

import (
	"strings"

	"gorm.io/gorm/clause"

	"cartshare/internal/models"
)

// CreateOrUpdateUser creates a new user or refreshes an existing one
// after an OAuth login. Emails are stored lowercased so membership and
// share lookups match case-insensitively.
func (s *service) CreateOrUpdateUser(user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err := s.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "name", "avatar_url", "updated_at",
		}),
	}).Create(user).Error

	return classify(err)
}

// GetUserByID retrieves a user by ID
func (s *service) GetUserByID(id int) (*models.User, error) {
	var user models.User
	if err := s.gorm.First(&user, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}
