package auth

import (
	"errors"
	"fmt"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"gorm.io/gorm"
)

// EnsureAccount returns the account matching the authenticated email,
// creating one with the assertion's display name and avatar on first
// sign-in. It never mutates an existing account; callers that handle a
// sign-in event should use SignIn instead.
func EnsureAccount(info *UserInfo) (*models.Account, error) {
	db := database.GetDB()

	var account models.Account
	err := db.Where("email = ?", info.Email).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	account = models.Account{
		GoogleID:  info.Sub,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}
	if err := db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// SignIn resolves the account for a sign-in event, creating it if absent
// and refreshing name, avatar and last-login from the fresh assertion.
func SignIn(info *UserInfo) (*models.Account, error) {
	db := database.GetDB()

	account, err := EnsureAccount(info)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"last_login": gorm.Expr("CURRENT_TIMESTAMP"),
	}
	if info.Name != "" {
		updates["name"] = info.Name
	}
	if info.Picture != "" {
		updates["avatar_url"] = info.Picture
	}

	if err := db.Model(account).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to refresh account on sign-in: %w", err)
	}
	return account, nil
}
