package handlers

import (
	"errors"
	"net/http"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAccount retrieves another user's public profile
func GetAccount(c *gin.Context) {
	accountID := c.Param("id")

	db := database.GetDB()
	var account models.Account
	if err := db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         account.ID,
		"name":       account.Name,
		"avatar_url": account.AvatarURL,
		"created_at": account.CreatedAt,
	})
}

// UpdateProfile updates the caller's own profile fields
func UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Where("id = ?", userID).First(&account).Error; err != nil {
		handleError(c, http.StatusNotFound, "Account not found", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, account)
		return
	}

	if err := db.Model(&account).Updates(updates).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update profile", err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// UploadAvatar uploads a new avatar image and stores its URL on the account
func UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")

	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Avatar uploads are not configured"})
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		handleError(c, http.StatusBadRequest, "Avatar file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "Failed to read avatar file", err)
		return
	}
	defer file.Close()

	if err := imageService.ValidateImageFile(file, 5<<20); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	url, err := imageService.UploadAvatar(file, fileHeader.Filename, userID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to upload avatar", err)
		return
	}

	db := database.GetDB()
	if err := db.Model(&models.Account{}).Where("id = ?", userID).
		Update("avatar_url", url).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save avatar URL", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
