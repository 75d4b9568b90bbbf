package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/models"
	"github.com/fifthdraft/fifthdraft-backend/services"
)

func GetProfile(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var profile models.Profile
	if err := db.First(&profile, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	profile.Password = ""

	limits := services.LimitsForTier(profile.Tier)
	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"limits": gin.H{
			"max_file_size_bytes":  limits.MaxFileSizeBytes,
			"file_uploads_allowed": limits.FileUploadsAllowed,
		},
	})
}

type UpdateSettingsInput struct {
	WritingStyle  *models.WritingStyle `json:"writing_style"`
	NoteStructure *string              `json:"note_structure"`
}

func UpdateProfileSettings(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var profile models.Profile
	if err := db.First(&profile, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	var input UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.WritingStyle != nil {
		profile.Settings.WritingStyle = *input.WritingStyle
	}
	if input.NoteStructure != nil {
		profile.Settings.NoteStructure = *input.NoteStructure
	}

	if err := db.Model(&profile).Update("settings", profile.Settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": profile.Settings})
}

func GetUsage(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := db.Model(&models.UsageLog{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot count usage logs"})
		return
	}

	var logs []models.UsageLog
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list usage logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
