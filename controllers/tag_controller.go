package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

type TagInput struct {
	Name string `json:"name" binding:"required"`
}

func CreateTag(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	uid, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var input TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reuse an existing tag with the same name instead of duplicating.
	var existing models.Tag
	if err := db.Where("user_id = ? AND name = ?", uid, input.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, existing)
		return
	}

	tag := models.Tag{UserID: uid, Name: input.Name}
	if err := db.Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create tag"})
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func GetTags(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var tags []models.Tag
	if err := db.Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list tags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tags})
}

func DeleteTag(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var tag models.Tag
	if err := db.First(&tag, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		return
	}
	if tag.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your tag"})
		return
	}

	if err := db.Select("Notes").Delete(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot delete tag"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
