package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

type FolderInput struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func CreateFolder(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	uid, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var input FolderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder := models.Folder{
		UserID: uid,
		Name:   input.Name,
		Color:  input.Color,
	}
	if err := db.Create(&folder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create folder"})
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func GetFolders(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var folders []models.Folder
	if err := db.Where("user_id = ?", userID).Order("name ASC").Find(&folders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list folders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": folders})
}

func loadOwnedFolder(c *gin.Context, db *gorm.DB) (*models.Folder, bool) {
	userID := c.GetString("user_id")

	var folder models.Folder
	if err := db.First(&folder, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
		return nil, false
	}
	if folder.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your folder"})
		return nil, false
	}
	return &folder, true
}

func UpdateFolder(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	folder, ok := loadOwnedFolder(c, db)
	if !ok {
		return
	}

	var input FolderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.Model(folder).Updates(map[string]interface{}{
		"name":  input.Name,
		"color": input.Color,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update folder"})
		return
	}
	c.JSON(http.StatusOK, folder)
}

// DeleteFolder detaches the folder's notes rather than deleting them.
func DeleteFolder(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	folder, ok := loadOwnedFolder(c, db)
	if !ok {
		return
	}

	if err := db.Model(&models.Note{}).Where("folder_id = ?", folder.ID).
		Update("folder_id", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot detach notes"})
		return
	}
	if err := db.Delete(folder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot delete folder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
