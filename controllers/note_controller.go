package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

func loadOwnedNote(c *gin.Context, db *gorm.DB) (*models.Note, bool) {
	userID := c.GetString("user_id")

	var note models.Note
	if err := db.Preload("Tags").First(&note, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		return nil, false
	}
	if note.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your note"})
		return nil, false
	}
	return &note, true
}

func GetNotes(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	query := db.Model(&models.Note{}).Where("notes.user_id = ?", userID)

	if mode := c.Query("mode"); mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if folderID := c.Query("folder_id"); folderID != "" {
		query = query.Where("folder_id = ?", folderID)
	}
	if tagID := c.Query("tag_id"); tagID != "" {
		query = query.Joins("JOIN note_tags ON note_tags.note_id = notes.id").
			Where("note_tags.tag_id = ?", tagID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot count notes"})
		return
	}

	var notes []models.Note
	if err := query.Preload("Tags").Order("created_at DESC").Limit(limit).Offset(offset).Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list notes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  notes,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func GetNoteDetail(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	note, ok := loadOwnedNote(c, db)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, note)
}

type UpdateNoteInput struct {
	Title     *string         `json:"title"`
	Structure json.RawMessage `json:"structure"`
	FolderID  *uuid.UUID      `json:"folder_id"`
	TagIDs    *[]uuid.UUID    `json:"tag_ids"`
}

// UpdateNote allows editing the title and the structure document only; the
// transcript content itself is owned by the pipeline.
func UpdateNote(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	note, ok := loadOwnedNote(c, db)
	if !ok {
		return
	}

	var input UpdateNoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Title != nil && *input.Title != "" {
		updates["title"] = *input.Title
		updates["slug"] = slug.Make(*input.Title)
	}
	if len(input.Structure) > 0 {
		if !json.Valid(input.Structure) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "structure must be valid JSON"})
			return
		}
		updates["structure"] = input.Structure
	}
	if input.FolderID != nil {
		updates["folder_id"] = input.FolderID
	}
	if len(updates) > 0 {
		if err := db.Model(note).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update note"})
			return
		}
	}

	if input.TagIDs != nil {
		var tags []models.Tag
		if len(*input.TagIDs) > 0 {
			if err := db.Where("id IN ? AND user_id = ?", *input.TagIDs, note.UserID).Find(&tags).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load tags"})
				return
			}
		}
		if err := db.Model(note).Association("Tags").Replace(tags); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update tags"})
			return
		}
	}

	db.Preload("Tags").First(note, "id = ?", note.ID)
	c.JSON(http.StatusOK, note)
}

func DeleteNote(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	note, ok := loadOwnedNote(c, db)
	if !ok {
		return
	}

	if err := db.Select("Tags").Delete(note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot delete note"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
