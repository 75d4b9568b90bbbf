package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

func GetNoteActionItems(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	note, ok := loadOwnedNote(c, db)
	if !ok {
		return
	}

	var items []models.ActionItem
	if err := db.Where("note_id = ?", note.ID).Order("created_at ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list action items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func loadOwnedActionItem(c *gin.Context, db *gorm.DB) (*models.ActionItem, bool) {
	userID := c.GetString("user_id")

	var item models.ActionItem
	if err := db.First(&item, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "action item not found"})
		return nil, false
	}
	if item.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your action item"})
		return nil, false
	}
	return &item, true
}

type UpdateActionItemInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Assignee    *string `json:"assignee"`
	DueDate     *string `json:"due_date"` // YYYY-MM-DD, empty string clears
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

var validStatuses = map[models.ActionItemStatus]bool{
	models.ActionPending: true, models.ActionInProgress: true,
	models.ActionCompleted: true, models.ActionCanceled: true,
}

var validPriorities = map[models.ActionItemPriority]bool{
	models.PriorityLow: true, models.PriorityMedium: true,
	models.PriorityHigh: true, models.PriorityUrgent: true,
}

func UpdateActionItem(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	item, ok := loadOwnedActionItem(c, db)
	if !ok {
		return
	}

	var input UpdateActionItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Title != nil && *input.Title != "" {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Assignee != nil {
		updates["assignee"] = *input.Assignee
	}
	if input.Priority != nil {
		if !validPriorities[models.ActionItemPriority(*input.Priority)] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
		updates["priority"] = *input.Priority
	}
	if input.Status != nil {
		if !validStatuses[models.ActionItemStatus(*input.Status)] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		updates["status"] = *input.Status
	}
	if input.DueDate != nil {
		if *input.DueDate == "" {
			updates["due_date"] = nil
		} else {
			due, err := time.Parse("2006-01-02", *input.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
				return
			}
			updates["due_date"] = due
		}
	}

	if len(updates) > 0 {
		if err := db.Model(item).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update action item"})
			return
		}
	}

	db.First(item, "id = ?", item.ID)
	c.JSON(http.StatusOK, item)
}

func DeleteActionItem(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	item, ok := loadOwnedActionItem(c, db)
	if !ok {
		return
	}

	if err := db.Delete(item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot delete action item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
