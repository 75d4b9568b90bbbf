package controllers

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/config"
	"github.com/fifthdraft/fifthdraft-backend/models"
	"github.com/fifthdraft/fifthdraft-backend/services"
	"github.com/fifthdraft/fifthdraft-backend/utils"
	"github.com/fifthdraft/fifthdraft-backend/ws"
)

type RecordingController struct {
	Cfg     config.AppConfig
	Storage *utils.StorageGateway
}

func NewRecordingController(cfg config.AppConfig) *RecordingController {
	return &RecordingController{
		Cfg:     cfg,
		Storage: utils.NewStorageGateway(cfg),
	}
}

var allowedRecordingExts = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".ogg": true,
	".flac": true, ".aac": true, ".webm": true,
}

// Upload stores the audio blob and creates the queued recording row. All
// tier gating happens later, when /api/transcribe claims the recording.
func (rc *RecordingController) Upload(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userIDStr := c.GetString("user_id")

	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file attached"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedRecordingExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported audio format"})
		return
	}

	mode := models.RecordingMode(c.DefaultPostForm("mode", string(models.ModeMeeting)))
	if mode != models.ModeMeeting && mode != models.ModeBrainstorming {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be meeting or brainstorming"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	contentType := mimetype.Detect(data).String()

	duration, _ := strconv.Atoi(c.PostForm("duration"))
	if duration == 0 && ext == ".mp3" {
		if secs, err := services.MP3DurationSeconds(data); err == nil {
			duration = int(math.Round(secs))
		}
	}

	recID := uuid.New()
	objectPath := fmt.Sprintf("audio/%s/%s%s", uid, recID, ext)
	if _, err := rc.Storage.Upload(objectPath, data, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage upload failed", "details": err.Error()})
		return
	}

	rec := models.Recording{
		ID:          recID,
		UserID:      uid,
		Mode:        mode,
		StoragePath: objectPath,
		FileSize:    int64(len(data)),
		Duration:    duration,
		Status:      models.StatusQueued,
	}
	if err := db.Create(&rec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save recording", "details": err.Error()})
		return
	}

	ws.BroadcastRecordingListChanged()
	c.JSON(http.StatusCreated, gin.H{
		"message":   "uploaded",
		"recording": rec,
	})
}

func (rc *RecordingController) List(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	query := db.Model(&models.Recording{}).Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		switch models.RecordingStatus(status) {
		case models.StatusQueued, models.StatusProcessing, models.StatusCompleted, models.StatusFailed:
			query = query.Where("status = ?", status)
		}
	}
	if mode := c.Query("mode"); mode != "" {
		query = query.Where("mode = ?", mode)
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot count recordings"})
		return
	}

	var recordings []models.Recording
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&recordings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list recordings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  recordings,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (rc *RecordingController) Get(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var rec models.Recording
	if err := db.First(&rec, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	if rec.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your recording"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (rc *RecordingController) Delete(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var rec models.Recording
	if err := db.First(&rec, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	if rec.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your recording"})
		return
	}

	if err := db.Delete(&rec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot delete recording"})
		return
	}

	// Removing the blob is best effort; an orphaned object is preferable
	// to a row the user cannot delete.
	if err := rc.Storage.Remove(rec.StoragePath); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "deleted", "warning": "stored audio not removed"})
		return
	}

	ws.BroadcastRecordingListChanged()
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
