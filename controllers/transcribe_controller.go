package controllers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/config"
	"github.com/fifthdraft/fifthdraft-backend/logger"
	"github.com/fifthdraft/fifthdraft-backend/models"
	"github.com/fifthdraft/fifthdraft-backend/services"
	"github.com/fifthdraft/fifthdraft-backend/utils"
	"github.com/fifthdraft/fifthdraft-backend/ws"
)

// AudioStorage is the slice of the storage gateway the pipeline needs.
type AudioStorage interface {
	Download(path string) ([]byte, error)
}

// TranscribeController runs the whole transcription pipeline for one
// recording. All vendors are injected so tests can run it against fakes.
type TranscribeController struct {
	Cfg      config.AppConfig
	Storage  AudioStorage
	Speech   services.Transcriber
	LLM      services.TextGenerator
	Embedder services.Embedder
}

func NewTranscribeController(cfg config.AppConfig) *TranscribeController {
	gemini := services.NewGeminiClient(cfg)
	return &TranscribeController{
		Cfg:      cfg,
		Storage:  utils.NewStorageGateway(cfg),
		Speech:   services.NewSpeechClient(cfg),
		LLM:      gemini,
		Embedder: gemini,
	}
}

type TranscribeInput struct {
	RecordingID string `json:"recordingId" binding:"required"`
}

// setProgress persists a checkpoint and pushes it to websocket watchers.
func setProgress(db *gorm.DB, rec *models.Recording, status models.RecordingStatus, progress int) error {
	err := db.Model(rec).Updates(map[string]interface{}{
		"status":              status,
		"processing_progress": progress,
	}).Error
	if err != nil {
		return err
	}
	rec.Status = status
	rec.Progress = progress
	ws.SendRecordingStatus(rec.ID.String(), string(status), progress, "")
	return nil
}

// markFailed is the terminal transition for policy violations (progress 0)
// and fatal mid-run errors (progress left at the last checkpoint).
func markFailed(db *gorm.DB, rec *models.Recording, progress int, reason string) {
	db.Model(rec).Updates(map[string]interface{}{
		"status":              models.StatusFailed,
		"processing_progress": progress,
	})
	rec.Status = models.StatusFailed
	rec.Progress = progress
	ws.SendRecordingStatus(rec.ID.String(), string(models.StatusFailed), progress, reason)
	ws.BroadcastRecordingListChanged()
}

func (tc *TranscribeController) Transcribe(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var input TranscribeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log := logger.New().WithPipeline(input.RecordingID, userID)

	var rec models.Recording
	if err := db.First(&rec, "id = ?", input.RecordingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	if rec.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your recording"})
		return
	}

	var profile models.Profile
	if err := db.First(&profile, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	// Every gate below runs before any paid vendor work.
	if v := services.CheckUploadPolicy(profile.Tier, rec.StoragePath, rec.FileSize); v != nil {
		switch v.Reason {
		case services.ViolationUploadNotAllowed:
			markFailed(db, &rec, 0, "file uploads require a paid plan")
			c.JSON(http.StatusForbidden, gin.H{"error": "file uploads require a paid plan"})
		case services.ViolationFileTooLarge:
			markFailed(db, &rec, 0, "file too large for plan")
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":      "file too large for plan",
				"maxSize":    v.MaxSize,
				"actualSize": v.ActualSize,
			})
		}
		return
	}

	if profile.MinutesUsed >= profile.MinutesQuota {
		markFailed(db, &rec, 0, "transcription quota exceeded")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "transcription quota exceeded",
			"minutesUsed":  profile.MinutesUsed,
			"minutesQuota": profile.MinutesQuota,
		})
		return
	}

	// Claim the recording. The status CAS makes a client retry a 409
	// instead of a duplicated pipeline run.
	claim := db.Model(&models.Recording{}).
		Where("id = ? AND status = ?", rec.ID, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":              models.StatusProcessing,
			"processing_progress": 10,
		})
	if claim.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": claim.Error.Error()})
		return
	}
	if claim.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "recording is not queued"})
		return
	}
	rec.Status = models.StatusProcessing
	rec.Progress = 10
	ws.SendRecordingStatus(rec.ID.String(), string(rec.Status), 10, "")

	ctx, cancel := context.WithTimeout(c.Request.Context(), tc.Cfg.PipelineTimeout)
	defer cancel()

	// --- download -----------------------------------------------------
	audio, err := tc.Storage.Download(rec.StoragePath)
	if err != nil {
		log.WithError(err).Error("audio download failed")
		markFailed(db, &rec, rec.Progress, "audio download failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audio download failed"})
		return
	}
	contentType := mimetype.Detect(audio).String()

	// File uploads may arrive without a client-reported duration.
	if rec.Duration == 0 && strings.HasSuffix(strings.ToLower(rec.StoragePath), ".mp3") {
		if secs, err := services.MP3DurationSeconds(audio); err == nil && secs > 0 {
			rec.Duration = int(math.Round(secs))
			db.Model(&rec).Update("duration", rec.Duration)
		}
	}

	// --- transcribe ---------------------------------------------------
	if err := setProgress(db, &rec, models.StatusProcessing, 30); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	result, err := tc.Speech.Transcribe(ctx, audio, contentType)
	if err != nil {
		log.WithError(err).Error("transcription failed")
		markFailed(db, &rec, rec.Progress, "transcription failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transcription failed"})
		return
	}

	// --- clean (degradable) -------------------------------------------
	if err := setProgress(db, &rec, models.StatusProcessing, 50); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	cleaned, cleanErr := services.CleanTranscript(ctx, tc.LLM, result.Text, profile.Settings.WritingStyle)
	if cleanErr != nil {
		log.WithError(cleanErr).Warn("cleanup failed, keeping raw transcript")
	}

	transcription := models.Transcription{
		RecordingID: rec.ID,
		RawText:     result.Text,
		Segments:    result.Segments,
		CleanedText: cleaned,
		Language:    result.Language,
		WordCount:   len(strings.Fields(result.Text)),
	}
	if err := db.Create(&transcription).Error; err != nil {
		log.WithError(err).Error("cannot save transcription")
		markFailed(db, &rec, rec.Progress, "cannot save transcription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save transcription"})
		return
	}

	// --- structure extraction (degradable, mode-dependent) ------------
	if err := setProgress(db, &rec, models.StatusProcessing, 70); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var (
		structureDoc interface{}
		summary      string
		items        []models.ActionItem
		embedding    []float32
	)

	switch rec.Mode {
	case models.ModeBrainstorming:
		structure, err := services.ExtractBrainstormStructure(ctx, tc.LLM, cleaned)
		if err != nil {
			log.WithError(err).Warn("brainstorm extraction failed, using fallback structure")
		}
		structureDoc = structure
		summary = structure.Summary
		items = actionItemsFromNextSteps(structure.NextSteps, rec)

		if embedding, err = tc.Embedder.Embed(ctx, cleaned); err != nil {
			log.WithError(err).Warn("embedding failed, note will have none")
			embedding = nil
		}

	default: // meeting
		structure, err := services.ExtractMeetingStructure(ctx, tc.LLM, cleaned)
		if err != nil {
			log.WithError(err).Warn("meeting extraction failed, using fallback structure")
		}
		structureDoc = structure
		summary = structure.Summary
		items = actionItemsFromMeeting(structure.ActionItems, rec)
	}

	// --- title (degradable) -------------------------------------------
	if err := setProgress(db, &rec, models.StatusProcessing, 85); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	title := services.GenerateNoteTitle(ctx, tc.LLM, cleaned, rec.Mode)

	structureJSON, err := json.Marshal(structureDoc)
	if err != nil {
		log.WithError(err).Error("cannot marshal structure")
		markFailed(db, &rec, rec.Progress, "cannot marshal structure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot marshal structure"})
		return
	}

	note := models.Note{
		UserID:      rec.UserID,
		RecordingID: rec.ID,
		Title:       title,
		Slug:        slug.Make(title),
		Content:     cleaned,
		Summary:     summary,
		Mode:        rec.Mode,
		Structure:   structureJSON,
	}
	if err := db.Create(&note).Error; err != nil {
		log.WithError(err).Error("cannot save note")
		markFailed(db, &rec, rec.Progress, "cannot save note")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save note"})
		return
	}

	// Attaching the embedding is best effort. The update must go through
	// the struct field so the JSON serializer encodes the vector.
	if len(embedding) > 0 {
		if err := db.Model(&note).Updates(models.Note{Embedding: embedding}).Error; err != nil {
			log.WithError(err).Warn("cannot attach embedding")
		}
	}

	// Action items are best effort too: a failed insert leaves the note
	// standing and the run completes.
	if len(items) > 0 {
		for i := range items {
			items[i].NoteID = note.ID
		}
		if err := db.Create(&items).Error; err != nil {
			log.WithError(err).Warn("cannot save action items")
		}
	}

	// --- accounting ---------------------------------------------------
	units := rec.Duration
	if units == 0 {
		units = 1
	}
	usage := models.UsageLog{
		UserID:        rec.UserID,
		ResourceType:  "transcription",
		UnitsConsumed: units,
		RecordingID:   rec.ID,
	}
	if err := db.Create(&usage).Error; err != nil {
		log.WithError(err).Error("cannot save usage log")
		markFailed(db, &rec, rec.Progress, "cannot save usage log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save usage log"})
		return
	}

	// Atomic increment; concurrent completions for one user must not lose
	// an update.
	minutes := int(math.Ceil(float64(rec.Duration) / 60.0))
	if err := db.Model(&models.Profile{}).
		Where("id = ?", rec.UserID).
		UpdateColumn("minutes_used", gorm.Expr("minutes_used + ?", minutes)).Error; err != nil {
		log.WithError(err).Error("cannot update minutes used")
		markFailed(db, &rec, rec.Progress, "cannot update minutes used")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update minutes used"})
		return
	}

	if err := setProgress(db, &rec, models.StatusCompleted, 100); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ws.BroadcastRecordingListChanged()
	log.WithField("note_id", note.ID.String()).Info("pipeline completed")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"noteId":  note.ID,
	})
}

func normalizePriority(p string) models.ActionItemPriority {
	switch models.ActionItemPriority(strings.ToLower(p)) {
	case models.PriorityLow, models.PriorityHigh, models.PriorityUrgent:
		return models.ActionItemPriority(strings.ToLower(p))
	default:
		return models.PriorityMedium
	}
}

// actionItemsFromMeeting maps extracted meeting action items to rows.
func actionItemsFromMeeting(extracted []models.MeetingActionItem, rec models.Recording) []models.ActionItem {
	items := make([]models.ActionItem, 0, len(extracted))
	for _, e := range extracted {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		item := models.ActionItem{
			RecordingID: rec.ID,
			UserID:      rec.UserID,
			Title:       e.Title,
			Description: e.Description,
			Assignee:    e.Assignee,
			Priority:    normalizePriority(e.Priority),
			Status:      models.ActionPending,
			Type:        "meeting",
		}
		if e.DueDate != "" {
			if due, err := time.Parse("2006-01-02", e.DueDate); err == nil {
				item.DueDate = &due
			}
		}
		items = append(items, item)
	}
	return items
}

// actionItemsFromNextSteps maps brainstorming next steps to rows.
func actionItemsFromNextSteps(steps []models.NextStep, rec models.Recording) []models.ActionItem {
	items := make([]models.ActionItem, 0, len(steps))
	for _, s := range steps {
		if strings.TrimSpace(s.Step) == "" {
			continue
		}
		items = append(items, models.ActionItem{
			RecordingID: rec.ID,
			UserID:      rec.UserID,
			Title:       s.Step,
			Priority:    normalizePriority(s.Priority),
			Status:      models.ActionPending,
			Type:        "brainstorming",
		})
	}
	return items
}
