package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fifthdraft/fifthdraft-backend/config"
	"github.com/fifthdraft/fifthdraft-backend/models"
	"github.com/fifthdraft/fifthdraft-backend/services"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("cannot open test db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("cannot migrate test db: %v", err)
	}
	return db
}

// --- vendor fakes -----------------------------------------------------

type fakeStorage struct {
	data []byte
	err  error
}

func (f *fakeStorage) Download(path string) ([]byte, error) { return f.data, f.err }

type fakeSpeech struct {
	result *services.TranscriptionResult
	err    error
}

func (f *fakeSpeech) Transcribe(ctx context.Context, audio []byte, contentType string) (*services.TranscriptionResult, error) {
	return f.result, f.err
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

const meetingJSON = `{"summary":"Team sync about the launch.","keyPoints":["launch next week"],"decisions":["ship on Tuesday"],"actionItems":[{"title":"Send recap","description":"email the team","assignee":"Sam","dueDate":"2026-09-01","priority":"high"},{"title":"Update docs","priority":"silly"}],"questions":["budget?"]}`

const brainstormJSON = `{"summary":"Ideas for the garden app.","coreIdeas":[{"title":"Plant diary","description":"track growth","connections":["reminders"]}],"expansionOpportunities":[{"ideaTitle":"Plant diary","directions":["photos"]}],"researchQuestions":["what do gardeners track?"],"nextSteps":[{"step":"Sketch the diary screen","priority":"high"},{"step":"Interview five gardeners","priority":"medium"}],"obstacles":["seasonality"],"creativePrompts":["garden as a timeline"]}`

// scriptedLLM answers each pipeline prompt by recognizing its wording.
type scriptedLLM struct {
	failExtraction bool
	title          string
}

func (s *scriptedLLM) GenerateText(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	switch {
	// The title prompt mentions "<mode> transcript" too, so it must be
	// matched before the extraction prompts.
	case strings.Contains(prompt, "descriptive title"):
		if s.title != "" {
			return s.title, nil
		}
		return `"Launch Planning Sync"`, nil
	case strings.Contains(prompt, "transcript editor"):
		return "We will ship the launch next week. Sam owns the recap email.", nil
	case strings.Contains(prompt, "meeting transcript"):
		if s.failExtraction {
			return "", errors.New("vendor down")
		}
		return "```json\n" + meetingJSON + "\n```", nil
	case strings.Contains(prompt, "brainstorming sessions"):
		if s.failExtraction {
			return "", errors.New("vendor down")
		}
		return brainstormJSON, nil
	}
	return "", errors.New("unexpected prompt")
}

// failingLLM errors on every call; the pipeline must still complete.
type failingLLM struct{}

func (failingLLM) GenerateText(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	return "", errors.New("vendor down")
}

// --- fixtures ---------------------------------------------------------

func newPipeline(llm services.TextGenerator) *TranscribeController {
	return &TranscribeController{
		Cfg:     config.AppConfig{PipelineTimeout: time.Minute},
		Storage: &fakeStorage{data: []byte("fake audio bytes")},
		Speech: &fakeSpeech{result: &services.TranscriptionResult{
			Text:     "um so we will ship the launch next week",
			Segments: []models.Segment{{ID: 0, Start: 0, End: 4.2, Text: "um so we will ship"}},
			Language: "en",
		}},
		LLM:      llm,
		Embedder: &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}},
	}
}

func newTestRouter(db *gorm.DB, userID string, tc *TranscribeController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("db", db)
		c.Set("user_id", userID)
		c.Next()
	})
	r.POST("/api/transcribe", tc.Transcribe)
	return r
}

func createProfile(t *testing.T, db *gorm.DB, tier models.SubscriptionTier, used, quota int) models.Profile {
	t.Helper()
	profile := models.Profile{
		ID:           uuid.New(),
		FullName:     "Test User",
		Email:        uuid.NewString() + "@example.com",
		Password:     "x",
		Tier:         tier,
		MinutesUsed:  used,
		MinutesQuota: quota,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("cannot create profile: %v", err)
	}
	return profile
}

func createRecording(t *testing.T, db *gorm.DB, userID uuid.UUID, mode models.RecordingMode, path string, size int64, duration int) models.Recording {
	t.Helper()
	rec := models.Recording{
		ID:          uuid.New(),
		UserID:      userID,
		Mode:        mode,
		StoragePath: path,
		FileSize:    size,
		Duration:    duration,
		Status:      models.StatusQueued,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("cannot create recording: %v", err)
	}
	return rec
}

func postTranscribe(t *testing.T, r *gin.Engine, recordingID uuid.UUID) (int, map[string]interface{}) {
	t.Helper()
	body, _ := json.Marshal(gin.H{"recordingId": recordingID.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return w.Code, resp
}

func reloadRecording(t *testing.T, db *gorm.DB, id uuid.UUID) models.Recording {
	t.Helper()
	var rec models.Recording
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		t.Fatalf("cannot reload recording: %v", err)
	}
	return rec
}

// --- policy gates -----------------------------------------------------

func TestTranscribe_FileTooLarge(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	limit := services.LimitsForTier(models.TierPro).MaxFileSizeBytes
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/big.mp3", limit+1, 90)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))
	code, resp := postTranscribe(t, r, rec.ID)

	if code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %v", code, resp)
	}
	if int64(resp["maxSize"].(float64)) != limit {
		t.Errorf("413 should report the limit, got %v", resp["maxSize"])
	}
	if int64(resp["actualSize"].(float64)) != limit+1 {
		t.Errorf("413 should report the actual size, got %v", resp["actualSize"])
	}

	got := reloadRecording(t, db, rec.ID)
	if got.Status != models.StatusFailed || got.Progress != 0 {
		t.Errorf("oversized file must leave status=failed progress=0, got %s/%d", got.Status, got.Progress)
	}
}

func TestTranscribe_FileAtLimitPasses(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	limit := services.LimitsForTier(models.TierPro).MaxFileSizeBytes
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/atlimit.mp3", limit, 90)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))
	code, resp := postTranscribe(t, r, rec.ID)

	if code != http.StatusOK {
		t.Fatalf("file at exactly the limit should process, got %d: %v", code, resp)
	}
}

func TestTranscribe_FreeTierUploadBlocked(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierFree, 0, 30)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/tiny.mp3", 1, 10)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))
	code, _ := postTranscribe(t, r, rec.ID)

	if code != http.StatusForbidden {
		t.Fatalf("free tier file upload must 403 regardless of size, got %d", code)
	}
	got := reloadRecording(t, db, rec.ID)
	if got.Status != models.StatusFailed || got.Progress != 0 {
		t.Errorf("expected failed/0, got %s/%d", got.Status, got.Progress)
	}
}

func TestTranscribe_QuotaGate(t *testing.T) {
	db := openTestDB(t)

	// At the quota: blocked.
	blocked := createProfile(t, db, models.TierPro, 600, 600)
	recBlocked := createRecording(t, db, blocked.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 60)
	r := newTestRouter(db, blocked.ID.String(), newPipeline(&scriptedLLM{}))
	code, resp := postTranscribe(t, r, recBlocked.ID)
	if code != http.StatusTooManyRequests {
		t.Fatalf("minutes_used == quota must 429, got %d", code)
	}
	if int(resp["minutesUsed"].(float64)) != 600 || int(resp["minutesQuota"].(float64)) != 600 {
		t.Errorf("429 should report usage and quota, got %v", resp)
	}
	got := reloadRecording(t, db, recBlocked.ID)
	if got.Status != models.StatusFailed || got.Progress != 0 {
		t.Errorf("expected failed/0, got %s/%d", got.Status, got.Progress)
	}

	// One minute under the quota: allowed.
	allowed := createProfile(t, db, models.TierPro, 599, 600)
	recAllowed := createRecording(t, db, allowed.ID, models.ModeMeeting, "audio/u/b.webm", 1000, 60)
	r = newTestRouter(db, allowed.ID.String(), newPipeline(&scriptedLLM{}))
	code, _ = postTranscribe(t, r, recAllowed.ID)
	if code != http.StatusOK {
		t.Fatalf("minutes_used == quota-1 must proceed, got %d", code)
	}
}

// --- identity gates ---------------------------------------------------

func TestTranscribe_NotFoundAndNotOwner(t *testing.T) {
	db := openTestDB(t)
	owner := createProfile(t, db, models.TierPro, 0, 600)
	other := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, owner.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 60)

	r := newTestRouter(db, other.ID.String(), newPipeline(&scriptedLLM{}))

	code, _ := postTranscribe(t, r, uuid.New())
	if code != http.StatusNotFound {
		t.Errorf("unknown recording must 404, got %d", code)
	}

	code, _ = postTranscribe(t, r, rec.ID)
	if code != http.StatusForbidden {
		t.Errorf("someone else's recording must 403, got %d", code)
	}
}

func TestTranscribe_RepeatInvocationConflicts(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 60)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))

	code, _ := postTranscribe(t, r, rec.ID)
	if code != http.StatusOK {
		t.Fatalf("first run should complete, got %d", code)
	}

	// The recording is no longer queued; a client retry must not rerun
	// the pipeline.
	code, _ = postTranscribe(t, r, rec.ID)
	if code != http.StatusConflict {
		t.Errorf("second invocation must 409, got %d", code)
	}

	var notes int64
	db.Model(&models.Note{}).Where("recording_id = ?", rec.ID).Count(&notes)
	if notes != 1 {
		t.Errorf("retry must not duplicate notes, found %d", notes)
	}
}

// --- failure semantics ------------------------------------------------

func TestTranscribe_TranscriptionFailureIsFatal(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 60)

	tc := newPipeline(&scriptedLLM{})
	tc.Speech = &fakeSpeech{err: errors.New("vendor down")}
	r := newTestRouter(db, profile.ID.String(), tc)

	code, _ := postTranscribe(t, r, rec.ID)
	if code != http.StatusInternalServerError {
		t.Fatalf("transcription failure must 500, got %d", code)
	}

	got := reloadRecording(t, db, rec.ID)
	if got.Status != models.StatusFailed {
		t.Errorf("fatal error must mark the recording failed, got %s", got.Status)
	}
	if got.Progress != 30 {
		t.Errorf("progress must stay at the last checkpoint (30), got %d", got.Progress)
	}
}

func TestTranscribe_DownloadFailureIsFatal(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 60)

	tc := newPipeline(&scriptedLLM{})
	tc.Storage = &fakeStorage{err: errors.New("object missing")}
	r := newTestRouter(db, profile.ID.String(), tc)

	code, _ := postTranscribe(t, r, rec.ID)
	if code != http.StatusInternalServerError {
		t.Fatalf("download failure must 500, got %d", code)
	}
	got := reloadRecording(t, db, rec.ID)
	if got.Status != models.StatusFailed || got.Progress != 10 {
		t.Errorf("expected failed/10, got %s/%d", got.Status, got.Progress)
	}
}

func TestTranscribe_ExtractionFailureStillCompletes(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 60)

	// Every LLM call fails: cleanup, extraction and title all degrade.
	r := newTestRouter(db, profile.ID.String(), newPipeline(failingLLM{}))
	code, resp := postTranscribe(t, r, rec.ID)
	if code != http.StatusOK {
		t.Fatalf("degradable failures must not abort the run, got %d: %v", code, resp)
	}

	got := reloadRecording(t, db, rec.ID)
	if got.Status != models.StatusCompleted || got.Progress != 100 {
		t.Fatalf("expected completed/100, got %s/%d", got.Status, got.Progress)
	}

	var note models.Note
	if err := db.First(&note, "recording_id = ?", rec.ID).Error; err != nil {
		t.Fatalf("note should exist: %v", err)
	}

	// The note falls back to the raw transcript and the templated title.
	if note.Content != "um so we will ship the launch next week" {
		t.Errorf("content should be the raw transcript, got %q", note.Content)
	}
	if !strings.HasPrefix(note.Title, "Meeting - ") {
		t.Errorf("title should be the templated fallback, got %q", note.Title)
	}

	// The structure document still has every mode-required key.
	var structure map[string]json.RawMessage
	if err := json.Unmarshal(note.Structure, &structure); err != nil {
		t.Fatalf("structure is not JSON: %v", err)
	}
	for _, key := range []string{"summary", "keyPoints", "decisions", "actionItems", "questions"} {
		raw, ok := structure[key]
		if !ok {
			t.Errorf("structure missing key %q", key)
			continue
		}
		if key != "summary" && string(raw) != "[]" {
			t.Errorf("fallback %q should be an empty array, got %s", key, raw)
		}
	}
}

// --- accounting -------------------------------------------------------

func TestTranscribe_MinutesAccounting(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 10, 600)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 125)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))
	code, _ := postTranscribe(t, r, rec.ID)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var got models.Profile
	db.First(&got, "id = ?", profile.ID)
	if got.MinutesUsed != 10+3 {
		t.Errorf("125s must bill ceil(125/60)=3 minutes, got %d used", got.MinutesUsed)
	}

	var usage models.UsageLog
	if err := db.First(&usage, "recording_id = ?", rec.ID).Error; err != nil {
		t.Fatalf("usage log should exist: %v", err)
	}
	if usage.UnitsConsumed != 125 || usage.ResourceType != "transcription" {
		t.Errorf("usage log wrong: %+v", usage)
	}
}

// --- mode branching ---------------------------------------------------

func TestTranscribe_MeetingActionItems(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/a.webm", 1000, 60)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))
	if code, _ := postTranscribe(t, r, rec.ID); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var items []models.ActionItem
	db.Where("recording_id = ?", rec.ID).Order("title").Find(&items)
	if len(items) != 2 {
		t.Fatalf("expected the 2 extracted actionItems, got %d", len(items))
	}
	byTitle := map[string]models.ActionItem{}
	for _, item := range items {
		byTitle[item.Title] = item
	}

	recap, ok := byTitle["Send recap"]
	if !ok {
		t.Fatal("missing 'Send recap' item")
	}
	if recap.Assignee != "Sam" || recap.Priority != models.PriorityHigh {
		t.Errorf("item fields lost: %+v", recap)
	}
	if recap.DueDate == nil || recap.DueDate.Format("2006-01-02") != "2026-09-01" {
		t.Errorf("due date not parsed: %v", recap.DueDate)
	}

	// Unknown priorities collapse to medium.
	if docs := byTitle["Update docs"]; docs.Priority != models.PriorityMedium {
		t.Errorf("unknown priority should become medium, got %s", docs.Priority)
	}

	// Brainstorming next steps must not leak into a meeting run.
	for _, item := range items {
		if item.Type != "meeting" {
			t.Errorf("meeting run produced item of type %q", item.Type)
		}
	}
}

func TestTranscribe_BrainstormingActionItems(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, profile.ID, models.ModeBrainstorming, "audio/u/a.webm", 1000, 60)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))
	if code, _ := postTranscribe(t, r, rec.ID); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var items []models.ActionItem
	db.Where("recording_id = ?", rec.ID).Find(&items)
	if len(items) != 2 {
		t.Fatalf("expected the 2 nextSteps, got %d", len(items))
	}
	titles := map[string]bool{}
	for _, item := range items {
		titles[item.Title] = true
		if item.Type != "brainstorming" {
			t.Errorf("expected type brainstorming, got %q", item.Type)
		}
	}
	if !titles["Sketch the diary screen"] || !titles["Interview five gardeners"] {
		t.Errorf("items should come from nextSteps, got %v", titles)
	}
	// The meeting-side actionItems must not leak in.
	if titles["Send recap"] {
		t.Error("meeting actionItems leaked into a brainstorming run")
	}

	// Brainstorming notes carry the embedding.
	var note models.Note
	if err := db.First(&note, "recording_id = ?", rec.ID).Error; err != nil {
		t.Fatalf("note should exist: %v", err)
	}
	if len(note.Embedding) != 3 {
		t.Errorf("embedding should be attached, got %v", note.Embedding)
	}
}

// --- the full happy path ----------------------------------------------

func TestTranscribe_EndToEndMeeting(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	rec := createRecording(t, db, profile.ID, models.ModeMeeting, "audio/u/sync.webm", 64_000, 90)

	r := newTestRouter(db, profile.ID.String(), newPipeline(&scriptedLLM{}))
	code, resp := postTranscribe(t, r, rec.ID)

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, resp)
	}
	if resp["success"] != true {
		t.Errorf("expected success:true, got %v", resp)
	}
	noteID, ok := resp["noteId"].(string)
	if !ok || noteID == "" {
		t.Fatalf("expected a noteId, got %v", resp["noteId"])
	}

	var transcription models.Transcription
	if err := db.First(&transcription, "recording_id = ?", rec.ID).Error; err != nil {
		t.Fatalf("transcription row should exist: %v", err)
	}
	if transcription.Language != "en" || transcription.WordCount == 0 {
		t.Errorf("transcription metadata wrong: %+v", transcription)
	}
	if len(transcription.Segments) != 1 {
		t.Errorf("segments should survive persistence, got %d", len(transcription.Segments))
	}

	var note models.Note
	if err := db.First(&note, "id = ?", noteID).Error; err != nil {
		t.Fatalf("note should exist: %v", err)
	}
	if note.Title != "Launch Planning Sync" {
		t.Errorf("title wrong: %q", note.Title)
	}
	if note.Slug != "launch-planning-sync" {
		t.Errorf("slug wrong: %q", note.Slug)
	}
	var structure models.MeetingStructure
	if err := json.Unmarshal(note.Structure, &structure); err != nil {
		t.Fatalf("structure is not JSON: %v", err)
	}
	if structure.Summary == "" {
		t.Error("structure.summary must be non-empty")
	}

	var got models.Profile
	db.First(&got, "id = ?", profile.ID)
	if got.MinutesUsed != 2 {
		t.Errorf("90s must bill 2 minutes, got %d", got.MinutesUsed)
	}

	final := reloadRecording(t, db, rec.ID)
	if final.Status != models.StatusCompleted || final.Progress != 100 {
		t.Errorf("expected completed/100, got %s/%d", final.Status, final.Progress)
	}
}
