package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

func newNotesRouter(db *gorm.DB, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("db", db)
		c.Set("user_id", userID)
		c.Next()
	})
	r.GET("/api/notes", GetNotes)
	r.GET("/api/notes/:id", GetNoteDetail)
	r.PUT("/api/notes/:id", UpdateNote)
	r.DELETE("/api/notes/:id", DeleteNote)
	r.GET("/api/notes/:id/export", ExportNote)
	return r
}

func createNote(t *testing.T, db *gorm.DB, userID uuid.UUID, title string, mode models.RecordingMode, structure string) models.Note {
	t.Helper()
	rec := createRecording(t, db, userID, mode, "audio/u/n.webm", 1000, 60)
	note := models.Note{
		ID:          uuid.New(),
		UserID:      userID,
		RecordingID: rec.ID,
		Title:       title,
		Slug:        "old-slug",
		Content:     "the transcript body",
		Summary:     "a short summary",
		Mode:        mode,
		Structure:   json.RawMessage(structure),
	}
	if err := db.Create(&note).Error; err != nil {
		t.Fatalf("cannot create note: %v", err)
	}
	return note
}

func TestUpdateNote_TitleRegeneratesSlug(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	note := createNote(t, db, profile.ID, "Old Title", models.ModeMeeting, `{"summary":"x"}`)

	r := newNotesRouter(db, profile.ID.String())
	body, _ := json.Marshal(gin.H{"title": "Q3 Budget Review"})
	req := httptest.NewRequest(http.MethodPut, "/api/notes/"+note.ID.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.Note
	db.First(&got, "id = ?", note.ID)
	if got.Title != "Q3 Budget Review" || got.Slug != "q3-budget-review" {
		t.Errorf("title/slug wrong: %q / %q", got.Title, got.Slug)
	}
}

func TestUpdateNote_RejectsInvalidStructure(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	note := createNote(t, db, profile.ID, "Note", models.ModeMeeting, `{"summary":"x"}`)

	r := newNotesRouter(db, profile.ID.String())
	req := httptest.NewRequest(http.MethodPut, "/api/notes/"+note.ID.String(),
		strings.NewReader(`{"structure": "{not json"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// "{not json" binds as a JSON string, which is valid JSON; a truly
	// broken document fails at bind time.
	if w.Code != http.StatusOK {
		t.Fatalf("string structure should bind, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/notes/"+note.ID.String(),
		strings.NewReader(`{"structure": {broken}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("broken structure payload must 400, got %d", w.Code)
	}
}

func TestNoteOwnership(t *testing.T) {
	db := openTestDB(t)
	owner := createProfile(t, db, models.TierPro, 0, 600)
	intruder := createProfile(t, db, models.TierPro, 0, 600)
	note := createNote(t, db, owner.ID, "Private", models.ModeMeeting, `{"summary":"x"}`)

	r := newNotesRouter(db, intruder.ID.String())
	req := httptest.NewRequest(http.MethodGet, "/api/notes/"+note.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("other user's note must 403, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/notes/"+note.ID.String(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("other user must not delete, got %d", w.Code)
	}
	var count int64
	db.Model(&models.Note{}).Where("id = ?", note.ID).Count(&count)
	if count != 1 {
		t.Error("note must survive a forbidden delete")
	}
}

func TestGetNotes_ModeFilterAndPagination(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	for i := 0; i < 3; i++ {
		createNote(t, db, profile.ID, "Meeting note", models.ModeMeeting, `{"summary":"m"}`)
	}
	createNote(t, db, profile.ID, "Idea dump", models.ModeBrainstorming, `{"summary":"b"}`)

	r := newNotesRouter(db, profile.ID.String())
	req := httptest.NewRequest(http.MethodGet, "/api/notes?mode=meeting&limit=2&page=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data  []models.Note `json:"data"`
		Total int64         `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("mode filter should count 3 meeting notes, got %d", resp.Total)
	}
	if len(resp.Data) != 2 {
		t.Errorf("limit=2 should cap the page, got %d rows", len(resp.Data))
	}
}

func TestExportNote_Markdown(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	structure := `{"summary":"Launch sync.","keyPoints":["ship tuesday"],"decisions":[],"actionItems":[{"title":"Send recap","assignee":"Sam"}],"questions":[]}`
	note := createNote(t, db, profile.ID, "Launch Sync", models.ModeMeeting, structure)

	r := newNotesRouter(db, profile.ID.String())
	req := httptest.NewRequest(http.MethodGet, "/api/notes/"+note.ID.String()+"/export?format=markdown", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	md := w.Body.String()
	for _, want := range []string{
		"# Launch Sync",
		"## Key points",
		"- ship tuesday",
		"- [ ] Send recap (Sam)",
		"## Transcript",
		"the transcript body",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Decisions") {
		t.Error("empty sections must be omitted")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".md") {
		t.Errorf("missing markdown attachment header, got %q", cd)
	}
}

func TestExportNote_UnknownFormat(t *testing.T) {
	db := openTestDB(t)
	profile := createProfile(t, db, models.TierPro, 0, 600)
	note := createNote(t, db, profile.ID, "Note", models.ModeMeeting, `{"summary":"x"}`)

	r := newNotesRouter(db, profile.ID.String())
	req := httptest.NewRequest(http.MethodGet, "/api/notes/"+note.ID.String()+"/export?format=pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown format must 400, got %d", w.Code)
	}
}
