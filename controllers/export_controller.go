package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

// ExportNote renders a note as markdown or as an xlsx action-item sheet.
func ExportNote(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	note, ok := loadOwnedNote(c, db)
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "markdown") {
	case "markdown":
		exportMarkdown(c, db, note)
	case "xlsx":
		exportXLSX(c, db, note)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be markdown or xlsx"})
	}
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func exportMarkdown(c *gin.Context, db *gorm.DB, note *models.Note) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", note.Title)
	if note.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", note.Summary)
	}

	switch note.Mode {
	case models.ModeBrainstorming:
		var s models.BrainstormStructure
		if err := json.Unmarshal(note.Structure, &s); err == nil {
			if len(s.CoreIdeas) > 0 {
				b.WriteString("\n## Core ideas\n\n")
				for _, idea := range s.CoreIdeas {
					fmt.Fprintf(&b, "- **%s**: %s\n", idea.Title, idea.Description)
				}
			}
			writeList(&b, "Research questions", s.ResearchQuestions)
			if len(s.NextSteps) > 0 {
				b.WriteString("\n## Next steps\n\n")
				for _, step := range s.NextSteps {
					fmt.Fprintf(&b, "- [%s] %s\n", step.Priority, step.Step)
				}
			}
			writeList(&b, "Obstacles", s.Obstacles)
			writeList(&b, "Creative prompts", s.CreativePrompts)
		}
	default:
		var s models.MeetingStructure
		if err := json.Unmarshal(note.Structure, &s); err == nil {
			writeList(&b, "Key points", s.KeyPoints)
			writeList(&b, "Decisions", s.Decisions)
			if len(s.ActionItems) > 0 {
				b.WriteString("\n## Action items\n\n")
				for _, item := range s.ActionItems {
					line := item.Title
					if item.Assignee != "" {
						line += " (" + item.Assignee + ")"
					}
					fmt.Fprintf(&b, "- [ ] %s\n", line)
				}
			}
			writeList(&b, "Open questions", s.Questions)
		}
	}

	fmt.Fprintf(&b, "\n## Transcript\n\n%s\n", note.Content)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.md", note.Slug))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(b.String()))
}

func exportXLSX(c *gin.Context, db *gorm.DB, note *models.Note) {
	var items []models.ActionItem
	if err := db.Where("note_id = ?", note.ID).Order("created_at ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load action items"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Action Items"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"Title", "Description", "Assignee", "Due date", "Priority", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, item := range items {
		due := ""
		if item.DueDate != nil {
			due = item.DueDate.Format("2006-01-02")
		}
		values := []interface{}{item.Title, item.Description, item.Assignee, due, string(item.Priority), string(item.Status)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", note.Slug))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot write spreadsheet"})
	}
}
