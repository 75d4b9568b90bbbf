package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

const maxTitleLength = 80

// FallbackTitle is the templated default used whenever title generation
// fails or returns something unusable.
func FallbackTitle(mode models.RecordingMode) string {
	kind := "Meeting"
	if mode == models.ModeBrainstorming {
		kind = "Brainstorm"
	}
	return fmt.Sprintf("%s - %s", kind, time.Now().Format("Jan 2, 2006"))
}

// GenerateNoteTitle asks the LLM for a short descriptive title from the first
// 500 chars of the cleaned transcript. Surrounding quotes are stripped; empty
// or over-long results fall back to the template.
func GenerateNoteTitle(ctx context.Context, llm TextGenerator, cleanedText string, mode models.RecordingMode) string {
	excerpt := FirstChars(cleanedText, 500)

	prompt := fmt.Sprintf(`Write a short descriptive title (at most 8 words) for this %s transcript.
	Return only the title, no quotes, no punctuation decoration.
	Transcript excerpt:

%s`, string(mode), excerpt)

	raw, err := llm.GenerateText(ctx, prompt, 64)
	if err != nil {
		return FallbackTitle(mode)
	}

	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`+"`")
	title = strings.TrimSpace(title)

	if title == "" || len([]rune(title)) > maxTitleLength {
		return FallbackTitle(mode)
	}
	return title
}
