package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

// LLMs wrap JSON in markdown fences or chat filler more often than not.
// StripCodeFences pulls out the JSON object so the parser gets a fair chance.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	// Last resort: take the outermost {...} span.
	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// ParseOrDefault is the single parse-or-fallback point for every extractor
// variant: each supplies only its default value.
func ParseOrDefault[T any](raw string, def T) T {
	var out T
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &out); err != nil {
		return def
	}
	return out
}

// FirstChars truncates on rune boundaries; used for default summaries.
func FirstChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func DefaultMeetingStructure(cleanedText string) models.MeetingStructure {
	s := models.MeetingStructure{Summary: FirstChars(cleanedText, 300)}
	s.Normalize()
	return s
}

// ExtractMeetingStructure prompts for the meeting JSON document. A parse
// failure keeps the pre-seeded default and the pipeline carries on; the error
// is for logging only.
func ExtractMeetingStructure(ctx context.Context, llm TextGenerator, cleanedText string) (models.MeetingStructure, error) {
	prompt := fmt.Sprintf(`Analyze this meeting transcript and return ONLY a JSON object, no markdown fences, with exactly these keys:
{
  "summary": "2-3 sentence overview",
  "keyPoints": ["..."],
  "decisions": ["..."],
  "actionItems": [{"title": "...", "description": "...", "assignee": "", "dueDate": "", "priority": "low|medium|high|urgent"}],
  "questions": ["..."]
}
Use empty arrays when a category has no entries. Transcript:

%s`, cleanedText)

	def := DefaultMeetingStructure(cleanedText)

	raw, err := llm.GenerateText(ctx, prompt, 4096)
	if err != nil {
		return def, err
	}

	structure := ParseOrDefault(raw, def)
	if structure.Summary == "" {
		structure.Summary = def.Summary
	}
	structure.Normalize()
	return structure, nil
}
