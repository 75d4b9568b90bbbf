package services

import (
	"context"
	"fmt"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

func DefaultBrainstormStructure(cleanedText string) models.BrainstormStructure {
	s := models.BrainstormStructure{Summary: FirstChars(cleanedText, 300)}
	s.Normalize()
	return s
}

// ExtractBrainstormStructure runs the multi-field brainstorming extraction.
// Any failure yields the minimal structure (all arrays empty, summary =
// first 300 chars) so the pipeline never aborts here.
func ExtractBrainstormStructure(ctx context.Context, llm TextGenerator, cleanedText string) (models.BrainstormStructure, error) {
	prompt := fmt.Sprintf(`You analyze brainstorming sessions. Return ONLY a JSON object, no markdown fences, with exactly these keys:
{
  "summary": "2-3 sentence overview of the session",
  "coreIdeas": [{"title": "...", "description": "...", "connections": ["related idea titles"]}],
  "expansionOpportunities": [{"ideaTitle": "...", "directions": ["..."]}],
  "researchQuestions": ["..."],
  "nextSteps": [{"step": "...", "priority": "low|medium|high|urgent"}],
  "obstacles": ["..."],
  "creativePrompts": ["..."]
}
Use empty arrays when a category has no entries. Session transcript:

%s`, cleanedText)

	def := DefaultBrainstormStructure(cleanedText)

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
