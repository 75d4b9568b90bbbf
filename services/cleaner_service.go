package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

// Transcript cleanup: a cheap regex pass first, then a style-aware LLM pass.
// Cleanup must never fail the pipeline, so the LLM step degrades to the raw
// transcript on any error.

var (
	reFillers      = regexp.MustCompile(`(?i)\b(um+|uh+|erm*|ah+|hmm+|you know|i mean|sort of|kind of|like,)\s*`)
	reRepeatedWS   = regexp.MustCompile(`[ \t]{2,}`)
	reMultiNewLine = regexp.MustCompile(`\n{3,}`)
)

// PreCleanTranscript strips filler words and collapses whitespace before the
// text ever reaches a paid LLM call.
func PreCleanTranscript(text string) string {
	cleaned := reFillers.ReplaceAllString(text, "")
	cleaned = reRepeatedWS.ReplaceAllString(cleaned, " ")
	cleaned = reMultiNewLine.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func styleOrDefault(style models.WritingStyle) models.WritingStyle {
	if style.Tone == "" {
		style.Tone = "professional"
	}
	if style.Formality == "" {
		style.Formality = "balanced"
	}
	if style.Verbosity == "" {
		style.Verbosity = "balanced"
	}
	return style
}

// CleanTranscript returns the cleaned transcript, or the raw one when the
// LLM call fails for any reason. The error is returned for logging only.
func CleanTranscript(ctx context.Context, llm TextGenerator, rawText string, style models.WritingStyle) (string, error) {
	preCleaned := PreCleanTranscript(rawText)
	style = styleOrDefault(style)

	prompt := fmt.Sprintf(`You are a transcript editor. Clean up the following spoken transcript:
	- Remove remaining filler words, false starts and verbal tics
	- Fix obvious transcription mistakes using context
	- Organize the text into readable paragraphs
	- Keep the speaker's meaning, do not add or remove content
	- Tone: %s. Formality: %s. Verbosity: %s.
	- Return plain text only, no markdown, no commentary
	Transcript:

%s`, style.Tone, style.Formality, style.Verbosity, preCleaned)

	cleaned, err := llm.GenerateText(ctx, prompt, 8192)
	if err != nil {
		return rawText, err
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return rawText, fmt.Errorf("cleaner returned empty text")
	}
	return cleaned, nil
}
