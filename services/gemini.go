package services

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/fifthdraft/fifthdraft-backend/config"
)

// TextGenerator is the chat-completion surface the pipeline depends on.
// Tests swap in fakes.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int32) (string, error)
}

// Embedder produces the semantic vector attached to brainstorming notes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiClient implements both against the Gemini API.
type GeminiClient struct {
	cfg config.AppConfig
}

func NewGeminiClient(cfg config.AppConfig) *GeminiClient {
	return &GeminiClient{cfg: cfg}
}

func (g *GeminiClient) GenerateText(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.GeminiAPIKey))
	if err != nil {
		return "", fmt.Errorf("cannot create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.cfg.GeminiModel)
	if maxTokens > 0 {
		model.SetMaxOutputTokens(maxTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no usable candidate")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("cannot create gemini client: %w", err)
	}
	defer client.Close()

	em := client.EmbeddingModel(g.cfg.EmbeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return res.Embedding.Values, nil
}
