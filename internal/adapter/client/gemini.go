package client

import (
	"context"
	"fmt"
	"strings"

	"cultura-chat/internal/domain/entity"

	"google.golang.org/genai"
)

type modelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiClient struct {
	models modelsClient
}

// NewGeminiClient uses Vertex AI when projectID is set and the Gemini API
// with apiKey otherwise.
func NewGeminiClient(ctx context.Context, apiKey, projectID, location string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if projectID != "" {
		cfg = &genai.ClientConfig{
			Project:  projectID,
			Location: location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return NewGeminiClientFromClient(client), nil
}

func NewGeminiClientFromClient(c *genai.Client) *GeminiClient {
	return &GeminiClient{models: c.Models}
}

func (g *GeminiClient) Complete(ctx context.Context, req entity.CompletionRequest) (*entity.Completion, error) {
	contents, system, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	result, err := g.models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, entity.ErrEmptyCompletion
	}

	tokens := 0
	if result.UsageMetadata != nil {
		tokens = int(result.UsageMetadata.TotalTokenCount)
	}

	return &entity.Completion{
		Content:    result.Text(),
		Model:      req.Model,
		TokenCount: tokens,
	}, nil
}

// toContents splits system turns into a single system instruction, as
// Gemini has no system role inside the conversation.
func toContents(turns []entity.ConversationTurn) ([]*genai.Content, *genai.Content, error) {
	contents := make([]*genai.Content, 0, len(turns))
	var systemParts []*genai.Part

	for _, turn := range turns {
		switch entity.Role(strings.ToLower(strings.TrimSpace(string(turn.Role)))) {
		case entity.RoleSystem:
			systemParts = append(systemParts, &genai.Part{Text: turn.Content})
		case entity.RoleUser:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleUser))
		case entity.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleModel))
		default:
			return nil, nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedRole, turn.Role)
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return contents, system, nil
}
