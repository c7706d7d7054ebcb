package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cultura-chat/internal/domain/entity"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient builds a client for the chat completions API. An empty
// baseURL keeps the SDK default; an empty apiKey lets the SDK read
// OPENAI_API_KEY itself.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{
		// Upstream failures go straight to the fallback reply.
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

func (o *OpenAIClient) Complete(ctx context.Context, req entity.CompletionRequest) (*entity.Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return nil, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, entity.ErrEmptyCompletion
	}

	return &entity.Completion{
		Content:    resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokenCount: int(resp.Usage.TotalTokens),
	}, nil
}

func toChatMessageParam(msg entity.ConversationTurn) (openai.ChatCompletionMessageParamUnion, error) {
	switch entity.Role(strings.ToLower(strings.TrimSpace(string(msg.Role)))) {
	case entity.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case entity.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case entity.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: %q", entity.ErrUnsupportedRole, msg.Role)
	}
}
