package entity

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// RecommendationRecord is one literal entry of the static catalogue.
type RecommendationRecord struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message of a chat exchange. History turns are
// supplied by the caller on every request and never stored.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	// History stays raw until the upstream call so that a badly shaped
	// history only costs the model reply, not the whole request.
	History json.RawMessage `json:"history"`
}

// DecodeHistory parses client-supplied history turns. Absent or null history
// is empty. Unknown fields on a turn are ignored.
func DecodeHistory(raw json.RawMessage) ([]ConversationTurn, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var turns []ConversationTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHistory, err)
	}
	return turns, nil
}

type Recommendations struct {
	Entertainment []RecommendationRecord `json:"entertainment"`
	Dining        []RecommendationRecord `json:"dining"`
}

type ChatResponse struct {
	Response            string          `json:"response"`
	Recommendations     Recommendations `json:"recommendations"`
	PreferencesDetected string          `json:"preferences_detected"`
}

// CompletionRequest is what gets sent upstream: the fully assembled message
// list plus sampling parameters.
type CompletionRequest struct {
	Model       string             `json:"model"`
	Messages    []ConversationTurn `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type Completion struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	TokenCount int    `json:"token_count"`
}
