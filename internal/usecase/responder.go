package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cultura-chat/internal/domain/entity"
	"cultura-chat/internal/domain/repository"
	"cultura-chat/internal/logging"

	"github.com/goccy/go-json"
)

const (
	FallbackReply = "I'm having trouble processing your request right now. Could you try rephrasing your interests?"

	// historyWindow is how many trailing history turns reach the model.
	historyWindow = 5

	systemInstruction = `You are Cultura, an AI cultural discovery assistant. Your job is to:
1. Understand user preferences from their messages
2. Extract key taste indicators (genres, moods, styles, etc.)
3. Provide personalized cultural recommendations across entertainment and dining
4. Be conversational and friendly
5. Ask follow-up questions to better understand preferences

When a user describes their interests, extract keywords and themes, then provide specific recommendations with brief explanations of why they might enjoy them.`
)

type ResponderConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // zero leaves the upstream call unbounded
}

// Reply is the outcome of a Respond call. Text is always usable; when the
// upstream call failed Fallback is set and Err carries the cause.
type Reply struct {
	Text     string
	Fallback bool
	Cached   bool
	Err      error
}

type Responder struct {
	provider repository.ChatProvider
	cache    repository.ReplyCache
	cfg      ResponderConfig
}

func NewResponder(provider repository.ChatProvider, cfg ResponderConfig) *Responder {
	return &Responder{provider: provider, cfg: cfg}
}

// WithCache enables the reply cache. A nil cache disables it.
func (r *Responder) WithCache(cache repository.ReplyCache) *Responder {
	r.cache = cache
	return r
}

// Respond never fails. A history that cannot be decoded, an upstream error
// and a panicking provider all yield the fallback reply.
func (r *Responder) Respond(ctx context.Context, userMessage string, rawHistory json.RawMessage) (reply Reply) {
	defer func() {
		if p := recover(); p != nil {
			reply = r.fallback(ctx, fmt.Errorf("chat provider panicked: %v", p))
		}
	}()

	history, err := entity.DecodeHistory(rawHistory)
	if err != nil {
		return r.fallback(ctx, err)
	}

	req := entity.CompletionRequest{
		Model:       r.cfg.Model,
		Messages:    buildMessages(userMessage, history),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}

	key := ""
	if r.cache != nil {
		key = cacheKey(req)
		if text, ok := r.cachedReply(ctx, key); ok {
			return Reply{Text: text, Cached: true}
		}
	}

	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	resp, err := r.provider.Complete(callCtx, req)
	if err != nil {
		return r.fallback(ctx, err)
	}
	if resp == nil {
		return r.fallback(ctx, entity.ErrEmptyCompletion)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, resp.Content); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to store reply in cache")
		}
	}

	logging.Ctx(ctx).Debug().
		Str("model", resp.Model).
		Int("token_count", resp.TokenCount).
		Msg("upstream reply generated")

	return Reply{Text: resp.Content}
}

func (r *Responder) cachedReply(ctx context.Context, key string) (string, bool) {
	text, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("reply cache lookup failed")
		return "", false
	}
	return text, ok
}

func (r *Responder) fallback(ctx context.Context, err error) Reply {
	logging.Ctx(ctx).Error().Err(err).Str("model", r.cfg.Model).Msg("chat completion failed, using fallback reply")
	return Reply{Text: FallbackReply, Fallback: true, Err: err}
}

// buildMessages lays out the system instruction, the trailing history window
// and the new user turn.
func buildMessages(userMessage string, history []entity.ConversationTurn) []entity.ConversationTurn {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]entity.ConversationTurn, 0, len(history)+2)
	messages = append(messages, entity.ConversationTurn{Role: entity.RoleSystem, Content: systemInstruction})
	messages = append(messages, history...)
	messages = append(messages, entity.ConversationTurn{Role: entity.RoleUser, Content: userMessage})
	return messages
}

func cacheKey(req entity.CompletionRequest) string {
	raw, err := json.Marshal(req)
	if err != nil {
		// CompletionRequest only holds strings and numbers.
		raw = []byte(fmt.Sprintf("%#v", req))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
