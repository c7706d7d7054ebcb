package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cultura-chat/internal/domain/entity"

	"github.com/goccy/go-json"
)

type stubProvider struct {
	mu      sync.Mutex
	resp    *entity.Completion
	err     error
	panicV  any
	calls   int
	gotReq  entity.CompletionRequest
	gotDead bool
}

func (s *stubProvider) Complete(ctx context.Context, req entity.CompletionRequest) (*entity.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotReq = req
	_, s.gotDead = ctx.Deadline()
	if s.panicV != nil {
		panic(s.panicV)
	}
	return s.resp, s.err
}

type stubCache struct {
	entries map[string]string
	getErr  error
	setErr  error
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]string{}}
}

func (c *stubCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *stubCache) Set(ctx context.Context, key, reply string) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = reply
	return nil
}

func testResponderConfig() ResponderConfig {
	return ResponderConfig{Model: "test-model", MaxTokens: 500, Temperature: 0.7}
}

func turns(n int) []entity.ConversationTurn {
	out := make([]entity.ConversationTurn, 0, n)
	for i := 0; i < n; i++ {
		role := entity.RoleUser
		if i%2 == 1 {
			role = entity.RoleAssistant
		}
		out = append(out, entity.ConversationTurn{Role: role, Content: fmt.Sprintf("turn-%d", i)})
	}
	return out
}

// rawTurns is turns(n) as the JSON a client would send.
func rawTurns(t *testing.T, n int) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(turns(n))
	if err != nil {
		t.Fatalf("marshal history: %v", err)
	}
	return raw
}

func TestBuildMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		history     int
		wantHistory []string
	}{
		{name: "no history", history: 0, wantHistory: nil},
		{name: "short history kept", history: 3, wantHistory: []string{"turn-0", "turn-1", "turn-2"}},
		{name: "exactly window", history: 5, wantHistory: []string{"turn-0", "turn-1", "turn-2", "turn-3", "turn-4"}},
		{name: "older turns dropped", history: 8, wantHistory: []string{"turn-3", "turn-4", "turn-5", "turn-6", "turn-7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msgs := buildMessages("hello", turns(tt.history))

			if len(msgs) != len(tt.wantHistory)+2 {
				t.Fatalf("expected %d messages, got %d", len(tt.wantHistory)+2, len(msgs))
			}
			if msgs[0].Role != entity.RoleSystem || msgs[0].Content != systemInstruction {
				t.Errorf("first message should be the system instruction, got %+v", msgs[0])
			}
			last := msgs[len(msgs)-1]
			if last.Role != entity.RoleUser || last.Content != "hello" {
				t.Errorf("last message should be the user turn, got %+v", last)
			}
			for i, want := range tt.wantHistory {
				if got := msgs[i+1].Content; got != want {
					t.Errorf("history[%d] = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestResponder_Success(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{resp: &entity.Completion{Content: "Try Bon Iver.", Model: "test-model"}}
	r := NewResponder(provider, testResponderConfig())

	reply := r.Respond(context.Background(), "something cozy", rawTurns(t, 2))

	if reply.Text != "Try Bon Iver." {
		t.Errorf("Text = %q, want verbatim upstream text", reply.Text)
	}
	if reply.Fallback || reply.Err != nil {
		t.Errorf("unexpected fallback: %+v", reply)
	}
	if provider.gotReq.Model != "test-model" || provider.gotReq.MaxTokens != 500 || provider.gotReq.Temperature != 0.7 {
		t.Errorf("unexpected upstream parameters: %+v", provider.gotReq)
	}
	if len(provider.gotReq.Messages) != 4 {
		t.Errorf("expected 4 messages upstream, got %d", len(provider.gotReq.Messages))
	}
	if provider.gotDead {
		t.Error("no deadline expected when timeout is zero")
	}
}

func TestResponder_FallbackOnFailure(t *testing.T) {
	t.Parallel()

	upstreamErr := errors.New("connection refused")
	tests := []struct {
		name     string
		provider *stubProvider
		wantErr  error
	}{
		{name: "transport error", provider: &stubProvider{err: upstreamErr}, wantErr: upstreamErr},
		{name: "nil completion", provider: &stubProvider{}, wantErr: entity.ErrEmptyCompletion},
		{name: "provider panic", provider: &stubProvider{panicV: "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reply := NewResponder(tt.provider, testResponderConfig()).Respond(context.Background(), "hi", nil)

			if reply.Text != FallbackReply {
				t.Errorf("Text = %q, want fallback", reply.Text)
			}
			if !reply.Fallback {
				t.Error("Fallback flag not set")
			}
			if reply.Err == nil {
				t.Fatal("expected the cause to be kept on the reply")
			}
			if tt.wantErr != nil && !errors.Is(reply.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", reply.Err, tt.wantErr)
			}
		})
	}
}

func TestResponder_MalformedHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history string
	}{
		{name: "string instead of list", history: `"oops"`},
		{name: "list of strings", history: `["x"]`},
		{name: "non-string content", history: `[{"role":"user","content":5}]`},
		{name: "object instead of list", history: `{"role":"user"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider := &stubProvider{resp: &entity.Completion{Content: "unused"}}
			reply := NewResponder(provider, testResponderConfig()).
				Respond(context.Background(), "cozy", json.RawMessage(tt.history))

			if reply.Text != FallbackReply || !reply.Fallback {
				t.Errorf("expected fallback reply, got %+v", reply)
			}
			if !errors.Is(reply.Err, entity.ErrMalformedHistory) {
				t.Errorf("Err = %v, want ErrMalformedHistory", reply.Err)
			}
			if provider.calls != 0 {
				t.Error("provider must not be called with an undecodable history")
			}
		})
	}
}

func TestResponder_NullHistory(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{resp: &entity.Completion{Content: "ok"}}
	reply := NewResponder(provider, testResponderConfig()).
		Respond(context.Background(), "cozy", json.RawMessage("null"))

	if reply.Fallback || reply.Text != "ok" {
		t.Errorf("null history should be treated as empty: %+v", reply)
	}
	if len(provider.gotReq.Messages) != 2 {
		t.Errorf("expected system + user upstream, got %d", len(provider.gotReq.Messages))
	}
}

func TestResponder_FallbackSentence(t *testing.T) {
	t.Parallel()

	want := "I'm having trouble processing your request right now. Could you try rephrasing your interests?"
	if FallbackReply != want {
		t.Errorf("FallbackReply = %q", FallbackReply)
	}
}

func TestResponder_Timeout(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{resp: &entity.Completion{Content: "ok"}}
	cfg := testResponderConfig()
	cfg.Timeout = time.Second

	NewResponder(provider, cfg).Respond(context.Background(), "hi", nil)
	if !provider.gotDead {
		t.Error("expected a deadline on the upstream context")
	}
}

func TestResponder_Cache(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{resp: &entity.Completion{Content: "fresh"}}
	cache := newStubCache()
	r := NewResponder(provider, testResponderConfig()).WithCache(cache)

	first := r.Respond(context.Background(), "indie", nil)
	if first.Cached || first.Text != "fresh" {
		t.Fatalf("first reply should come from the provider: %+v", first)
	}

	second := r.Respond(context.Background(), "indie", nil)
	if !second.Cached || second.Text != "fresh" {
		t.Errorf("second reply should be a cache hit: %+v", second)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}

	// Different history means a different upstream request.
	r.Respond(context.Background(), "indie", rawTurns(t, 1))
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestResponder_FallbackNotCached(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{err: errors.New("503 overloaded")}
	cache := newStubCache()
	r := NewResponder(provider, testResponderConfig()).WithCache(cache)

	r.Respond(context.Background(), "cozy", nil)
	if cache.sets != 0 {
		t.Errorf("fallback reply was stored in cache")
	}
}

func TestResponder_CacheErrorsIgnored(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{resp: &entity.Completion{Content: "still works"}}
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	r := NewResponder(provider, testResponderConfig()).WithCache(cache)

	reply := r.Respond(context.Background(), "cozy", nil)
	if reply.Text != "still works" || reply.Fallback {
		t.Errorf("cache failure should not affect the reply: %+v", reply)
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	a := entity.CompletionRequest{Model: "m", Messages: buildMessages("x", nil), MaxTokens: 500, Temperature: 0.7}
	b := a
	b.Model = "other"

	if cacheKey(a) != cacheKey(a) {
		t.Error("cacheKey is not stable")
	}
	if cacheKey(a) == cacheKey(b) {
		t.Error("different models must produce different keys")
	}
	if len(cacheKey(a)) != 64 {
		t.Errorf("expected hex sha256, got %q", cacheKey(a))
	}
}
