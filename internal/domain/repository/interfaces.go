package repository

import (
	"context"

	"cultura-chat/internal/domain/entity"
)

// ChatProvider is an upstream chat-completion service.
type ChatProvider interface {
	Complete(ctx context.Context, req entity.CompletionRequest) (*entity.Completion, error)
}

// ReplyCache stores generated replies keyed by the assembled upstream request.
// A miss is reported as ok == false with a nil error.
type ReplyCache interface {
	Get(ctx context.Context, key string) (reply string, ok bool, err error)
	Set(ctx context.Context, key, reply string) error
}
