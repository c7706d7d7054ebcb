package usecase

import (
	"context"
	"fmt"
	"strings"

	"cultura-chat/internal/domain/entity"
	"cultura-chat/internal/logging"

	"github.com/go-playground/validator/v10"
)

type Orchestrator struct {
	responder   *Responder
	recommender *Recommender
	validate    *validator.Validate
}

func NewOrchestrator(responder *Responder, recommender *Recommender) *Orchestrator {
	return &Orchestrator{
		responder:   responder,
		recommender: recommender,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (u *Orchestrator) Execute(ctx context.Context, req entity.ChatRequest) (*entity.ChatResponse, error) {
	// 1. Reject before any upstream traffic
	if err := u.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMessageRequired, err)
	}

	// 2. Generate the conversational reply (never fails, may be the fallback)
	reply := u.responder.Respond(ctx, req.Message, req.History)

	// 3. The raw message doubles as the preference signal
	preferences := strings.ToLower(req.Message)

	resp := &entity.ChatResponse{
		Response: reply.Text,
		Recommendations: entity.Recommendations{
			Entertainment: u.recommender.Lookup(preferences, CategoryEntertainment),
			Dining:        u.recommender.Lookup(preferences, CategoryDining),
		},
		PreferencesDetected: preferences,
	}

	logging.Ctx(ctx).Info().
		Bool("fallback", reply.Fallback).
		Bool("cached", reply.Cached).
		Int("entertainment", len(resp.Recommendations.Entertainment)).
		Int("dining", len(resp.Recommendations.Dining)).
		Msg("chat request processed")

	return resp, nil
}
