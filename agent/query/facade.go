// Package query is the single entry point for running a customer query
// against the supervisor. Every caller, HTTP or voice, goes through Service.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	"github.com/warinyupa/bankpilot/agent/supervisor"
	bankx "github.com/warinyupa/bankpilot/bank"
)

// Runner abstracts the supervisor loop so tests can script outcomes.
type Runner interface {
	Run(ctx context.Context, rc contractx.RequestContext, query string) (supervisor.Outcome, error)
}

type Service struct {
	store  bankx.Store
	runner Runner
}

func NewService(store bankx.Store, runner Runner) *Service {
	return &Service{store: store, runner: runner}
}

// Query validates the input, builds a fresh request context for this user,
// and runs the supervisor. Each call gets its own context value, so
// concurrent queries for different users cannot bleed into each other.
func (s *Service) Query(ctx context.Context, userID int64, text string) (contractx.QueryResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return contractx.QueryResponse{}, fmt.Errorf("%w: query text is required", contractx.ErrValidation)
	}
	if userID <= 0 {
		return contractx.QueryResponse{}, fmt.Errorf("%w: user id is required", contractx.ErrValidation)
	}

	rc := contractx.RequestContext{UserID: userID, Store: s.store}

	outcome, err := s.runner.Run(ctx, rc, text)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("query failed")
		return contractx.QueryResponse{}, err
	}

	resp := contractx.QueryResponse{
		Response:   outcome.Answer,
		Sources:    outcome.Sources,
		ToolsUsed:  outcome.ToolsUsed,
		Confidence: confidence(outcome.Sources),
	}
	if resp.Sources == nil {
		resp.Sources = []contractx.ToolResult{}
	}
	if resp.ToolsUsed == nil {
		resp.ToolsUsed = []string{}
	}

	log.Info().
		Int64("user_id", userID).
		Int("iterations", outcome.Iterations).
		Strs("tools_used", resp.ToolsUsed).
		Float64("confidence", resp.Confidence).
		Msg("query answered")
	return resp, nil
}

// confidence scores the answer by its tool evidence: 0.3 with none, rising
// with the fraction of successful tool calls up to 0.95.
func confidence(sources []contractx.ToolResult) float64 {
	if len(sources) == 0 {
		return 0.3
	}
	successes := 0
	for _, src := range sources {
		if src.Success {
			successes++
		}
	}
	return 0.3 + 0.65*float64(successes)/float64(len(sources))
}
