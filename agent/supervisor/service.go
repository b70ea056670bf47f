// Package supervisor runs the plan/execute loop for one banking query: ask
// the planner, run the requested tools, feed results back, repeat until the
// planner answers or the iteration bound trips.
package supervisor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	toolx "github.com/warinyupa/bankpilot/agent/tool"
)

const DefaultMaxIterations = 8

type Supervisor struct {
	registry      *toolx.Registry
	planner       contractx.Planner
	maxIterations int
}

// Outcome is what one supervisor run produced: the answer plus the ordered
// evidence trail behind it.
type Outcome struct {
	Answer     string
	Sources    []contractx.ToolResult
	ToolsUsed  []string
	Iterations int
}

func New(registry *toolx.Registry, planner contractx.Planner, maxIterations int) *Supervisor {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Supervisor{
		registry:      registry,
		planner:       planner,
		maxIterations: maxIterations,
	}
}

// Run drives the loop for one query. Tool results, successful or not, are
// appended in execution order; the conversation state lives entirely in the
// local turns slice and dies with the call.
func (s *Supervisor) Run(ctx context.Context, rc contractx.RequestContext, query string) (Outcome, error) {
	if err := rc.Valid(); err != nil {
		return Outcome{}, err
	}

	turns := []contractx.Turn{{Role: contractx.RoleUser, Content: query}}
	outcome := Outcome{}

	for iteration := 1; iteration <= s.maxIterations; iteration++ {
		// Cancellation is honored between iterations, never mid tool batch,
		// so every executed tool call stays fully applied.
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		outcome.Iterations = iteration

		action, err := s.planner.Plan(ctx, turns)
		if err != nil {
			return Outcome{}, err
		}

		if action.IsFinal() {
			log.Debug().
				Int64("user_id", rc.UserID).
				Int("iterations", iteration).
				Int("tools_used", len(outcome.ToolsUsed)).
				Msg("supervisor finished")
			outcome.Answer = action.Final
			return outcome, nil
		}

		turns = append(turns, contractx.Turn{
			Role:      contractx.RoleAssistant,
			ToolCalls: action.ToolCalls,
		})

		for _, call := range action.ToolCalls {
			spec, err := s.registry.Resolve(call.Name)
			if err != nil {
				return Outcome{}, err
			}

			result, err := spec.Handler(ctx, rc, call.Args)
			if err != nil {
				return Outcome{}, err
			}

			if !result.Success {
				log.Debug().
					Int64("user_id", rc.UserID).
					Str("tool", call.Name).
					Str("reason", result.Error).
					Msg("tool rejected request")
			}

			outcome.Sources = append(outcome.Sources, result)
			outcome.ToolsUsed = append(outcome.ToolsUsed, call.Name)
			turns = append(turns, contractx.Turn{
				Role:       contractx.RoleTool,
				Content:    result.Text(),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	return Outcome{}, fmt.Errorf("%w: no final answer after %d iterations", contractx.ErrIterationLimit, s.maxIterations)
}
