package contract

import "context"

// Planner decides the next action given the conversation so far. The
// production implementation is one LLM function-calling round; tests swap in
// scripted planners without touching the supervisor loop.
type Planner interface {
	Plan(ctx context.Context, turns []Turn) (Action, error)
}
