package contract

import (
	bankx "github.com/warinyupa/bankpilot/bank"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// RequestContext carries the acting user and persistence handle for one
// inbound query. It is built once by the query facade and threaded explicitly
// through the supervisor into every tool handler; nothing process-wide holds
// it, so concurrent queries never observe each other's context.
type RequestContext struct {
	UserID int64
	Store  bankx.Store
}

func (rc RequestContext) Valid() error {
	if rc.UserID <= 0 {
		return ErrContextNotSet
	}
	if rc.Store == nil {
		return ErrContextNotSet
	}
	return nil
}

// Turn is one entry of the conversation accumulated within a single
// supervisor invocation. The sequence is discarded when the invocation
// returns; no turn survives across queries.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// ToolCall is one tool request emitted by the planner.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Action is the planner's next-step decision: either a final answer or one
// or more tool calls, never both.
type Action struct {
	Final     string     `json:"final,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

func (a Action) IsFinal() bool {
	return len(a.ToolCalls) == 0
}

// ToolResult records one tool execution. Business-level failures set
// Success=false with a human-readable Error; they are shown to the planner
// as a turn instead of aborting the query.
type ToolResult struct {
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args,omitempty"`
	Output  string         `json:"output,omitempty"`
	Data    any            `json:"data,omitempty"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
}

// Text returns the content fed back to the planner for this result.
func (r ToolResult) Text() string {
	if !r.Success {
		return "Tool failed: " + r.Error
	}
	return r.Output
}

// QueryResponse is the envelope the facade hands back to every caller,
// HTTP route and voice bridge alike.
type QueryResponse struct {
	Response   string       `json:"response"`
	Sources    []ToolResult `json:"sources"`
	Confidence float64      `json:"confidence"`
	ToolsUsed  []string     `json:"tools_used"`
}
