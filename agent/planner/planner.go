// Package planner decides the next supervisor step by asking a tool-calling
// chat model. The model either answers directly or requests one or more tool
// invocations.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
)

type LLMPlanner struct {
	runner       compose.Runnable[[]*schema.Message, *schema.Message]
	systemPrompt string
}

var _ contractx.Planner = (*LLMPlanner)(nil)

// New binds the tool catalog to the chat model and compiles the planning
// graph once; Plan reuses the compiled runner for every query.
func New(ctx context.Context, chatModel einomodel.ToolCallingChatModel, tools []*schema.ToolInfo, systemPrompt string) (*LLMPlanner, error) {
	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}

	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", toolModel); err != nil {
		return nil, fmt.Errorf("%w: add model node: %v", contractx.ErrModelInvoke, err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, fmt.Errorf("%w: add edge start->model: %v", contractx.ErrModelInvoke, err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("%w: add edge model->end: %v", contractx.ErrModelInvoke, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("supervisor.plan_graph"))
	if err != nil {
		return nil, fmt.Errorf("%w: compile plan graph: %v", contractx.ErrModelInvoke, err)
	}

	return &LLMPlanner{runner: runner, systemPrompt: systemPrompt}, nil
}

func (p *LLMPlanner) Plan(ctx context.Context, turns []contractx.Turn) (contractx.Action, error) {
	if len(turns) == 0 {
		return contractx.Action{}, fmt.Errorf("%w: no turns to plan from", contractx.ErrValidation)
	}

	messages, err := buildMessages(p.systemPrompt, turns)
	if err != nil {
		return contractx.Action{}, err
	}

	msg, err := p.runner.Invoke(ctx, messages)
	if err != nil {
		return contractx.Action{}, fmt.Errorf("%w: plan invoke: %v", contractx.ErrModelInvoke, err)
	}

	return parseAction(msg)
}

func buildMessages(systemPrompt string, turns []contractx.Turn) ([]*schema.Message, error) {
	messages := make([]*schema.Message, 0, len(turns)+1)
	if systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}

	for _, turn := range turns {
		switch turn.Role {
		case contractx.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case contractx.RoleAssistant:
			msg := &schema.Message{Role: schema.Assistant, Content: turn.Content}
			for _, call := range turn.ToolCalls {
				rawArgs, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("%w: marshal args for tool=%s: %v", contractx.ErrValidation, call.Name, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
					ID: call.ID,
					Function: schema.FunctionCall{
						Name:      call.Name,
						Arguments: string(rawArgs),
					},
				})
			}
			messages = append(messages, msg)
		case contractx.RoleTool:
			messages = append(messages, schema.ToolMessage(turn.Content, turn.ToolCallID, schema.WithToolName(turn.ToolName)))
		default:
			return nil, fmt.Errorf("%w: unknown turn role %q", contractx.ErrValidation, turn.Role)
		}
	}
	return messages, nil
}

func parseAction(msg *schema.Message) (contractx.Action, error) {
	if msg == nil {
		return contractx.Action{}, fmt.Errorf("%w: model returned no message", contractx.ErrSchemaViolation)
	}

	if len(msg.ToolCalls) == 0 {
		final := strings.TrimSpace(msg.Content)
		if final == "" {
			return contractx.Action{}, fmt.Errorf("%w: model returned neither text nor tool calls", contractx.ErrSchemaViolation)
		}
		return contractx.Action{Final: final}, nil
	}

	calls := make([]contractx.ToolCall, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return contractx.Action{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.Action{}, fmt.Errorf("%w: invalid args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		calls = append(calls, contractx.ToolCall{ID: call.ID, Name: name, Args: args})
	}
	return contractx.Action{ToolCalls: calls}, nil
}
