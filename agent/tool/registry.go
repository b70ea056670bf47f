package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
)

// Handler executes one tool call. Business-level failures come back inside
// the ToolResult; the error return is reserved for infrastructure faults that
// should abort the whole query.
type Handler func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error)

type ToolSpec struct {
	Info    *schema.ToolInfo
	Handler Handler
}

// Registry holds the tool catalog. Registration order is preserved so the
// model always sees the same tool list.
type Registry struct {
	order []string
	specs map[string]ToolSpec
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]ToolSpec)}
}

func (r *Registry) Register(spec ToolSpec) error {
	if spec.Info == nil || spec.Info.Name == "" {
		return fmt.Errorf("%w: tool info is missing a name", contractx.ErrValidation)
	}
	if spec.Handler == nil {
		return fmt.Errorf("%w: tool %s has no handler", contractx.ErrValidation, spec.Info.Name)
	}
	if _, exists := r.specs[spec.Info.Name]; exists {
		return fmt.Errorf("%w: %s", contractx.ErrDuplicateTool, spec.Info.Name)
	}
	r.order = append(r.order, spec.Info.Name)
	r.specs[spec.Info.Name] = spec
	return nil
}

func (r *Registry) MustRegister(spec ToolSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

func (r *Registry) Resolve(name string) (ToolSpec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return ToolSpec{}, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
	}
	return spec, nil
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name].Info)
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}
