package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
	"github.com/xeipuuv/gojsonschema"
)

type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition describes one callable operation.
type Definition struct {
	Name    string
	Desc    string
	Params  map[string]*schema.ParameterInfo
	Handler Handler
}

type registered struct {
	def    Definition
	schema *gojsonschema.Schema
}

// Toolset is the fixed operation catalog of one worker. Every Execute call
// spends one step from the shared budget.
type Toolset struct {
	agent  contractx.AgentType
	budget *Budget
	tools  map[string]registered
	order  []string
}

func NewToolset(agent contractx.AgentType, budget *Budget, defs ...Definition) (*Toolset, error) {
	if budget == nil {
		budget = NewBudget(DefaultMaxSteps)
	}
	ts := &Toolset{
		agent:  agent,
		budget: budget,
		tools:  make(map[string]registered, len(defs)),
		order:  make([]string, 0, len(defs)),
	}
	for _, def := range defs {
		if strings.TrimSpace(def.Name) == "" || def.Handler == nil {
			return nil, fmt.Errorf("%w: tool definition requires a name and a handler", contractx.ErrValidation)
		}
		if _, dup := ts.tools[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %s", contractx.ErrValidation, def.Name)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(JSONSchema(def.Params)))
		if err != nil {
			return nil, fmt.Errorf("%w: schema for %s: %v", contractx.ErrSchemaViolation, def.Name, err)
		}
		ts.tools[def.Name] = registered{def: def, schema: compiled}
		ts.order = append(ts.order, def.Name)
	}
	return ts, nil
}

func (t *Toolset) Agent() contractx.AgentType { return t.agent }

func (t *Toolset) Budget() *Budget { return t.budget }

func (t *Toolset) Names() []string {
	return append([]string(nil), t.order...)
}

// Execute runs one operation. Operation failures come back in
// ToolResult.Error; the returned error is reserved for budget exhaustion.
func (t *Toolset) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	logger := log.With().Str("worker", string(t.agent)).Str("tool", req.Tool).Logger()

	if err := t.budget.Spend(); err != nil {
		metricsx.ToolCalls.WithLabelValues(string(t.agent), req.Tool, metricsx.StatusExhausted).Inc()
		logger.Warn().Int("max_steps", t.budget.Max()).Msg("step budget exhausted")
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, err
	}

	reg, ok := t.tools[req.Tool]
	if !ok {
		metricsx.ToolCalls.WithLabelValues(string(t.agent), req.Tool, metricsx.StatusError).Inc()
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("%v: tool=%s is unavailable for agent=%s", contractx.ErrUnknownTool, req.Tool, t.agent),
		}, nil
	}

	args := req.Args
	if args == nil {
		args = map[string]any{}
	}
	if err := validate(reg.schema, args); err != nil {
		metricsx.ToolCalls.WithLabelValues(string(t.agent), req.Tool, metricsx.StatusError).Inc()
		logger.Warn().Err(err).Msg("tool arguments rejected")
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, nil
	}

	out, err := reg.def.Handler(ctx, args)
	if err != nil {
		metricsx.ToolCalls.WithLabelValues(string(t.agent), req.Tool, metricsx.StatusError).Inc()
		logger.Warn().Err(err).Msg("tool failed")
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, nil
	}

	metricsx.ToolCalls.WithLabelValues(string(t.agent), req.Tool, metricsx.StatusOK).Inc()
	logger.Debug().Msg("tool executed")
	return contractx.ToolResult{Tool: req.Tool, Result: out}, nil
}

func validate(s *gojsonschema.Schema, args map[string]any) error {
	result, err := s.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", contractx.ErrSchemaViolation, strings.Join(errs, "; "))
	}
	return nil
}

// JSONSchema renders eino parameter descriptors as a JSON Schema object.
func JSONSchema(params map[string]*schema.ParameterInfo) map[string]any {
	return objectSchema(params)
}

func objectSchema(params map[string]*schema.ParameterInfo) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for name, p := range params {
		properties[name] = paramSchema(p)
		if p != nil && p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func paramSchema(p *schema.ParameterInfo) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	if p.Type == schema.Object {
		out := objectSchema(p.SubParams)
		if p.Desc != "" {
			out["description"] = p.Desc
		}
		return out
	}
	out := map[string]any{"type": string(p.Type)}
	if p.Desc != "" {
		out["description"] = p.Desc
	}
	if len(p.Enum) > 0 {
		out["enum"] = p.Enum
	}
	if p.Type == schema.Array && p.ElemInfo != nil {
		out["items"] = paramSchema(p.ElemInfo)
	}
	return out
}

// Decode converts validated arguments into a typed struct.
func Decode[T any](args map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return out, nil
}

// Output extracts a typed result, surfacing the operation error if any.
func Output[T any](res contractx.ToolResult) (T, error) {
	var zero T
	if res.Error != "" {
		return zero, errors.New(res.Error)
	}
	out, ok := res.Result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected result type %T from %s", contractx.ErrSchemaViolation, res.Result, res.Tool)
	}
	return out, nil
}
