package specialist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/tool"
	"github.com/tanpawarit/paper-supply-agents/agent/units"
)

type extractedItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

type extraction struct {
	Items             []extractedItem `json:"items"`
	Keywords          []string        `json:"keywords,omitempty"`
	InventoryOverview bool            `json:"inventory_overview,omitempty"`
}

// extractor turns free text into requested items. Quantities are converted
// to base units here and nowhere else.
type extractor struct {
	runner compose.Runnable[map[string]any, extraction]
}

func newExtractor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt, graphName string) (*extractor, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPromptMissing, graphName)
	}
	runner, err := compileStructuredLLMGraph[extraction](ctx, chatModel, systemPrompt, graphName)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %v", contractx.ErrModelInvoke, graphName, err)
	}
	return &extractor{runner: runner}, nil
}

func (e *extractor) Extract(ctx context.Context, budget *tool.Budget, text string, date time.Time) ([]contractx.RequestedItem, extraction, error) {
	if err := budget.Spend(); err != nil {
		return nil, extraction{}, err
	}

	input, err := json.Marshal(map[string]any{
		"request": text,
		"date":    date.Format(contractx.DateLayout),
	})
	if err != nil {
		return nil, extraction{}, fmt.Errorf("%w: marshal extraction payload: %v", contractx.ErrValidation, err)
	}

	out, err := e.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, extraction{}, fmt.Errorf("%w: extract items: %v", contractx.ErrModelInvoke, contractx.RootCause(err))
	}
	return normalizeItems(out.Items), out, nil
}

func normalizeItems(items []extractedItem) []contractx.RequestedItem {
	out := make([]contractx.RequestedItem, 0, len(items))
	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		qty := units.Normalize(it.Quantity, it.Unit)
		if desc == "" || qty <= 0 {
			continue
		}
		out = append(out, contractx.RequestedItem{Description: desc, Quantity: qty})
	}
	return out
}

// resolveTerms maps terms to catalog items. The matcher's model call is only
// paid for when some term is not a catalog name already.
func resolveTerms(
	ctx context.Context,
	budget *tool.Budget,
	matcher tool.Matcher,
	c *catalogx.Catalog,
	terms []string,
) ([]catalogx.Resolution, error) {
	needsModel := false
	for _, term := range terms {
		if _, ok := c.LookupFold(term); !ok && strings.TrimSpace(term) != "" {
			needsModel = true
			break
		}
	}
	if needsModel {
		if err := budget.Spend(); err != nil {
			out := make([]catalogx.Resolution, 0, len(terms))
			for _, term := range terms {
				if it, ok := c.LookupFold(term); ok {
					out = append(out, catalogx.Resolution{Term: term, Name: it.Name, Resolved: true, Method: catalogx.MatchCaseInsensitive})
					continue
				}
				out = append(out, catalogx.Unresolved(term))
			}
			return out, err
		}
	}
	return matcher.Map(ctx, terms), nil
}

func isExhausted(err error) bool {
	return errors.Is(err, contractx.ErrStepBudgetExhausted)
}

// workerStep is one fixed state of a worker's state machine.
type workerStep[S any] struct {
	name string
	run  func(ctx context.Context, st S) (S, error)
}

// compileWorkerGraph chains prepare, the steps in order, then finish.
func compileWorkerGraph[I, O, S any](
	ctx context.Context,
	graphName string,
	prepare func(ctx context.Context, in I) (S, error),
	steps []workerStep[S],
	finish func(ctx context.Context, st S) (O, error),
) (compose.Runnable[I, O], error) {
	graph := compose.NewGraph[I, O]()

	if err := graph.AddLambdaNode("prepare", compose.InvokableLambda(prepare)); err != nil {
		return nil, fmt.Errorf("add %s prepare node: %w", graphName, err)
	}
	prev := "prepare"
	if err := graph.AddEdge(compose.START, prev); err != nil {
		return nil, fmt.Errorf("add %s edge start->prepare: %w", graphName, err)
	}

	for _, step := range steps {
		if err := graph.AddLambdaNode(step.name, compose.InvokableLambda(step.run)); err != nil {
			return nil, fmt.Errorf("add %s %s node: %w", graphName, step.name, err)
		}
		if err := graph.AddEdge(prev, step.name); err != nil {
			return nil, fmt.Errorf("add %s edge %s->%s: %w", graphName, prev, step.name, err)
		}
		prev = step.name
	}

	if err := graph.AddLambdaNode("narrate", compose.InvokableLambda(finish)); err != nil {
		return nil, fmt.Errorf("add %s narrate node: %w", graphName, err)
	}
	if err := graph.AddEdge(prev, "narrate"); err != nil {
		return nil, fmt.Errorf("add %s edge %s->narrate: %w", graphName, prev, err)
	}
	if err := graph.AddEdge("narrate", compose.END); err != nil {
		return nil, fmt.Errorf("add %s edge narrate->end: %w", graphName, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

func compileStructuredLLMGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add structured edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add structured edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "parse_json"); err != nil {
		return nil, fmt.Errorf("add structured edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add structured edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}
