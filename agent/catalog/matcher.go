package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
)

var ErrNoJSONObject = errors.New("response holds no json object")

// Matcher resolves free-text terms: exact name, then case-insensitive name,
// then a single model call for whatever is left.
type Matcher struct {
	catalog *Catalog
	runner  compose.Runnable[map[string]any, map[string]any]
}

func NewMatcher(
	ctx context.Context,
	c *Catalog,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (*Matcher, error) {
	if c == nil {
		return nil, ErrEmptyCatalog
	}
	if chatModel == nil {
		return nil, errors.New("matcher: chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("matcher: system prompt is required")
	}

	runner, err := compileMatchGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &Matcher{catalog: c, runner: runner}, nil
}

// Map returns one resolution per input term, in input order. It never fails:
// terms the model cannot place come back unresolved.
func (m *Matcher) Map(ctx context.Context, terms []string) []Resolution {
	out := make([]Resolution, len(terms))
	pending := make([]int, 0, len(terms))

	for i, term := range terms {
		out[i] = m.catalog.Resolve(term)
		if !out[i].Resolved && strings.TrimSpace(term) != "" {
			pending = append(pending, i)
		}
	}

	if len(pending) > 0 {
		unknown := make([]string, 0, len(pending))
		seen := make(map[string]struct{}, len(pending))
		for _, i := range pending {
			clean := strings.TrimSpace(terms[i])
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			unknown = append(unknown, clean)
		}

		mapping, err := m.askModel(ctx, unknown)
		if err != nil {
			log.Warn().Err(err).Strs("terms", unknown).Msg("catalog matcher fell back to not found")
		}
		for _, i := range pending {
			name, ok := mapping[strings.TrimSpace(terms[i])]
			if !ok {
				continue
			}
			if it, ok := m.catalog.LookupFold(name); ok {
				out[i] = resolved(terms[i], it.Name, MatchModel)
			}
		}
	}

	for _, r := range out {
		metricsx.MatcherResolutions.WithLabelValues(string(r.Method)).Inc()
	}
	return out
}

func (m *Matcher) askModel(ctx context.Context, unknown []string) (map[string]string, error) {
	payload := map[string]any{
		"valid_catalog": m.catalog.Names(),
		"user_terms":    unknown,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal match payload: %w", err)
	}

	raw, err := m.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("match invoke: %w", err)
	}

	mapping := make(map[string]string, len(raw))
	for term, v := range raw {
		name, ok := v.(string)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, NotFound) {
			continue
		}
		mapping[strings.TrimSpace(term)] = name
	}
	return mapping, nil
}

func compileMatchGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, map[string]any], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, map[string]any]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add match prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add match model node: %w", err)
	}
	if err := graph.AddLambdaNode("first_json_object",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (map[string]any, error) {
			if msg == nil {
				return nil, ErrNoJSONObject
			}
			return FirstJSONObject(msg.Content)
		}),
	); err != nil {
		return nil, fmt.Errorf("add match parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "first_json_object"},
		{"first_json_object", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add match edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("catalog.match_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile match graph: %w", err)
	}
	return runner, nil
}

// FirstJSONObject decodes the first JSON object in free text, ignoring
// anything around it (code fences, prose).
func FirstJSONObject(content string) (map[string]any, error) {
	for start := strings.IndexByte(content, '{'); start >= 0; {
		var obj map[string]any
		dec := json.NewDecoder(strings.NewReader(content[start:]))
		if err := dec.Decode(&obj); err == nil {
			return obj, nil
		}
		next := strings.IndexByte(content[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, ErrNoJSONObject
}
