package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	nodex "github.com/tanpawarit/paper-supply-agents/agent/nodes/orchestrator"
)

func (o *Orchestrator) compileHandleRequestGraph(
	ctx context.Context,
) (compose.Runnable[contractx.Request, nodex.Outcome], error) {
	graph := compose.NewGraph[contractx.Request, nodex.Outcome]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in contractx.Request) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("check_availability",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckAvailability(ctx, in, o.workers)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node check_availability: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodePriceItems,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PriceItems(ctx, in, o.workers)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node price_items: %w", err)
	}

	if err := graph.AddLambdaNode("record_sale",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordSale(ctx, in, o.workers)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_sale: %w", err)
	}

	if err := graph.AddLambdaNode("compose_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.Outcome, error) {
			return nodex.ComposeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_reply: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeComposeUnavailable,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.Outcome, error) {
			return nodex.ComposeUnavailable(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_unavailable: %w", err)
	}

	branch := compose.NewGraphBranch(nodex.RouteAvailability, map[string]bool{
		nodex.NodePriceItems:         true,
		nodex.NodeComposeUnavailable: true,
	})
	if err := graph.AddBranch("check_availability", branch); err != nil {
		return nil, fmt.Errorf("add availability branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "check_availability"},
		{nodex.NodePriceItems, "record_sale"},
		{"record_sale", "compose_reply"},
		{"compose_reply", compose.END},
		{nodex.NodeComposeUnavailable, compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_request"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
