package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

const (
	NodePriceItems         = "price_items"
	NodeComposeUnavailable = "compose_unavailable"
)

func CheckAvailability(ctx context.Context, in *GraphState, workers contractx.WorkerFactory) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	worker, err := workers.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory worker: %w", err)
	}
	out, err := worker.Run(ctx, contractx.InventoryRequest{
		Text: in.Req.Text,
		Date: in.Req.Date,
	})
	if err != nil {
		return nil, fmt.Errorf("inventory worker: %w", err)
	}

	in.Inventory = out
	return in, nil
}

// RouteAvailability sends the request on to pricing when at least one item
// maps to the catalog, and straight to the refusal otherwise.
func RouteAvailability(ctx context.Context, in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.Inventory.Resolved()) == 0 {
		return NodeComposeUnavailable, nil
	}
	return NodePriceItems, nil
}
