package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

// PriceItems quotes the full requested quantity of every resolved line.
func PriceItems(ctx context.Context, in *GraphState, workers contractx.WorkerFactory) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	resolved := in.Inventory.Resolved()
	items := make([]contractx.RequestedItem, 0, len(resolved))
	for _, line := range resolved {
		items = append(items, contractx.RequestedItem{
			Description: line.Resolution.Name,
			Quantity:    line.Requested,
		})
	}

	var keywords []string
	for _, kw := range []string{in.Req.Context.Event, in.Req.Context.Job} {
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	worker, err := workers.Quoting(ctx)
	if err != nil {
		return nil, fmt.Errorf("quoting worker: %w", err)
	}
	out, err := worker.Run(ctx, contractx.QuoteRequest{
		Text:     in.Req.Text,
		Date:     in.Req.Date,
		Items:    items,
		Keywords: keywords,
	})
	if err != nil {
		return nil, fmt.Errorf("quoting worker: %w", err)
	}

	in.Quote = &out
	return in, nil
}
