package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

// RecordSale commits the quantities that stock covers today. Backordered
// units are quoted but not sold.
func RecordSale(ctx context.Context, in *GraphState, workers contractx.WorkerFactory) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Quote == nil {
		return nil, fmt.Errorf("%w: sale attempted before pricing", contractx.ErrValidation)
	}

	lines := make([]contractx.RequestedItem, 0, len(in.Inventory.Lines))
	for _, line := range in.Inventory.Resolved() {
		if line.Fulfillable <= 0 {
			continue
		}
		lines = append(lines, contractx.RequestedItem{
			Description: line.Resolution.Name,
			Quantity:    line.Fulfillable,
		})
	}
	if len(lines) == 0 {
		return in, nil
	}

	worker, err := workers.Sales(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales worker: %w", err)
	}
	out, err := worker.Run(ctx, contractx.SaleRequest{
		OrderDetails: in.Req.Text,
		Date:         in.Req.Date,
		Lines:        lines,
	})
	if err != nil {
		return nil, fmt.Errorf("sales worker: %w", err)
	}

	in.Sale = &out
	return in, nil
}
