package specialist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/pricing"
	"github.com/tanpawarit/paper-supply-agents/agent/tool"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
)

var _ contractx.InventoryWorker = (*inventoryWorker)(nil)

type inventoryWorker struct {
	extractor *extractor
	tools     *tool.Toolset
	runner    compose.Runnable[contractx.InventoryRequest, contractx.InventoryResult]
}

type inventoryState struct {
	Req       contractx.InventoryRequest
	Items     []contractx.RequestedItem
	Overview  bool
	Lines     []contractx.AvailabilityLine
	Audit     map[string]int64
	Notes     []string
	Exhausted bool
}

func newInventoryWorker(ctx context.Context, ex *extractor, tools *tool.Toolset) (*inventoryWorker, error) {
	w := &inventoryWorker{extractor: ex, tools: tools}

	runner, err := compileWorkerGraph(ctx, "inventory.worker_graph",
		w.prepare,
		[]workerStep[*inventoryState]{
			{name: "map_items", run: w.mapItems},
			{name: "check_stock", run: w.checkStock},
			{name: "restock", run: w.restock},
			{name: "audit", run: w.audit},
		},
		w.narrate,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: compile inventory graph: %v", contractx.ErrModelInvoke, err)
	}
	w.runner = runner
	return w, nil
}

func (w *inventoryWorker) Run(ctx context.Context, req contractx.InventoryRequest) (contractx.InventoryResult, error) {
	out, err := w.runner.Invoke(ctx, req)
	switch {
	case err != nil:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeInventory), metricsx.StatusError).Inc()
		return contractx.InventoryResult{}, err
	case out.Exhausted:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeInventory), metricsx.StatusExhausted).Inc()
	default:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeInventory), metricsx.StatusOK).Inc()
	}
	return out, nil
}

func (w *inventoryWorker) prepare(ctx context.Context, req contractx.InventoryRequest) (*inventoryState, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: request text is required", contractx.ErrValidation)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: request date is required", contractx.ErrValidation)
	}

	st := &inventoryState{Req: req}
	items, ext, err := w.extractor.Extract(ctx, w.tools.Budget(), req.Text, req.Date)
	if err != nil {
		if isExhausted(err) {
			st.Exhausted = true
			return st, nil
		}
		return nil, err
	}
	st.Items = items
	st.Overview = ext.InventoryOverview
	return st, nil
}

// call runs one operation and flags the state once the budget is spent.
func (w *inventoryWorker) call(ctx context.Context, st *inventoryState, name string, args map[string]any) (contractx.ToolResult, bool) {
	if st.Exhausted {
		return contractx.ToolResult{}, false
	}
	res, err := w.tools.Execute(ctx, contractx.ToolRequest{Tool: name, Args: args})
	if err != nil {
		st.Exhausted = true
		return res, false
	}
	return res, true
}

func (w *inventoryWorker) mapItems(ctx context.Context, st *inventoryState) (*inventoryState, error) {
	if len(st.Items) == 0 {
		return st, nil
	}

	terms := make([]string, 0, len(st.Items))
	for _, it := range st.Items {
		terms = append(terms, it.Description)
	}

	st.Lines = make([]contractx.AvailabilityLine, 0, len(st.Items))
	for _, it := range st.Items {
		st.Lines = append(st.Lines, contractx.AvailabilityLine{
			Term:       it.Description,
			Resolution: catalogx.Unresolved(it.Description),
			Requested:  it.Quantity,
		})
	}

	res, ok := w.call(ctx, st, tool.ToolInventoryMapItems, map[string]any{"terms": terms})
	if !ok {
		return st, nil
	}
	resolutions, err := tool.Output[[]catalogx.Resolution](res)
	if err != nil || len(resolutions) != len(st.Lines) {
		log.Warn().Err(err).Str("worker", string(contractx.AgentTypeInventory)).Msg("catalog mapping failed, treating items as unavailable")
		return st, nil
	}
	for i := range st.Lines {
		st.Lines[i].Resolution = resolutions[i]
	}
	return st, nil
}

func (w *inventoryWorker) checkStock(ctx context.Context, st *inventoryState) (*inventoryState, error) {
	names := resolvedNames(st.Lines)
	if len(names) == 0 {
		return st, nil
	}

	onHand := make(map[string]int64, len(names))
	res, ok := w.call(ctx, st, tool.ToolInventoryCheckStock, map[string]any{
		"item_names": names,
		"as_of":      st.Req.Date.Format(contractx.DateLayout),
	})
	if !ok {
		return st, nil
	}
	checks, err := tool.Output[[]tool.StockCheck](res)
	if err != nil {
		log.Warn().Err(err).Str("worker", string(contractx.AgentTypeInventory)).Msg("stock check failed, assuming zero stock")
	}
	for _, c := range checks {
		onHand[c.ItemName] = c.Stock
	}

	// Lines for the same item draw from one pool of stock.
	remaining := make(map[string]int64, len(onHand))
	for name, qty := range onHand {
		remaining[name] = max(qty, 0)
	}
	for i := range st.Lines {
		line := &st.Lines[i]
		if !line.Resolution.Resolved {
			continue
		}
		line.OnHand = onHand[line.Resolution.Name]
		line.Fulfillable = min(line.Requested, remaining[line.Resolution.Name])
		remaining[line.Resolution.Name] -= line.Fulfillable
		line.Backordered = line.Requested - line.Fulfillable
	}
	return st, nil
}

func (w *inventoryWorker) restock(ctx context.Context, st *inventoryState) (*inventoryState, error) {
	orders := make([]tool.RestockOrder, 0, len(st.Lines))
	lineIdx := make([]int, 0, len(st.Lines))
	for i, line := range st.Lines {
		if !line.Resolution.Resolved {
			st.Lines[i].RestockNote = "skipped: " + catalogx.NotFound
			continue
		}
		if line.Backordered <= 0 {
			continue
		}
		orders = append(orders, tool.RestockOrder{ItemName: line.Resolution.Name, Quantity: line.Backordered})
		lineIdx = append(lineIdx, i)
	}
	if len(orders) == 0 {
		return st, nil
	}

	date := st.Req.Date.Format(contractx.DateLayout)
	res, ok := w.call(ctx, st, tool.ToolInventoryRestock, map[string]any{
		"orders":     orders,
		"order_date": date,
	})
	if !ok {
		return st, nil
	}
	receipts, err := tool.Output[[]tool.RestockReceipt](res)
	if err != nil || len(receipts) != len(orders) {
		log.Warn().Err(err).Str("worker", string(contractx.AgentTypeInventory)).Msg("restock failed")
		for _, i := range lineIdx {
			st.Lines[i].RestockNote = "restock failed"
		}
		return st, nil
	}

	estimates := make(map[int64]time.Time)
	for k, receipt := range receipts {
		line := &st.Lines[lineIdx[k]]
		if receipt.Skipped != "" {
			line.RestockNote = "restock skipped: " + receipt.Skipped
			continue
		}
		line.RestockNote = fmt.Sprintf("restocked %d units for %s", receipt.Quantity, pricing.Money(receipt.Cost))

		delivery, cached := estimates[receipt.Quantity]
		if !cached {
			res, ok := w.call(ctx, st, tool.ToolInventoryDeliveryEstimate, map[string]any{
				"quantity":   receipt.Quantity,
				"order_date": date,
			})
			if !ok {
				continue
			}
			est, err := tool.Output[tool.DeliveryEstimate](res)
			if err != nil {
				continue
			}
			delivery = est.DeliveryBy
			estimates[receipt.Quantity] = delivery
		}
		by := delivery
		line.DeliveryBy = &by
	}
	return st, nil
}

func (w *inventoryWorker) audit(ctx context.Context, st *inventoryState) (*inventoryState, error) {
	if !st.Overview {
		return st, nil
	}
	res, ok := w.call(ctx, st, tool.ToolInventoryAudit, map[string]any{
		"as_of": st.Req.Date.Format(contractx.DateLayout),
	})
	if !ok {
		return st, nil
	}
	audit, err := tool.Output[map[string]int64](res)
	if err != nil {
		st.Notes = append(st.Notes, "Inventory overview unavailable.")
		return st, nil
	}
	st.Audit = audit
	return st, nil
}

func (w *inventoryWorker) narrate(ctx context.Context, st *inventoryState) (contractx.InventoryResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Inventory check as of %s:\n", st.Req.Date.Format(contractx.DateLayout))

	if len(st.Lines) == 0 {
		b.WriteString("- No catalog items were identified in the request.\n")
	}
	for _, line := range st.Lines {
		if !line.Resolution.Resolved {
			fmt.Fprintf(&b, "- %s: %s, skipped.\n", line.Term, catalogx.NotFound)
			continue
		}
		fmt.Fprintf(&b, "- %s: requested %d, in stock %d, fulfillable %d, backordered %d.",
			displayName(line.Term, line.Resolution), line.Requested, line.OnHand, line.Fulfillable, line.Backordered)
		if line.RestockNote != "" {
			fmt.Fprintf(&b, " %s", capitalize(line.RestockNote))
			if line.DeliveryBy != nil {
				fmt.Fprintf(&b, ", delivery by %s", line.DeliveryBy.Format(contractx.DateLayout))
			}
			b.WriteString(".")
		}
		b.WriteString("\n")
	}

	if st.Audit != nil {
		names := make([]string, 0, len(st.Audit))
		for name := range st.Audit {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "Inventory overview (%d items in stock):\n", len(names))
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %d\n", name, st.Audit[name])
		}
	}
	for _, note := range st.Notes {
		b.WriteString(note + "\n")
	}
	if st.Exhausted {
		b.WriteString("Step budget exhausted; remaining checks were not performed.\n")
	}

	return contractx.InventoryResult{
		Lines:     st.Lines,
		Audit:     st.Audit,
		Narrative: strings.TrimSpace(b.String()),
		Exhausted: st.Exhausted,
	}, nil
}

func resolvedNames(lines []contractx.AvailabilityLine) []string {
	seen := make(map[string]struct{}, len(lines))
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if !line.Resolution.Resolved {
			continue
		}
		if _, ok := seen[line.Resolution.Name]; ok {
			continue
		}
		seen[line.Resolution.Name] = struct{}{}
		names = append(names, line.Resolution.Name)
	}
	return names
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// displayName shows the customer's wording next to the catalog name when they differ.
func displayName(term string, res catalogx.Resolution) string {
	if !res.Resolved || strings.EqualFold(strings.TrimSpace(term), res.Name) {
		return res.Display()
	}
	return fmt.Sprintf("%s (%q)", res.Name, strings.TrimSpace(term))
}
