package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/pricing"
	"github.com/tanpawarit/paper-supply-agents/agent/tool"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
)

var _ contractx.SalesWorker = (*salesWorker)(nil)

type salesWorker struct {
	extractor *extractor
	matcher   tool.Matcher
	catalog   *catalogx.Catalog
	tools     *tool.Toolset
	runner    compose.Runnable[contractx.SaleRequest, contractx.SaleResult]
}

type salesState struct {
	Req       contractx.SaleRequest
	Items     []contractx.RequestedItem
	Lines     []contractx.SaleLine
	Report    *contractx.FinancialReport
	Exhausted bool
}

func newSalesWorker(
	ctx context.Context,
	ex *extractor,
	matcher tool.Matcher,
	c *catalogx.Catalog,
	tools *tool.Toolset,
) (*salesWorker, error) {
	w := &salesWorker{extractor: ex, matcher: matcher, catalog: c, tools: tools}

	runner, err := compileWorkerGraph(ctx, "sales.worker_graph",
		w.prepare,
		[]workerStep[*salesState]{
			{name: "check_prices", run: w.checkPrices},
			{name: "validate_totals", run: w.validateTotals},
			{name: "record_sales", run: w.record},
			{name: "daily_report", run: w.report},
		},
		w.narrate,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: compile sales graph: %v", contractx.ErrModelInvoke, err)
	}
	w.runner = runner
	return w, nil
}

func (w *salesWorker) Run(ctx context.Context, req contractx.SaleRequest) (contractx.SaleResult, error) {
	out, err := w.runner.Invoke(ctx, req)
	switch {
	case err != nil:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeSales), metricsx.StatusError).Inc()
		return contractx.SaleResult{}, err
	case out.Exhausted:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeSales), metricsx.StatusExhausted).Inc()
	default:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeSales), metricsx.StatusOK).Inc()
	}
	return out, nil
}

func (w *salesWorker) prepare(ctx context.Context, req contractx.SaleRequest) (*salesState, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: sale date is required", contractx.ErrValidation)
	}
	st := &salesState{Req: req, Items: req.Lines}
	if len(st.Items) > 0 {
		return st, nil
	}
	if strings.TrimSpace(req.OrderDetails) == "" {
		return nil, fmt.Errorf("%w: sale needs lines or order details", contractx.ErrValidation)
	}

	items, _, err := w.extractor.Extract(ctx, w.tools.Budget(), req.OrderDetails, req.Date)
	if err != nil {
		if isExhausted(err) {
			st.Exhausted = true
			return st, nil
		}
		return nil, err
	}
	st.Items = items
	return st, nil
}

func (w *salesWorker) checkPrices(ctx context.Context, st *salesState) (*salesState, error) {
	if st.Exhausted || len(st.Items) == 0 {
		return st, nil
	}

	terms := make([]string, 0, len(st.Items))
	for _, it := range st.Items {
		terms = append(terms, it.Description)
	}
	resolutions, err := resolveTerms(ctx, w.tools.Budget(), w.matcher, w.catalog, terms)
	if err != nil {
		st.Exhausted = true
		return st, nil
	}

	names := make([]string, 0, len(resolutions))
	for _, r := range resolutions {
		if r.Resolved {
			names = append(names, r.Name)
		}
	}
	prices := map[string]decimal.Decimal{}
	if len(names) > 0 {
		res, err := w.tools.Execute(ctx, contractx.ToolRequest{
			Tool: tool.ToolSalesCheckPrices,
			Args: map[string]any{"item_names": names},
		})
		if err != nil {
			st.Exhausted = true
			return st, nil
		}
		checks, err := tool.Output[[]tool.PriceCheck](res)
		if err != nil {
			log.Warn().Err(err).Str("worker", string(contractx.AgentTypeSales)).Msg("price lookup failed, items priced at zero")
		}
		for _, c := range checks {
			if c.Found {
				prices[c.ItemName] = c.UnitPrice
			}
		}
	}

	st.Lines = make([]contractx.SaleLine, 0, len(st.Items))
	for i, it := range st.Items {
		line := contractx.SaleLine{Term: it.Description, Quantity: it.Quantity, UnitPrice: decimal.Zero}
		if r := resolutions[i]; r.Resolved {
			line.ItemName = r.Name
			if p, ok := prices[r.Name]; ok {
				line.UnitPrice = p
			}
		}
		st.Lines = append(st.Lines, line)
	}
	return st, nil
}

// validateTotals prices every line before anything is committed.
func (w *salesWorker) validateTotals(ctx context.Context, st *salesState) (*salesState, error) {
	for i := range st.Lines {
		line := &st.Lines[i]
		switch {
		case line.ItemName == "":
			line.SkipReason = catalogx.NotFound
			continue
		case !line.UnitPrice.IsPositive():
			line.SkipReason = "no catalog price"
			continue
		case line.Quantity <= 0:
			line.SkipReason = "nothing to sell"
			continue
		}
		line.TotalPrice = pricing.LineTotal(line.UnitPrice, line.Quantity)
		if !line.TotalPrice.IsPositive() {
			return nil, fmt.Errorf("%w: %s x %d priced at %s", contractx.ErrInvalidSaleTotal,
				line.ItemName, line.Quantity, pricing.Money(line.TotalPrice))
		}
	}
	return st, nil
}

func (w *salesWorker) record(ctx context.Context, st *salesState) (*salesState, error) {
	date := st.Req.Date.Format(contractx.DateLayout)
	for i := range st.Lines {
		line := &st.Lines[i]
		if line.SkipReason != "" || st.Exhausted {
			continue
		}
		res, err := w.tools.Execute(ctx, contractx.ToolRequest{
			Tool: tool.ToolSalesRecordSale,
			Args: map[string]any{
				"item_name":   line.ItemName,
				"quantity":    line.Quantity,
				"total_price": line.TotalPrice.StringFixed(2),
				"date":        date,
			},
		})
		if err != nil {
			st.Exhausted = true
			line.SkipReason = "not recorded: step budget exhausted"
			continue
		}
		if _, err := tool.Output[tool.SaleReceipt](res); err != nil {
			log.Warn().Err(err).Str("worker", string(contractx.AgentTypeSales)).Str("item", line.ItemName).Msg("sale not recorded")
			line.SkipReason = "not recorded: " + err.Error()
			continue
		}
		line.Recorded = true
	}
	for i := range st.Lines {
		if st.Exhausted && !st.Lines[i].Recorded && st.Lines[i].SkipReason == "" {
			st.Lines[i].SkipReason = "not recorded: step budget exhausted"
		}
	}
	return st, nil
}

func (w *salesWorker) report(ctx context.Context, st *salesState) (*salesState, error) {
	if st.Exhausted {
		return st, nil
	}
	res, err := w.tools.Execute(ctx, contractx.ToolRequest{
		Tool: tool.ToolSalesDailyReport,
		Args: map[string]any{"as_of": st.Req.Date.Format(contractx.DateLayout)},
	})
	if err != nil {
		st.Exhausted = true
		return st, nil
	}
	report, err := tool.Output[contractx.FinancialReport](res)
	if err != nil {
		log.Warn().Err(err).Str("worker", string(contractx.AgentTypeSales)).Msg("daily report unavailable")
		return st, nil
	}
	st.Report = &report
	return st, nil
}

func (w *salesWorker) narrate(ctx context.Context, st *salesState) (contractx.SaleResult, error) {
	recorded := make([]decimal.Decimal, 0, len(st.Lines))

	var b strings.Builder
	fmt.Fprintf(&b, "Sales recorded for %s:\n", st.Req.Date.Format(contractx.DateLayout))
	if len(st.Lines) == 0 {
		b.WriteString("- Nothing to record.\n")
	}
	for _, line := range st.Lines {
		if !line.Recorded {
			fmt.Fprintf(&b, "- %s: skipped (%s)\n", line.Term, line.SkipReason)
			continue
		}
		recorded = append(recorded, line.TotalPrice)
		fmt.Fprintf(&b, "- %s x %d = %s\n", line.ItemName, line.Quantity, pricing.Money(line.TotalPrice))
	}
	total := pricing.Sum(recorded...)
	fmt.Fprintf(&b, "Total recorded: %s\n", pricing.Money(total))

	if st.Report != nil {
		fmt.Fprintf(&b, "Cash balance: %s. Inventory value: %s.\n",
			pricing.Money(st.Report.CashBalance), pricing.Money(st.Report.InventoryValue))
	}
	if st.Exhausted {
		b.WriteString("Step budget exhausted; some sales may not have been recorded.\n")
	}

	return contractx.SaleResult{
		Lines:     st.Lines,
		Total:     total,
		Report:    st.Report,
		Narrative: strings.TrimSpace(b.String()),
		Exhausted: st.Exhausted,
	}, nil
}
