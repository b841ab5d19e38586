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

var _ contractx.QuotingWorker = (*quotingWorker)(nil)

type quotingWorker struct {
	extractor *extractor
	matcher   tool.Matcher
	catalog   *catalogx.Catalog
	tools     *tool.Toolset
	runner    compose.Runnable[contractx.QuoteRequest, contractx.QuoteResult]
}

type quotingState struct {
	Req         contractx.QuoteRequest
	Items       []contractx.RequestedItem
	Keywords    []string
	Resolutions []catalogx.Resolution
	Lines       []contractx.QuoteLine
	Total       decimal.Decimal
	History     []contractx.QuoteRecord
	Exhausted   bool
}

func newQuotingWorker(
	ctx context.Context,
	ex *extractor,
	matcher tool.Matcher,
	c *catalogx.Catalog,
	tools *tool.Toolset,
) (*quotingWorker, error) {
	w := &quotingWorker{extractor: ex, matcher: matcher, catalog: c, tools: tools}

	runner, err := compileWorkerGraph(ctx, "quoting.worker_graph",
		w.prepare,
		[]workerStep[*quotingState]{
			{name: "resolve_items", run: w.resolve},
			{name: "quote_batch", run: w.price},
			{name: "history", run: w.history},
		},
		w.narrate,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: compile quoting graph: %v", contractx.ErrModelInvoke, err)
	}
	w.runner = runner
	return w, nil
}

func (w *quotingWorker) Run(ctx context.Context, req contractx.QuoteRequest) (contractx.QuoteResult, error) {
	out, err := w.runner.Invoke(ctx, req)
	switch {
	case err != nil:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeQuoting), metricsx.StatusError).Inc()
		return contractx.QuoteResult{}, err
	case out.Exhausted:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeQuoting), metricsx.StatusExhausted).Inc()
	default:
		metricsx.WorkerRuns.WithLabelValues(string(contractx.AgentTypeQuoting), metricsx.StatusOK).Inc()
	}
	return out, nil
}

func (w *quotingWorker) prepare(ctx context.Context, req contractx.QuoteRequest) (*quotingState, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: quote date is required", contractx.ErrValidation)
	}
	st := &quotingState{Req: req, Items: req.Items, Keywords: req.Keywords}
	if len(st.Items) > 0 {
		return st, nil
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: quote needs items or request text", contractx.ErrValidation)
	}

	items, ext, err := w.extractor.Extract(ctx, w.tools.Budget(), req.Text, req.Date)
	if err != nil {
		if isExhausted(err) {
			st.Exhausted = true
			return st, nil
		}
		return nil, err
	}
	st.Items = items
	if len(st.Keywords) == 0 {
		st.Keywords = ext.Keywords
	}
	return st, nil
}

func (w *quotingWorker) resolve(ctx context.Context, st *quotingState) (*quotingState, error) {
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
	}
	st.Resolutions = resolutions
	return st, nil
}

func (w *quotingWorker) price(ctx context.Context, st *quotingState) (*quotingState, error) {
	if st.Exhausted || len(st.Items) == 0 {
		return st, nil
	}

	items := make([]tool.QuoteItem, 0, len(st.Items))
	for i, it := range st.Items {
		qi := tool.QuoteItem{Term: it.Description, Quantity: it.Quantity}
		if i < len(st.Resolutions) && st.Resolutions[i].Resolved {
			qi.Name = st.Resolutions[i].Name
			qi.Method = string(st.Resolutions[i].Method)
		}
		items = append(items, qi)
	}

	res, err := w.tools.Execute(ctx, contractx.ToolRequest{
		Tool: tool.ToolQuotingQuoteBatch,
		Args: map[string]any{"items": items},
	})
	if err != nil {
		st.Exhausted = true
		return st, nil
	}
	quote, err := tool.Output[tool.BatchQuote](res)
	if err != nil {
		log.Warn().Err(err).Str("worker", string(contractx.AgentTypeQuoting)).Msg("quote failed, marking items unavailable")
		for _, it := range st.Items {
			st.Lines = append(st.Lines, contractx.QuoteLine{Term: it.Description, Quantity: it.Quantity, Resolution: catalogx.Unresolved(it.Description)})
		}
		return st, nil
	}
	st.Lines = quote.Lines
	st.Total = quote.Total
	return st, nil
}

func (w *quotingWorker) history(ctx context.Context, st *quotingState) (*quotingState, error) {
	keywords := ledgerKeywords(st.Keywords)
	if st.Exhausted || len(keywords) == 0 {
		return st, nil
	}
	res, err := w.tools.Execute(ctx, contractx.ToolRequest{
		Tool: tool.ToolQuotingHistory,
		Args: map[string]any{"keywords": keywords, "limit": tool.DefaultHistoryLimit},
	})
	if err != nil {
		st.Exhausted = true
		return st, nil
	}
	history, err := tool.Output[[]contractx.QuoteRecord](res)
	if err != nil {
		log.Warn().Err(err).Str("worker", string(contractx.AgentTypeQuoting)).Msg("quote history unavailable")
		return st, nil
	}
	st.History = history
	return st, nil
}

func (w *quotingWorker) narrate(ctx context.Context, st *quotingState) (contractx.QuoteResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Quote for %s:\n", st.Req.Date.Format(contractx.DateLayout))

	if len(st.Lines) == 0 {
		b.WriteString("- No items could be priced.\n")
	}
	for _, line := range st.Lines {
		if !line.Available {
			fmt.Fprintf(&b, "- %s: %s\n", line.Term, tool.Unavailable)
			continue
		}
		fmt.Fprintf(&b, "- %s x %d @ %s = %s", displayName(line.Term, line.Resolution), line.Quantity,
			"$"+line.UnitPrice.String(), pricing.Money(line.LineTotal))
		if line.Discounted {
			b.WriteString(" (10% bulk discount)")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total: %s\n", pricing.Money(st.Total))

	if len(st.History) > 0 {
		b.WriteString("Similar past quotes:\n")
		for _, q := range st.History {
			fmt.Fprintf(&b, "- %s: %s\n", q.OrderDate.Format(contractx.DateLayout), pricing.Money(q.TotalAmount))
		}
	}
	if st.Exhausted {
		b.WriteString("Step budget exhausted; the quote may be incomplete.\n")
	}

	return contractx.QuoteResult{
		Lines:     st.Lines,
		Total:     st.Total,
		History:   st.History,
		Narrative: strings.TrimSpace(b.String()),
		Exhausted: st.Exhausted,
	}, nil
}

func ledgerKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
