package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/pricing"
)

const (
	Unavailable         = "Unavailable"
	DefaultHistoryLimit = 3
)

type QuoteItem struct {
	Term     string `json:"term"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Method   string `json:"method,omitempty"`
}

type BatchQuote struct {
	Lines []contractx.QuoteLine `json:"lines"`
	Total decimal.Decimal       `json:"total"`
}

type quoteBatchArgs struct {
	Items []QuoteItem `json:"items"`
}

type historyArgs struct {
	Keywords []string `json:"keywords"`
	Limit    int      `json:"limit"`
}

func QuotingTools(deps Deps) []Definition {
	return []Definition{
		{
			Name: ToolQuotingQuoteBatch,
			Desc: "Price a batch of catalog items with the bulk discount rule.",
			Params: map[string]*schema.ParameterInfo{
				"items": {
					Type:     schema.Array,
					Desc:     "Items to price",
					Required: true,
					ElemInfo: &schema.ParameterInfo{
						Type: schema.Object,
						SubParams: map[string]*schema.ParameterInfo{
							"term":     {Type: schema.String, Desc: "Customer wording"},
							"name":     {Type: schema.String, Desc: "Canonical catalog name, empty when unknown", Required: true},
							"quantity": {Type: schema.Integer, Desc: "Units", Required: true},
							"method":   {Type: schema.String, Desc: "How the name was matched"},
						},
					},
				},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[quoteBatchArgs](raw)
				if err != nil {
					return nil, err
				}
				return QuoteBatch(deps.Catalog, args.Items), nil
			},
		},
		{
			Name: ToolQuotingHistory,
			Desc: "Search past quotes by keyword, most relevant first.",
			Params: map[string]*schema.ParameterInfo{
				"keywords": {Type: schema.Array, Desc: "Search keywords", Required: true, ElemInfo: &schema.ParameterInfo{Type: schema.String}},
				"limit":    {Type: schema.Integer, Desc: "Maximum number of quotes"},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[historyArgs](raw)
				if err != nil {
					return nil, err
				}
				limit := args.Limit
				if limit <= 0 || limit > DefaultHistoryLimit {
					limit = DefaultHistoryLimit
				}
				return deps.Ledger.SearchQuoteHistory(ctx, args.Keywords, limit)
			},
		},
	}
}

// QuoteBatch prices each item. Items without a catalog price are marked
// unavailable and left out of the total.
func QuoteBatch(c *catalogx.Catalog, items []QuoteItem) BatchQuote {
	lines := make([]contractx.QuoteLine, 0, len(items))
	totals := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		term := it.Term
		if term == "" {
			term = it.Name
		}
		line := contractx.QuoteLine{Term: term, Quantity: it.Quantity, Resolution: catalogx.Unresolved(term)}

		res := c.Resolve(it.Name)
		if unit, ok := c.Price(res); ok && it.Quantity > 0 {
			res.Term = term
			if method := catalogx.MatchMethod(it.Method); method != "" && method != catalogx.MatchNone {
				res.Method = method
			}
			line.Resolution = res
			line.UnitPrice = unit
			line.Discounted = pricing.Discounted(it.Quantity)
			line.LineTotal = pricing.LineTotal(unit, it.Quantity)
			line.Available = true
			totals = append(totals, line.LineTotal)
		}
		lines = append(lines, line)
	}
	return BatchQuote{Lines: lines, Total: pricing.Sum(totals...)}
}
