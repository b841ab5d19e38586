package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

type PriceCheck struct {
	ItemName  string          `json:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Found     bool            `json:"found"`
}

type SaleReceipt struct {
	TransactionID string          `json:"transaction_id"`
	ItemName      string          `json:"item_name"`
	Quantity      int64           `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type checkPricesArgs struct {
	ItemNames []string `json:"item_names"`
}

type recordSaleArgs struct {
	ItemName   string `json:"item_name"`
	Quantity   int64  `json:"quantity"`
	TotalPrice string `json:"total_price"`
	Date       string `json:"date"`
}

type dailyReportArgs struct {
	AsOf string `json:"as_of"`
}

func SalesTools(deps Deps) []Definition {
	return []Definition{
		{
			Name: ToolSalesCheckPrices,
			Desc: "Look up the catalog unit price of each item; unknown items price at zero.",
			Params: map[string]*schema.ParameterInfo{
				"item_names": {Type: schema.Array, Desc: "Item names", Required: true, ElemInfo: &schema.ParameterInfo{Type: schema.String}},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[checkPricesArgs](raw)
				if err != nil {
					return nil, err
				}
				return CheckPrices(deps.Catalog, args.ItemNames), nil
			},
		},
		{
			Name: ToolSalesRecordSale,
			Desc: "Record one sales transaction.",
			Params: map[string]*schema.ParameterInfo{
				"item_name":   {Type: schema.String, Desc: "Canonical item name", Required: true},
				"quantity":    {Type: schema.Integer, Desc: "Units sold", Required: true},
				"total_price": {Type: schema.String, Desc: "Decimal revenue for the line", Required: true},
				"date":        {Type: schema.String, Desc: "Sale date, YYYY-MM-DD", Required: true},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[recordSaleArgs](raw)
				if err != nil {
					return nil, err
				}
				return recordSale(ctx, deps, args)
			},
		},
		{
			Name: ToolSalesDailyReport,
			Desc: "Produce the financial report as of a date.",
			Params: map[string]*schema.ParameterInfo{
				"as_of": {Type: schema.String, Desc: "Cutoff date, YYYY-MM-DD", Required: true},
			},
			Handler: func(ctx context.Context, raw map[string]any) (any, error) {
				args, err := Decode[dailyReportArgs](raw)
				if err != nil {
					return nil, err
				}
				asOf, err := parseDate(args.AsOf)
				if err != nil {
					return nil, err
				}
				return deps.Ledger.FinancialReport(ctx, asOf)
			},
		},
	}
}

func CheckPrices(c *catalogx.Catalog, names []string) []PriceCheck {
	out := make([]PriceCheck, 0, len(names))
	for _, name := range names {
		check := PriceCheck{ItemName: name, UnitPrice: decimal.Zero}
		res := c.Resolve(name)
		if unit, ok := c.Price(res); ok {
			check.ItemName = res.Name
			check.UnitPrice = unit
			check.Found = true
		}
		out = append(out, check)
	}
	return out
}

func recordSale(ctx context.Context, deps Deps, args recordSaleArgs) (SaleReceipt, error) {
	total, err := decimal.NewFromString(strings.TrimSpace(args.TotalPrice))
	if err != nil {
		return SaleReceipt{}, fmt.Errorf("%w: total_price %q", contractx.ErrInvalidSaleTotal, args.TotalPrice)
	}
	if !total.IsPositive() {
		return SaleReceipt{}, fmt.Errorf("%w: %s for %s", contractx.ErrInvalidSaleTotal, total.StringFixed(2), args.ItemName)
	}
	if args.Quantity <= 0 {
		return SaleReceipt{}, fmt.Errorf("%w: quantity must be positive", contractx.ErrValidation)
	}
	item := deps.Catalog.Resolve(args.ItemName)
	if _, ok := deps.Catalog.Price(item); !ok {
		return SaleReceipt{}, fmt.Errorf("%w: %s is not a catalog item", contractx.ErrValidation, args.ItemName)
	}
	date, err := parseDate(args.Date)
	if err != nil {
		return SaleReceipt{}, err
	}

	id, err := deps.Ledger.CreateTransaction(ctx, contractx.Transaction{
		ItemName: item.Name,
		Category: contractx.CategorySales,
		Quantity: args.Quantity,
		Amount:   total,
		Date:     date,
	})
	if err != nil {
		return SaleReceipt{}, fmt.Errorf("record sale of %s: %w", item.Name, err)
	}
	return SaleReceipt{TransactionID: id, ItemName: item.Name, Quantity: args.Quantity, TotalPrice: total}, nil
}
