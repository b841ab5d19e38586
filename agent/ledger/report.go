package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

const topSellingLimit = 5

// BuildReport values stock at catalog prices and assembles a report.
// Items missing from the catalog are valued at zero.
func BuildReport(
	asOf time.Time,
	cash decimal.Decimal,
	stock map[string]int64,
	sales []contractx.ProductSales,
	c *catalogx.Catalog,
) contractx.FinancialReport {
	summary := make([]contractx.StockValue, 0, len(stock))
	inventoryValue := decimal.Zero
	for name, qty := range stock {
		price := decimal.Zero
		if c != nil {
			if it, ok := c.Lookup(name); ok {
				price = it.UnitPrice
			}
		}
		value := price.Mul(decimal.NewFromInt(qty))
		inventoryValue = inventoryValue.Add(value)
		summary = append(summary, contractx.StockValue{
			ItemName:  name,
			Stock:     qty,
			UnitPrice: price,
			Value:     value.Round(2),
		})
	}
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].ItemName < summary[j].ItemName
	})

	top := append([]contractx.ProductSales(nil), sales...)
	sort.SliceStable(top, func(i, j int) bool {
		if !top[i].TotalRevenue.Equal(top[j].TotalRevenue) {
			return top[i].TotalRevenue.GreaterThan(top[j].TotalRevenue)
		}
		return top[i].ItemName < top[j].ItemName
	})
	if len(top) > topSellingLimit {
		top = top[:topSellingLimit]
	}

	cash = cash.Round(2)
	inventoryValue = inventoryValue.Round(2)
	return contractx.FinancialReport{
		AsOf:             Day(asOf),
		CashBalance:      cash,
		InventoryValue:   inventoryValue,
		TotalAssets:      cash.Add(inventoryValue),
		InventorySummary: summary,
		TopSelling:       top,
	}
}
