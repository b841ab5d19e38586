package tool

import (
	"context"
	"fmt"
	"time"

	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

const (
	ToolInventoryMapItems         = "inventory.map_items"
	ToolInventoryCheckStock       = "inventory.check_stock"
	ToolInventoryRestock          = "inventory.restock"
	ToolInventoryDeliveryEstimate = "inventory.delivery_estimate"
	ToolInventoryAudit            = "inventory.audit"

	ToolQuotingQuoteBatch = "quoting.quote_batch"
	ToolQuotingHistory    = "quoting.history"

	ToolSalesCheckPrices = "sales.check_prices"
	ToolSalesRecordSale  = "sales.record_sale"
	ToolSalesDailyReport = "sales.daily_report"
)

type Matcher interface {
	Map(ctx context.Context, terms []string) []catalogx.Resolution
}

// Deps are the collaborators the operation handlers close over.
type Deps struct {
	Ledger  contractx.Ledger
	Catalog *catalogx.Catalog
	Matcher Matcher
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(contractx.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be %s", contractx.ErrValidation, raw, contractx.DateLayout)
	}
	return t, nil
}
