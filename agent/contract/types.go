package contract

import (
	"time"

	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
)

type AgentType string

const (
	AgentTypeOrchestrator AgentType = "orchestrator"
	AgentTypeInventory    AgentType = "inventory"
	AgentTypeQuoting      AgentType = "quoting"
	AgentTypeSales        AgentType = "sales"
	AgentTypeMatcher      AgentType = "matcher"
)

// DateLayout is the calendar date format used in prompts, narratives and files.
const DateLayout = "2006-01-02"

type Category string

const (
	CategoryStockOrders Category = "stock_orders"
	CategorySales       Category = "sales"
)

type RequestContext struct {
	Job   string `json:"job,omitempty"`
	Event string `json:"event,omitempty"`
}

type Request struct {
	Text    string         `json:"text"`
	Date    time.Time      `json:"date"`
	Context RequestContext `json:"context"`
}

/* ------------------------------- Ledger -------------------------------- */

type Transaction struct {
	ID       string          `json:"id"`
	ItemName string          `json:"item_name"`
	Category Category        `json:"category"`
	Quantity int64           `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}

type StockSnapshot struct {
	ItemName     string    `json:"item_name"`
	CurrentStock int64     `json:"current_stock"`
	AsOf         time.Time `json:"as_of"`
}

type StockValue struct {
	ItemName  string          `json:"item_name"`
	Stock     int64           `json:"stock"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

type ProductSales struct {
	ItemName     string          `json:"item_name"`
	UnitsSold    int64           `json:"units_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type FinancialReport struct {
	AsOf             time.Time       `json:"as_of"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	InventoryValue   decimal.Decimal `json:"inventory_value"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	InventorySummary []StockValue    `json:"inventory_summary,omitempty"`
	TopSelling       []ProductSales  `json:"top_selling,omitempty"`
}

type QuoteRecord struct {
	RequestID   string          `json:"request_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Explanation string          `json:"explanation"`
	OrderDate   time.Time       `json:"order_date"`
	JobType     string          `json:"job_type"`
	OrderSize   string          `json:"order_size"`
	EventType   string          `json:"event_type"`
}

/* ------------------------------ Operations ----------------------------- */

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

/* ------------------------------- Workers ------------------------------- */

// RequestedItem is one item extracted from free text, already converted to base units.
type RequestedItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
}

type InventoryRequest struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

type AvailabilityLine struct {
	Term        string              `json:"term"`
	Resolution  catalogx.Resolution `json:"resolution"`
	Requested   int64               `json:"requested"`
	OnHand      int64               `json:"on_hand"`
	Fulfillable int64               `json:"fulfillable"`
	Backordered int64               `json:"backordered"`
	DeliveryBy  *time.Time          `json:"delivery_by,omitempty"`
	RestockNote string              `json:"restock_note,omitempty"`
}

type InventoryResult struct {
	Lines     []AvailabilityLine `json:"lines"`
	Audit     map[string]int64   `json:"audit,omitempty"`
	Narrative string             `json:"narrative"`
	Exhausted bool               `json:"exhausted,omitempty"`
}

// Resolved returns the lines whose term maps to a catalog item.
func (r InventoryResult) Resolved() []AvailabilityLine {
	out := make([]AvailabilityLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		if line.Resolution.Resolved {
			out = append(out, line)
		}
	}
	return out
}

func (r InventoryResult) Unresolved() []AvailabilityLine {
	out := make([]AvailabilityLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		if !line.Resolution.Resolved {
			out = append(out, line)
		}
	}
	return out
}

type QuoteRequest struct {
	Text     string          `json:"text"`
	Date     time.Time       `json:"date"`
	Items    []RequestedItem `json:"items,omitempty"`
	Keywords []string        `json:"keywords,omitempty"`
}

type QuoteLine struct {
	Term       string              `json:"term"`
	Resolution catalogx.Resolution `json:"resolution"`
	Quantity   int64               `json:"quantity"`
	UnitPrice  decimal.Decimal     `json:"unit_price"`
	Discounted bool                `json:"discounted"`
	LineTotal  decimal.Decimal     `json:"line_total"`
	Available  bool                `json:"available"`
}

type QuoteResult struct {
	Lines     []QuoteLine     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	History   []QuoteRecord   `json:"history,omitempty"`
	Narrative string          `json:"narrative"`
	Exhausted bool            `json:"exhausted,omitempty"`
}

type SaleRequest struct {
	OrderDetails string          `json:"order_details"`
	Date         time.Time       `json:"date"`
	Lines        []RequestedItem `json:"lines,omitempty"`
}

type SaleLine struct {
	Term       string          `json:"term"`
	ItemName   string          `json:"item_name"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Recorded   bool            `json:"recorded"`
	SkipReason string          `json:"skip_reason,omitempty"`
}

type SaleResult struct {
	Lines     []SaleLine       `json:"lines"`
	Total     decimal.Decimal  `json:"total"`
	Report    *FinancialReport `json:"report,omitempty"`
	Narrative string           `json:"narrative"`
	Exhausted bool             `json:"exhausted,omitempty"`
}

// Recorded returns the lines that produced a sales transaction.
func (r SaleResult) Recorded() []SaleLine {
	out := make([]SaleLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		if line.Recorded {
			out = append(out, line)
		}
	}
	return out
}
