package contract

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the append-only transaction store every stock and cash figure is derived from.
type Ledger interface {
	StockLevel(ctx context.Context, itemName string, asOf time.Time) (StockSnapshot, error)
	AllInventory(ctx context.Context, asOf time.Time) (map[string]int64, error)
	CreateTransaction(ctx context.Context, tx Transaction) (string, error)
	CashBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
	FinancialReport(ctx context.Context, asOf time.Time) (FinancialReport, error)
	SearchQuoteHistory(ctx context.Context, keywords []string, limit int) ([]QuoteRecord, error)
}

type InventoryWorker interface {
	Run(ctx context.Context, req InventoryRequest) (InventoryResult, error)
}

type QuotingWorker interface {
	Run(ctx context.Context, req QuoteRequest) (QuoteResult, error)
}

type SalesWorker interface {
	Run(ctx context.Context, req SaleRequest) (SaleResult, error)
}

// WorkerFactory hands out fresh, independent workers; callers use one set per request.
type WorkerFactory interface {
	Inventory(ctx context.Context) (InventoryWorker, error)
	Quoting(ctx context.Context) (QuotingWorker, error)
	Sales(ctx context.Context) (SalesWorker, error)
}
