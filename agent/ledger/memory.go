package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
)

var _ contractx.Ledger = (*MemoryStore)(nil)

var (
	ErrInvalidCategory = errors.New("invalid transaction category")
	ErrInvalidQuantity = errors.New("transaction quantity must be >= 0")
)

// MemoryStore keeps the ledger in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	catalog *catalogx.Catalog
	txs     []contractx.Transaction
	quotes  []contractx.QuoteRecord
	newID   func() string
}

type MemoryOption func(*MemoryStore)

func WithQuotes(quotes []contractx.QuoteRecord) MemoryOption {
	return func(s *MemoryStore) {
		s.appendQuotes(quotes)
	}
}

func WithIDGenerator(fn func() string) MemoryOption {
	return func(s *MemoryStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewMemoryStore(c *catalogx.Catalog, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		catalog: c,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, tx contractx.Transaction) (string, error) {
	tx, err := NormalizeTransaction(tx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = s.newID()
	}
	s.txs = append(s.txs, tx)
	metricsx.LedgerTransactions.WithLabelValues(string(tx.Category)).Inc()
	return tx.ID, nil
}

func (s *MemoryStore) StockLevel(ctx context.Context, itemName string, asOf time.Time) (contractx.StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		stock int64
		seen  bool
	)
	for _, tx := range s.txs {
		if tx.ItemName != itemName || !onOrBefore(tx.Date, asOf) {
			continue
		}
		seen = true
		stock += signedQuantity(tx)
	}
	if !seen {
		return contractx.StockSnapshot{}, fmt.Errorf("%w: %s", contractx.ErrStockNotFound, itemName)
	}
	return contractx.StockSnapshot{
		ItemName:     itemName,
		CurrentStock: stock,
		AsOf:         Day(asOf),
	}, nil
}

func (s *MemoryStore) AllInventory(ctx context.Context, asOf time.Time) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventoryLocked(asOf), nil
}

func (s *MemoryStore) CashBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cashLocked(asOf), nil
}

func (s *MemoryStore) FinancialReport(ctx context.Context, asOf time.Time) (contractx.FinancialReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySales := make(map[string]*contractx.ProductSales)
	order := make([]string, 0)
	for _, tx := range s.txs {
		if tx.Category != contractx.CategorySales || tx.ItemName == "" || !onOrBefore(tx.Date, asOf) {
			continue
		}
		ps, ok := bySales[tx.ItemName]
		if !ok {
			ps = &contractx.ProductSales{ItemName: tx.ItemName}
			bySales[tx.ItemName] = ps
			order = append(order, tx.ItemName)
		}
		ps.UnitsSold += tx.Quantity
		ps.TotalRevenue = ps.TotalRevenue.Add(tx.Amount)
	}
	sales := make([]contractx.ProductSales, 0, len(order))
	for _, name := range order {
		sales = append(sales, *bySales[name])
	}

	return BuildReport(asOf, s.cashLocked(asOf), s.inventoryLocked(asOf), sales, s.catalog), nil
}

func (s *MemoryStore) SearchQuoteHistory(ctx context.Context, keywords []string, limit int) ([]contractx.QuoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RankQuotes(s.quotes, keywords, limit), nil
}

// Transactions returns a copy of the log, in append order.
func (s *MemoryStore) Transactions() []contractx.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contractx.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

func (s *MemoryStore) inventoryLocked(asOf time.Time) map[string]int64 {
	stock := make(map[string]int64)
	for _, tx := range s.txs {
		if tx.ItemName == "" || !onOrBefore(tx.Date, asOf) {
			continue
		}
		stock[tx.ItemName] += signedQuantity(tx)
	}
	for name, qty := range stock {
		if qty <= 0 {
			delete(stock, name)
		}
	}
	return stock
}

func (s *MemoryStore) cashLocked(asOf time.Time) decimal.Decimal {
	cash := decimal.Zero
	for _, tx := range s.txs {
		if !onOrBefore(tx.Date, asOf) {
			continue
		}
		switch tx.Category {
		case contractx.CategorySales:
			cash = cash.Add(tx.Amount)
		case contractx.CategoryStockOrders:
			cash = cash.Sub(tx.Amount)
		}
	}
	return cash
}

func signedQuantity(tx contractx.Transaction) int64 {
	switch tx.Category {
	case contractx.CategoryStockOrders:
		return tx.Quantity
	case contractx.CategorySales:
		return -tx.Quantity
	default:
		return 0
	}
}

// ValidateTransaction checks the fields every store requires before appending.
func ValidateTransaction(tx contractx.Transaction) error {
	switch tx.Category {
	case contractx.CategoryStockOrders, contractx.CategorySales:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCategory, tx.Category)
	}
	if tx.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", contractx.ErrValidation)
	}
	if tx.Category == contractx.CategoryStockOrders && strings.TrimSpace(tx.ItemName) == "" {
		return fmt.Errorf("%w: stock order requires an item", contractx.ErrValidation)
	}
	return nil
}

// AmountPlaces is the precision every stored amount is kept at.
const AmountPlaces = 2

// NormalizeTransaction validates tx and puts it in stored form: the amount in
// whole cents and the date at midnight UTC. Every store appends the result.
func NormalizeTransaction(tx contractx.Transaction) (contractx.Transaction, error) {
	if err := ValidateTransaction(tx); err != nil {
		return contractx.Transaction{}, err
	}
	tx.Amount = tx.Amount.Round(AmountPlaces)
	tx.Date = Day(tx.Date)
	return tx, nil
}

// InsertQuotes appends historical quotes for SearchQuoteHistory.
func (s *MemoryStore) InsertQuotes(ctx context.Context, quotes []contractx.QuoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendQuotes(quotes)
	return nil
}

func (s *MemoryStore) appendQuotes(quotes []contractx.QuoteRecord) {
	for _, q := range quotes {
		q.TotalAmount = q.TotalAmount.Round(AmountPlaces)
		s.quotes = append(s.quotes, q)
	}
}
