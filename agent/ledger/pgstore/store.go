// Package pgstore persists the ledger in PostgreSQL through bun.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/ledger"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var _ contractx.Ledger = (*Store)(nil)

type Config struct {
	DSN          string        `envconfig:"DSN"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
}

type transactionRow struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID              string          `bun:"id,pk"`
	ItemName        string          `bun:"item_name,notnull"`
	TransactionType string          `bun:"transaction_type,notnull"`
	Units           int64           `bun:"units,notnull"`
	Price           decimal.Decimal `bun:"price,type:numeric(14,2),notnull"`
	TransactionDate time.Time       `bun:"transaction_date,type:date,notnull"`
}

type quoteRow struct {
	bun.BaseModel `bun:"table:quotes,alias:q"`

	RequestID   string          `bun:"request_id,pk"`
	TotalAmount decimal.Decimal `bun:"total_amount,type:numeric(14,2),notnull"`
	Explanation string          `bun:"quote_explanation"`
	OrderDate   time.Time       `bun:"order_date,type:date"`
	JobType     string          `bun:"job_type"`
	OrderSize   string          `bun:"order_size"`
	EventType   string          `bun:"event_type"`
}

type Store struct {
	db      *bun.DB
	catalog *catalogx.Catalog
}

// Open connects to PostgreSQL; the caller owns Close.
func Open(cfg Config, c *catalogx.Catalog) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: POSTGRES_DSN is required", contractx.ErrValidation)
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
		pgdriver.WithReadTimeout(cfg.ReadTimeout),
		pgdriver.WithWriteTimeout(cfg.WriteTimeout),
	))
	return New(bun.NewDB(sqldb, pgdialect.New()), c), nil
}

func New(db *bun.DB, c *catalogx.Catalog) *Store {
	return &Store{db: db, catalog: c}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the ledger tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, model := range []any{(*transactionRow)(nil), (*quoteRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx contractx.Transaction) (string, error) {
	tx, err := ledger.NormalizeTransaction(tx)
	if err != nil {
		return "", err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	row := &transactionRow{
		ID:              tx.ID,
		ItemName:        tx.ItemName,
		TransactionType: string(tx.Category),
		Units:           tx.Quantity,
		Price:           tx.Amount,
		TransactionDate: tx.Date,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	metricsx.LedgerTransactions.WithLabelValues(string(tx.Category)).Inc()
	return tx.ID, nil
}

const signedUnits = "CASE WHEN transaction_type = 'stock_orders' THEN units ELSE -units END"

func (s *Store) StockLevel(ctx context.Context, itemName string, asOf time.Time) (contractx.StockSnapshot, error) {
	var (
		stock int64
		count int64
	)
	err := s.db.NewSelect().
		Model((*transactionRow)(nil)).
		ColumnExpr("COALESCE(SUM("+signedUnits+"), 0) AS stock").
		ColumnExpr("COUNT(*) AS n").
		Where("item_name = ?", itemName).
		Where("transaction_date <= ?", ledger.Day(asOf)).
		Scan(ctx, &stock, &count)
	if err != nil {
		return contractx.StockSnapshot{}, fmt.Errorf("stock level for %s: %w", itemName, err)
	}
	if count == 0 {
		return contractx.StockSnapshot{}, fmt.Errorf("%w: %s", contractx.ErrStockNotFound, itemName)
	}
	return contractx.StockSnapshot{ItemName: itemName, CurrentStock: stock, AsOf: ledger.Day(asOf)}, nil
}

type stockRow struct {
	ItemName string `bun:"item_name"`
	Stock    int64  `bun:"stock"`
}

func (s *Store) AllInventory(ctx context.Context, asOf time.Time) (map[string]int64, error) {
	var rows []stockRow
	err := s.db.NewSelect().
		Model((*transactionRow)(nil)).
		Column("item_name").
		ColumnExpr("SUM("+signedUnits+") AS stock").
		Where("item_name <> ''").
		Where("transaction_date <= ?", ledger.Day(asOf)).
		Group("item_name").
		Having("SUM(" + signedUnits + ") > 0").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("all inventory: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ItemName] = r.Stock
	}
	return out, nil
}

func (s *Store) CashBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := s.db.NewSelect().
		Model((*transactionRow)(nil)).
		ColumnExpr("COALESCE(SUM(CASE WHEN transaction_type = 'sales' THEN price ELSE -price END), 0) AS cash").
		Where("transaction_date <= ?", ledger.Day(asOf)).
		Scan(ctx, &cash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cash balance: %w", err)
	}
	return cash, nil
}

type salesRow struct {
	ItemName     string          `bun:"item_name"`
	UnitsSold    int64           `bun:"units_sold"`
	TotalRevenue decimal.Decimal `bun:"total_revenue"`
}

func (s *Store) FinancialReport(ctx context.Context, asOf time.Time) (contractx.FinancialReport, error) {
	cash, err := s.CashBalance(ctx, asOf)
	if err != nil {
		return contractx.FinancialReport{}, err
	}
	stock, err := s.AllInventory(ctx, asOf)
	if err != nil {
		return contractx.FinancialReport{}, err
	}

	var rows []salesRow
	err = s.db.NewSelect().
		Model((*transactionRow)(nil)).
		Column("item_name").
		ColumnExpr("SUM(units) AS units_sold").
		ColumnExpr("SUM(price) AS total_revenue").
		Where("transaction_type = ?", string(contractx.CategorySales)).
		Where("item_name <> ''").
		Where("transaction_date <= ?", ledger.Day(asOf)).
		Group("item_name").
		Scan(ctx, &rows)
	if err != nil {
		return contractx.FinancialReport{}, fmt.Errorf("sales by product: %w", err)
	}
	sales := make([]contractx.ProductSales, 0, len(rows))
	for _, r := range rows {
		sales = append(sales, contractx.ProductSales{ItemName: r.ItemName, UnitsSold: r.UnitsSold, TotalRevenue: r.TotalRevenue})
	}

	return ledger.BuildReport(asOf, cash, stock, sales, s.catalog), nil
}

func (s *Store) SearchQuoteHistory(ctx context.Context, keywords []string, limit int) ([]contractx.QuoteRecord, error) {
	terms := ledger.NormalizeKeywords(keywords)

	var rows []quoteRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("order_date DESC")
	if len(terms) > 0 {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, term := range terms {
				like := "%" + term + "%"
				q = q.WhereOr("quote_explanation ILIKE ? OR job_type ILIKE ? OR event_type ILIKE ? OR order_size ILIKE ?", like, like, like, like)
			}
			return q
		})
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("search quotes: %w", err)
	}

	quotes := make([]contractx.QuoteRecord, 0, len(rows))
	for _, r := range rows {
		quotes = append(quotes, contractx.QuoteRecord{
			RequestID:   r.RequestID,
			TotalAmount: r.TotalAmount,
			Explanation: r.Explanation,
			OrderDate:   r.OrderDate,
			JobType:     r.JobType,
			OrderSize:   r.OrderSize,
			EventType:   r.EventType,
		})
	}
	return ledger.RankQuotes(quotes, terms, limit), nil
}

// InsertQuotes bulk loads historical quotes.
func (s *Store) InsertQuotes(ctx context.Context, quotes []contractx.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	rows := make([]quoteRow, 0, len(quotes))
	for _, q := range quotes {
		id := q.RequestID
		if id == "" {
			id = uuid.NewString()
		}
		rows = append(rows, quoteRow{
			RequestID:   id,
			TotalAmount: q.TotalAmount.Round(ledger.AmountPlaces),
			Explanation: q.Explanation,
			OrderDate:   ledger.Day(q.OrderDate),
			JobType:     q.JobType,
			OrderSize:   q.OrderSize,
			EventType:   q.EventType,
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).On("CONFLICT (request_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("insert quotes: %w", err)
	}
	return nil
}
