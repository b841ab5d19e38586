package ledger

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

type TransactionWriter interface {
	CreateTransaction(ctx context.Context, tx contractx.Transaction) (string, error)
}

type SeedConfig struct {
	StartDate   time.Time
	InitialCash decimal.Decimal
	Coverage    float64
	Seed        uint64
	MinStock    int64
	MaxStock    int64
}

var DefaultSeed = SeedConfig{
	StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	InitialCash: decimal.NewFromInt(50000),
	Coverage:    0.4,
	Seed:        137,
	MinStock:    200,
	MaxStock:    800,
}

// SeedItem is one initial stock order written by Seed.
type SeedItem struct {
	ItemName string
	Stock    int64
}

// Seed writes the opening cash balance and stock orders for a reproducible
// random share of the catalog.
func Seed(ctx context.Context, w TransactionWriter, c *catalogx.Catalog, cfg SeedConfig) ([]SeedItem, error) {
	if cfg.StartDate.IsZero() {
		cfg.StartDate = DefaultSeed.StartDate
	}
	if cfg.Coverage <= 0 || cfg.Coverage > 1 {
		cfg.Coverage = DefaultSeed.Coverage
	}
	if cfg.MinStock <= 0 || cfg.MaxStock < cfg.MinStock {
		cfg.MinStock, cfg.MaxStock = DefaultSeed.MinStock, DefaultSeed.MaxStock
	}

	if cfg.InitialCash.IsPositive() {
		if _, err := w.CreateTransaction(ctx, contractx.Transaction{
			Category: contractx.CategorySales,
			Amount:   cfg.InitialCash,
			Date:     cfg.StartDate,
		}); err != nil {
			return nil, fmt.Errorf("seed initial cash: %w", err)
		}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	items := c.Items()
	picks := int(float64(len(items)) * cfg.Coverage)
	perm := rng.Perm(len(items))[:picks]

	seeded := make([]SeedItem, 0, picks)
	for _, idx := range perm {
		it := items[idx]
		stock := cfg.MinStock + rng.Int64N(cfg.MaxStock-cfg.MinStock+1)
		if _, err := w.CreateTransaction(ctx, contractx.Transaction{
			ItemName: it.Name,
			Category: contractx.CategoryStockOrders,
			Quantity: stock,
			Amount:   it.UnitPrice.Mul(decimal.NewFromInt(stock)),
			Date:     cfg.StartDate,
		}); err != nil {
			return nil, fmt.Errorf("seed stock for %s: %w", it.Name, err)
		}
		seeded = append(seeded, SeedItem{ItemName: it.Name, Stock: stock})
	}
	return seeded, nil
}
