package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	orchestratorx "github.com/tanpawarit/paper-supply-agents/agent/agents/orchestrator"
	"github.com/tanpawarit/paper-supply-agents/agent/agents/specialist"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/ledger"
	"github.com/tanpawarit/paper-supply-agents/agent/ledger/pgstore"
	llmx "github.com/tanpawarit/paper-supply-agents/agent/llm"
	configx "github.com/tanpawarit/paper-supply-agents/pkg/config"
	_ "github.com/tanpawarit/paper-supply-agents/pkg/logger/autoload"
	metricsx "github.com/tanpawarit/paper-supply-agents/pkg/metrics"
	openrouterx "github.com/tanpawarit/paper-supply-agents/pkg/openrouter"
	"github.com/tanpawarit/paper-supply-agents/pkg/scenario"
)

type AppConfig struct {
	RequestsPath  string  `envconfig:"REQUESTS_PATH" default:"quote_requests_sample.csv"`
	QuotesPath    string  `envconfig:"QUOTES_PATH" default:"quotes.csv"`
	ResultsPath   string  `envconfig:"RESULTS_PATH" default:"test_results.csv"`
	CatalogPath   string  `envconfig:"CATALOG_PATH"`
	LedgerBackend string  `envconfig:"LEDGER_BACKEND" default:"memory"`
	Seed          uint64  `envconfig:"SEED" default:"137"`
	SeedCoverage  float64 `envconfig:"SEED_COVERAGE" default:"0.4"`
	InitialCash   string  `envconfig:"INITIAL_CASH" default:"50000"`
	StartDate     string  `envconfig:"START_DATE"`
	MaxSteps      int     `envconfig:"MAX_STEPS" default:"10"`
	MetricsAddr   string  `envconfig:"METRICS_ADDR"`
}

// ledgerStore is what the driver needs beyond the workers' view of the ledger.
type ledgerStore interface {
	contractx.Ledger
	InsertQuotes(ctx context.Context, quotes []contractx.QuoteRecord) error
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")

	if err := run(context.Background(), *appCfg, *llmCfg); err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
}

func run(ctx context.Context, appCfg AppConfig, llmCfg llmx.Config) error {
	catalog, err := loadCatalog(appCfg.CatalogPath)
	if err != nil {
		return err
	}

	requests, err := scenario.LoadRequestsFile(appCfg.RequestsPath)
	if err != nil {
		return err
	}
	first, last, ok := scenario.Span(requests)
	if !ok {
		return errors.New("no requests with a valid date")
	}

	store, closeStore, err := openLedger(ctx, appCfg.LedgerBackend, catalog)
	if err != nil {
		return err
	}
	defer closeStore()

	seedCfg, err := seedConfig(appCfg, first)
	if err != nil {
		return err
	}
	seeded, err := ledger.Seed(ctx, store, catalog, seedCfg)
	if err != nil {
		return fmt.Errorf("seed ledger: %w", err)
	}
	log.Info().Int("items", len(seeded)).Time("start_date", seedCfg.StartDate).Msg("ledger seeded")

	if appCfg.QuotesPath != "" {
		quotes, err := scenario.LoadQuotesFile(appCfg.QuotesPath)
		if err != nil {
			log.Warn().Err(err).Str("path", appCfg.QuotesPath).Msg("quote history unavailable")
		} else if err := store.InsertQuotes(ctx, quotes); err != nil {
			return fmt.Errorf("load quote history: %w", err)
		}
	}

	if appCfg.MetricsAddr != "" {
		go func() {
			if err := metricsx.Serve(appCfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", appCfg.MetricsAddr).Msg("metrics server stopped")
			}
		}()
	}

	if llmCfg.CheckModel {
		if err := checkModels(ctx, llmCfg); err != nil {
			return err
		}
	}

	factory, err := specialist.NewFactoryFromConfig(ctx, llmCfg, store, catalog, appCfg.MaxSteps)
	if err != nil {
		return err
	}
	orch, err := orchestratorx.New(factory)
	if err != nil {
		return err
	}

	report, err := store.FinancialReport(ctx, first)
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	cash, inventory := report.CashBalance, report.InventoryValue

	results := make([]scenario.Result, 0, len(requests))
	for i, req := range requests {
		date := req.Date.Format(contractx.DateLayout)
		fmt.Printf("\n=== Request %d ===\n", i+1)
		fmt.Printf("Context: %s organizing %s\n", req.Job, req.Event)
		fmt.Printf("Request Date: %s\n", date)
		fmt.Printf("Cash Balance: $%s\n", cash.StringFixed(2))
		fmt.Printf("Inventory Value: $%s\n", inventory.StringFixed(2))

		response := orch.HandleRequest(ctx, contractx.Request{
			Text:    fmt.Sprintf("%s (Date of request: %s)", req.Text, date),
			Date:    req.Date,
			Context: contractx.RequestContext{Job: req.Job, Event: req.Event},
		})

		report, err := store.FinancialReport(ctx, req.Date)
		if err != nil {
			log.Error().Err(err).Str("date", date).Msg("financial report failed")
		} else {
			cash, inventory = report.CashBalance, report.InventoryValue
		}

		fmt.Printf("Response: %s\n", response)
		fmt.Printf("Updated Cash: $%s\n", cash.StringFixed(2))
		fmt.Printf("Updated Inventory: $%s\n", inventory.StringFixed(2))

		results = append(results, scenario.Result{
			RequestID:      i + 1,
			RequestDate:    req.Date,
			CashBalance:    cash,
			InventoryValue: inventory,
			Response:       response,
		})
		if err := scenario.WriteResultsFile(appCfg.ResultsPath, results); err != nil {
			log.Error().Err(err).Str("path", appCfg.ResultsPath).Msg("write results failed")
		}
	}

	final, err := store.FinancialReport(ctx, last)
	if err != nil {
		return fmt.Errorf("final report: %w", err)
	}
	fmt.Println("\n===== FINAL FINANCIAL REPORT =====")
	fmt.Printf("Final Cash: $%s\n", final.CashBalance.StringFixed(2))
	fmt.Printf("Final Inventory: $%s\n", final.InventoryValue.StringFixed(2))
	for _, p := range final.TopSelling {
		fmt.Printf("Top seller: %s, %d units, $%s\n", p.ItemName, p.UnitsSold, p.TotalRevenue.StringFixed(2))
	}
	return nil
}

func loadCatalog(path string) (*catalogx.Catalog, error) {
	if path == "" {
		return catalogx.Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return catalogx.Load(raw)
}

func openLedger(ctx context.Context, backend string, c *catalogx.Catalog) (ledgerStore, func(), error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return ledger.NewMemoryStore(c), func() {}, nil
	case "postgres":
		pgCfg := configx.MustNew[pgstore.Config]("POSTGRES")
		store, err := pgstore.Open(*pgCfg, c)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		closeFn := func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("close ledger")
			}
		}
		return store, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown ledger backend %q", contractx.ErrValidation, backend)
	}
}

func seedConfig(appCfg AppConfig, firstRequest time.Time) (ledger.SeedConfig, error) {
	cfg := ledger.DefaultSeed
	cfg.Seed = appCfg.Seed
	cfg.Coverage = appCfg.SeedCoverage
	cfg.StartDate = firstRequest

	if appCfg.StartDate != "" {
		start, err := time.Parse(contractx.DateLayout, appCfg.StartDate)
		if err != nil {
			return cfg, fmt.Errorf("%w: START_DATE: %v", contractx.ErrValidation, err)
		}
		cfg.StartDate = start
	}
	cash, err := decimal.NewFromString(appCfg.InitialCash)
	if err != nil {
		return cfg, fmt.Errorf("%w: INITIAL_CASH: %v", contractx.ErrValidation, err)
	}
	cfg.InitialCash = cash
	return cfg, nil
}

// checkModels fails fast when a configured model id does not exist upstream.
func checkModels(ctx context.Context, llmCfg llmx.Config) error {
	seen := map[string]bool{}
	for _, agentType := range []contractx.AgentType{
		contractx.AgentTypeMatcher,
		contractx.AgentTypeInventory,
		contractx.AgentTypeQuoting,
		contractx.AgentTypeSales,
	} {
		cfg := llmCfg.OpenRouterFor(agentType)
		if seen[cfg.Model] {
			continue
		}
		seen[cfg.Model] = true

		client, err := openrouterx.NewClient(cfg)
		if err != nil {
			return err
		}
		if err := openrouterx.CheckModel(ctx, client, cfg.Model); err != nil {
			return fmt.Errorf("check %s model: %w", agentType, err)
		}
	}
	return nil
}
