package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/ledger"
)

type fakeMatcher struct {
	mapping map[string]string
}

func (m fakeMatcher) Map(_ context.Context, terms []string) []catalogx.Resolution {
	out := make([]catalogx.Resolution, 0, len(terms))
	for _, term := range terms {
		if name, ok := m.mapping[term]; ok {
			out = append(out, catalogx.Resolution{Term: term, Name: name, Resolved: true, Method: catalogx.MatchModel})
			continue
		}
		out = append(out, catalogx.Unresolved(term))
	}
	return out
}

var requestDate = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func newDeps(t *testing.T) (Deps, *ledger.MemoryStore) {
	t.Helper()
	c := catalogx.Default()
	store := ledger.NewMemoryStore(c)
	_, err := store.CreateTransaction(context.Background(), contractx.Transaction{
		ItemName: "A4 paper",
		Category: contractx.CategoryStockOrders,
		Quantity: 1000,
		Amount:   decimal.NewFromInt(50),
		Date:     requestDate,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return Deps{
		Ledger:  store,
		Catalog: c,
		Matcher: fakeMatcher{mapping: map[string]string{"printer paper": "A4 paper"}},
	}, store
}

func TestInventoryToolsetNames(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	ts, err := NewToolset(contractx.AgentTypeInventory, NewBudget(5), InventoryTools(deps)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		ToolInventoryMapItems,
		ToolInventoryCheckStock,
		ToolInventoryRestock,
		ToolInventoryDeliveryEstimate,
		ToolInventoryAudit,
	}
	got := ts.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tool %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestNewToolsetRejectsDuplicates(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	defs := append(SalesTools(deps), SalesTools(deps)[0])
	if _, err := NewToolset(contractx.AgentTypeSales, nil, defs...); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	ts, _ := NewToolset(contractx.AgentTypeQuoting, nil, QuotingTools(deps)...)
	out, err := ts.Execute(context.Background(), contractx.ToolRequest{Tool: ToolSalesRecordSale})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Error, "unavailable for agent=quoting") {
		t.Fatalf("unexpected tool error: %q", out.Error)
	}
}

func TestExecuteRejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	deps, store := newDeps(t)
	ts, _ := NewToolset(contractx.AgentTypeInventory, nil, InventoryTools(deps)...)

	cases := []map[string]any{
		{},
		{"orders": "A4 paper", "order_date": "2025-04-01"},
		{"orders": []map[string]any{{"item_name": "A4 paper"}}, "order_date": "2025-04-01"},
		{"orders": []map[string]any{{"item_name": "A4 paper", "quantity": 5}}, "order_date": "2025-04-01", "extra": true},
	}
	for i, args := range cases {
		out, err := ts.Execute(context.Background(), contractx.ToolRequest{Tool: ToolInventoryRestock, Args: args})
		if err != nil {
			t.Fatalf("case %d: unexpected error: %v", i, err)
		}
		if !strings.Contains(out.Error, contractx.ErrSchemaViolation.Error()) {
			t.Fatalf("case %d: expected schema violation, got %q", i, out.Error)
		}
	}
	if n := len(store.Transactions()); n != 1 {
		t.Fatalf("expected no new transactions, got %d", n)
	}
}

func TestBudgetStopsExecution(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	ts, _ := NewToolset(contractx.AgentTypeInventory, NewBudget(2), InventoryTools(deps)...)
	req := contractx.ToolRequest{Tool: ToolInventoryAudit, Args: map[string]any{"as_of": "2025-04-01"}}

	for i := 0; i < 2; i++ {
		if _, err := ts.Execute(context.Background(), req); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}
	out, err := ts.Execute(context.Background(), req)
	if !errors.Is(err, contractx.ErrStepBudgetExhausted) {
		t.Fatalf("expected budget exhaustion, got %v", err)
	}
	if out.Error == "" {
		t.Fatal("expected tool error on exhaustion")
	}
	if ts.Budget().Remaining() != 0 {
		t.Fatalf("expected no remaining steps, got %d", ts.Budget().Remaining())
	}
}

func TestInventoryOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deps, store := newDeps(t)
	ts, _ := NewToolset(contractx.AgentTypeInventory, nil, InventoryTools(deps)...)

	res, _ := ts.Execute(ctx, contractx.ToolRequest{Tool: ToolInventoryMapItems, Args: map[string]any{
		"terms": []string{"printer paper", "balloons"},
	}})
	resolutions, err := Output[[]catalogx.Resolution](res)
	if err != nil {
		t.Fatalf("map items: %v", err)
	}
	if !resolutions[0].Resolved || resolutions[0].Name != "A4 paper" || resolutions[1].Resolved {
		t.Fatalf("unexpected resolutions: %+v", resolutions)
	}

	res, _ = ts.Execute(ctx, contractx.ToolRequest{Tool: ToolInventoryCheckStock, Args: map[string]any{
		"item_names": []string{"A4 paper", "Cardstock"},
		"as_of":      "2025-04-01",
	}})
	checks, err := Output[[]StockCheck](res)
	if err != nil {
		t.Fatalf("check stock: %v", err)
	}
	if checks[0].Stock != 1000 || !checks[0].Found || checks[1].Found || checks[1].Stock != 0 {
		t.Fatalf("unexpected stock checks: %+v", checks)
	}

	res, _ = ts.Execute(ctx, contractx.ToolRequest{Tool: ToolInventoryRestock, Args: map[string]any{
		"orders": []RestockOrder{
			{ItemName: "Cardstock", Quantity: 200},
			{ItemName: "Balloons", Quantity: 10},
		},
		"order_date": "2025-04-01",
	}})
	receipts, err := Output[[]RestockReceipt](res)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if receipts[0].Cost.StringFixed(2) != "30.00" || receipts[0].TransactionID == "" {
		t.Fatalf("unexpected receipt: %+v", receipts[0])
	}
	if receipts[1].Skipped != catalogx.NotFound {
		t.Fatalf("expected unknown item to be skipped, got %+v", receipts[1])
	}
	if n := len(store.Transactions()); n != 2 {
		t.Fatalf("expected exactly one restock transaction, got %d total", n-1)
	}

	res, _ = ts.Execute(ctx, contractx.ToolRequest{Tool: ToolInventoryDeliveryEstimate, Args: map[string]any{
		"quantity":   200,
		"order_date": "2025-04-01",
	}})
	estimate, err := Output[DeliveryEstimate](res)
	if err != nil {
		t.Fatalf("delivery estimate: %v", err)
	}
	if got := estimate.DeliveryBy.Format(contractx.DateLayout); got != "2025-04-05" {
		t.Fatalf("unexpected delivery date: %s", got)
	}

	res, _ = ts.Execute(ctx, contractx.ToolRequest{Tool: ToolInventoryAudit, Args: map[string]any{"as_of": "2025-04-01"}})
	audit, err := Output[map[string]int64](res)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if audit["A4 paper"] != 1000 || audit["Cardstock"] != 200 {
		t.Fatalf("unexpected audit: %+v", audit)
	}
}

type flakyLedger struct {
	*ledger.MemoryStore
	broken string
}

func (l flakyLedger) StockLevel(ctx context.Context, itemName string, asOf time.Time) (contractx.StockSnapshot, error) {
	if itemName == l.broken {
		return contractx.StockSnapshot{}, errors.New("connection reset by peer")
	}
	return l.MemoryStore.StockLevel(ctx, itemName, asOf)
}

func TestCheckStockTreatsLookupFailureAsZero(t *testing.T) {
	t.Parallel()

	deps, store := newDeps(t)
	deps.Ledger = flakyLedger{MemoryStore: store, broken: "Pens"}
	ts, _ := NewToolset(contractx.AgentTypeInventory, nil, InventoryTools(deps)...)

	res, err := ts.Execute(context.Background(), contractx.ToolRequest{Tool: ToolInventoryCheckStock, Args: map[string]any{
		"item_names": []string{"Pens", "A4 paper"},
		"as_of":      "2025-04-01",
	}})
	if err != nil {
		t.Fatalf("check stock: %v", err)
	}
	if res.Error != "" {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	checks, err := Output[[]StockCheck](res)
	if err != nil {
		t.Fatalf("check stock output: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("expected both items reported, got %+v", checks)
	}
	if checks[0].ItemName != "Pens" || checks[0].Stock != 0 || checks[0].Found {
		t.Fatalf("failed lookup must count as zero stock: %+v", checks[0])
	}
	if checks[1].ItemName != "A4 paper" || checks[1].Stock != 1000 || !checks[1].Found {
		t.Fatalf("unexpected stock for healthy item: %+v", checks[1])
	}
}

func TestQuoteBatchAppliesBulkDiscount(t *testing.T) {
	t.Parallel()

	out := QuoteBatch(catalogx.Default(), []QuoteItem{
		{Term: "heavy cardstock", Name: "Cardstock", Quantity: 503, Method: string(catalogx.MatchModel)},
		{Term: "a4", Name: "a4 paper", Quantity: 499},
		{Term: "balloons", Name: "", Quantity: 200},
	})
	if len(out.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(out.Lines))
	}
	if got := out.Lines[0].LineTotal.StringFixed(2); got != "67.91" || !out.Lines[0].Discounted {
		t.Fatalf("unexpected discounted line: %s", got)
	}
	if out.Lines[0].Resolution.Method != catalogx.MatchModel {
		t.Fatalf("expected model resolution, got %s", out.Lines[0].Resolution.Method)
	}
	if got := out.Lines[1].LineTotal.StringFixed(2); got != "24.95" || out.Lines[1].Discounted {
		t.Fatalf("unexpected plain line: %s", got)
	}
	if res := out.Lines[1].Resolution; res.Name != "A4 paper" || res.Term != "a4" || res.Method != catalogx.MatchCaseInsensitive {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if out.Lines[2].Available || !out.Lines[2].LineTotal.IsZero() {
		t.Fatalf("unresolved line must be unavailable: %+v", out.Lines[2])
	}
	if got := out.Total.StringFixed(2); got != "92.86" {
		t.Fatalf("unexpected total: %s", got)
	}
}

func TestQuotingHistoryCapsLimit(t *testing.T) {
	t.Parallel()

	c := catalogx.Default()
	quotes := make([]contractx.QuoteRecord, 0, 5)
	for i := 0; i < 5; i++ {
		quotes = append(quotes, contractx.QuoteRecord{
			RequestID:   string(rune('a' + i)),
			Explanation: "party supplies",
			OrderDate:   requestDate.AddDate(0, 0, -i),
		})
	}
	deps := Deps{Ledger: ledger.NewMemoryStore(c, ledger.WithQuotes(quotes)), Catalog: c}
	ts, _ := NewToolset(contractx.AgentTypeQuoting, nil, QuotingTools(deps)...)

	res, _ := ts.Execute(context.Background(), contractx.ToolRequest{Tool: ToolQuotingHistory, Args: map[string]any{
		"keywords": []string{"party"},
		"limit":    10,
	}})
	history, err := Output[[]contractx.QuoteRecord](res)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != DefaultHistoryLimit || history[0].RequestID != "a" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestSalesOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deps, store := newDeps(t)
	ts, _ := NewToolset(contractx.AgentTypeSales, nil, SalesTools(deps)...)

	res, _ := ts.Execute(ctx, contractx.ToolRequest{Tool: ToolSalesCheckPrices, Args: map[string]any{
		"item_names": []string{"a4 paper", "Balloons"},
	}})
	prices, err := Output[[]PriceCheck](res)
	if err != nil {
		t.Fatalf("check prices: %v", err)
	}
	if !prices[0].Found || prices[0].ItemName != "A4 paper" || !prices[1].UnitPrice.IsZero() {
		t.Fatalf("unexpected prices: %+v", prices)
	}

	res, _ = ts.Execute(ctx, contractx.ToolRequest{Tool: ToolSalesRecordSale, Args: map[string]any{
		"item_name": "A4 paper", "quantity": 100, "total_price": "0.00", "date": "2025-04-01",
	}})
	if !strings.Contains(res.Error, contractx.ErrInvalidSaleTotal.Error()) {
		t.Fatalf("expected invalid total, got %q", res.Error)
	}

	res, _ = ts.Execute(ctx, contractx.ToolRequest{Tool: ToolSalesRecordSale, Args: map[string]any{
		"item_name": "A4 paper", "quantity": 100, "total_price": "5.00", "date": "2025-04-01",
	}})
	receipt, err := Output[SaleReceipt](res)
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if receipt.TransactionID == "" || receipt.Quantity != 100 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	res, _ = ts.Execute(ctx, contractx.ToolRequest{Tool: ToolSalesDailyReport, Args: map[string]any{"as_of": "2025-04-01"}})
	report, err := Output[contractx.FinancialReport](res)
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	if got := report.CashBalance.StringFixed(2); got != "-45.00" {
		t.Fatalf("unexpected cash balance: %s", got)
	}
	if n := len(store.Transactions()); n != 2 {
		t.Fatalf("expected one sale recorded, got %d transactions", n)
	}
}

func TestJSONSchemaMarksRequired(t *testing.T) {
	t.Parallel()

	s := JSONSchema(SalesTools(Deps{})[1].Params)
	required, ok := s["required"].([]string)
	if !ok {
		t.Fatalf("missing required list: %+v", s)
	}
	if strings.Join(required, ",") != "date,item_name,quantity,total_price" {
		t.Fatalf("unexpected required list: %v", required)
	}
}
