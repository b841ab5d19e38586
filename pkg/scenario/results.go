package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

var resultHeader = []string{"request_id", "request_date", "cash_balance", "inventory_value", "response"}

// Result is the ledger position right after one request was handled.
type Result struct {
	RequestID      int
	RequestDate    time.Time
	CashBalance    decimal.Decimal
	InventoryValue decimal.Decimal
	Response       string
}

func WriteResults(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write([]string{
			strconv.Itoa(r.RequestID),
			r.RequestDate.Format(contractx.DateLayout),
			r.CashBalance.StringFixed(2),
			r.InventoryValue.StringFixed(2),
			r.Response,
		}); err != nil {
			return fmt.Errorf("write result %d: %w", r.RequestID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsFile rewrites path with every result so far, so a crash
// mid-run keeps the completed rows.
func WriteResultsFile(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	if err := WriteResults(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
