package scenario

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

var quoteDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	RequestDateLayout,
}

// LoadQuotes reads historical quotes. Rows without an id or a valid amount
// are skipped.
func LoadQuotes(r io.Reader) ([]contractx.QuoteRecord, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	col, err := columns(header, "request_id", "total_amount")
	if err != nil {
		return nil, err
	}

	out := make([]contractx.QuoteRecord, 0, len(rows))
	for i, row := range rows {
		id := field(row, col, "request_id")
		amount, err := decimal.NewFromString(field(row, col, "total_amount"))
		if id == "" || err != nil {
			log.Warn().Err(err).Int("row", i+1).Msg("skipping malformed quote")
			continue
		}
		out = append(out, contractx.QuoteRecord{
			RequestID:   id,
			TotalAmount: amount,
			Explanation: field(row, col, "quote_explanation"),
			OrderDate:   parseQuoteDate(field(row, col, "order_date")),
			JobType:     field(row, col, "job_type"),
			OrderSize:   field(row, col, "order_size"),
			EventType:   field(row, col, "event_type"),
		})
	}
	return out, nil
}

func LoadQuotesFile(path string) ([]contractx.QuoteRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quotes: %w", err)
	}
	defer f.Close()
	return LoadQuotes(f)
}

func parseQuoteDate(raw string) time.Time {
	for _, layout := range quoteDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
