package orchestratornode

import (
	"errors"
	"strings"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/ledger"
)

var (
	ErrInvalidMessage = errors.New("request text is empty")
	ErrMissingDate    = errors.New("request date is missing")
)

type GraphState struct {
	Req contractx.Request

	Inventory contractx.InventoryResult
	Quote     *contractx.QuoteResult
	Sale      *contractx.SaleResult
}

// Outcome is everything one request produced, reply text included.
type Outcome struct {
	Reply     string                    `json:"reply"`
	Inventory contractx.InventoryResult `json:"inventory"`
	Quote     *contractx.QuoteResult    `json:"quote,omitempty"`
	Sale      *contractx.SaleResult     `json:"sale,omitempty"`
}

// Fulfilled reports whether anything was sold.
func (o Outcome) Fulfilled() bool {
	return o.Sale != nil && len(o.Sale.Recorded()) > 0
}

func ValidateRequest(in contractx.Request) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}
	if in.Date.IsZero() {
		return nil, ErrMissingDate
	}

	return &GraphState{
		Req: contractx.Request{
			Text: text,
			Date: ledger.Day(in.Date),
			Context: contractx.RequestContext{
				Job:   strings.TrimSpace(in.Context.Job),
				Event: strings.TrimSpace(in.Context.Event),
			},
		},
	}, nil
}
