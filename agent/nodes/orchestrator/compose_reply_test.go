package orchestratornode

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	catalogx "github.com/tanpawarit/paper-supply-agents/agent/catalog"
	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	_, err := ValidateRequest(contractx.Request{Text: "  ", Date: time.Now()})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	_, err = ValidateRequest(contractx.Request{Text: "pens"})
	if !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}

	st, err := ValidateRequest(contractx.Request{
		Text:    " 50 pens ",
		Date:    time.Date(2025, 4, 1, 15, 30, 0, 0, time.UTC),
		Context: contractx.RequestContext{Event: " party "},
	})
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if st.Req.Text != "50 pens" || st.Req.Context.Event != "party" {
		t.Fatalf("unexpected request: %+v", st.Req)
	}
	if st.Req.Date.Hour() != 0 {
		t.Fatalf("expected date truncated to the day, got %v", st.Req.Date)
	}
}

func TestRouteAvailability(t *testing.T) {
	t.Parallel()

	st := &GraphState{Inventory: contractx.InventoryResult{Lines: []contractx.AvailabilityLine{
		{Term: "balloons", Resolution: catalogx.Unresolved("balloons")},
	}}}
	next, err := RouteAvailability(context.Background(), st)
	if err != nil || next != NodeComposeUnavailable {
		t.Fatalf("expected %s, got %s (%v)", NodeComposeUnavailable, next, err)
	}

	st.Inventory.Lines = append(st.Inventory.Lines, contractx.AvailabilityLine{
		Term:       "pens",
		Resolution: catalogx.Resolution{Term: "pens", Name: "Pens", Resolved: true, Method: catalogx.MatchCaseInsensitive},
	})
	next, err = RouteAvailability(context.Background(), st)
	if err != nil || next != NodePriceItems {
		t.Fatalf("expected %s, got %s (%v)", NodePriceItems, next, err)
	}
}

func TestComposeReplyListsEverySection(t *testing.T) {
	t.Parallel()

	delivery := time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC)
	st := &GraphState{
		Req: contractx.Request{Text: "paper", Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		Inventory: contractx.InventoryResult{Lines: []contractx.AvailabilityLine{
			{
				Term:        "printer paper",
				Resolution:  catalogx.Resolution{Term: "printer paper", Name: "A4 paper", Resolved: true, Method: catalogx.MatchModel},
				Requested:   250000,
				OnHand:      1000,
				Fulfillable: 1000,
				Backordered: 249000,
				DeliveryBy:  &delivery,
			},
			{Term: "balloons", Resolution: catalogx.Unresolved("balloons")},
		}},
		Quote: &contractx.QuoteResult{
			Lines: []contractx.QuoteLine{{Term: "A4 paper", Quantity: 250000, Discounted: true, Available: true}},
			Total: decimal.RequireFromString("11250"),
		},
		Sale: &contractx.SaleResult{
			Lines: []contractx.SaleLine{{
				Term:       "A4 paper",
				ItemName:   "A4 paper",
				Quantity:   1000,
				UnitPrice:  decimal.RequireFromString("0.05"),
				TotalPrice: decimal.RequireFromString("45"),
				Recorded:   true,
			}},
			Total: decimal.RequireFromString("45"),
		},
	}

	out, err := ComposeReply(st)
	if err != nil {
		t.Fatalf("ComposeReply() error = %v", err)
	}
	for _, want := range []string{
		"- A4 paper x 1000 at $0.05 each = $45.00 (10% bulk discount)",
		"Total charged: $45.00",
		"- A4 paper: 1000 of 250000 units fulfilled, 249000 backordered, expected delivery by 2025-04-08",
		"Quoted total for the full requested quantity: $11250.00",
		"Unavailable (not in our catalog): balloons.",
	} {
		if !strings.Contains(out.Reply, want) {
			t.Fatalf("reply missing %q:\n%s", want, out.Reply)
		}
	}
	if !out.Fulfilled() {
		t.Fatal("expected fulfilled outcome")
	}
}

func TestComposeReplyWithoutStock(t *testing.T) {
	t.Parallel()

	st := &GraphState{
		Req: contractx.Request{Text: "pens", Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		Inventory: contractx.InventoryResult{Lines: []contractx.AvailabilityLine{{
			Term:        "pens",
			Resolution:  catalogx.Resolution{Term: "pens", Name: "Pens", Resolved: true, Method: catalogx.MatchCaseInsensitive},
			Requested:   50,
			Backordered: 50,
			RestockNote: "restock failed",
		}}},
		Quote: &contractx.QuoteResult{Total: decimal.RequireFromString("5")},
	}

	out, err := ComposeReply(st)
	if err != nil {
		t.Fatalf("ComposeReply() error = %v", err)
	}
	if !strings.Contains(out.Reply, "Nothing was sold today") || !strings.Contains(out.Reply, "(restock failed)") {
		t.Fatalf("unexpected reply: %s", out.Reply)
	}
}

func TestComposeUnavailable(t *testing.T) {
	t.Parallel()

	st := &GraphState{
		Req: contractx.Request{Text: "balloons", Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		Inventory: contractx.InventoryResult{
			Lines:     []contractx.AvailabilityLine{{Term: "balloons", Resolution: catalogx.Unresolved("balloons")}},
			Exhausted: true,
		},
	}

	out, err := ComposeUnavailable(st)
	if err != nil {
		t.Fatalf("ComposeUnavailable() error = %v", err)
	}
	if !strings.Contains(out.Reply, "Nothing could be fulfilled") || !strings.Contains(out.Reply, "balloons") {
		t.Fatalf("unexpected reply: %s", out.Reply)
	}
	if !strings.Contains(out.Reply, "inventory step budget ran out") {
		t.Fatalf("expected exhaustion note: %s", out.Reply)
	}
	if out.Fulfilled() {
		t.Fatal("nothing may be fulfilled")
	}
}
