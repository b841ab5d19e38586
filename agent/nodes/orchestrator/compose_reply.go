package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	"github.com/tanpawarit/paper-supply-agents/agent/pricing"
)

func ComposeReply(in *GraphState) (Outcome, error) {
	if in == nil {
		return Outcome{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order summary for %s.\n", in.Req.Date.Format(contractx.DateLayout))

	writeSold(&b, in.Sale)
	writeBackorders(&b, in.Inventory)

	if in.Quote != nil {
		fmt.Fprintf(&b, "\nQuoted total for the full requested quantity: %s", pricing.Money(in.Quote.Total))
		if anyDiscounted(in.Quote.Lines) {
			fmt.Fprintf(&b, " (10%% bulk discount on lines of %d units or more)", pricing.BulkThreshold)
		}
		b.WriteString(".\n")
	}

	writeUnavailable(&b, in.Inventory)
	writeExhausted(&b, in)

	out := outcome(in)
	out.Reply = strings.TrimSpace(b.String())
	return out, nil
}

// ComposeUnavailable answers a request none of whose items could be matched.
// No pricing or sale happens on this path.
func ComposeUnavailable(in *GraphState) (Outcome, error) {
	if in == nil {
		return Outcome{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order summary for %s.\n", in.Req.Date.Format(contractx.DateLayout))
	b.WriteString("Nothing could be fulfilled: none of the requested items are in our catalog.\n")
	writeUnavailable(&b, in.Inventory)
	if len(in.Inventory.Lines) == 0 {
		b.WriteString("No orderable items were identified in the request.\n")
	}
	writeExhausted(&b, in)

	out := outcome(in)
	out.Reply = strings.TrimSpace(b.String())
	return out, nil
}

func outcome(in *GraphState) Outcome {
	return Outcome{
		Inventory: in.Inventory,
		Quote:     in.Quote,
		Sale:      in.Sale,
	}
}

func writeSold(b *strings.Builder, sale *contractx.SaleResult) {
	if sale == nil || len(sale.Recorded()) == 0 {
		b.WriteString("\nNothing was sold today: no requested item is in stock.\n")
		return
	}

	b.WriteString("\nSold:\n")
	for _, line := range sale.Recorded() {
		fmt.Fprintf(b, "- %s x %d at %s each = %s", line.ItemName, line.Quantity,
			pricing.Money(line.UnitPrice), pricing.Money(line.TotalPrice))
		if pricing.Discounted(line.Quantity) {
			b.WriteString(" (10% bulk discount)")
		}
		b.WriteString("\n")
	}
	for _, line := range sale.Lines {
		if !line.Recorded {
			fmt.Fprintf(b, "- %s not sold: %s\n", line.Term, line.SkipReason)
		}
	}
	fmt.Fprintf(b, "Total charged: %s\n", pricing.Money(sale.Total))
}

func writeBackorders(b *strings.Builder, inv contractx.InventoryResult) {
	var lines []contractx.AvailabilityLine
	for _, line := range inv.Resolved() {
		if line.Backordered > 0 {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}

	b.WriteString("\nBackordered:\n")
	for _, line := range lines {
		fmt.Fprintf(b, "- %s: %d of %d units fulfilled, %d backordered",
			line.Resolution.Name, line.Fulfillable, line.Requested, line.Backordered)
		if line.DeliveryBy != nil {
			fmt.Fprintf(b, ", expected delivery by %s", line.DeliveryBy.Format(contractx.DateLayout))
		} else if line.RestockNote != "" {
			fmt.Fprintf(b, " (%s)", line.RestockNote)
		}
		b.WriteString("\n")
	}
}

func writeUnavailable(b *strings.Builder, inv contractx.InventoryResult) {
	unresolved := inv.Unresolved()
	if len(unresolved) == 0 {
		return
	}

	terms := make([]string, 0, len(unresolved))
	for _, line := range unresolved {
		terms = append(terms, line.Term)
	}
	fmt.Fprintf(b, "\nUnavailable (not in our catalog): %s.\n", strings.Join(terms, ", "))
}

func writeExhausted(b *strings.Builder, in *GraphState) {
	var workers []string
	if in.Inventory.Exhausted {
		workers = append(workers, string(contractx.AgentTypeInventory))
	}
	if in.Quote != nil && in.Quote.Exhausted {
		workers = append(workers, string(contractx.AgentTypeQuoting))
	}
	if in.Sale != nil && in.Sale.Exhausted {
		workers = append(workers, string(contractx.AgentTypeSales))
	}
	if len(workers) > 0 {
		fmt.Fprintf(b, "\nNote: the %s step budget ran out; results above are partial.\n", strings.Join(workers, " and "))
	}
}

func anyDiscounted(lines []contractx.QuoteLine) bool {
	for _, line := range lines {
		if line.Available && line.Discounted {
			return true
		}
	}
	return false
}
