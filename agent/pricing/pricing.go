// Package pricing is the single pricing formula shared by quoting and sale
// finalization.
package pricing

import "github.com/shopspring/decimal"

const BulkThreshold int64 = 500

var bulkFactor = decimal.RequireFromString("0.90")

// Discounted reports whether quantity earns the bulk discount.
func Discounted(quantity int64) bool {
	return quantity >= BulkThreshold
}

// LineTotal is unit price times quantity, 10% off from BulkThreshold units,
// rounded to cents.
func LineTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	total := unitPrice.Mul(decimal.NewFromInt(quantity))
	if Discounted(quantity) {
		total = total.Mul(bulkFactor)
	}
	return total.Round(2)
}

// Sum adds already rounded line totals.
func Sum(lines ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l)
	}
	return total.Round(2)
}

// Money formats an amount as dollars with two decimals.
func Money(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
