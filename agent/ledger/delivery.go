// Package ledger derives stock, cash and reports from an append-only
// transaction log.
package ledger

import "time"

// SupplierDeliveryDate estimates when a supplier order placed on orderDate arrives.
func SupplierDeliveryDate(orderDate time.Time, quantity int64) time.Time {
	var days int
	switch {
	case quantity <= 10:
		days = 0
	case quantity <= 100:
		days = 1
	case quantity <= 1000:
		days = 4
	default:
		days = 7
	}
	return Day(orderDate).AddDate(0, 0, days)
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// onOrBefore reports whether the calendar date of t is not after asOf.
func onOrBefore(t, asOf time.Time) bool {
	return !Day(t).After(Day(asOf))
}
