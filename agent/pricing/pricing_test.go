package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		unitPrice string
		quantity  int64
		want      string
	}{
		{name: "below threshold", unitPrice: "0.10", quantity: 50, want: "5.00"},
		{name: "just below threshold", unitPrice: "0.05", quantity: 499, want: "24.95"},
		{name: "at threshold", unitPrice: "0.05", quantity: 500, want: "22.50"},
		{name: "reams converted", unitPrice: "0.05", quantity: 250000, want: "11250.00"},
		{name: "rounds half up", unitPrice: "0.15", quantity: 503, want: "67.91"},
		{name: "zero quantity", unitPrice: "0.15", quantity: 0, want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := LineTotal(decimal.RequireFromString(tt.unitPrice), tt.quantity)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestSumOfRoundedLines(t *testing.T) {
	t.Parallel()

	a := LineTotal(decimal.RequireFromString("0.15"), 503)
	b := LineTotal(decimal.RequireFromString("0.10"), 50)
	assert.Equal(t, "72.91", Sum(a, b).StringFixed(2))
	assert.Equal(t, "$72.91", Money(Sum(a, b)))
}

func TestDiscounted(t *testing.T) {
	t.Parallel()

	assert.False(t, Discounted(499))
	assert.True(t, Discounted(500))
}
