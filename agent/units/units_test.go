package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		quantity float64
		unit     string
		want     int64
	}{
		{name: "reams", quantity: 500, unit: "reams", want: 250000},
		{name: "single ream", quantity: 1, unit: "Ream", want: 500},
		{name: "boxes", quantity: 10, unit: "boxes", want: 25000},
		{name: "box", quantity: 1, unit: " BOX ", want: 2500},
		{name: "sheet", quantity: 200, unit: "sheet", want: 200},
		{name: "sheets", quantity: 200, unit: "sheets", want: 200},
		{name: "no unit", quantity: 50, unit: "", want: 50},
		{name: "pieces", quantity: 75, unit: "pieces", want: 75},
		{name: "half ream", quantity: 2.5, unit: "reams", want: 1250},
		{name: "zero", quantity: 0, unit: "reams", want: 0},
		{name: "negative", quantity: -3, unit: "boxes", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.quantity, tt.unit))
		})
	}
}
