package rules

import (
	"github.com/shopspring/decimal"
)

// minPlaces is the least number of decimal places amounts are split to.
const minPlaces = 2

// splitAmount partitions amount into len(weights) parts proportional to weights.
// All-zero weights mean equal parts. Every part but the last is rounded to the
// amount's scale (at least two places); the last part takes the remainder, so the
// parts always sum to amount exactly.
func splitAmount(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	n := len(weights)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []decimal.Decimal{amount}
	}

	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w)
	}
	if !total.IsPositive() {
		weights = equalWeights(n)
		total = decimal.NewFromInt(int64(n))
	}

	places := int32(minPlaces)
	if exp := -amount.Exponent(); exp > places {
		places = exp
	}

	parts := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = amount.Mul(weights[i]).Div(total).Round(places)
		allocated = allocated.Add(parts[i])
	}
	parts[n-1] = amount.Sub(allocated)

	return parts
}

func equalWeights(n int) []decimal.Decimal {
	w := make([]decimal.Decimal, n)
	for i := range w {
		w[i] = decimal.NewFromInt(1)
	}
	return w
}
