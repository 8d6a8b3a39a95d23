// Package analytics holds the pure aggregation math behind the admin
// analytics endpoints. Nothing here performs I/O; inputs are record snapshots
// already fetched from the data store.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// money rounds d to cents and returns it as a JSON-friendly float.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// percentOf returns part/whole*100 rounded to 2 places, 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return money(part.Div(whole).Mul(hundred))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
