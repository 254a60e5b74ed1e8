// Package scoring computes point snapshots for action events and the
// percentage helper used by ranking rows.
package scoring

import (
	"fmt"
	"math"
)

// Snapshot returns the points an event is worth at recording time:
// quantity times the action type's current point value. The result is stored
// with the event and never recomputed.
func Snapshot(quantity, points int) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if points <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPoints, points)
	}
	q, p := int64(quantity), int64(points)
	if q > math.MaxInt64/p {
		return 0, fmt.Errorf("%w: %d x %d", ErrOverflow, quantity, points)
	}
	return q * p, nil
}

// PercentOfTotal returns rowPoints as a percentage of grandTotal, or 0 when
// grandTotal is not positive.
func PercentOfTotal(rowPoints, grandTotal int64) float64 {
	if grandTotal <= 0 {
		return 0
	}
	return float64(rowPoints) / float64(grandTotal) * 100
}
