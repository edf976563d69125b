package commerce

import (
	"math"

	"github.com/evolutech/platform/internal/domain"
)

// Round rounds a currency amount to cents, halves away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// OrderTotal is the sum of item subtotals minus discount, never negative.
func OrderTotal(items []domain.OrderItem, discount float64) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Subtotal
	}
	total := Round(sum - math.Max(discount, 0))
	if total < 0 {
		return 0
	}
	return total
}

// Commission is ratePercent of total, in cents. Non-positive rates pay
// nothing.
func Commission(total, ratePercent float64) float64 {
	if ratePercent <= 0 || total <= 0 {
		return 0
	}
	return Round(total * ratePercent / 100)
}

// LoyaltyPoints awards pointsPerUnit for each whole currency unit spent.
func LoyaltyPoints(total, pointsPerUnit float64) int64 {
	if pointsPerUnit <= 0 || total <= 0 {
		return 0
	}
	return int64(math.Floor(total*pointsPerUnit + 1e-9))
}
