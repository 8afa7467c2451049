package serum

import "github.com/shopspring/decimal"

// DepthChange represents a change in the size resting at one price level.
type DepthChange struct {
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	PriceLots uint64          `json:"price_lots"`
	SizeDiff  decimal.Decimal `json:"size_diff"`
}

// CalculateDepthChanges compares the levels of two snapshots of the same book
// side and returns the per-price size differences.
// Changed and new levels come first in the order of next, then the levels that
// disappeared in the order of prev. Unchanged levels are left out.
func CalculateDepthChanges(side Side, prev, next []PriceLevel) []DepthChange {
	before := make(map[uint64]PriceLevel, len(prev))
	for _, level := range prev {
		before[level.PriceLots] = level
	}

	changes := make([]DepthChange, 0)
	seen := make(map[uint64]struct{}, len(next))
	for _, level := range next {
		seen[level.PriceLots] = struct{}{}

		diff := level.Size
		if old, ok := before[level.PriceLots]; ok {
			diff = level.Size.Sub(old.Size)
		}
		if diff.IsZero() {
			continue
		}
		changes = append(changes, DepthChange{
			Side:      side,
			Price:     level.Price,
			PriceLots: level.PriceLots,
			SizeDiff:  diff,
		})
	}

	for _, level := range prev {
		if _, ok := seen[level.PriceLots]; ok {
			continue
		}
		changes = append(changes, DepthChange{
			Side:      side,
			Price:     level.Price,
			PriceLots: level.PriceLots,
			SizeDiff:  level.Size.Neg(),
		})
	}

	return changes
}
