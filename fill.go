package serum

import (
	"math/big"

	"github.com/0x5487/serum-book/fixedpoint"
	"github.com/shopspring/decimal"
)

// Fill is a fill event expressed in market units.
// FeeCost is negative when the fee is a maker rebate.
type Fill struct {
	Event
	Side    Side            `json:"side"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
	FeeCost decimal.Decimal `json:"fee_cost"`
}

// ParseFill converts a fill event. The price is reconstructed from the native
// amounts that changed hands with the fee taken back out; it is zero when the
// event moved no base tokens.
func (m MarketConstants) ParseFill(ev Event) (Fill, error) {
	if !ev.Flags.Fill {
		return Fill{}, ErrNotFill
	}

	paid := fixedpoint.FromUint64(ev.NativeQuantityPaid)
	released := fixedpoint.FromUint64(ev.NativeQuantityReleased)
	fee := fixedpoint.FromUint64(ev.NativeFeeOrRebate)

	// quote is the native quote amount before fees, base the native base amount
	quote, base := new(big.Int), released
	if ev.Flags.Bid {
		if ev.Flags.Maker {
			quote.Add(paid, fee)
		} else {
			quote.Sub(paid, fee)
		}
	} else {
		base = paid
		if ev.Flags.Maker {
			quote.Sub(released, fee)
		} else {
			quote.Add(released, fee)
		}
	}

	fill := Fill{
		Event: ev,
		Side:  ev.Side(),
		Size:  fixedpoint.Quo(base, m.baseMultiplier()),
	}

	if den := fixedpoint.Mul(m.quoteMultiplier(), base); den.Sign() != 0 {
		fill.Price = fixedpoint.Quo(fixedpoint.Mul(quote, m.baseMultiplier()), den)
	}

	fill.FeeCost = m.QuoteNativeToDecimal(fee)
	if ev.Flags.Maker {
		fill.FeeCost = fill.FeeCost.Neg()
	}

	return fill, nil
}

// ParseFills converts every fill in events and skips the rest.
func (m MarketConstants) ParseFills(events []Event) []Fill {
	fills := make([]Fill, 0, len(events))
	for _, ev := range events {
		fill, err := m.ParseFill(ev)
		if err != nil {
			continue
		}
		fills = append(fills, fill)
	}
	return fills
}
