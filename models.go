package serum

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Order is a resting order read from one side of the book.
// It is rebuilt on every decode and never persisted.
type Order struct {
	OrderID           uint256.Int      `json:"order_id"`
	ClientID          uint64           `json:"client_id"` // not carried by the slab leaf; zero unless the caller fills it in
	OpenOrdersAddress solana.PublicKey `json:"open_orders_address"`
	OpenOrdersSlot    uint8            `json:"open_orders_slot"`
	FeeTier           uint8            `json:"fee_tier"`
	Price             decimal.Decimal  `json:"price"`
	PriceLots         uint64           `json:"price_lots"`
	Size              decimal.Decimal  `json:"size"`
	SizeLots          uint64           `json:"size_lots"`
	Side              Side             `json:"side"`
}

// Sequence returns the order's sequence number, undoing the inversion bid
// keys carry.
func (o *Order) Sequence() uint64 {
	if o.Side == Buy {
		return ^o.OrderID[0]
	}
	return o.OrderID[0]
}

// PriceLevel is the aggregated size resting at one price.
type PriceLevel struct {
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	PriceLots uint64          `json:"price_lots"`
	SizeLots  uint64          `json:"size_lots"`
	Count     int64           `json:"count"`
}
