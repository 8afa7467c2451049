package serum

import (
	"fmt"

	"github.com/0x5487/serum-book/layout"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// EventFlags is the bit-flag byte heading every event record.
type EventFlags struct {
	Fill  bool `json:"fill"`
	Out   bool `json:"out"`
	Bid   bool `json:"bid"`
	Maker bool `json:"maker"`
}

func ParseEventFlags(b byte) EventFlags {
	bits := layout.UnpackBits(b)
	return EventFlags{Fill: bits[0], Out: bits[1], Bid: bits[2], Maker: bits[3]}
}

func (f EventFlags) Byte() byte {
	return layout.PackBits(f.Fill, f.Out, f.Bid, f.Maker)
}

// RequestFlags is the bit-flag byte heading every request record.
type RequestFlags struct {
	NewOrder    bool `json:"new_order"`
	CancelOrder bool `json:"cancel_order"`
	Bid         bool `json:"bid"`
	PostOnly    bool `json:"post_only"`
	IOC         bool `json:"ioc"`
}

func ParseRequestFlags(b byte) RequestFlags {
	bits := layout.UnpackBits(b)
	return RequestFlags{NewOrder: bits[0], CancelOrder: bits[1], Bid: bits[2], PostOnly: bits[3], IOC: bits[4]}
}

func (f RequestFlags) Byte() byte {
	return layout.PackBits(f.NewOrder, f.CancelOrder, f.Bid, f.PostOnly, f.IOC)
}

// Event is one record of the event queue: a fill or an order leaving the
// book. SeqNum is only assigned by since-sequence reads.
type Event struct {
	SeqNum                 uint32           `json:"seq_num,omitempty"`
	Flags                  EventFlags       `json:"flags"`
	OpenOrdersSlot         uint8            `json:"open_orders_slot"`
	FeeTier                uint8            `json:"fee_tier"`
	NativeQuantityReleased uint64           `json:"native_quantity_released"`
	NativeQuantityPaid     uint64           `json:"native_quantity_paid"`
	NativeFeeOrRebate      uint64           `json:"native_fee_or_rebate"`
	OrderID                uint256.Int      `json:"order_id"`
	OpenOrders             solana.PublicKey `json:"open_orders"`
	ClientOrderID          uint64           `json:"client_order_id"`
}

// Side is the side of the open orders account the event belongs to.
func (e *Event) Side() Side {
	if e.Flags.Bid {
		return Buy
	}
	return Sell
}

func decodeEvent(r *layout.Reader) (Event, error) {
	var ev Event
	ev.Flags = ParseEventFlags(r.Uint8())
	ev.OpenOrdersSlot = r.Uint8()
	ev.FeeTier = r.Uint8()
	r.Skip(5)
	ev.NativeQuantityReleased = r.Uint64()
	ev.NativeQuantityPaid = r.Uint64()
	ev.NativeFeeOrRebate = r.Uint64()
	ev.OrderID = r.Uint128()
	ev.OpenOrders = r.PublicKey()
	ev.ClientOrderID = r.Uint64()
	if err := r.Err(); err != nil {
		return Event{}, fmt.Errorf("event record: %w", err)
	}
	return ev, nil
}

func encodeEvent(w *layout.Writer, ev *Event) {
	w.PutUint8(ev.Flags.Byte())
	w.PutUint8(ev.OpenOrdersSlot)
	w.PutUint8(ev.FeeTier)
	w.PutZeros(5)
	w.PutUint64(ev.NativeQuantityReleased)
	w.PutUint64(ev.NativeQuantityPaid)
	w.PutUint64(ev.NativeFeeOrRebate)
	w.PutUint128(ev.OrderID)
	w.PutPublicKey(ev.OpenOrders)
	w.PutUint64(ev.ClientOrderID)
}

// Request is one record of the request queue: an order placement or
// cancellation waiting to be matched.
type Request struct {
	Flags                     RequestFlags     `json:"flags"`
	OpenOrdersSlot            uint8            `json:"open_orders_slot"`
	FeeTier                   uint8            `json:"fee_tier"`
	MaxBaseSizeOrCancelID     uint64           `json:"max_base_size_or_cancel_id"`
	NativeQuoteQuantityLocked uint64           `json:"native_quote_quantity_locked"`
	OrderID                   uint256.Int      `json:"order_id"`
	OpenOrders                solana.PublicKey `json:"open_orders"`
	ClientOrderID             uint64           `json:"client_order_id"`
}

func (req *Request) Side() Side {
	if req.Flags.Bid {
		return Buy
	}
	return Sell
}

func decodeRequest(r *layout.Reader) (Request, error) {
	var req Request
	req.Flags = ParseRequestFlags(r.Uint8())
	req.OpenOrdersSlot = r.Uint8()
	req.FeeTier = r.Uint8()
	r.Skip(5)
	req.MaxBaseSizeOrCancelID = r.Uint64()
	req.NativeQuoteQuantityLocked = r.Uint64()
	req.OrderID = r.Uint128()
	req.OpenOrders = r.PublicKey()
	req.ClientOrderID = r.Uint64()
	if err := r.Err(); err != nil {
		return Request{}, fmt.Errorf("request record: %w", err)
	}
	return req, nil
}

func encodeRequest(w *layout.Writer, req *Request) {
	w.PutUint8(req.Flags.Byte())
	w.PutUint8(req.OpenOrdersSlot)
	w.PutUint8(req.FeeTier)
	w.PutZeros(5)
	w.PutUint64(req.MaxBaseSizeOrCancelID)
	w.PutUint64(req.NativeQuoteQuantityLocked)
	w.PutUint128(req.OrderID)
	w.PutPublicKey(req.OpenOrders)
	w.PutUint64(req.ClientOrderID)
}
