package serum

import (
	"fmt"

	"github.com/0x5487/serum-book/layout"
	"github.com/0x5487/serum-book/structure"
	"github.com/holiman/uint256"
)

// OrderBook is one side of a market's book decoded from a bids or asks
// account. It is a snapshot; nothing in it changes after decoding.
type OrderBook struct {
	market  MarketConstants
	account layout.AccountHeader
	slab    *structure.Slab
}

// DecodeOrderBook parses a bids or asks account.
func DecodeOrderBook(market MarketConstants, data []byte) (*OrderBook, error) {
	if err := market.Validate(); err != nil {
		return nil, err
	}
	if len(data) < minOrderbookSpan {
		return nil, fmt.Errorf("order book account needs %d bytes, have %d: %w", minOrderbookSpan, len(data), ErrBufferTooShort)
	}

	r := layout.NewReader(data)
	account := layout.ReadAccountHeader(r)
	if f := account.Flags; !f.Initialized || f.Bids == f.Asks {
		return nil, fmt.Errorf("account flags %#x are not an initialized bids or asks account: %w", f.Word(), ErrWrongAccountKind)
	}

	end := len(data) - layout.AccountPaddingSpan
	r.Seek(end)
	r.Zeros(layout.AccountPaddingSpan)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("order book account: %w", err)
	}

	slab, err := structure.DecodeSlab(data[layout.AccountHeaderSpan:end])
	if err != nil {
		return nil, fmt.Errorf("order book account: %w", err)
	}

	return &OrderBook{
		market:  market,
		account: account,
		slab:    slab,
	}, nil
}

// EncodeOrderBook wraps a slab in a bids or asks account envelope.
func EncodeOrderBook(side Side, slab *structure.Slab) []byte {
	body := slab.Encode()
	w := layout.NewWriter(layout.AccountHeaderSpan + len(body) + layout.AccountPaddingSpan)
	layout.WriteAccountHeader(w, layout.AccountHeader{
		Magic: layout.DefaultMagic,
		Flags: layout.AccountFlags{Initialized: true, Bids: side == Buy, Asks: side != Buy},
	})
	w.PutBytes(body)
	w.PutZeros(layout.AccountPaddingSpan)
	return w.Bytes()
}

// Encode writes the account back with its original envelope.
func (book *OrderBook) Encode() []byte {
	body := book.slab.Encode()
	w := layout.NewWriter(layout.AccountHeaderSpan + len(body) + layout.AccountPaddingSpan)
	layout.WriteAccountHeader(w, book.account)
	w.PutBytes(body)
	w.PutZeros(layout.AccountPaddingSpan)
	return w.Bytes()
}

// Side is Buy for a bids account and Sell for an asks account.
func (book *OrderBook) Side() Side {
	if book.account.Flags.Bids {
		return Buy
	}
	return Sell
}

func (book *OrderBook) Market() MarketConstants {
	return book.market
}

// Slab exposes the underlying tree.
func (book *OrderBook) Slab() *structure.Slab {
	return book.slab
}

// Len returns the number of resting orders.
func (book *OrderBook) Len() int {
	return book.slab.Len()
}

// bestFirst reports the traversal direction that yields price priority.
func (book *OrderBook) bestFirst() bool {
	return book.Side() == Buy
}

func (book *OrderBook) toOrder(leaf *structure.LeafNode) Order {
	return Order{
		OrderID:           leaf.Key,
		OpenOrdersAddress: leaf.Owner,
		OpenOrdersSlot:    leaf.OwnerSlot,
		FeeTier:           leaf.FeeTier,
		Price:             book.market.PriceLotsToDecimal(leaf.PriceLots()),
		PriceLots:         leaf.PriceLots(),
		Size:              book.market.BaseSizeLotsToDecimal(leaf.Quantity),
		SizeLots:          leaf.Quantity,
		Side:              book.Side(),
	}
}

// Orders returns every resting order in key order.
func (book *OrderBook) Orders(descending bool) ([]Order, error) {
	orders := make([]Order, 0, book.slab.Len())
	it := book.slab.Items(descending)
	for it.Next() {
		orders = append(orders, book.toOrder(it.Leaf()))
	}
	if err := it.Err(); err != nil {
		logger.Warn("order book walk stopped", "side", book.Side(), "error", err)
		return nil, err
	}
	return orders, nil
}

// PriorityOrders returns every resting order in price-time priority: highest
// bid first, lowest ask first.
func (book *OrderBook) PriorityOrders() ([]Order, error) {
	return book.Orders(book.bestFirst())
}

// Best returns the order at the top of the book.
func (book *OrderBook) Best() (Order, bool, error) {
	it := book.slab.Items(book.bestFirst())
	if it.Next() {
		return book.toOrder(it.Leaf()), true, nil
	}
	return Order{}, false, it.Err()
}

// Find looks up a resting order by its ID.
func (book *OrderBook) Find(orderID uint256.Int) (Order, bool) {
	leaf, ok := book.slab.Get(orderID)
	if !ok {
		return Order{}, false
	}
	return book.toOrder(leaf), true
}

// Levels aggregates resting orders per price in price priority. A depth of
// zero or less returns every level.
func (book *OrderBook) Levels(depth int) ([]PriceLevel, error) {
	q := newPriceQueue(book.Side())
	it := book.slab.Items(book.bestFirst())
	for it.Next() {
		leaf := it.Leaf()
		q.insertOrder(leaf.PriceLots(), leaf.Quantity)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	logger.Debug("order book aggregated",
		"side", q.side,
		"orders", q.orderCount(),
		"levels", q.depthCount(),
	)

	limit := uint32(0)
	if depth > 0 {
		limit = uint32(min(depth, int(q.depthCount())))
	}
	return q.depth(book.market, limit), nil
}

// Depth is both sides of a market aggregated to price levels.
type Depth struct {
	Asks []PriceLevel `json:"asks"`
	Bids []PriceLevel `json:"bids"`
}

// NewDepth aggregates up to limit levels from each side.
func NewDepth(bids, asks *OrderBook, limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}
	if bids.Side() != Buy || asks.Side() != Sell {
		return nil, fmt.Errorf("bids side %s, asks side %s: %w", bids.Side(), asks.Side(), ErrWrongAccountKind)
	}

	bidLevels, err := bids.Levels(int(limit))
	if err != nil {
		return nil, err
	}
	askLevels, err := asks.Levels(int(limit))
	if err != nil {
		return nil, err
	}
	return &Depth{Asks: askLevels, Bids: bidLevels}, nil
}
