package serum

import (
	"math"
	"math/bits"

	"github.com/huandu/skiplist"
)

// priceUnit aggregates every resting order at one lot price.
type priceUnit struct {
	priceLots uint64
	sizeLots  uint64
	count     int64
}

// priceQueue collects resting orders into price levels kept in price
// priority by a skiplist.
type priceQueue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	priceList   map[uint64]*skiplist.Element
}

// newBuyerQueue creates a queue for bids.
// The levels are sorted by price in descending order (highest price first).
func newBuyerQueue() *priceQueue {
	return &priceQueue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[uint64]*skiplist.Element),
	}
}

// newSellerQueue creates a queue for asks.
// The levels are sorted by price in ascending order (lowest price first).
func newSellerQueue() *priceQueue {
	return &priceQueue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[uint64]*skiplist.Element),
	}
}

func newPriceQueue(side Side) *priceQueue {
	if side == Buy {
		return newBuyerQueue()
	}
	return newSellerQueue()
}

// insertOrder adds a resting order to its price level.
func (q *priceQueue) insertOrder(priceLots, sizeLots uint64) {
	q.totalOrders++

	if el, ok := q.priceList[priceLots]; ok {
		unit, _ := el.Value.(*priceUnit)
		unit.sizeLots = addSaturating(unit.sizeLots, sizeLots)
		unit.count++
		return
	}

	unit := &priceUnit{
		priceLots: priceLots,
		sizeLots:  sizeLots,
		count:     1,
	}
	q.priceList[priceLots] = q.depthList.Set(priceLots, unit)
	q.depths++
}

func addSaturating(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// orderCount returns the total number of orders in the queue.
func (q *priceQueue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *priceQueue) depthCount() int64 {
	return q.depths
}

// depth returns up to limit price levels in price priority. A zero limit
// returns every level.
func (q *priceQueue) depth(market MarketConstants, limit uint32) []PriceLevel {
	if limit == 0 || int64(limit) > q.depths {
		limit = uint32(q.depths)
	}
	result := make([]PriceLevel, 0, limit)

	el := q.depthList.Front()

	var i uint32 = 0
	for i < limit && el != nil {
		unit, _ := el.Value.(*priceUnit)
		result = append(result, PriceLevel{
			Side:      q.side,
			Price:     market.PriceLotsToDecimal(unit.priceLots),
			Size:      market.BaseSizeLotsToDecimal(unit.sizeLots),
			PriceLots: unit.priceLots,
			SizeLots:  unit.sizeLots,
			Count:     unit.count,
		})

		el = el.Next()
		i++
	}

	return result
}
