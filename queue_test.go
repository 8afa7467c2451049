package serum

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var unitMarket = MarketConstants{BaseLotSize: 1, QuoteLotSize: 1}

func TestBuyerQueue(t *testing.T) {
	q := newBuyerQueue()

	q.insertOrder(10, 1)
	q.insertOrder(20, 10)
	q.insertOrder(30, 10)
	q.insertOrder(20, 100)

	assert.Equal(t, int64(4), q.orderCount())
	assert.Equal(t, int64(3), q.depthCount())

	levels := q.depth(unitMarket, 0)
	assert.Len(t, levels, 3)

	for _, level := range levels {
		assert.Equal(t, Buy, level.Side)
	}
	assert.Equal(t, uint64(30), levels[0].PriceLots)
	assert.Equal(t, "30", levels[0].Price.String())
	assert.Equal(t, "10", levels[0].Size.String())
	assert.Equal(t, int64(1), levels[0].Count)

	assert.Equal(t, uint64(20), levels[1].PriceLots)
	assert.Equal(t, uint64(110), levels[1].SizeLots)
	assert.Equal(t, int64(2), levels[1].Count)

	assert.Equal(t, uint64(10), levels[2].PriceLots)
}

func TestSellerQueue(t *testing.T) {
	q := newSellerQueue()

	q.insertOrder(10, 1)
	q.insertOrder(20, 10)
	q.insertOrder(30, 10)
	q.insertOrder(20, 100)

	levels := q.depth(unitMarket, 2)
	assert.Len(t, levels, 2)
	assert.Equal(t, uint64(10), levels[0].PriceLots)
	assert.Equal(t, uint64(20), levels[1].PriceLots)
	assert.Equal(t, "110", levels[1].Size.String())
	assert.Equal(t, Sell, levels[1].Side)
}

func TestPriceQueueSaturates(t *testing.T) {
	q := newPriceQueue(Sell)
	q.insertOrder(5, math.MaxUint64)
	q.insertOrder(5, 7)

	levels := q.depth(unitMarket, 10)
	assert.Len(t, levels, 1)
	assert.Equal(t, uint64(math.MaxUint64), levels[0].SizeLots)
	assert.Equal(t, int64(2), levels[0].Count)
}

func BenchmarkDepthAdd(b *testing.B) {
	q := newBuyerQueue()

	for i := 0; i < b.N; i++ {
		q.insertOrder(uint64(rand.Intn(100000000)), 1)
	}
}

func BenchmarkDepthRead(b *testing.B) {
	q := newSellerQueue()
	for i := 0; i < 10000; i++ {
		q.insertOrder(uint64(rand.Intn(1000000)), uint64(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.depth(unitMarket, 50)
	}
}
