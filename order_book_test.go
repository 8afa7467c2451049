package serum

import (
	"testing"

	"github.com/0x5487/serum-book/layout"
	"github.com/0x5487/serum-book/structure"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOwner = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")

func leaf(side Side, priceLots, seq, quantity uint64) structure.LeafNode {
	key := structure.LeafKey(priceLots, seq)
	if side == Buy {
		key = structure.BidLeafKey(priceLots, seq)
	}
	return structure.LeafNode{
		OwnerSlot: uint8(seq),
		FeeTier:   1,
		Key:       key,
		Owner:     testOwner,
		Quantity:  quantity,
	}
}

func bookAccount(side Side, leaves ...structure.LeafNode) []byte {
	return EncodeOrderBook(side, structure.BuildSlab(leaves, 16))
}

func testBids() []byte {
	return bookAccount(Buy,
		leaf(Buy, 12000, 7, 20),
		leaf(Buy, 12000, 5, 10),
		leaf(Buy, 10000, 6, 30),
		leaf(Buy, 9000, 8, 40),
	)
}

func testAsks() []byte {
	return bookAccount(Sell,
		leaf(Sell, 13000, 1, 5),
		leaf(Sell, 15000, 2, 15),
		leaf(Sell, 13000, 3, 25),
	)
}

func TestOrderBook(t *testing.T) {
	t.Run("bids", func(t *testing.T) {
		book, err := DecodeOrderBook(tenthMarket, testBids())
		require.NoError(t, err)
		assert.Equal(t, Buy, book.Side())
		assert.Equal(t, 4, book.Len())

		orders, err := book.PriorityOrders()
		require.NoError(t, err)
		require.Len(t, orders, 4)

		var prices, seqs []uint64
		for _, o := range orders {
			prices = append(prices, o.PriceLots)
			seqs = append(seqs, o.Sequence())
			assert.Equal(t, Buy, o.Side)
			assert.Equal(t, testOwner, o.OpenOrdersAddress)
			assert.Zero(t, o.ClientID)
		}
		assert.Equal(t, []uint64{12000, 12000, 10000, 9000}, prices)
		assert.Equal(t, []uint64{5, 7, 6, 8}, seqs)
		assert.Equal(t, structure.BidLeafKey(12000, 5), orders[0].OrderID)

		assert.Equal(t, "1.2", orders[0].Price.String())
		assert.Equal(t, "1", orders[0].Size.String())
		assert.Equal(t, uint64(10), orders[0].SizeLots)
		assert.Equal(t, uint8(5), orders[0].OpenOrdersSlot)
		assert.Equal(t, uint8(1), orders[0].FeeTier)

		best, ok, err := book.Best()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, orders[0], best)
	})

	t.Run("asks", func(t *testing.T) {
		book, err := DecodeOrderBook(tenthMarket, testAsks())
		require.NoError(t, err)
		assert.Equal(t, Sell, book.Side())

		orders, err := book.PriorityOrders()
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, uint64(13000), orders[0].PriceLots)
		assert.Equal(t, uint64(1), orders[0].Sequence())
		assert.Equal(t, uint64(3), orders[1].Sequence())
		assert.Equal(t, uint64(15000), orders[2].PriceLots)

		descending, err := book.Orders(true)
		require.NoError(t, err)
		assert.Equal(t, orders[2], descending[0])
	})

	t.Run("levels", func(t *testing.T) {
		bids, err := DecodeOrderBook(tenthMarket, testBids())
		require.NoError(t, err)

		levels, err := bids.Levels(0)
		require.NoError(t, err)
		require.Len(t, levels, 3)
		assert.Equal(t, Buy, levels[0].Side)
		assert.Equal(t, "1.2", levels[0].Price.String())
		assert.Equal(t, uint64(30), levels[0].SizeLots)
		assert.Equal(t, "3", levels[0].Size.String())
		assert.Equal(t, int64(2), levels[0].Count)
		assert.Equal(t, "1", levels[1].Price.String())
		assert.Equal(t, "0.9", levels[2].Price.String())

		levels, err = bids.Levels(2)
		require.NoError(t, err)
		assert.Len(t, levels, 2)

		asks, err := DecodeOrderBook(tenthMarket, testAsks())
		require.NoError(t, err)
		levels, err = asks.Levels(10)
		require.NoError(t, err)
		require.Len(t, levels, 2)
		assert.Equal(t, uint64(13000), levels[0].PriceLots)
		assert.Equal(t, uint64(30), levels[0].SizeLots)
		assert.Equal(t, uint64(15000), levels[1].PriceLots)
	})

	t.Run("find", func(t *testing.T) {
		book, err := DecodeOrderBook(tenthMarket, testBids())
		require.NoError(t, err)

		order, ok := book.Find(structure.BidLeafKey(10000, 6))
		require.True(t, ok)
		assert.Equal(t, uint64(30), order.SizeLots)
		assert.Equal(t, "1", order.Price.String())

		_, ok = book.Find(structure.LeafKey(10000, 6))
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		book, err := DecodeOrderBook(tenthMarket, bookAccount(Sell))
		require.NoError(t, err)

		orders, err := book.PriorityOrders()
		require.NoError(t, err)
		assert.Empty(t, orders)

		_, ok, err := book.Best()
		assert.NoError(t, err)
		assert.False(t, ok)

		levels, err := book.Levels(5)
		require.NoError(t, err)
		assert.Empty(t, levels)
	})

	t.Run("round trip", func(t *testing.T) {
		data := testBids()
		book, err := DecodeOrderBook(tenthMarket, data)
		require.NoError(t, err)
		assert.Equal(t, data, book.Encode())
	})

	t.Run("round trip keeps unnamed flag bits", func(t *testing.T) {
		data := testBids()
		data[layout.MagicSpan+2] |= 0x80 // bit 23 of the flags word
		book, err := DecodeOrderBook(tenthMarket, data)
		require.NoError(t, err)
		assert.Equal(t, data, book.Encode())
	})
}

func TestDecodeOrderBook_Errors(t *testing.T) {
	t.Run("invalid market", func(t *testing.T) {
		_, err := DecodeOrderBook(MarketConstants{}, testBids())
		assert.ErrorIs(t, err, ErrInvalidMarket)
	})

	t.Run("short", func(t *testing.T) {
		_, err := DecodeOrderBook(tenthMarket, testBids()[:minOrderbookSpan-1])
		assert.ErrorIs(t, err, ErrBufferTooShort)
	})

	t.Run("wrong kind", func(t *testing.T) {
		for _, flags := range []layout.AccountFlags{
			{Initialized: true, EventQueue: true},
			{Initialized: true, Bids: true, Asks: true},
			{Bids: true},
		} {
			data := testBids()
			w := layout.NewWriter(layout.AccountHeaderSpan)
			layout.WriteAccountHeader(w, layout.AccountHeader{Magic: layout.DefaultMagic, Flags: flags})
			copy(data, w.Bytes())

			_, err := DecodeOrderBook(tenthMarket, data)
			assert.ErrorIs(t, err, ErrWrongAccountKind)
		}
	})

	t.Run("dirty padding", func(t *testing.T) {
		data := testBids()
		data[len(data)-1] = 1
		_, err := DecodeOrderBook(tenthMarket, data)
		assert.ErrorIs(t, err, ErrInvalidPadding)
	})

	t.Run("unknown node tag", func(t *testing.T) {
		data := testBids()
		data[layout.AccountHeaderSpan+structure.SlabHeaderSpan] = 9
		_, err := DecodeOrderBook(tenthMarket, data)
		assert.ErrorIs(t, err, ErrInvalidNodeTag)
	})
}

func TestNewDepth(t *testing.T) {
	bids, err := DecodeOrderBook(tenthMarket, testBids())
	require.NoError(t, err)
	asks, err := DecodeOrderBook(tenthMarket, testAsks())
	require.NoError(t, err)

	depth, err := NewDepth(bids, asks, 1)
	require.NoError(t, err)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, "1.2", depth.Bids[0].Price.String())
	assert.Equal(t, "1.3", depth.Asks[0].Price.String())

	_, err = NewDepth(bids, asks, 0)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = NewDepth(asks, bids, 5)
	assert.ErrorIs(t, err, ErrWrongAccountKind)
}

func TestBookSnapshot(t *testing.T) {
	snap, err := NewBookSnapshot(tenthMarket, testBids(), testAsks())
	require.NoError(t, err)
	assert.Equal(t, DecoderVersion, snap.DecoderVersion)
	assert.Len(t, snap.Bids, 4)
	assert.Len(t, snap.Asks, 3)
	assert.NotZero(t, snap.BidsChecksum)
	assert.NotEqual(t, snap.BidsChecksum, snap.AsksChecksum)

	_, err = NewBookSnapshot(tenthMarket, testAsks(), testBids())
	assert.ErrorIs(t, err, ErrWrongAccountKind)
}

func TestCalculateDepthChanges(t *testing.T) {
	before, err := DecodeOrderBook(tenthMarket, testAsks())
	require.NoError(t, err)
	after, err := DecodeOrderBook(tenthMarket, bookAccount(Sell,
		leaf(Sell, 13000, 1, 5),
		leaf(Sell, 14000, 4, 10),
		leaf(Sell, 15000, 2, 15),
	))
	require.NoError(t, err)

	prev, err := before.Levels(0)
	require.NoError(t, err)
	next, err := after.Levels(0)
	require.NoError(t, err)

	changes := CalculateDepthChanges(Sell, prev, next)
	require.Len(t, changes, 2)

	assert.Equal(t, uint64(13000), changes[0].PriceLots)
	assert.Equal(t, "-2.5", changes[0].SizeDiff.String())
	assert.Equal(t, uint64(14000), changes[1].PriceLots)
	assert.Equal(t, "1", changes[1].SizeDiff.String())
	assert.Equal(t, Sell, changes[1].Side)

	removed := CalculateDepthChanges(Sell, next, nil)
	require.Len(t, removed, 3)
	assert.Equal(t, "-0.5", removed[0].SizeDiff.String())

	assert.Empty(t, CalculateDepthChanges(Sell, next, next))
}
