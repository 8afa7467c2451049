package serum

import (
	"testing"

	"github.com/0x5487/serum-book/layout"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMarketState() *MarketState {
	key := func(b byte) solana.PublicKey {
		var pk solana.PublicKey
		for i := range pk {
			pk[i] = b
		}
		return pk
	}

	return &MarketState{
		Account: layout.AccountHeader{
			Magic: layout.DefaultMagic,
			Flags: layout.AccountFlags{Initialized: true, Market: true},
		},
		OwnAddress:             key(1),
		VaultSignerNonce:       2,
		BaseMint:               key(3),
		QuoteMint:              key(4),
		BaseVault:              key(5),
		BaseDepositsTotal:      6_000_000,
		BaseFeesAccrued:        7,
		QuoteVault:             key(8),
		QuoteDepositsTotal:     9_000_000,
		QuoteFeesAccrued:       10,
		QuoteDustThreshold:     100,
		RequestQueue:           key(12),
		EventQueue:             key(13),
		Bids:                   key(14),
		Asks:                   key(15),
		BaseLotSize:            100_000,
		QuoteLotSize:           10,
		FeeRateBps:             22,
		ReferrerRebatesAccrued: 1 << 40,
	}
}

func TestMarketState(t *testing.T) {
	want := testMarketState()
	data := want.Encode()
	require.Len(t, data, MarketStateSpan)

	t.Run("round trip", func(t *testing.T) {
		got, err := DecodeMarketState(data)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, data, got.Encode())
	})

	t.Run("constants", func(t *testing.T) {
		got, err := DecodeMarketState(data)
		require.NoError(t, err)
		assert.Equal(t, tenthMarket, got.Constants(6, 6))
	})

	t.Run("trailing bytes are ignored", func(t *testing.T) {
		_, err := DecodeMarketState(append(append([]byte{}, data...), 0xff, 0xff))
		assert.NoError(t, err)
	})

	t.Run("short", func(t *testing.T) {
		_, err := DecodeMarketState(data[:MarketStateSpan-1])
		assert.ErrorIs(t, err, ErrBufferTooShort)
	})

	t.Run("wrong kind", func(t *testing.T) {
		s := testMarketState()
		s.Account.Flags = layout.AccountFlags{Initialized: true, Bids: true}
		_, err := DecodeMarketState(s.Encode())
		assert.ErrorIs(t, err, ErrWrongAccountKind)
	})

	t.Run("dirty padding", func(t *testing.T) {
		dirty := append([]byte{}, data...)
		dirty[MarketStateSpan-1] = 1
		_, err := DecodeMarketState(dirty)
		assert.ErrorIs(t, err, ErrInvalidPadding)
	})
}
