package layout

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderWriter(t *testing.T) {
	t.Run("fixed width integers", func(t *testing.T) {
		w := NewWriter(64)
		w.PutUint8(0xab)
		w.PutUint16(0x1234)
		w.PutUint32(0xdeadbeef)
		w.PutUint64(1<<63 + 7)

		buf := w.Bytes()
		assert.Equal(t, []byte{0xab, 0x34, 0x12, 0xef, 0xbe, 0xad, 0xde}, buf[:7])

		r := NewReader(buf)
		assert.Equal(t, uint8(0xab), r.Uint8())
		assert.Equal(t, uint16(0x1234), r.Uint16())
		assert.Equal(t, uint32(0xdeadbeef), r.Uint32())
		assert.Equal(t, uint64(1<<63+7), r.Uint64())
		require.NoError(t, r.Err())
		assert.Equal(t, 0, r.Remaining())
	})

	t.Run("u128 keeps both limbs", func(t *testing.T) {
		key := uint256.Int{0xffffffffffffffff, 0x0123456789abcdef, 0, 0}

		w := NewWriter(16)
		w.PutUint128(key)
		buf := w.Bytes()
		require.Len(t, buf, 16)
		assert.Equal(t, byte(0xff), buf[0])
		assert.Equal(t, byte(0xef), buf[8])

		got := NewReader(buf).Uint128()
		assert.True(t, got.Eq(&key))
		assert.Equal(t, "0x123456789abcdefffffffffffffffff", got.Hex())
	})

	t.Run("public key", func(t *testing.T) {
		pk := solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")

		w := NewWriter(PublicKeySpan)
		w.PutPublicKey(pk)

		r := NewReader(w.Bytes())
		assert.Equal(t, pk, r.PublicKey())
		assert.NoError(t, r.Err())
	})

	t.Run("short buffer is sticky", func(t *testing.T) {
		r := NewReader([]byte{1, 2, 3})
		assert.Equal(t, uint16(0x0201), r.Uint16())
		assert.Equal(t, uint32(0), r.Uint32())
		assert.ErrorIs(t, r.Err(), ErrBufferTooShort)

		// later reads keep the first error
		assert.Equal(t, uint8(0), r.Uint8())
		assert.ErrorIs(t, r.Err(), ErrBufferTooShort)
	})

	t.Run("seek out of range", func(t *testing.T) {
		r := NewReader(make([]byte, 4))
		r.Seek(5)
		assert.ErrorIs(t, r.Err(), ErrBufferTooShort)
	})
}

func TestZeros(t *testing.T) {
	r := NewReader([]byte{0, 0, 0, 0})
	r.Zeros(4)
	assert.NoError(t, r.Err())

	r = NewReader([]byte{0, 0, 1, 0})
	r.Zeros(4)
	assert.ErrorIs(t, r.Err(), ErrInvalidPadding)

	r = NewReader([]byte{0, 0})
	r.Zeros(4)
	assert.ErrorIs(t, r.Err(), ErrBufferTooShort)
}

func TestBits(t *testing.T) {
	b := PackBits(true, false, true, true)
	assert.Equal(t, byte(0b1101), b)

	bits := UnpackBits(b)
	assert.True(t, bits[0])
	assert.False(t, bits[1])
	assert.True(t, bits[2])
	assert.True(t, bits[3])
	for i := 4; i < 8; i++ {
		assert.False(t, bits[i])
	}

	// extra flags beyond a byte are dropped
	assert.Equal(t, byte(0xff), PackBits(true, true, true, true, true, true, true, true, true))
}

func TestAccountFlags(t *testing.T) {
	flags := AccountFlags{Initialized: true, EventQueue: true}
	assert.Equal(t, uint64(0b10001), flags.Word())
	assert.Equal(t, flags, ParseAccountFlags(flags.Word()))

	all := AccountFlags{
		Initialized: true, Market: true, OpenOrders: true, RequestQueue: true, EventQueue: true,
		Bids: true, Asks: true, Disabled: true, Closed: true, Permissioned: true, CrankAuthorityRequired: true,
	}
	assert.Equal(t, uint64(0x7ff), all.Word())
	assert.Equal(t, all, ParseAccountFlags(0x7ff))

	t.Run("envelope round trip", func(t *testing.T) {
		h := AccountHeader{Magic: DefaultMagic, Flags: AccountFlags{Initialized: true, Bids: true}}
		w := NewWriter(AccountHeaderSpan)
		WriteAccountHeader(w, h)
		require.Equal(t, AccountHeaderSpan, w.Len())

		r := NewReader(w.Bytes())
		assert.Equal(t, h, ReadAccountHeader(r))
		assert.NoError(t, r.Err())

		peeked, err := PeekAccountFlags(w.Bytes())
		require.NoError(t, err)
		assert.True(t, peeked.Bids)

		_, err = PeekAccountFlags(w.Bytes()[:10])
		assert.ErrorIs(t, err, ErrBufferTooShort)
	})

	t.Run("bits above the named flags survive", func(t *testing.T) {
		const word = uint64(1)<<40 | 1<<12 | 1<<4 | 1
		w := NewWriter(AccountHeaderSpan)
		w.PutBytes(DefaultMagic[:])
		w.PutUint64(word)

		h := ReadAccountHeader(NewReader(w.Bytes()))
		assert.True(t, h.Flags.Initialized)
		assert.True(t, h.Flags.EventQueue)
		assert.Equal(t, uint64(1<<40|1<<12), h.ExtraFlags)
		assert.Equal(t, word, h.FlagsWord())

		out := NewWriter(AccountHeaderSpan)
		WriteAccountHeader(out, h)
		assert.Equal(t, w.Bytes(), out.Bytes())
	})
}
