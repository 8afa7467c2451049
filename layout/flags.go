package layout

import (
	"encoding/binary"
	"fmt"
)

const (
	// MagicSpan is the width of the account prefix blob.
	MagicSpan = 5
	// AccountFlagsSpan is the width of the packed account flags word.
	AccountFlagsSpan = 8
	// AccountHeaderSpan covers the magic prefix and the flags word.
	AccountHeaderSpan = MagicSpan + AccountFlagsSpan
	// AccountPaddingSpan is the trailing padding of top-level accounts.
	AccountPaddingSpan = 7
)

// UnpackBits splits a flag byte into booleans; index 0 is the least
// significant bit.
func UnpackBits(b byte) [8]bool {
	var out [8]bool
	for i := range out {
		out[i] = b&(1<<i) != 0
	}
	return out
}

// PackBits is the inverse of UnpackBits. At most eight flags are accepted.
func PackBits(flags ...bool) byte {
	var b byte
	for i, f := range flags {
		if i >= 8 {
			break
		}
		if f {
			b |= 1 << i
		}
	}
	return b
}

// AccountFlags describes what kind of account a buffer holds.
type AccountFlags struct {
	Initialized            bool
	Market                 bool
	OpenOrders             bool
	RequestQueue           bool
	EventQueue             bool
	Bids                   bool
	Asks                   bool
	Disabled               bool
	Closed                 bool
	Permissioned           bool
	CrankAuthorityRequired bool
}

func (f AccountFlags) bits() []bool {
	return []bool{
		f.Initialized, f.Market, f.OpenOrders, f.RequestQueue, f.EventQueue,
		f.Bids, f.Asks, f.Disabled, f.Closed, f.Permissioned, f.CrankAuthorityRequired,
	}
}

// Word packs the flags into the on-chain 64-bit representation.
func (f AccountFlags) Word() uint64 {
	var w uint64
	for i, set := range f.bits() {
		if set {
			w |= 1 << i
		}
	}
	return w
}

// knownFlagsMask covers the bits AccountFlags names.
const knownFlagsMask uint64 = 1<<11 - 1

// ParseAccountFlags expands a flags word. Bits above the named flags are
// ignored; AccountHeader keeps them.
func ParseAccountFlags(w uint64) AccountFlags {
	bit := func(i uint) bool { return w&(1<<i) != 0 }
	return AccountFlags{
		Initialized:            bit(0),
		Market:                 bit(1),
		OpenOrders:             bit(2),
		RequestQueue:           bit(3),
		EventQueue:             bit(4),
		Bids:                   bit(5),
		Asks:                   bit(6),
		Disabled:               bit(7),
		Closed:                 bit(8),
		Permissioned:           bit(9),
		CrankAuthorityRequired: bit(10),
	}
}

// AccountHeader is the envelope shared by every top-level account.
type AccountHeader struct {
	Magic [MagicSpan]byte
	Flags AccountFlags
	// ExtraFlags holds the bits of the flags word above the named flags.
	ExtraFlags uint64
}

// FlagsWord returns the full flags word as stored.
func (h AccountHeader) FlagsWord() uint64 {
	return h.Flags.Word() | h.ExtraFlags&^knownFlagsMask
}

// ReadAccountHeader decodes the magic prefix and flags word.
func ReadAccountHeader(r *Reader) AccountHeader {
	var h AccountHeader
	copy(h.Magic[:], r.Bytes(MagicSpan))
	word := r.Uint64()
	h.Flags = ParseAccountFlags(word)
	h.ExtraFlags = word &^ knownFlagsMask
	return h
}

// WriteAccountHeader encodes the envelope.
func WriteAccountHeader(w *Writer, h AccountHeader) {
	w.PutBytes(h.Magic[:])
	w.PutUint64(h.FlagsWord())
}

// DefaultMagic is the prefix written by the remote program.
var DefaultMagic = [MagicSpan]byte{'s', 'e', 'r', 'u', 'm'}

// PeekAccountFlags reads the flags word without a full decode.
func PeekAccountFlags(buf []byte) (AccountFlags, error) {
	if len(buf) < AccountHeaderSpan {
		return AccountFlags{}, fmt.Errorf("account header needs %d bytes, have %d: %w", AccountHeaderSpan, len(buf), ErrBufferTooShort)
	}
	return ParseAccountFlags(binary.LittleEndian.Uint64(buf[MagicSpan:AccountHeaderSpan])), nil
}
