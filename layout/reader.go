package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// PublicKeySpan is the width of an account address blob.
const PublicKeySpan = 32

// Reader decodes tightly packed little-endian fields from a byte slice.
//
// The first failure is sticky: once a read fails every later read returns the
// zero value and Err reports the original error. This lets decoders read a whole
// record and check for failure once.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader creates a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.off
}

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int {
	return len(r.buf)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(off int) {
	if r.err != nil {
		return
	}
	if off < 0 || off > len(r.buf) {
		r.err = fmt.Errorf("seek to %d in %d bytes: %w", off, len(r.buf), ErrBufferTooShort)
		return
	}
	r.off = off
}

// take returns the next n bytes and advances the cursor.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("read %d bytes at offset %d of %d: %w", n, r.off, len(r.buf), ErrBufferTooShort)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Uint128 reads a little-endian 128-bit integer. The value is assembled from two
// 64-bit limbs so it never passes through a floating point representation.
func (r *Reader) Uint128() uint256.Int {
	b := r.take(16)
	if b == nil {
		return uint256.Int{}
	}
	return uint256.Int{binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]), 0, 0}
}

// PublicKey reads a 32-byte account address.
func (r *Reader) PublicKey() solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], r.take(PublicKeySpan))
	return pk
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Skip advances over n bytes whose content is ignored.
func (r *Reader) Skip(n int) {
	r.take(n)
}

// Zeros consumes n bytes that must all be zero. A nonzero byte usually means the
// account has a layout version this decoder does not understand.
func (r *Reader) Zeros(n int) {
	start := r.off
	b := r.take(n)
	if b == nil {
		return
	}
	for i, c := range b {
		if c != 0 {
			r.err = fmt.Errorf("byte %d is 0x%02x: %w", start+i, c, ErrInvalidPadding)
			return
		}
	}
}
