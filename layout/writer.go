package layout

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// Writer appends fields in the same packed little-endian layout that Reader
// consumes.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// PutUint128 writes the low 128 bits of v.
func (w *Writer) PutUint128(v uint256.Int) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v[0])
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v[1])
}

func (w *Writer) PutPublicKey(pk solana.PublicKey) {
	w.buf = append(w.buf, pk[:]...)
}

func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) PutZeros(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// PadTo appends zero bytes until the buffer is size bytes long.
func (w *Writer) PadTo(size int) {
	if n := size - len(w.buf); n > 0 {
		w.PutZeros(n)
	}
}
