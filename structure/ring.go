package structure

import (
	"encoding/binary"
	"fmt"

	"github.com/0x5487/serum-book/layout"
)

// seqModulus is the wrap point of the 32-bit sequence counters.
const seqModulus = 1 << 32

// RingWindow is the live window of a fixed-capacity circular buffer: the
// records at logical positions [Head, Head+Count) modulo AllocLen.
//
// It only computes slot indices; callers decode the records at
// headerSpan + index*recordSpan themselves.
type RingWindow struct {
	Head     uint32
	Count    uint32
	AllocLen uint32
}

// Validate checks that the cursors fit the allocation.
func (w RingWindow) Validate() error {
	if w.Count > w.AllocLen {
		return fmt.Errorf("ring count %d exceeds %d slots: %w", w.Count, w.AllocLen, layout.ErrBufferTooShort)
	}
	if w.AllocLen > 0 && w.Head >= w.AllocLen {
		return fmt.Errorf("ring head %d outside %d slots: %w", w.Head, w.AllocLen, layout.ErrBufferTooShort)
	}
	return nil
}

func (w RingWindow) slot(pos uint64) uint32 {
	return uint32(pos % uint64(w.AllocLen))
}

// All returns the live slots, oldest first.
func (w RingWindow) All() []uint32 {
	if w.AllocLen == 0 {
		return nil
	}
	out := make([]uint32, 0, w.Count)
	for i := uint32(0); i < w.Count; i++ {
		out = append(out, w.slot(uint64(w.Head)+uint64(i)))
	}
	return out
}

// MostRecent walks backward from the newest written slot for up to n slots,
// newest first. The walk covers the whole allocation, so records already
// consumed past Head are returned as long as they were not overwritten.
func (w RingWindow) MostRecent(n int) []uint32 {
	if w.AllocLen == 0 || n <= 0 {
		return nil
	}
	limit := min(uint64(n), uint64(w.AllocLen))
	out := make([]uint32, 0, limit)
	newest := uint64(w.Head) + uint64(w.Count) + uint64(w.AllocLen) - 1
	for i := uint64(0); i < limit; i++ {
		out = append(out, w.slot(newest-i))
	}
	return out
}

// Since returns the slots written after lastSeq, oldest first, together with
// the sequence number of the first returned slot. currentSeq is the sequence
// number the next write will receive.
//
// A reader that fell more than AllocLen-1 writes behind gets only the newest
// AllocLen-1 slots; the rest were overwritten. Dropped reports how many
// sequence numbers were skipped.
func (w RingWindow) Since(currentSeq, lastSeq uint32) (slots []uint32, startSeq uint32, dropped uint32) {
	if w.AllocLen == 0 {
		return nil, currentSeq, 0
	}

	missed := uint32((uint64(currentSeq) - uint64(lastSeq) + seqModulus) % seqModulus)
	if limit := w.AllocLen - 1; missed > limit {
		dropped = missed - limit
		missed = limit
	}

	startSeq = uint32((uint64(currentSeq) - uint64(missed) + seqModulus) % seqModulus)
	end := (uint64(w.Head) + uint64(w.Count)) % uint64(w.AllocLen)
	start := (end + uint64(w.AllocLen) - uint64(missed)) % uint64(w.AllocLen)

	slots = make([]uint32, 0, missed)
	for i := uint64(0); i < uint64(missed); i++ {
		slots = append(slots, w.slot(start+i))
	}
	return slots, startSeq, dropped
}

// RingLayout gives the fixed byte offsets of a head/tail ring account.
type RingLayout struct {
	HeadOffset  int
	TailOffset  int
	ItemsOffset int
	ItemSpan    int
}

// DefaultRingLayout is an 8 byte discriminator and a 32 byte authority
// followed by the head and tail cursors.
func DefaultRingLayout(itemSpan int) RingLayout {
	return RingLayout{
		HeadOffset:  40,
		TailOffset:  44,
		ItemsOffset: 48,
		ItemSpan:    itemSpan,
	}
}

// Ring is an append-only message ring addressed by head and tail cursors
// stored at fixed offsets. Items live at [tail, head) modulo capacity.
type Ring struct {
	layout RingLayout
	buf    []byte
	head   uint32
	tail   uint32
	cap    uint32
}

// DecodeRing reads the cursors of a head/tail ring.
func DecodeRing(buf []byte, l RingLayout) (*Ring, error) {
	if l.ItemSpan <= 0 {
		return nil, fmt.Errorf("ring item span %d: %w", l.ItemSpan, layout.ErrBufferTooShort)
	}
	need := max(l.HeadOffset+4, l.TailOffset+4, l.ItemsOffset)
	if len(buf) < need {
		return nil, fmt.Errorf("ring header needs %d bytes, have %d: %w", need, len(buf), layout.ErrBufferTooShort)
	}

	ring := &Ring{
		layout: l,
		buf:    buf,
		head:   binary.LittleEndian.Uint32(buf[l.HeadOffset:]),
		tail:   binary.LittleEndian.Uint32(buf[l.TailOffset:]),
		cap:    uint32((len(buf) - l.ItemsOffset) / l.ItemSpan),
	}
	if ring.cap > 0 && (ring.head >= ring.cap || ring.tail >= ring.cap) {
		return nil, fmt.Errorf("ring cursors head=%d tail=%d outside %d slots: %w", ring.head, ring.tail, ring.cap, layout.ErrBufferTooShort)
	}
	return ring, nil
}

// Capacity returns the number of item slots.
func (r *Ring) Capacity() uint32 {
	return r.cap
}

// Window expresses the ring as a RingWindow starting at the tail.
func (r *Ring) Window() RingWindow {
	if r.cap == 0 {
		return RingWindow{}
	}
	count := (uint64(r.head) + uint64(r.cap) - uint64(r.tail)) % uint64(r.cap)
	return RingWindow{Head: r.tail, Count: uint32(count), AllocLen: r.cap}
}

// All returns the raw bytes of every item, oldest first. The slices alias the
// decoded buffer.
func (r *Ring) All() [][]byte {
	slots := r.Window().All()
	items := make([][]byte, 0, len(slots))
	for _, slot := range slots {
		off := r.layout.ItemsOffset + int(slot)*r.layout.ItemSpan
		items = append(items, r.buf[off:off+r.layout.ItemSpan])
	}
	return items
}
