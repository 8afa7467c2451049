package serum

import (
	"fmt"

	"github.com/0x5487/serum-book/layout"
	"github.com/0x5487/serum-book/structure"
)

// QueueHeader is the envelope and cursor words of a request or event queue.
// Seq is the sequence number the next pushed record will receive.
type QueueHeader struct {
	Account layout.AccountHeader
	Head    uint32
	Count   uint32
	Seq     uint32
}

func readQueueHeader(r *layout.Reader) QueueHeader {
	var h QueueHeader
	h.Account = layout.ReadAccountHeader(r)
	h.Head = r.Uint32()
	r.Zeros(4)
	h.Count = r.Uint32()
	r.Zeros(4)
	h.Seq = r.Uint32()
	r.Zeros(4)
	return h
}

func writeQueueHeader(w *layout.Writer, h QueueHeader) {
	layout.WriteAccountHeader(w, h.Account)
	w.PutUint32(h.Head)
	w.PutZeros(4)
	w.PutUint32(h.Count)
	w.PutZeros(4)
	w.PutUint32(h.Seq)
	w.PutZeros(4)
}

// Queue is a decoded view of a fixed-capacity ring of records. Records are
// decoded lazily from the snapshot on every read.
type Queue[T any] struct {
	Header QueueHeader
	window structure.RingWindow
	data   []byte
	span   int
	decode func(*layout.Reader) (T, error)
}

func parseQueue[T any](data []byte, span int, decode func(*layout.Reader) (T, error), isKind func(layout.AccountFlags) bool, kind string) (*Queue[T], error) {
	if len(data) < QueueHeaderSpan {
		return nil, fmt.Errorf("%s header needs %d bytes, have %d: %w", kind, QueueHeaderSpan, len(data), ErrBufferTooShort)
	}

	r := layout.NewReader(data)
	header := readQueueHeader(r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s header: %w", kind, err)
	}
	if flags := header.Account.Flags; !flags.Initialized || !isKind(flags) {
		return nil, fmt.Errorf("account flags %#x are not an initialized %s: %w", flags.Word(), kind, ErrWrongAccountKind)
	}

	window := structure.RingWindow{
		Head:     header.Head,
		Count:    header.Count,
		AllocLen: uint32((len(data) - QueueHeaderSpan) / span),
	}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	return &Queue[T]{
		Header: header,
		window: window,
		data:   data,
		span:   span,
		decode: decode,
	}, nil
}

// AllocLen is the number of record slots the account has room for.
func (q *Queue[T]) AllocLen() uint32 {
	return q.window.AllocLen
}

// Len is the number of live records.
func (q *Queue[T]) Len() int {
	return int(q.window.Count)
}

func (q *Queue[T]) at(slot uint32) (T, error) {
	r := layout.NewReader(q.data)
	r.Seek(QueueHeaderSpan + int(slot)*q.span)
	rec, err := q.decode(r)
	if err != nil {
		return rec, fmt.Errorf("slot %d: %w", slot, err)
	}
	return rec, nil
}

func (q *Queue[T]) collect(slots []uint32) ([]T, error) {
	out := make([]T, 0, len(slots))
	for _, slot := range slots {
		rec, err := q.at(slot)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// All returns the live records, oldest first.
func (q *Queue[T]) All() ([]T, error) {
	return q.collect(q.window.All())
}

// MostRecent returns up to n of the newest records, newest first, including
// records already consumed but not yet overwritten.
func (q *Queue[T]) MostRecent(n int) ([]T, error) {
	return q.collect(q.window.MostRecent(n))
}

// Slots decodes every slot in storage order, live or not.
func (q *Queue[T]) Slots() ([]T, error) {
	slots := make([]uint32, q.window.AllocLen)
	for i := range slots {
		slots[i] = uint32(i)
	}
	return q.collect(slots)
}

type RequestQueue struct {
	*Queue[Request]
}

type EventQueue struct {
	*Queue[Event]
}

func ParseRequestQueue(data []byte) (*RequestQueue, error) {
	q, err := parseQueue(data, RequestSpan, decodeRequest, func(f layout.AccountFlags) bool { return f.RequestQueue }, "request queue")
	if err != nil {
		return nil, err
	}
	return &RequestQueue{q}, nil
}

func ParseEventQueue(data []byte) (*EventQueue, error) {
	q, err := parseQueue(data, EventSpan, decodeEvent, func(f layout.AccountFlags) bool { return f.EventQueue }, "event queue")
	if err != nil {
		return nil, err
	}
	return &EventQueue{q}, nil
}

// Since returns the events pushed after lastSeq, oldest first, each carrying
// its sequence number. A reader that fell further behind than the ring holds
// receives only the newest AllocLen-1 events; the gap is logged, not returned
// as an error.
func (q *EventQueue) Since(lastSeq uint32) ([]Event, error) {
	slots, startSeq, dropped := q.window.Since(q.Header.Seq, lastSeq)
	if dropped > 0 {
		logger.Warn("event queue overwritten past last sequence",
			"last_seq", lastSeq,
			"current_seq", q.Header.Seq,
			"dropped", dropped,
		)
	}

	events, err := q.collect(slots)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].SeqNum = startSeq + uint32(i)
	}
	return events, nil
}

// DecodeRequestQueue returns the live requests of a request queue account,
// oldest first.
func DecodeRequestQueue(data []byte) ([]Request, error) {
	q, err := ParseRequestQueue(data)
	if err != nil {
		return nil, err
	}
	return q.All()
}

// DecodeEventQueue returns the live events of an event queue account. With a
// positive history the newest history slots are returned, newest first, reaching
// into consumed slots; otherwise every live event is returned, oldest first.
func DecodeEventQueue(data []byte, history int) ([]Event, error) {
	q, err := ParseEventQueue(data)
	if err != nil {
		return nil, err
	}
	if history > 0 {
		return q.MostRecent(history)
	}
	return q.All()
}

// DecodeEventsSince returns the events pushed after lastSeq.
func DecodeEventsSince(data []byte, lastSeq uint32) ([]Event, error) {
	q, err := ParseEventQueue(data)
	if err != nil {
		return nil, err
	}
	return q.Since(lastSeq)
}

// EncodeRequestQueue writes a request queue account whose storage holds
// slots in order. The header cursors are written as given.
func EncodeRequestQueue(header QueueHeader, slots []Request) []byte {
	w := layout.NewWriter(QueueHeaderSpan + len(slots)*RequestSpan)
	writeQueueHeader(w, header)
	for i := range slots {
		encodeRequest(w, &slots[i])
	}
	return w.Bytes()
}

// EncodeEventQueue writes an event queue account whose storage holds slots in
// order. SeqNum is not part of the record and is not written.
func EncodeEventQueue(header QueueHeader, slots []Event) []byte {
	w := layout.NewWriter(QueueHeaderSpan + len(slots)*EventSpan)
	writeQueueHeader(w, header)
	for i := range slots {
		encodeEvent(w, &slots[i])
	}
	return w.Bytes()
}
