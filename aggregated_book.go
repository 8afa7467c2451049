package serum

import (
	"sync"

	"github.com/igrmk/treemap/v2"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

type tradedLevel struct {
	size  decimal.Decimal
	count int64
}

// FillTracker follows a market's event queue across polls and keeps the
// traded volume per price for each taker side. It remembers the last
// sequence number it saw, so each snapshot only contributes the fills pushed
// since the previous one.
type FillTracker struct {
	id      xid.ID
	market  MarketConstants
	publish PublishLog

	mu    sync.Mutex
	seqID uint32 // last sequence number consumed
	ask   *treemap.TreeMap[decimal.Decimal, *tradedLevel]
	bid   *treemap.TreeMap[decimal.Decimal, *tradedLevel]
}

// NewFillTracker creates a tracker that starts after lastSeq. Every polled
// fill is handed to publish; a nil publish discards them.
func NewFillTracker(market MarketConstants, lastSeq uint32, publish PublishLog) (*FillTracker, error) {
	if err := market.Validate(); err != nil {
		return nil, err
	}

	if publish == nil {
		publish = NewDiscardPublishLog()
	}

	less := func(a, b decimal.Decimal) bool {
		return a.LessThan(b)
	}
	return &FillTracker{
		id:      xid.New(),
		market:  market,
		publish: publish,
		seqID:   lastSeq,
		ask:     treemap.NewWithKeyCompare[decimal.Decimal, *tradedLevel](less),
		bid:     treemap.NewWithKeyCompare[decimal.Decimal, *tradedLevel](less),
	}, nil
}

// ID identifies the tracker in log lines.
func (ft *FillTracker) ID() string {
	return ft.id.String()
}

// SequenceID returns the sequence number the next poll resumes after.
func (ft *FillTracker) SequenceID() uint32 {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.seqID
}

// Reset forgets all volume and resumes after seq.
func (ft *FillTracker) Reset(seq uint32) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.seqID = seq
	ft.ask.Clear()
	ft.bid.Clear()
}

// Poll reads the fills pushed since the previous poll from an event queue
// snapshot and adds them to the traded volume.
func (ft *FillTracker) Poll(data []byte) ([]Fill, error) {
	q, err := ParseEventQueue(data)
	if err != nil {
		return nil, err
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()

	events, err := q.Since(ft.seqID)
	if err != nil {
		return nil, err
	}

	fills := ft.market.ParseFills(events)
	published := make([]*Fill, 0, len(fills))
	for i := range fills {
		fill := &fills[i]
		published = append(published, fill)

		book := ft.sideBook(fill.Side)
		level, ok := book.Get(fill.Price)
		if !ok {
			level = &tradedLevel{size: decimal.Zero}
			book.Set(fill.Price, level)
		}
		level.size = level.size.Add(fill.Size)
		level.count++
	}

	if len(published) > 0 {
		ft.publish.Publish(published...)
	}

	logger.Debug("fill tracker polled",
		"tracker_id", ft.ID(),
		"from_seq", ft.seqID,
		"to_seq", q.Header.Seq,
		"events", len(events),
		"fills", len(fills),
	)
	ft.seqID = q.Header.Seq
	return fills, nil
}

func (ft *FillTracker) sideBook(side Side) *treemap.TreeMap[decimal.Decimal, *tradedLevel] {
	if side == Buy {
		return ft.bid
	}
	return ft.ask
}

// Volume returns the size traded at price by takers on the given side.
// Returns zero if nothing traded there.
func (ft *FillTracker) Volume(side Side, price decimal.Decimal) decimal.Decimal {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	level, ok := ft.sideBook(side).Get(price)
	if !ok {
		return decimal.Zero
	}
	return level.size
}

// VolumeLevels returns the traded volume per price, lowest price first.
func (ft *FillTracker) VolumeLevels(side Side) []PriceLevel {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	book := ft.sideBook(side)
	levels := make([]PriceLevel, 0, book.Len())
	for it := book.Iterator(); it.Valid(); it.Next() {
		levels = append(levels, PriceLevel{
			Side:  side,
			Price: it.Key(),
			Size:  it.Value().size,
			Count: it.Value().count,
		})
	}
	return levels
}
