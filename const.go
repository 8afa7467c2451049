package serum

import (
	"github.com/0x5487/serum-book/layout"
	"github.com/0x5487/serum-book/structure"
)

const (
	// DecoderVersion is the current version of the account decoder
	DecoderVersion = "v1.0.0"

	// QueueHeaderSpan is the envelope plus head, count and sequence words,
	// each followed by four bytes of padding.
	QueueHeaderSpan = layout.AccountHeaderSpan + 24

	// RequestSpan and EventSpan are the fixed record widths of the two queues.
	RequestSpan = 80
	EventSpan   = 88

	// MarketStateSpan is the width of a v2 market account.
	MarketStateSpan = 388

	// minOrderbookSpan is the envelope, an empty slab header and the padding.
	minOrderbookSpan = layout.AccountHeaderSpan + structure.SlabHeaderSpan + layout.AccountPaddingSpan
)
