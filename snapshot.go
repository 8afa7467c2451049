package serum

import (
	"fmt"
	"hash/crc32"
)

// BookSnapshot contains both sides of one market's book as plain orders.
type BookSnapshot struct {
	DecoderVersion string  `json:"decoder_version"`
	BidsChecksum   uint32  `json:"bids_checksum"` // CRC32 of the bids account bytes
	AsksChecksum   uint32  `json:"asks_checksum"` // CRC32 of the asks account bytes
	Bids           []Order `json:"bids"`          // Ordered list of bids (best price first)
	Asks           []Order `json:"asks"`          // Ordered list of asks (best price first)
}

// NewBookSnapshot decodes a bids and an asks account of the same market.
func NewBookSnapshot(market MarketConstants, bidsData, asksData []byte) (*BookSnapshot, error) {
	bids, err := DecodeOrderBook(market, bidsData)
	if err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	asks, err := DecodeOrderBook(market, asksData)
	if err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	if bids.Side() != Buy || asks.Side() != Sell {
		return nil, fmt.Errorf("bids side %s, asks side %s: %w", bids.Side(), asks.Side(), ErrWrongAccountKind)
	}

	snap := &BookSnapshot{
		DecoderVersion: DecoderVersion,
		BidsChecksum:   crc32.ChecksumIEEE(bidsData),
		AsksChecksum:   crc32.ChecksumIEEE(asksData),
	}
	if snap.Bids, err = bids.PriorityOrders(); err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	if snap.Asks, err = asks.PriorityOrders(); err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	return snap, nil
}
