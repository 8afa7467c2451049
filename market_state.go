package serum

import (
	"fmt"

	"github.com/0x5487/serum-book/layout"
	"github.com/gagliardetto/solana-go"
)

// MarketState is a v2 market account: the addresses of the market's vaults
// and queues plus its lot sizes and running totals.
type MarketState struct {
	Account                layout.AccountHeader `json:"-"`
	OwnAddress             solana.PublicKey     `json:"own_address"`
	VaultSignerNonce       uint64               `json:"vault_signer_nonce"`
	BaseMint               solana.PublicKey     `json:"base_mint"`
	QuoteMint              solana.PublicKey     `json:"quote_mint"`
	BaseVault              solana.PublicKey     `json:"base_vault"`
	BaseDepositsTotal      uint64               `json:"base_deposits_total"`
	BaseFeesAccrued        uint64               `json:"base_fees_accrued"`
	QuoteVault             solana.PublicKey     `json:"quote_vault"`
	QuoteDepositsTotal     uint64               `json:"quote_deposits_total"`
	QuoteFeesAccrued       uint64               `json:"quote_fees_accrued"`
	QuoteDustThreshold     uint64               `json:"quote_dust_threshold"`
	RequestQueue           solana.PublicKey     `json:"request_queue"`
	EventQueue             solana.PublicKey     `json:"event_queue"`
	Bids                   solana.PublicKey     `json:"bids"`
	Asks                   solana.PublicKey     `json:"asks"`
	BaseLotSize            uint64               `json:"base_lot_size"`
	QuoteLotSize           uint64               `json:"quote_lot_size"`
	FeeRateBps             uint64               `json:"fee_rate_bps"`
	ReferrerRebatesAccrued uint64               `json:"referrer_rebates_accrued"`
}

// DecodeMarketState parses a market account. Bytes beyond the v2 layout are
// ignored.
func DecodeMarketState(data []byte) (*MarketState, error) {
	if len(data) < MarketStateSpan {
		return nil, fmt.Errorf("market account needs %d bytes, have %d: %w", MarketStateSpan, len(data), ErrBufferTooShort)
	}

	r := layout.NewReader(data)
	s := &MarketState{Account: layout.ReadAccountHeader(r)}
	if f := s.Account.Flags; !f.Initialized || !f.Market {
		return nil, fmt.Errorf("account flags %#x are not an initialized market: %w", f.Word(), ErrWrongAccountKind)
	}

	s.OwnAddress = r.PublicKey()
	s.VaultSignerNonce = r.Uint64()
	s.BaseMint = r.PublicKey()
	s.QuoteMint = r.PublicKey()
	s.BaseVault = r.PublicKey()
	s.BaseDepositsTotal = r.Uint64()
	s.BaseFeesAccrued = r.Uint64()
	s.QuoteVault = r.PublicKey()
	s.QuoteDepositsTotal = r.Uint64()
	s.QuoteFeesAccrued = r.Uint64()
	s.QuoteDustThreshold = r.Uint64()
	s.RequestQueue = r.PublicKey()
	s.EventQueue = r.PublicKey()
	s.Bids = r.PublicKey()
	s.Asks = r.PublicKey()
	s.BaseLotSize = r.Uint64()
	s.QuoteLotSize = r.Uint64()
	s.FeeRateBps = r.Uint64()
	s.ReferrerRebatesAccrued = r.Uint64()
	r.Zeros(layout.AccountPaddingSpan)

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("market account: %w", err)
	}
	return s, nil
}

// Encode writes the market account back into its binary form.
func (s *MarketState) Encode() []byte {
	w := layout.NewWriter(MarketStateSpan)
	layout.WriteAccountHeader(w, s.Account)
	w.PutPublicKey(s.OwnAddress)
	w.PutUint64(s.VaultSignerNonce)
	w.PutPublicKey(s.BaseMint)
	w.PutPublicKey(s.QuoteMint)
	w.PutPublicKey(s.BaseVault)
	w.PutUint64(s.BaseDepositsTotal)
	w.PutUint64(s.BaseFeesAccrued)
	w.PutPublicKey(s.QuoteVault)
	w.PutUint64(s.QuoteDepositsTotal)
	w.PutUint64(s.QuoteFeesAccrued)
	w.PutUint64(s.QuoteDustThreshold)
	w.PutPublicKey(s.RequestQueue)
	w.PutPublicKey(s.EventQueue)
	w.PutPublicKey(s.Bids)
	w.PutPublicKey(s.Asks)
	w.PutUint64(s.BaseLotSize)
	w.PutUint64(s.QuoteLotSize)
	w.PutUint64(s.FeeRateBps)
	w.PutUint64(s.ReferrerRebatesAccrued)
	w.PutZeros(layout.AccountPaddingSpan)
	return w.Bytes()
}

// Constants combines the market's lot sizes with the mint decimals, which
// live in the mint accounts rather than the market.
func (s *MarketState) Constants(baseDecimals, quoteDecimals uint8) MarketConstants {
	return MarketConstants{
		BaseLotSize:   s.BaseLotSize,
		QuoteLotSize:  s.QuoteLotSize,
		BaseDecimals:  baseDecimals,
		QuoteDecimals: quoteDecimals,
	}
}
