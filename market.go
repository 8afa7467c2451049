package serum

import (
	"fmt"
	"math/big"

	"github.com/0x5487/serum-book/fixedpoint"
	"github.com/shopspring/decimal"
)

// MarketConstants are the per-market numbers needed to turn lots into
// human-readable amounts. Lot sizes come from the market account, decimals
// from the two token mints.
type MarketConstants struct {
	BaseLotSize   uint64 `json:"base_lot_size" mapstructure:"base_lot_size"`
	QuoteLotSize  uint64 `json:"quote_lot_size" mapstructure:"quote_lot_size"`
	BaseDecimals  uint8  `json:"base_decimals" mapstructure:"base_decimals"`
	QuoteDecimals uint8  `json:"quote_decimals" mapstructure:"quote_decimals"`
}

// Validate rejects constants that would divide by zero.
func (m MarketConstants) Validate() error {
	if m.BaseLotSize == 0 || m.QuoteLotSize == 0 {
		return fmt.Errorf("base lot size %d, quote lot size %d: %w", m.BaseLotSize, m.QuoteLotSize, ErrInvalidMarket)
	}
	return nil
}

func (m MarketConstants) baseMultiplier() *big.Int {
	return fixedpoint.Pow10(int(m.BaseDecimals))
}

func (m MarketConstants) quoteMultiplier() *big.Int {
	return fixedpoint.Pow10(int(m.QuoteDecimals))
}

// priceRatio expresses a lot price as
// priceLots * quoteLotSize * 10^baseDecimals / (baseLotSize * 10^quoteDecimals).
func (m MarketConstants) priceRatio(priceLots uint64) (num, den *big.Int) {
	num = fixedpoint.Mul(fixedpoint.FromUint64(priceLots), fixedpoint.FromUint64(m.QuoteLotSize), m.baseMultiplier())
	den = fixedpoint.Mul(fixedpoint.FromUint64(m.BaseLotSize), m.quoteMultiplier())
	return num, den
}

func (m MarketConstants) PriceLotsToNumber(priceLots uint64) float64 {
	return fixedpoint.Divide(m.priceRatio(priceLots))
}

func (m MarketConstants) PriceLotsToDecimal(priceLots uint64) decimal.Decimal {
	return fixedpoint.Quo(m.priceRatio(priceLots))
}

func (m MarketConstants) BaseSizeLotsToNumber(sizeLots uint64) float64 {
	return fixedpoint.Divide(fixedpoint.Mul(fixedpoint.FromUint64(sizeLots), fixedpoint.FromUint64(m.BaseLotSize)), m.baseMultiplier())
}

func (m MarketConstants) BaseSizeLotsToDecimal(sizeLots uint64) decimal.Decimal {
	return fixedpoint.Quo(fixedpoint.Mul(fixedpoint.FromUint64(sizeLots), fixedpoint.FromUint64(m.BaseLotSize)), m.baseMultiplier())
}

func (m MarketConstants) QuoteSizeLotsToNumber(sizeLots uint64) float64 {
	return fixedpoint.Divide(fixedpoint.Mul(fixedpoint.FromUint64(sizeLots), fixedpoint.FromUint64(m.QuoteLotSize)), m.quoteMultiplier())
}

func (m MarketConstants) QuoteSizeLotsToDecimal(sizeLots uint64) decimal.Decimal {
	return fixedpoint.Quo(fixedpoint.Mul(fixedpoint.FromUint64(sizeLots), fixedpoint.FromUint64(m.QuoteLotSize)), m.quoteMultiplier())
}

// BaseNativeToDecimal scales a native base token amount by the mint decimals.
func (m MarketConstants) BaseNativeToDecimal(native *big.Int) decimal.Decimal {
	return fixedpoint.Quo(native, m.baseMultiplier())
}

// QuoteNativeToDecimal scales a native quote token amount by the mint decimals.
func (m MarketConstants) QuoteNativeToDecimal(native *big.Int) decimal.Decimal {
	return fixedpoint.Quo(native, m.quoteMultiplier())
}

// PriceToLots converts a price to lots, rounding down. The returned lot price
// is the effective price an order would rest at, which may be below the input.
func (m MarketConstants) PriceToLots(price decimal.Decimal) (uint64, error) {
	num := fixedpoint.Mul(m.quoteMultiplier(), fixedpoint.FromUint64(m.BaseLotSize))
	den := fixedpoint.Mul(m.baseMultiplier(), fixedpoint.FromUint64(m.QuoteLotSize))
	return toLots(price, num, den)
}

// SizeToLots converts a base size to lots, rounding down to a whole lot.
func (m MarketConstants) SizeToLots(size decimal.Decimal) (uint64, error) {
	return toLots(size, m.baseMultiplier(), fixedpoint.FromUint64(m.BaseLotSize))
}

// QuoteSizeToLots converts a quote amount to quote lots, rounding down.
func (m MarketConstants) QuoteSizeToLots(size decimal.Decimal) (uint64, error) {
	return toLots(size, m.quoteMultiplier(), fixedpoint.FromUint64(m.QuoteLotSize))
}

func (m MarketConstants) PriceNumberToLots(price float64) (uint64, error) {
	return m.PriceToLots(decimal.NewFromFloat(price))
}

func (m MarketConstants) SizeNumberToLots(size float64) (uint64, error) {
	return m.SizeToLots(decimal.NewFromFloat(size))
}

// toLots computes floor(amount * num / den) without leaving integer arithmetic.
func toLots(amount decimal.Decimal, num, den *big.Int) (uint64, error) {
	if amount.Sign() < 0 {
		return 0, fmt.Errorf("negative amount %s: %w", amount, ErrInvalidParam)
	}
	if den.Sign() == 0 {
		return 0, ErrInvalidMarket
	}

	n := new(big.Int).Mul(amount.Coefficient(), num)
	d := new(big.Int).Set(den)
	if exp := int(amount.Exponent()); exp > 0 {
		n.Mul(n, fixedpoint.Pow10(exp))
	} else {
		d.Mul(d, fixedpoint.Pow10(-exp))
	}

	lots := n.Quo(n, d)
	if !lots.IsUint64() {
		return 0, fmt.Errorf("%s exceeds 64-bit lots: %w", amount, ErrInvalidParam)
	}
	return lots.Uint64(), nil
}
