// Package fixedpoint converts on-chain integer amounts to decimal numbers.
//
// Amounts on the remote exchange are 64- and 128-bit integers. A float64 holds
// integers exactly only up to 2^53, so dividing two such amounts after a plain
// float conversion silently rounds both operands first. Divide avoids that by
// shrinking the operands until they are exact in a float64 and falling back to
// decimal arithmetic when they cannot be shrunk.
package fixedpoint

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// SafeBits is the widest integer a float64 represents exactly.
const SafeBits = 53

// QuoPrecision is the number of decimal places Quo keeps for inexact results.
const QuoPrecision = 18

// minSignificantDigits is the relative precision of the decimal fallback.
const minSignificantDigits = 20

var bigOne = big.NewInt(1)

// Divide returns a/b as a float64.
//
//  1. both operands fit in 53 bits: divide directly
//  2. divide both by gcd(a, b) and retry
//  3. strip each operand's trailing zero bits and retry, scaling the result by
//     2^(shiftA-shiftB)
//  4. divide the stripped operands in decimal and apply the same scale
//
// A zero divisor follows IEEE semantics: ±Inf, or NaN for 0/0.
func Divide(a, b *big.Int) float64 {
	if b.Sign() == 0 {
		switch a.Sign() {
		case 0:
			return math.NaN()
		case 1:
			return math.Inf(1)
		default:
			return math.Inf(-1)
		}
	}

	q := divideMagnitudes(new(big.Int).Abs(a), new(big.Int).Abs(b))
	if a.Sign()*b.Sign() < 0 {
		return -q
	}
	return q
}

func fitsFloat(x *big.Int) bool {
	return x.BitLen() <= SafeBits
}

func divideMagnitudes(a, b *big.Int) float64 {
	if fitsFloat(a) && fitsFloat(b) {
		return float64(a.Uint64()) / float64(b.Uint64())
	}

	if gcd := new(big.Int).GCD(nil, nil, a, b); gcd.Cmp(bigOne) > 0 {
		a = new(big.Int).Quo(a, gcd)
		b = new(big.Int).Quo(b, gcd)
		if fitsFloat(a) && fitsFloat(b) {
			return float64(a.Uint64()) / float64(b.Uint64())
		}
	}

	shiftA, shiftB := a.TrailingZeroBits(), b.TrailingZeroBits()
	a = new(big.Int).Rsh(a, shiftA)
	b = new(big.Int).Rsh(b, shiftB)
	scale := int(shiftA) - int(shiftB)

	if fitsFloat(a) && fitsFloat(b) {
		return math.Ldexp(float64(a.Uint64())/float64(b.Uint64()), scale)
	}

	f, _ := decimalQuo(a, b).Float64()
	return math.Ldexp(f, scale)
}

// decimalQuo divides in decimal with at least minSignificantDigits significant
// digits in the result.
func decimalQuo(a, b *big.Int) decimal.Decimal {
	places := len(b.String()) - len(a.String())
	if places < 0 {
		places = 0
	}
	return decimal.NewFromBigInt(a, 0).DivRound(decimal.NewFromBigInt(b, 0), int32(places+minSignificantDigits))
}

// Quo returns a/b as a decimal. Exact quotients are returned as is; others are
// rounded to QuoPrecision decimal places. A zero divisor yields zero.
func Quo(a, b *big.Int) decimal.Decimal {
	if b.Sign() == 0 {
		return decimal.Zero
	}
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() == 0 {
		return decimal.NewFromBigInt(q, 0)
	}
	return decimal.NewFromBigInt(a, 0).DivRound(decimal.NewFromBigInt(b, 0), QuoPrecision)
}

// Pow10 returns 10^n; n below zero yields 1.
func Pow10(n int) *big.Int {
	if n <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Mul multiplies its factors.
func Mul(factors ...*big.Int) *big.Int {
	out := big.NewInt(1)
	for _, f := range factors {
		out.Mul(out, f)
	}
	return out
}

// FromUint64 lifts a native on-chain amount into a big integer.
func FromUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
