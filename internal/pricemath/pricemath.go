// Package pricemath quotes constant-product swaps with overflow-checked integer math.
package pricemath

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrArithmetic is returned for zero denominators, invalid tolerances and overflow.
var ErrArithmetic = errors.New("arithmetic error")

const bpsDenominator = 10000

var maxU64 = new(big.Int).SetUint64(math.MaxUint64)

// Reserves are the two sides of a pool, oriented input (Base) to output (Quote).
type Reserves struct {
	Base           *big.Int
	Quote          *big.Int
	FeeNumerator   uint64
	FeeDenominator uint64
}

// NewReserves builds Reserves from 64-bit values.
func NewReserves(base, quote, feeNum, feeDen uint64) Reserves {
	return Reserves{
		Base:           new(big.Int).SetUint64(base),
		Quote:          new(big.Int).SetUint64(quote),
		FeeNumerator:   feeNum,
		FeeDenominator: feeDen,
	}
}

// Reverse swaps the sides for the opposite trade direction.
func (r Reserves) Reverse() Reserves {
	return Reserves{
		Base:           r.Quote,
		Quote:          r.Base,
		FeeNumerator:   r.FeeNumerator,
		FeeDenominator: r.FeeDenominator,
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// AmountOut returns the output of swapping amountIn after the pool fee.
func AmountOut(r Reserves, amountIn uint64) (uint64, error) {
	if r.FeeDenominator == 0 {
		return 0, fmt.Errorf("%w: fee denominator is zero", ErrArithmetic)
	}

	in := new(big.Int).SetUint64(amountIn)
	fee := new(big.Int).Mul(in, new(big.Int).SetUint64(r.FeeNumerator))
	fee.Quo(fee, new(big.Int).SetUint64(r.FeeDenominator))
	if fee.Cmp(in) > 0 {
		return 0, fmt.Errorf("%w: fee %s exceeds input %d", ErrArithmetic, fee, amountIn)
	}
	after := new(big.Int).Sub(in, fee)

	denom := new(big.Int).Add(orZero(r.Base), after)
	if denom.Sign() == 0 {
		return 0, fmt.Errorf("%w: zero total reserve", ErrArithmetic)
	}

	out := new(big.Int).Mul(orZero(r.Quote), after)
	out.Quo(out, denom)
	if out.Cmp(maxU64) > 0 {
		return 0, fmt.Errorf("%w: amount out %s overflows u64", ErrArithmetic, out)
	}
	return out.Uint64(), nil
}

// MinimumAmountOut returns floor(AmountOut * (1 - slippageTolerance)).
// The tolerance is a fraction in [0, 1].
func MinimumAmountOut(r Reserves, amountIn uint64, slippageTolerance float64) (uint64, error) {
	if math.IsNaN(slippageTolerance) || slippageTolerance < 0 || slippageTolerance > 1 {
		return 0, fmt.Errorf("%w: slippage tolerance %v out of range", ErrArithmetic, slippageTolerance)
	}

	out, err := AmountOut(r, amountIn)
	if err != nil {
		return 0, err
	}

	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(slippageTolerance))
	minOut := decimal.NewFromBigInt(new(big.Int).SetUint64(out), 0).Mul(keep).Floor()
	if minOut.IsNegative() {
		return 0, fmt.Errorf("%w: negative minimum", ErrArithmetic)
	}
	return minOut.BigInt().Uint64(), nil
}

// ApplySlippageBps returns amount - amount*bps/10000, floored.
func ApplySlippageBps(amount uint64, bps uint16) uint64 {
	if bps >= bpsDenominator {
		return 0
	}
	cut := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(int64(bps)))
	cut.Quo(cut, big.NewInt(bpsDenominator))
	return amount - cut.Uint64()
}

// AddSlippageBps returns amount + amount*bps/10000, saturating at the u64 maximum.
func AddSlippageBps(amount uint64, bps uint16) uint64 {
	sum := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(int64(bps)))
	sum.Quo(sum, big.NewInt(bpsDenominator))
	sum.Add(sum, new(big.Int).SetUint64(amount))
	if sum.Cmp(maxU64) > 0 {
		return math.MaxUint64
	}
	return sum.Uint64()
}
