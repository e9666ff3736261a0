package pricemath

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// SOLToLamports converts a SOL amount to lamports, truncating sub-lamport dust.
func SOLToLamports(sol float64) (uint64, error) {
	if math.IsNaN(sol) || math.IsInf(sol, 0) || sol < 0 {
		return 0, fmt.Errorf("%w: invalid SOL amount %v", ErrArithmetic, sol)
	}
	l := decimal.NewFromFloat(sol).Mul(decimal.NewFromInt(LamportsPerSOL)).Truncate(0)
	if l.GreaterThan(decimal.NewFromBigInt(maxU64, 0)) {
		return 0, fmt.Errorf("%w: %v SOL overflows", ErrArithmetic, sol)
	}
	return l.BigInt().Uint64(), nil
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	f, _ := decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0).Div(decimal.NewFromInt(LamportsPerSOL)).Float64()
	return f
}
