package pricemath

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimumAmountOut_Pinned(t *testing.T) {
	r := NewReserves(1_000_000, 2_000_000, 25, 10000)

	out, err := AmountOut(r, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(19752), out)

	minOut, err := MinimumAmountOut(r, 10_000, 0.01)
	require.NoError(t, err)
	assert.Equal(t, uint64(19554), minOut)
}

func TestMinimumAmountOut_MonotoneInTolerance(t *testing.T) {
	r := NewReserves(5_000_000_000, 80_000_000_000_000, 25, 10000)

	prev := uint64(math.MaxUint64)
	for _, tol := range []float64{0, 0.001, 0.01, 0.05, 0.1, 0.5, 1} {
		got, err := MinimumAmountOut(r, 1_000_000, tol)
		require.NoError(t, err)
		assert.LessOrEqual(t, got, prev, "tol %v", tol)
		prev = got
	}
	assert.Equal(t, uint64(0), prev)
}

func TestMinimumAmountOut_MonotoneInAmount(t *testing.T) {
	r := NewReserves(1_000_000, 2_000_000, 25, 10000)

	var prev uint64
	for _, in := range []uint64{0, 1, 10, 1000, 10_000, 1_000_000, 1 << 40} {
		got, err := MinimumAmountOut(r, in, 0.01)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "in %d", in)
		prev = got
	}
}

func TestMinimumAmountOut_Errors(t *testing.T) {
	tests := []struct {
		name string
		r    Reserves
		in   uint64
		tol  float64
	}{
		{"zero fee denominator", NewReserves(1, 1, 0, 0), 10, 0.01},
		{"zero reserve and input", NewReserves(0, 100, 0, 10000), 0, 0.01},
		{"negative tolerance", NewReserves(1, 1, 0, 10000), 10, -0.1},
		{"tolerance above one", NewReserves(1, 1, 0, 10000), 10, 1.5},
		{"nan tolerance", NewReserves(1, 1, 0, 10000), 10, math.NaN()},
		{"fee above input", NewReserves(1, 1, 20000, 10000), 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MinimumAmountOut(tt.r, tt.in, tt.tol)
			assert.ErrorIs(t, err, ErrArithmetic)
		})
	}
}

func TestAmountOut_Overflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 127)
	r := Reserves{Base: big.NewInt(0), Quote: huge, FeeNumerator: 0, FeeDenominator: 1}

	_, err := AmountOut(r, 1)
	assert.ErrorIs(t, err, ErrArithmetic)
}

func TestReserves_Reverse(t *testing.T) {
	r := NewReserves(1, 2, 3, 4).Reverse()
	assert.Equal(t, int64(2), r.Base.Int64())
	assert.Equal(t, int64(1), r.Quote.Int64())
	assert.Equal(t, uint64(3), r.FeeNumerator)
}

func TestApplySlippageBps(t *testing.T) {
	assert.Equal(t, uint64(9900), ApplySlippageBps(10000, 100))
	assert.Equal(t, uint64(10000), ApplySlippageBps(10000, 0))
	assert.Equal(t, uint64(0), ApplySlippageBps(10000, 10000))
	assert.Equal(t, uint64(math.MaxUint64)-uint64(math.MaxUint64)/2, ApplySlippageBps(math.MaxUint64, 5000))
}

func TestAddSlippageBps(t *testing.T) {
	assert.Equal(t, uint64(10100), AddSlippageBps(10000, 100))
	assert.Equal(t, uint64(math.MaxUint64), AddSlippageBps(math.MaxUint64, 1))
}

func TestBondingCurveQuotes(t *testing.T) {
	c := CurveReserves{VirtualTokenReserves: 1_073_000_000_000_000, VirtualSolReserves: 30_000_000_000}

	tokens, err := BondingCurveBuyQuote(c, 1_000_000_000)
	require.NoError(t, err)
	// 1073e12 * 1e9 / 31e9
	assert.Equal(t, uint64(34_612_903_225_806), tokens)

	sol, err := BondingCurveSellQuote(c, tokens)
	require.NoError(t, err)
	assert.Less(t, sol, uint64(1_000_000_000))

	_, err = BondingCurveBuyQuote(CurveReserves{}, 0)
	assert.ErrorIs(t, err, ErrArithmetic)
}

func TestSOLToLamports(t *testing.T) {
	l, err := SOLToLamports(0.1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), l)

	_, err = SOLToLamports(-1)
	assert.ErrorIs(t, err, ErrArithmetic)

	assert.InDelta(t, 1.5, LamportsToSOL(1_500_000_000), 1e-12)
}
