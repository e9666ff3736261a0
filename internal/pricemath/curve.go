package pricemath

import (
	"fmt"
	"math/big"
)

// CurveReserves are the virtual reserves of a bonding curve.
type CurveReserves struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
}

// BondingCurveBuyQuote returns the tokens received for solIn lamports.
func BondingCurveBuyQuote(c CurveReserves, solIn uint64) (uint64, error) {
	return constantProduct(c.VirtualSolReserves, c.VirtualTokenReserves, solIn)
}

// BondingCurveSellQuote returns the lamports received for tokensIn.
func BondingCurveSellQuote(c CurveReserves, tokensIn uint64) (uint64, error) {
	return constantProduct(c.VirtualTokenReserves, c.VirtualSolReserves, tokensIn)
}

// constantProduct computes y*dx/(x+dx) without fee.
func constantProduct(x, y, dx uint64) (uint64, error) {
	denom := new(big.Int).Add(new(big.Int).SetUint64(x), new(big.Int).SetUint64(dx))
	if denom.Sign() == 0 {
		return 0, fmt.Errorf("%w: empty curve", ErrArithmetic)
	}
	out := new(big.Int).Mul(new(big.Int).SetUint64(y), new(big.Int).SetUint64(dx))
	out.Quo(out, denom)
	// out < y always holds, so it fits.
	return out.Uint64(), nil
}
