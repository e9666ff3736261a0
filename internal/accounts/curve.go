package accounts

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/layout"
	"solana-copy-trader/internal/pricemath"
)

// BondingCurveLayout is the pump.fun bonding curve account. The program has
// appended fields over time, so trailing bytes are accepted.
var BondingCurveLayout = layout.NewPrefix("bonding_curve",
	layout.BytesField("discriminator", 8),
	layout.U64Field("virtual_token_reserves"),
	layout.U64Field("virtual_sol_reserves"),
	layout.U64Field("real_token_reserves"),
	layout.U64Field("real_sol_reserves"),
	layout.U64Field("token_total_supply"),
	layout.BoolField("complete"),
)

// BondingCurve is a decoded bonding curve account.
type BondingCurve struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// DecodeBondingCurve decodes a bonding curve account.
func DecodeBondingCurve(data []byte) (*BondingCurve, error) {
	rec, err := BondingCurveLayout.Decode(data)
	if err != nil {
		return nil, err
	}

	d := decoder{rec: rec}
	c := &BondingCurve{
		VirtualTokenReserves: d.u64("virtual_token_reserves"),
		VirtualSolReserves:   d.u64("virtual_sol_reserves"),
		RealTokenReserves:    d.u64("real_token_reserves"),
		RealSolReserves:      d.u64("real_sol_reserves"),
		TokenTotalSupply:     d.u64("token_total_supply"),
		Complete:             d.flag("complete"),
	}
	if d.err != nil {
		return nil, fmt.Errorf("decode bonding curve: %w", d.err)
	}
	return c, nil
}

// Quote returns the curve's virtual reserves for quoting.
func (c *BondingCurve) Quote() pricemath.CurveReserves {
	return pricemath.CurveReserves{
		VirtualTokenReserves: c.VirtualTokenReserves,
		VirtualSolReserves:   c.VirtualSolReserves,
	}
}

// BondingCurveAddress derives the bonding curve PDA for mint.
func BondingCurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := chain.FindProgramAddress([][]byte{[]byte("bonding-curve"), mint[:]}, PumpProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: bonding curve for %s: %v", ErrAddressDerivation, mint, err)
	}
	return addr, nil
}

// EncodeBondingCurve writes c in the bonding curve layout without trailing fields.
func EncodeBondingCurve(c *BondingCurve) ([]byte, error) {
	return BondingCurveLayout.NewWriter().
		PutU64("virtual_token_reserves", c.VirtualTokenReserves).
		PutU64("virtual_sol_reserves", c.VirtualSolReserves).
		PutU64("real_token_reserves", c.RealTokenReserves).
		PutU64("real_sol_reserves", c.RealSolReserves).
		PutU64("token_total_supply", c.TokenTotalSupply).
		PutBool("complete", c.Complete).
		Bytes()
}
