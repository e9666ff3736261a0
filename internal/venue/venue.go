// Package venue builds swap instructions for the supported on-chain venues.
package venue

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrMintMismatch is returned when a pool does not pair the mint with wrapped SOL.
	ErrMintMismatch = errors.New("pool does not trade mint against wrapped SOL")

	// ErrCurveComplete is returned when a bonding curve has migrated to an AMM.
	ErrCurveComplete = errors.New("bonding curve complete")

	// ErrInvalidRequest is returned for zero amounts or missing addresses.
	ErrInvalidRequest = errors.New("invalid swap request")
)

// Venue names used in routing, metrics and reports.
const (
	NameAMM          = "raydium_amm_v4"
	NameBondingCurve = "pump_bonding_curve"
)

// BuyRequest spends SolAmount lamports on Mint.
type BuyRequest struct {
	Owner       solana.PublicKey
	Mint        solana.PublicKey
	Pool        solana.PublicKey // AMM id; ignored by the bonding-curve venue
	SolAmount   uint64
	SlippageBps uint16
}

// SellRequest sells TokenAmount base units of Mint for SOL.
type SellRequest struct {
	Owner       solana.PublicKey
	Mint        solana.PublicKey
	Pool        solana.PublicKey
	TokenAmount uint64
	SlippageBps uint16
}

// Venue assembles the instructions of one swap.
type Venue interface {
	Name() string
	BuildBuy(ctx context.Context, req BuyRequest) ([]solana.Instruction, error)
	BuildSell(ctx context.Context, req SellRequest) ([]solana.Instruction, error)
}
