package venue

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/accounts"
	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/pricemath"
)

var (
	pumpBuyDiscriminator  = []byte{102, 6, 61, 18, 1, 218, 235, 234}
	pumpSellDiscriminator = []byte{51, 230, 133, 164, 1, 127, 131, 173}

	pumpGlobal         = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	pumpFeeRecipient   = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	pumpEventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// BondingCurveOptions configures a BondingCurveVenue.
type BondingCurveOptions struct {
	Logger *zap.Logger
}

// BondingCurveVenue trades against pump.fun bonding curves before migration.
type BondingCurveVenue struct {
	fetcher *accounts.Fetcher
	logger  *zap.Logger
}

var _ Venue = (*BondingCurveVenue)(nil)

// NewBondingCurveVenue creates a bonding-curve venue.
func NewBondingCurveVenue(fetcher *accounts.Fetcher, opts BondingCurveOptions) *BondingCurveVenue {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &BondingCurveVenue{fetcher: fetcher, logger: opts.Logger}
}

func (v *BondingCurveVenue) Name() string { return NameBondingCurve }

type curveAccounts struct {
	curve    solana.PublicKey
	curveATA solana.PublicKey
	userATA  solana.PublicKey
	reserves pricemath.CurveReserves
}

func (v *BondingCurveVenue) load(ctx context.Context, owner, mint solana.PublicKey) (*curveAccounts, error) {
	curveAddr, err := accounts.BondingCurveAddress(mint)
	if err != nil {
		return nil, err
	}
	curve, err := v.fetcher.FetchBondingCurve(ctx, curveAddr)
	if err != nil {
		return nil, fmt.Errorf("load bonding curve %s: %w", curveAddr, err)
	}
	if curve.Complete {
		return nil, fmt.Errorf("%w: %s", ErrCurveComplete, mint)
	}

	curveATA, err := chain.AssociatedTokenAddress(curveAddr, mint)
	if err != nil {
		return nil, err
	}
	userATA, err := chain.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}

	return &curveAccounts{
		curve:    curveAddr,
		curveATA: curveATA,
		userATA:  userATA,
		reserves: curve.Quote(),
	}, nil
}

// BuildBuy quotes tokens for SolAmount and caps the SOL cost by the slippage.
func (v *BondingCurveVenue) BuildBuy(ctx context.Context, req BuyRequest) ([]solana.Instruction, error) {
	if req.SolAmount == 0 {
		return nil, fmt.Errorf("%w: buy needs a non-zero amount", ErrInvalidRequest)
	}

	ca, err := v.load(ctx, req.Owner, req.Mint)
	if err != nil {
		return nil, err
	}

	tokens, err := pricemath.BondingCurveBuyQuote(ca.reserves, req.SolAmount)
	if err != nil {
		return nil, fmt.Errorf("quote buy: %w", err)
	}
	if tokens == 0 {
		return nil, fmt.Errorf("%w: %d lamports buys zero tokens", ErrInvalidRequest, req.SolAmount)
	}
	maxSolCost := pricemath.AddSlippageBps(req.SolAmount, req.SlippageBps)

	v.logger.Debug("curve buy quote",
		zap.String("token", req.Mint.String()),
		zap.Uint64("tokens", tokens),
		zap.Uint64("max_sol_cost", maxSolCost))

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(pumpGlobal, false, false),
		solana.NewAccountMeta(pumpFeeRecipient, true, false),
		solana.NewAccountMeta(req.Mint, false, false),
		solana.NewAccountMeta(ca.curve, true, false),
		solana.NewAccountMeta(ca.curveATA, true, false),
		solana.NewAccountMeta(ca.userATA, true, false),
		solana.NewAccountMeta(req.Owner, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
		solana.NewAccountMeta(pumpEventAuthority, false, false),
		solana.NewAccountMeta(accounts.PumpProgramID, false, false),
	}

	return []solana.Instruction{
		NewCreateATAIdempotentInstruction(req.Owner, ca.userATA, req.Owner, req.Mint),
		solana.NewInstruction(accounts.PumpProgramID, metas, pumpData(pumpBuyDiscriminator, tokens, maxSolCost)),
	}, nil
}

// BuildSell quotes SOL for TokenAmount and floors the output by the slippage.
func (v *BondingCurveVenue) BuildSell(ctx context.Context, req SellRequest) ([]solana.Instruction, error) {
	if req.TokenAmount == 0 {
		return nil, fmt.Errorf("%w: sell needs a non-zero amount", ErrInvalidRequest)
	}

	ca, err := v.load(ctx, req.Owner, req.Mint)
	if err != nil {
		return nil, err
	}

	sol, err := pricemath.BondingCurveSellQuote(ca.reserves, req.TokenAmount)
	if err != nil {
		return nil, fmt.Errorf("quote sell: %w", err)
	}
	minSol := pricemath.ApplySlippageBps(sol, req.SlippageBps)

	v.logger.Debug("curve sell quote",
		zap.String("token", req.Mint.String()),
		zap.Uint64("sol", sol),
		zap.Uint64("min_sol_output", minSol))

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(pumpGlobal, false, false),
		solana.NewAccountMeta(pumpFeeRecipient, true, false),
		solana.NewAccountMeta(req.Mint, false, false),
		solana.NewAccountMeta(ca.curve, true, false),
		solana.NewAccountMeta(ca.curveATA, true, false),
		solana.NewAccountMeta(ca.userATA, true, false),
		solana.NewAccountMeta(req.Owner, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(pumpEventAuthority, false, false),
		solana.NewAccountMeta(accounts.PumpProgramID, false, false),
	}

	return []solana.Instruction{
		solana.NewInstruction(accounts.PumpProgramID, metas, pumpData(pumpSellDiscriminator, req.TokenAmount, minSol)),
	}, nil
}

func pumpData(discriminator []byte, amount, limit uint64) []byte {
	data := make([]byte, 24)
	copy(data, discriminator)
	binary.LittleEndian.PutUint64(data[8:16], amount)
	binary.LittleEndian.PutUint64(data[16:24], limit)
	return data
}
