package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/accounts"
	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/pricemath"
)

// AMMOptions configures an AMMVenue.
type AMMOptions struct {
	// SeedFunc overrides the ephemeral account seed source.
	SeedFunc func() (string, error)
	Logger   *zap.Logger
}

// AMMVenue routes swaps through a Raydium AMM v4 pool.
type AMMVenue struct {
	fetcher *accounts.Fetcher
	rent    chain.RentReader
	seed    func() (string, error)
	logger  *zap.Logger
}

var _ Venue = (*AMMVenue)(nil)

// NewAMMVenue creates an AMM venue.
func NewAMMVenue(fetcher *accounts.Fetcher, rent chain.RentReader, opts AMMOptions) *AMMVenue {
	if opts.SeedFunc == nil {
		opts.SeedFunc = chain.RandomSeed
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &AMMVenue{
		fetcher: fetcher,
		rent:    rent,
		seed:    opts.SeedFunc,
		logger:  opts.Logger,
	}
}

func (v *AMMVenue) Name() string { return NameAMM }

// BuildBuy builds the native swap bundle spending SolAmount lamports.
func (v *AMMVenue) BuildBuy(ctx context.Context, req BuyRequest) ([]solana.Instruction, error) {
	if req.SolAmount == 0 || req.Pool.IsZero() {
		return nil, fmt.Errorf("%w: buy needs a pool and a non-zero amount", ErrInvalidRequest)
	}

	bundle, accs, err := v.prepare(ctx, req.Owner, req.Mint, req.Pool)
	if err != nil {
		return nil, err
	}

	// SOL in: oriented so Base is the wrapped SOL side.
	reserves, err := orient(accs.Pool, accounts.WrappedSOLMint, req.Mint)
	if err != nil {
		return nil, err
	}
	minOut, err := pricemath.MinimumAmountOut(reserves, req.SolAmount, bpsFraction(req.SlippageBps))
	if err != nil {
		return nil, fmt.Errorf("quote buy: %w", err)
	}

	v.logger.Debug("amm buy quote",
		zap.String("token", req.Mint.String()),
		zap.Uint64("amount_in", req.SolAmount),
		zap.Uint64("min_out", minOut))

	return bundle.Buy(req.SolAmount, minOut)
}

// BuildSell builds the native swap bundle selling TokenAmount.
func (v *AMMVenue) BuildSell(ctx context.Context, req SellRequest) ([]solana.Instruction, error) {
	if req.TokenAmount == 0 || req.Pool.IsZero() {
		return nil, fmt.Errorf("%w: sell needs a pool and a non-zero amount", ErrInvalidRequest)
	}

	bundle, accs, err := v.prepare(ctx, req.Owner, req.Mint, req.Pool)
	if err != nil {
		return nil, err
	}

	reserves, err := orient(accs.Pool, req.Mint, accounts.WrappedSOLMint)
	if err != nil {
		return nil, err
	}
	minOut, err := pricemath.MinimumAmountOut(reserves, req.TokenAmount, bpsFraction(req.SlippageBps))
	if err != nil {
		return nil, fmt.Errorf("quote sell: %w", err)
	}

	v.logger.Debug("amm sell quote",
		zap.String("token", req.Mint.String()),
		zap.Uint64("amount_in", req.TokenAmount),
		zap.Uint64("min_out", minOut))

	return bundle.Sell(req.TokenAmount, minOut)
}

func (v *AMMVenue) prepare(ctx context.Context, owner, mint, pool solana.PublicKey) (NativeSwapBundle, *accounts.SwapAccounts, error) {
	accs, err := accounts.ResolveSwapAccounts(ctx, v.fetcher, pool)
	if err != nil {
		return NativeSwapBundle{}, nil, fmt.Errorf("resolve pool %s: %w", pool, err)
	}

	rent, err := v.rent.GetMinimumBalanceForRentExemption(ctx, TokenAccountSize)
	if err != nil {
		return NativeSwapBundle{}, nil, fmt.Errorf("rent exemption: %w", err)
	}

	seed, err := v.seed()
	if err != nil {
		return NativeSwapBundle{}, nil, fmt.Errorf("seed: %w", err)
	}

	return NativeSwapBundle{
		Owner:        owner,
		Mint:         mint,
		Seed:         seed,
		RentLamports: rent,
		Accounts:     accs,
	}, accs, nil
}

// orient returns reserves with Base on the input mint's side.
func orient(pool *accounts.Pool, in, out solana.PublicKey) (pricemath.Reserves, error) {
	switch {
	case pool.BaseMint.Equals(in) && pool.QuoteMint.Equals(out):
		return pool.Reserves(), nil
	case pool.QuoteMint.Equals(in) && pool.BaseMint.Equals(out):
		return pool.Reserves().Reverse(), nil
	default:
		return pricemath.Reserves{}, fmt.Errorf("%w: pool %s/%s, want %s/%s",
			ErrMintMismatch, pool.BaseMint, pool.QuoteMint, in, out)
	}
}

func bpsFraction(bps uint16) float64 {
	return float64(bps) / 10000
}
