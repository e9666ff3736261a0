package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/chain"
)

// Default retry budget: 200, 400, 800, 1600, 3200 ms between six attempts.
const (
	DefaultInitialDelay = 200 * time.Millisecond
	DefaultAttempts     = 6
)

var errAccountMissing = errors.New("account not returned")

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	InitialDelay time.Duration
	Attempts     uint
	Logger       *zap.Logger
}

// Fetcher reads raw account data at processed commitment with retry.
type Fetcher struct {
	rpc          chain.AccountReader
	initialDelay time.Duration
	attempts     uint
	logger       *zap.Logger
}

// NewFetcher creates a Fetcher over rpc.
func NewFetcher(rpc chain.AccountReader, opts FetcherOptions) *Fetcher {
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.Attempts == 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Fetcher{
		rpc:          rpc,
		initialDelay: opts.InitialDelay,
		attempts:     opts.Attempts,
		logger:       opts.Logger,
	}
}

// FetchRaw returns the account data. A missing account and transport errors
// are retried; exhaustion yields ErrChainUnavailable.
func (f *Fetcher) FetchRaw(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.initialDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = f.initialDelay << f.attempts

	op := func() ([]byte, error) {
		info, err := f.rpc.GetAccountInfoWithCommitment(ctx, pubkey, chain.CommitmentProcessed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		if info == nil {
			return nil, errAccountMissing
		}
		return info.Data, nil
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(f.attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			f.logger.Debug("account fetch retry",
				zap.String("account", pubkey.String()),
				zap.Duration("next", next),
				zap.Error(err))
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrChainUnavailable, pubkey, err)
	}
	return data, nil
}

// FetchPool fetches and decodes an AMM pool. Decode errors are not retried.
func (f *Fetcher) FetchPool(ctx context.Context, amm solana.PublicKey) (*Pool, error) {
	data, err := f.FetchRaw(ctx, amm)
	if err != nil {
		return nil, err
	}
	return DecodePool(data)
}

// FetchMarket fetches and decodes a Serum market.
func (f *Fetcher) FetchMarket(ctx context.Context, market solana.PublicKey) (*Market, error) {
	data, err := f.FetchRaw(ctx, market)
	if err != nil {
		return nil, err
	}
	return DecodeMarket(data)
}

// FetchBondingCurve fetches and decodes a pump.fun bonding curve.
func (f *Fetcher) FetchBondingCurve(ctx context.Context, curve solana.PublicKey) (*BondingCurve, error) {
	data, err := f.FetchRaw(ctx, curve)
	if err != nil {
		return nil, err
	}
	return DecodeBondingCurve(data)
}
