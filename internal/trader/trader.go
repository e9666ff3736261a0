// Package trader routes buys and sells to a venue, submits them through the
// signer and keeps the position ledger in step.
package trader

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/signer"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/venue"
)

const (
	DefaultSubmitRetries    = 2
	DefaultSubmitRetryDelay = 250 * time.Millisecond
	DefaultConfirmTimeout   = 30 * time.Second
	DefaultBalanceAttempts  = 5
)

// TokenInfoResolver looks up routing metadata for a mint.
type TokenInfoResolver interface {
	TokenInfo(ctx context.Context, address string) (*domain.TokenInfo, error)
}

// Options for creating a Trader.
type Options struct {
	// Required
	Resolver     TokenInfoResolver
	AMM          venue.Venue
	BondingCurve venue.Venue
	Balances     chain.TokenBalanceReader
	Trades       storage.ActiveTradeStore

	// Optional
	Reports        storage.ExecutionReportStore
	Signer         signer.Signer   // used when the context carries none
	Confirmer      chain.Confirmer // nil skips confirmation
	ConfirmTimeout time.Duration

	// SubmitRetries is the number of extra submissions after a transient
	// failure. Zero uses DefaultSubmitRetries; negative disables retries.
	SubmitRetries    int
	SubmitRetryDelay time.Duration
	BalanceAttempts  uint
	BalanceDelay     time.Duration

	// Compute budget applied to every transaction. Tips come from the order.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	Logger *zap.Logger
	Now    func() time.Time
}

// Trader executes orders against the bonding-curve and AMM venues.
type Trader struct {
	resolver     TokenInfoResolver
	amm          venue.Venue
	bondingCurve venue.Venue
	balances     chain.TokenBalanceReader
	trades       storage.ActiveTradeStore
	reports      storage.ExecutionReportStore
	signer       signer.Signer
	confirmer    chain.Confirmer

	confirmTimeout   time.Duration
	submitRetries    uint
	submitRetryDelay time.Duration
	balanceAttempts  uint
	balanceDelay     time.Duration
	computeUnitLimit uint32
	computeUnitPrice uint64

	logger *zap.Logger
	now    func() time.Time
}

// New creates a Trader.
func New(opts Options) *Trader {
	t := &Trader{
		resolver:         opts.Resolver,
		amm:              opts.AMM,
		bondingCurve:     opts.BondingCurve,
		balances:         opts.Balances,
		trades:           opts.Trades,
		reports:          opts.Reports,
		signer:           opts.Signer,
		confirmer:        opts.Confirmer,
		confirmTimeout:   opts.ConfirmTimeout,
		submitRetryDelay: opts.SubmitRetryDelay,
		balanceAttempts:  opts.BalanceAttempts,
		balanceDelay:     opts.BalanceDelay,
		computeUnitLimit: opts.ComputeUnitLimit,
		computeUnitPrice: opts.ComputeUnitPrice,
		logger:           opts.Logger,
		now:              opts.Now,
	}

	switch {
	case opts.SubmitRetries == 0:
		t.submitRetries = DefaultSubmitRetries
	case opts.SubmitRetries > 0:
		t.submitRetries = uint(opts.SubmitRetries)
	}
	if t.submitRetryDelay <= 0 {
		t.submitRetryDelay = DefaultSubmitRetryDelay
	}
	if t.confirmTimeout <= 0 {
		t.confirmTimeout = DefaultConfirmTimeout
	}
	if t.balanceAttempts == 0 {
		t.balanceAttempts = DefaultBalanceAttempts
	}
	if t.balanceDelay <= 0 {
		t.balanceDelay = 400 * time.Millisecond
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// TokenInfo resolves routing metadata for a mint.
func (t *Trader) TokenInfo(ctx context.Context, address string) (*domain.TokenInfo, error) {
	return t.resolver.TokenInfo(ctx, address)
}

// Positions lists open positions.
func (t *Trader) Positions(ctx context.Context) ([]*domain.ActiveTrade, error) {
	return t.trades.List(ctx)
}

// Execution is the outcome of a successful order.
type Execution struct {
	Signature string
	Venue     string
	Amount    uint64 // lamports in for buys, tokens in for sells
	Holdings  uint64 // position size after the trade
	Attempts  int
}

func (t *Trader) signerFor(ctx context.Context) (signer.Signer, error) {
	if s, err := signer.FromContext(ctx); err == nil {
		return s, nil
	}
	if t.signer != nil {
		return t.signer, nil
	}
	return nil, signer.ErrNoSigner
}

func (t *Trader) refreshPositionGauge(ctx context.Context) {
	list, err := t.trades.List(ctx)
	if err != nil {
		t.logger.Debug("list positions failed", zap.Error(err))
		return
	}
	observability.SetActivePositions(len(list))
}
