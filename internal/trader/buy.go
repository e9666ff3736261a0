package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/pricemath"
	"solana-copy-trader/internal/venue"
)

// BuyOrder opens or replaces the position of (Token, StrategyID).
type BuyOrder struct {
	MessageID   int64 // originating signal, 0 for manual orders
	Token       string
	Name        string
	StrategyID  string
	SolAmount   float64
	SlippageBps uint16
	TipLamports uint64
	EntryPrice  float64
}

// MetaBuy resolves the token, buys on its venue with one fallback and records
// the resulting position.
func (t *Trader) MetaBuy(ctx context.Context, o BuyOrder) (*Execution, error) {
	mint, err := solana.PublicKeyFromBase58(o.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: token %q: %v", venue.ErrInvalidRequest, o.Token, err)
	}
	lamports, err := pricemath.SOLToLamports(o.SolAmount)
	if err != nil {
		return nil, err
	}
	s, err := t.signerFor(ctx)
	if err != nil {
		return nil, err
	}

	info, err := t.resolver.TokenInfo(ctx, o.Token)
	if err != nil {
		return nil, err
	}
	pool := poolAddress(info)

	t.logger.Info("buying",
		zap.String("token", o.Token),
		zap.String("strategy", o.StrategyID),
		zap.Bool("complete", info.Complete),
		zap.Uint64("lamports", lamports),
		zap.Int64("message_id", o.MessageID))

	exec, err := t.execute(ctx, s, order{
		messageID:  o.MessageID,
		side:       domain.SideBuy,
		token:      o.Token,
		strategyID: o.StrategyID,
		amount:     lamports,
		tip:        o.TipLamports,
		build: func(ctx context.Context, v venue.Venue) ([]solana.Instruction, error) {
			return v.BuildBuy(ctx, venue.BuyRequest{
				Owner:       s.PublicKey(),
				Mint:        mint,
				Pool:        pool,
				SolAmount:   lamports,
				SlippageBps: o.SlippageBps,
			})
		},
	}, t.route(info))
	if err != nil {
		return nil, err
	}

	holdings, err := t.readHoldings(ctx, s.PublicKey(), mint)
	if err != nil {
		return exec, fmt.Errorf("bought %s in %s but could not read holdings: %w", o.Token, exec.Signature, err)
	}
	exec.Holdings = holdings

	name := o.Name
	if name == "" {
		name = info.Symbol
	}
	trade := domain.NewActiveTrade(name, o.Token, o.StrategyID, holdings, o.EntryPrice, t.now().Unix())
	if err := t.trades.Upsert(ctx, trade); err != nil {
		return exec, fmt.Errorf("record position %s: %w", o.Token, err)
	}
	t.refreshPositionGauge(ctx)

	t.logger.Info("position opened",
		zap.String("token", o.Token),
		zap.String("strategy", o.StrategyID),
		zap.String("venue", exec.Venue),
		zap.String("signature", exec.Signature),
		zap.Uint64("holdings", holdings))
	return exec, nil
}

// readHoldings reads the owner's token balance, retrying while the associated
// account is not yet visible.
func (t *Trader) readHoldings(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ata, err := chain.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.balanceDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	op := func() (uint64, error) {
		bal, err := t.balances.GetTokenAccountBalance(ctx, ata)
		if err != nil {
			if ctx.Err() != nil {
				return 0, backoff.Permanent(ctx.Err())
			}
			return 0, err
		}
		return bal.Amount, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(t.balanceAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			if !errors.Is(err, chain.ErrAccountNotFound) {
				t.logger.Debug("token balance retry", zap.String("account", ata.String()), zap.Error(err))
			}
		}),
	)
}

// poolAddress parses the AMM pool from metadata. Unknown pools are zero, which
// the AMM venue rejects.
func poolAddress(info *domain.TokenInfo) solana.PublicKey {
	if info.AMMPool == "" {
		return solana.PublicKey{}
	}
	pool, err := solana.PublicKeyFromBase58(info.AMMPool)
	if err != nil {
		return solana.PublicKey{}
	}
	return pool
}
