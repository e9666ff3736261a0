package trader

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/venue"
)

// SellOrder exits all or part of the position of (Token, StrategyID).
type SellOrder struct {
	MessageID    int64
	Token        string
	StrategyID   string
	ProfitPct    float64
	OpType       domain.OperationType
	Strategy     *domain.Strategy // nil sells everything
	SlippageBps  uint16
	TipLamports  uint64
	CurrentPrice float64 // 0 leaves highest_price untouched
}

// MetaSell sizes the exit with the strategy's rules, sells with one venue
// fallback and updates or removes the position.
func (t *Trader) MetaSell(ctx context.Context, o SellOrder) (*Execution, error) {
	trade, err := t.trades.Get(ctx, o.Token, o.StrategyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNoActiveTrade, o.Token, o.StrategyID)
		}
		return nil, fmt.Errorf("load position: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(o.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: token %q: %v", venue.ErrInvalidRequest, o.Token, err)
	}
	s, err := t.signerFor(ctx)
	if err != nil {
		return nil, err
	}

	if o.CurrentPrice > 0 && trade.UpdateHighestPrice(o.CurrentPrice, t.now().Unix()) {
		if err := t.trades.UpdateHighestPrice(ctx, o.Token, o.StrategyID, o.CurrentPrice); err != nil {
			t.logger.Warn("update highest price", zap.String("token", o.Token), zap.Error(err))
		}
	}

	amount, ok := trade.CalculateSellAmount(o.ProfitPct, o.OpType, o.Strategy)
	if !ok {
		amount = trade.RemainingHoldings
		t.logger.Info("no exit rule matched, selling remaining holdings",
			zap.String("token", o.Token),
			zap.String("strategy", o.StrategyID),
			zap.Float64("profit_pct", o.ProfitPct))
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNothingToSell, o.Token, o.StrategyID)
	}

	info, err := t.resolver.TokenInfo(ctx, o.Token)
	if err != nil {
		return nil, err
	}
	pool := poolAddress(info)

	t.logger.Info("selling",
		zap.String("token", o.Token),
		zap.String("strategy", o.StrategyID),
		zap.String("op_type", o.OpType.String()),
		zap.Uint64("amount", amount),
		zap.Uint64("remaining", trade.RemainingHoldings),
		zap.Int64("message_id", o.MessageID))

	exec, err := t.execute(ctx, s, order{
		messageID:  o.MessageID,
		side:       domain.SideSell,
		token:      o.Token,
		strategyID: o.StrategyID,
		amount:     amount,
		tip:        o.TipLamports,
		build: func(ctx context.Context, v venue.Venue) ([]solana.Instruction, error) {
			return v.BuildSell(ctx, venue.SellRequest{
				Owner:       s.PublicKey(),
				Mint:        mint,
				Pool:        pool,
				TokenAmount: amount,
				SlippageBps: o.SlippageBps,
			})
		},
	}, t.route(info))
	if err != nil {
		return nil, err
	}

	closed := trade.ApplySell(amount, t.now().Unix())
	exec.Holdings = trade.RemainingHoldings
	if closed {
		err = t.trades.Remove(ctx, o.Token, o.StrategyID)
	} else {
		err = t.trades.UpdateHoldings(ctx, o.Token, o.StrategyID, trade.RemainingHoldings)
	}
	if err != nil {
		return exec, fmt.Errorf("sold %s in %s but could not update position: %w", o.Token, exec.Signature, err)
	}
	t.refreshPositionGauge(ctx)

	t.logger.Info("position reduced",
		zap.String("token", o.Token),
		zap.String("strategy", o.StrategyID),
		zap.String("venue", exec.Venue),
		zap.String("signature", exec.Signature),
		zap.Uint64("remaining", trade.RemainingHoldings),
		zap.Bool("closed", closed))
	return exec, nil
}
