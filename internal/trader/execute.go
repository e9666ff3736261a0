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
	"solana-copy-trader/internal/idhash"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/signer"
	"solana-copy-trader/internal/venue"
)

// route orders the venues for a token: the bonding curve until it completes,
// then the AMM. The other venue is the single fallback.
func (t *Trader) route(info *domain.TokenInfo) []venue.Venue {
	if info.Complete {
		return []venue.Venue{t.amm, t.bondingCurve}
	}
	return []venue.Venue{t.bondingCurve, t.amm}
}

// order carries what execute needs to report on one side of a trade.
type order struct {
	messageID  int64
	side       domain.Side
	token      string
	strategyID string
	amount     uint64
	tip        uint64
	build      func(ctx context.Context, v venue.Venue) ([]solana.Instruction, error)
}

// execute tries each routed venue in turn. A venue fails when building,
// submitting or confirming fails. Signing failures and cancellation stop the
// walk since no other venue can succeed.
func (t *Trader) execute(ctx context.Context, s signer.Signer, o order, venues []venue.Venue) (*Execution, error) {
	failed := &TradeFailed{VenueErrors: make(map[string]error)}
	start := t.now()

	for i, v := range venues {
		attempt := i + 1
		if i > 0 {
			observability.RecordVenueFallback(venues[i-1].Name(), v.Name())
			t.logger.Info("falling back to next venue",
				zap.String("token", o.token),
				zap.String("venue", v.Name()),
				zap.Int64("message_id", o.messageID))
		}

		sig, status, err := t.attempt(ctx, s, o, v)
		if err == nil {
			t.report(ctx, o, v.Name(), attempt, sig.String(), status, nil)
			observability.RecordTrade(string(o.side), v.Name(), "success", t.now().Sub(start).Seconds())
			return &Execution{
				Signature: sig.String(),
				Venue:     v.Name(),
				Amount:    o.amount,
				Attempts:  attempt,
			}, nil
		}

		sigStr := ""
		if !sig.IsZero() {
			sigStr = sig.String()
		}
		t.report(ctx, o, v.Name(), attempt, sigStr, domain.ReportFailed, err)
		observability.RecordTrade(string(o.side), v.Name(), "failed", t.now().Sub(start).Seconds())
		failed.VenueErrors[v.Name()] = err

		var signErr *signer.SignError
		if errors.As(err, &signErr) || ctx.Err() != nil {
			break
		}
	}

	return nil, failed
}

// attempt builds, submits and optionally confirms on one venue.
func (t *Trader) attempt(ctx context.Context, s signer.Signer, o order, v venue.Venue) (solana.Signature, domain.ReportStatus, error) {
	ixs, err := o.build(ctx, v)
	if err != nil {
		return solana.Signature{}, domain.ReportFailed, fmt.Errorf("build %s: %w", o.side, err)
	}

	sig, err := t.submit(ctx, s, ixs, signer.Priority{
		ComputeUnitLimit: t.computeUnitLimit,
		ComputeUnitPrice: t.computeUnitPrice,
		TipLamports:      o.tip,
	})
	if err != nil {
		return solana.Signature{}, domain.ReportFailed, err
	}

	confirmed, err := t.confirm(ctx, sig, o)
	switch {
	case err != nil:
		return sig, domain.ReportFailed, err
	case confirmed:
		return sig, domain.ReportConfirmed, nil
	default:
		return sig, domain.ReportSubmitted, nil
	}
}

// submit sends through the signer, retrying transient submission failures.
func (t *Trader) submit(ctx context.Context, s signer.Signer, ixs []solana.Instruction, p signer.Priority) (solana.Signature, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.submitRetryDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	op := func() (solana.Signature, error) {
		sig, err := s.PrioritySignAndSend(ctx, ixs, p)
		if err != nil && !signer.IsTransient(err) {
			return sig, backoff.Permanent(err)
		}
		return sig, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(t.submitRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			observability.RecordSubmitRetry()
			t.logger.Warn("transient submit failure, retrying",
				zap.Duration("next", next),
				zap.Error(err))
		}),
	)
}

// confirm waits for the signature when a confirmer is configured. A timeout
// is logged and leaves the trade submitted; an on-chain error fails the venue.
func (t *Trader) confirm(ctx context.Context, sig solana.Signature, o order) (bool, error) {
	if t.confirmer == nil {
		return false, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, t.confirmTimeout)
	defer cancel()

	res, err := t.confirmer.WaitForSignature(waitCtx, sig, chain.CommitmentConfirmed)
	switch {
	case err == nil && res.Failed():
		observability.RecordConfirmation("failed")
		return false, fmt.Errorf("transaction %s failed on chain: %v", sig, res.Err)
	case err == nil:
		observability.RecordConfirmation("confirmed")
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	default:
		observability.RecordConfirmation("timeout")
		t.logger.Warn("confirmation not observed",
			zap.String("token", o.token),
			zap.String("signature", sig.String()),
			zap.Error(err))
		return false, nil
	}
}

// report appends an execution report. Storage failures are logged only.
func (t *Trader) report(ctx context.Context, o order, venueName string, attempt int, sig string, status domain.ReportStatus, cause error) {
	now := t.now().UnixMilli()
	r := &domain.ExecutionReport{
		ReportID:   idhash.ComputeReportID(o.messageID, string(o.side), o.token, o.strategyID, venueName, attempt, now),
		MessageID:  o.messageID,
		Side:       o.side,
		Token:      o.token,
		StrategyID: o.strategyID,
		Venue:      venueName,
		Signature:  sig,
		Amount:     o.amount,
		Status:     status,
		Attempt:    attempt,
		CreatedAt:  now,
	}
	if cause != nil {
		r.Error = cause.Error()
	}

	fields := []zap.Field{
		zap.String("token", o.token),
		zap.String("strategy", o.strategyID),
		zap.String("venue", venueName),
		zap.String("side", string(o.side)),
		zap.Int64("message_id", o.messageID),
		zap.Int("attempt", attempt),
		zap.String("status", string(status)),
	}
	if sig != "" {
		fields = append(fields, zap.String("signature", sig))
	}
	if cause != nil {
		t.logger.Warn("execution attempt failed", append(fields, zap.Error(cause))...)
	} else {
		t.logger.Info("execution attempt succeeded", fields...)
	}

	if t.reports == nil {
		return
	}
	if err := t.reports.Insert(context.WithoutCancel(ctx), r); err != nil {
		t.logger.Error("store execution report", append(fields, zap.Error(err))...)
	}
}
