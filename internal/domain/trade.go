package domain

import (
	"math"
)

// ActiveTrade is an open position. Corresponds to active_trades table in PostgreSQL.
// Identity is (TokenAddress, StrategyID).
type ActiveTrade struct {
	TokenName         string
	TokenAddress      string // mint
	StrategyID        string
	InitialHoldings   uint64 // token base units at entry
	RemainingHoldings uint64 // 0 <= remaining <= initial
	EntryPrice        float64
	HighestPrice      float64 // non-decreasing
	CreatedAt         int64   // unix seconds
	UpdatedAt         int64   // unix seconds
}

// NewActiveTrade opens a position with remaining = initial and highest = entry.
func NewActiveTrade(name, token, strategyID string, holdings uint64, entryPrice float64, now int64) *ActiveTrade {
	return &ActiveTrade{
		TokenName:         name,
		TokenAddress:      token,
		StrategyID:        strategyID,
		InitialHoldings:   holdings,
		RemainingHoldings: holdings,
		EntryPrice:        entryPrice,
		HighestPrice:      entryPrice,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CalculateSellAmount applies the strategy's exit rules to a close signal.
// ok is false when no rule matched; callers then sell everything remaining.
//
// Trailing stop and stop loss sell everything once |profitPct| reaches their
// threshold; a stop loss signal never falls through to take profit. Take
// profit walks the tiers in definition order and selects the last one whose
// pnlPercentage has been reached.
func (t *ActiveTrade) CalculateSellAmount(profitPct float64, op OperationType, s *Strategy) (amount uint64, ok bool) {
	if s == nil {
		return 0, false
	}
	sell := s.SellConditions

	if op == OpTrailingStopLoss {
		if tsl := sell.TrailingStopLossCondition; tsl != nil && math.Abs(profitPct) >= tsl.TrailingStopLossPercentage {
			return t.RemainingHoldings, true
		}
	}

	if op == OpStopLoss {
		if sl := sell.StopLossCondition; sl != nil && math.Abs(profitPct) >= float64(sl.StopLossPercentage) {
			return t.RemainingHoldings, true
		}
		return 0, false
	}

	var selected *TakeProfitCondition
	for i := range sell.TakeProfitConditions {
		tp := &sell.TakeProfitConditions[i]
		if float64(tp.PnlPercentage) > profitPct {
			break
		}
		selected = tp
	}
	if selected == nil {
		return 0, false
	}

	keepOpen := float64(selected.TargetOpenPercentage) / 100
	target := math.Round(float64(t.InitialHoldings) * (1 - keepOpen))
	if target < 0 {
		target = 0
	}
	amount = uint64(target)
	if amount > t.RemainingHoldings {
		amount = t.RemainingHoldings
	}
	return amount, true
}

// UpdateHighestPrice raises HighestPrice to price if it is higher.
func (t *ActiveTrade) UpdateHighestPrice(price float64, now int64) bool {
	if price <= t.HighestPrice {
		return false
	}
	t.HighestPrice = price
	t.UpdatedAt = now
	return true
}

// ApplySell subtracts sold from RemainingHoldings, saturating at zero, and
// reports whether the position is closed.
func (t *ActiveTrade) ApplySell(sold uint64, now int64) (closed bool) {
	if sold >= t.RemainingHoldings {
		t.RemainingHoldings = 0
	} else {
		t.RemainingHoldings -= sold
	}
	t.UpdatedAt = now
	return t.RemainingHoldings == 0
}
