package storage

import (
	"context"

	"solana-copy-trader/internal/domain"
)

// ActiveTradeStore provides access to active_trades storage.
// Rows are keyed by (token_address, strategy_id). Concurrent writers are
// last-writer-wins.
type ActiveTradeStore interface {
	// Upsert inserts the trade or replaces the row with the same key.
	Upsert(ctx context.Context, t *domain.ActiveTrade) error

	// Get retrieves a trade. Returns ErrNotFound if not exists.
	Get(ctx context.Context, token, strategyID string) (*domain.ActiveTrade, error)

	// UpdateHoldings sets remaining_holdings and updated_at.
	// Returns ErrInvalidInput if remaining exceeds initial_holdings, ErrNotFound if not exists.
	UpdateHoldings(ctx context.Context, token, strategyID string, remaining uint64) error

	// UpdateHighestPrice raises highest_price to price if higher. Returns ErrNotFound if not exists.
	UpdateHighestPrice(ctx context.Context, token, strategyID string, price float64) error

	// Remove deletes a trade. Removing a missing trade is not an error.
	Remove(ctx context.Context, token, strategyID string) error

	// List returns all trades ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.ActiveTrade, error)
}

// SignalStore provides access to signals storage.
type SignalStore interface {
	// Insert adds a signal. Returns ErrDuplicateKey if message_id exists.
	Insert(ctx context.Context, s *domain.SignalRecord) error

	// GetByMessageID retrieves a signal. Returns ErrNotFound if not exists.
	GetByMessageID(ctx context.Context, messageID int64) (*domain.SignalRecord, error)

	// LastMessageID returns the highest stored message_id, or 0 when empty.
	LastMessageID(ctx context.Context) (int64, error)
}

// ExecutionReportStore provides access to execution_reports storage.
type ExecutionReportStore interface {
	// Insert adds a report. Returns ErrDuplicateKey if report_id exists.
	Insert(ctx context.Context, r *domain.ExecutionReport) error

	// GetByToken retrieves all reports for a token, ordered by created_at ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.ExecutionReport, error)

	// GetByMessageID retrieves all reports for a signal, ordered by created_at ASC.
	GetByMessageID(ctx context.Context, messageID int64) ([]*domain.ExecutionReport, error)
}
