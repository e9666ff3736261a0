package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// ActiveTradeStore implements storage.ActiveTradeStore using PostgreSQL.
type ActiveTradeStore struct {
	pool *Pool
	now  func() time.Time
}

// NewActiveTradeStore creates a new ActiveTradeStore.
func NewActiveTradeStore(pool *Pool) *ActiveTradeStore {
	return &ActiveTradeStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.ActiveTradeStore = (*ActiveTradeStore)(nil)

const activeTradeColumns = `
	token_address, strategy_id, token_name, initial_holdings, remaining_holdings,
	entry_price, highest_price, created_at, updated_at`

// Upsert inserts the trade or replaces the row with the same (token_address, strategy_id).
func (s *ActiveTradeStore) Upsert(ctx context.Context, t *domain.ActiveTrade) (err error) {
	if t == nil || t.TokenAddress == "" || t.RemainingHoldings > t.InitialHoldings ||
		t.InitialHoldings > math.MaxInt64 {
		return storage.ErrInvalidInput
	}
	defer observe("upsert_active_trade", time.Now(), &err)

	query := `
		INSERT INTO active_trades (` + activeTradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (token_address, strategy_id) DO UPDATE SET
			token_name = EXCLUDED.token_name,
			initial_holdings = EXCLUDED.initial_holdings,
			remaining_holdings = EXCLUDED.remaining_holdings,
			entry_price = EXCLUDED.entry_price,
			highest_price = EXCLUDED.highest_price,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		t.TokenAddress,
		t.StrategyID,
		t.TokenName,
		int64(t.InitialHoldings),
		int64(t.RemainingHoldings),
		t.EntryPrice,
		t.HighestPrice,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert active trade: %w", err)
	}
	return nil
}

// Get retrieves a trade. Returns ErrNotFound if not exists.
func (s *ActiveTradeStore) Get(ctx context.Context, token, strategyID string) (*domain.ActiveTrade, error) {
	query := `SELECT ` + activeTradeColumns + `
		FROM active_trades
		WHERE token_address = $1 AND strategy_id = $2
	`

	t, err := scanActiveTrade(s.pool.QueryRow(ctx, query, token, strategyID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get active trade: %w", err)
	}
	return t, nil
}

// UpdateHoldings sets remaining_holdings and updated_at in one statement.
// The CTE distinguishes a missing row from a rejected amount.
func (s *ActiveTradeStore) UpdateHoldings(ctx context.Context, token, strategyID string, remaining uint64) (err error) {
	if remaining > math.MaxInt64 {
		return storage.ErrInvalidInput
	}
	defer observe("update_holdings", time.Now(), &err)

	query := `
		WITH target AS (
			SELECT 1 FROM active_trades WHERE token_address = $1 AND strategy_id = $2
		), updated AS (
			UPDATE active_trades
			SET remaining_holdings = $3, updated_at = $4
			WHERE token_address = $1 AND strategy_id = $2 AND initial_holdings >= $3
			RETURNING 1
		)
		SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM updated)
	`

	var found, updated int64
	err = s.pool.QueryRow(ctx, query, token, strategyID, int64(remaining), s.now().Unix()).
		Scan(&found, &updated)
	if err != nil {
		return fmt.Errorf("update holdings: %w", err)
	}
	switch {
	case found == 0:
		return storage.ErrNotFound
	case updated == 0:
		return storage.ErrInvalidInput
	}
	return nil
}

// UpdateHighestPrice raises highest_price to price if higher.
func (s *ActiveTradeStore) UpdateHighestPrice(ctx context.Context, token, strategyID string, price float64) error {
	query := `
		UPDATE active_trades
		SET updated_at = CASE WHEN $3 > highest_price THEN $4 ELSE updated_at END,
			highest_price = GREATEST(highest_price, $3)
		WHERE token_address = $1 AND strategy_id = $2
	`

	tag, err := s.pool.Exec(ctx, query, token, strategyID, price, s.now().Unix())
	if err != nil {
		return fmt.Errorf("update highest price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Remove deletes a trade.
func (s *ActiveTradeStore) Remove(ctx context.Context, token, strategyID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM active_trades WHERE token_address = $1 AND strategy_id = $2`,
		token, strategyID,
	)
	if err != nil {
		return fmt.Errorf("remove active trade: %w", err)
	}
	return nil
}

// List returns all trades ordered by created_at ASC.
func (s *ActiveTradeStore) List(ctx context.Context) (_ []*domain.ActiveTrade, err error) {
	defer observe("list_active_trades", time.Now(), &err)

	query := `SELECT ` + activeTradeColumns + `
		FROM active_trades
		ORDER BY created_at ASC, token_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active trades: %w", err)
	}
	defer rows.Close()

	var result []*domain.ActiveTrade
	for rows.Next() {
		t, err := scanActiveTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active trades: %w", err)
	}
	return result, nil
}

// scanActiveTrade scans a single row into ActiveTrade.
func scanActiveTrade(row pgx.Row) (*domain.ActiveTrade, error) {
	var (
		t                  domain.ActiveTrade
		initial, remaining int64
	)

	err := row.Scan(
		&t.TokenAddress,
		&t.StrategyID,
		&t.TokenName,
		&initial,
		&remaining,
		&t.EntryPrice,
		&t.HighestPrice,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.InitialHoldings = uint64(initial)
	t.RemainingHoldings = uint64(remaining)
	return &t, nil
}
