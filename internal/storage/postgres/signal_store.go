package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

const signalColumns = `
	message_id, kind, original_text, signal_timestamp, strategy, token, contract_address,
	buy_price, num_buys, total_buys, time_window, market_cap,
	op_type, entry_price, exit_price, profit_pct,
	received_at`

// Insert adds a signal. Returns ErrDuplicateKey if message_id exists.
func (s *SignalStore) Insert(ctx context.Context, r *domain.SignalRecord) (err error) {
	if r == nil {
		return storage.ErrInvalidInput
	}
	if verr := r.Validate(); verr != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, verr)
	}
	defer observe("insert_signal", time.Now(), &err)

	var (
		buyPrice, totalBuys, marketCap   *float64
		numBuys, timeWindow              *int64
		opType                           *string
		entryPrice, exitPrice, profitPct *float64
		strategy, token                  string
	)

	switch r.Kind {
	case domain.SignalOpen:
		o := r.Open
		strategy, token = o.Strategy, o.Token
		n, w := int64(o.NumBuys), int64(o.TimeWindow)
		buyPrice, numBuys, totalBuys, timeWindow, marketCap = &o.BuyPrice, &n, o.TotalBuys, &w, &o.MarketCap
	case domain.SignalClose:
		c := r.Close
		strategy, token = c.Strategy, c.Token
		op := c.OpType.String()
		opType, entryPrice, exitPrice, profitPct = &op, &c.EntryPrice, &c.ExitPrice, &c.ProfitPct
	}

	query := `
		INSERT INTO signals (` + signalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = s.pool.Exec(ctx, query,
		r.MessageID,
		string(r.Kind),
		r.OriginalText,
		r.Timestamp,
		strategy,
		token,
		r.ContractAddress(),
		buyPrice,
		numBuys,
		totalBuys,
		timeWindow,
		marketCap,
		opType,
		entryPrice,
		exitPrice,
		profitPct,
		r.ReceivedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetByMessageID retrieves a signal. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByMessageID(ctx context.Context, messageID int64) (*domain.SignalRecord, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE message_id = $1`

	r, err := scanSignal(s.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal: %w", err)
	}
	return r, nil
}

// LastMessageID returns the highest stored message_id, or 0 when empty.
func (s *SignalStore) LastMessageID(ctx context.Context) (_ int64, err error) {
	defer observe("last_message_id", time.Now(), &err)

	var last int64
	if err = s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(message_id), 0) FROM signals`).Scan(&last); err != nil {
		return 0, fmt.Errorf("last message id: %w", err)
	}
	return last, nil
}

// scanSignal scans a single row into SignalRecord, rebuilding the payload for its kind.
func scanSignal(row pgx.Row) (*domain.SignalRecord, error) {
	var (
		r                                domain.SignalRecord
		kind, strategy, token, contract  string
		buyPrice, totalBuys, marketCap   *float64
		numBuys, timeWindow              *int64
		opType                           *string
		entryPrice, exitPrice, profitPct *float64
	)

	err := row.Scan(
		&r.MessageID,
		&kind,
		&r.OriginalText,
		&r.Timestamp,
		&strategy,
		&token,
		&contract,
		&buyPrice,
		&numBuys,
		&totalBuys,
		&timeWindow,
		&marketCap,
		&opType,
		&entryPrice,
		&exitPrice,
		&profitPct,
		&r.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = domain.SignalKind(kind)
	switch r.Kind {
	case domain.SignalOpen:
		r.Open = &domain.OpenSignal{
			Strategy:        strategy,
			Token:           token,
			ContractAddress: contract,
			BuyPrice:        deref(buyPrice),
			NumBuys:         uint32(deref(numBuys)),
			TotalBuys:       totalBuys,
			TimeWindow:      uint32(deref(timeWindow)),
			MarketCap:       deref(marketCap),
		}
	case domain.SignalClose:
		op, err := domain.ParseOperationType(deref(opType))
		if err != nil {
			return nil, err
		}
		r.Close = &domain.CloseSignal{
			Strategy:        strategy,
			Token:           token,
			ContractAddress: contract,
			OpType:          op,
			EntryPrice:      deref(entryPrice),
			ExitPrice:       deref(exitPrice),
			ProfitPct:       deref(profitPct),
		}
	}

	return &r, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
