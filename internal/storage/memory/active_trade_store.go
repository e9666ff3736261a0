package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

type tradeKey struct {
	token    string
	strategy string
}

// ActiveTradeStore is an in-memory implementation of storage.ActiveTradeStore.
type ActiveTradeStore struct {
	mu     sync.RWMutex
	trades map[tradeKey]*domain.ActiveTrade
	now    func() time.Time
}

// NewActiveTradeStore creates a new in-memory active trade store.
func NewActiveTradeStore() *ActiveTradeStore {
	return &ActiveTradeStore{
		trades: make(map[tradeKey]*domain.ActiveTrade),
		now:    time.Now,
	}
}

// Upsert inserts the trade or replaces the row with the same key.
func (s *ActiveTradeStore) Upsert(_ context.Context, t *domain.ActiveTrade) error {
	if t == nil || t.TokenAddress == "" || t.RemainingHoldings > t.InitialHoldings {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tradeCopy := *t
	s.trades[tradeKey{t.TokenAddress, t.StrategyID}] = &tradeCopy
	return nil
}

// Get retrieves a trade. Returns ErrNotFound if not exists.
func (s *ActiveTradeStore) Get(_ context.Context, token, strategyID string) (*domain.ActiveTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.trades[tradeKey{token, strategyID}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tradeCopy := *t
	return &tradeCopy, nil
}

// UpdateHoldings sets remaining_holdings and updated_at.
func (s *ActiveTradeStore) UpdateHoldings(_ context.Context, token, strategyID string, remaining uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.trades[tradeKey{token, strategyID}]
	if !exists {
		return storage.ErrNotFound
	}
	if remaining > t.InitialHoldings {
		return storage.ErrInvalidInput
	}

	t.RemainingHoldings = remaining
	t.UpdatedAt = s.now().Unix()
	return nil
}

// UpdateHighestPrice raises highest_price to price if higher.
func (s *ActiveTradeStore) UpdateHighestPrice(_ context.Context, token, strategyID string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.trades[tradeKey{token, strategyID}]
	if !exists {
		return storage.ErrNotFound
	}

	t.UpdateHighestPrice(price, s.now().Unix())
	return nil
}

// Remove deletes a trade.
func (s *ActiveTradeStore) Remove(_ context.Context, token, strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.trades, tradeKey{token, strategyID})
	return nil
}

// List returns all trades ordered by created_at ASC.
func (s *ActiveTradeStore) List(_ context.Context) ([]*domain.ActiveTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ActiveTrade, 0, len(s.trades))
	for _, t := range s.trades {
		tradeCopy := *t
		result = append(result, &tradeCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].TokenAddress < result[j].TokenAddress
	})

	return result, nil
}

var _ storage.ActiveTradeStore = (*ActiveTradeStore)(nil)
