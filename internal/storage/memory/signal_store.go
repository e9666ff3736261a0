package memory

import (
	"context"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu      sync.RWMutex
	signals map[int64]*domain.SignalRecord
	last    int64
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		signals: make(map[int64]*domain.SignalRecord),
	}
}

// Insert adds a signal. Returns ErrDuplicateKey if message_id exists.
func (s *SignalStore) Insert(_ context.Context, r *domain.SignalRecord) error {
	if r == nil {
		return storage.ErrInvalidInput
	}
	if err := r.Validate(); err != nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.signals[r.MessageID]; exists {
		return storage.ErrDuplicateKey
	}

	s.signals[r.MessageID] = copySignal(r)
	if r.MessageID > s.last {
		s.last = r.MessageID
	}
	return nil
}

// GetByMessageID retrieves a signal. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByMessageID(_ context.Context, messageID int64) (*domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.signals[messageID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySignal(r), nil
}

// LastMessageID returns the highest stored message_id, or 0 when empty.
func (s *SignalStore) LastMessageID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, nil
}

// copySignal deep-copies the payload pointers.
func copySignal(r *domain.SignalRecord) *domain.SignalRecord {
	c := *r
	if r.Open != nil {
		open := *r.Open
		if r.Open.TotalBuys != nil {
			total := *r.Open.TotalBuys
			open.TotalBuys = &total
		}
		c.Open = &open
	}
	if r.Close != nil {
		closeSig := *r.Close
		c.Close = &closeSig
	}
	return &c
}

var _ storage.SignalStore = (*SignalStore)(nil)
