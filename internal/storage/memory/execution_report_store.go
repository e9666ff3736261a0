package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// ExecutionReportStore is an in-memory implementation of storage.ExecutionReportStore.
type ExecutionReportStore struct {
	mu      sync.RWMutex
	reports map[string]*domain.ExecutionReport // keyed by report_id
}

// NewExecutionReportStore creates a new in-memory execution report store.
func NewExecutionReportStore() *ExecutionReportStore {
	return &ExecutionReportStore{
		reports: make(map[string]*domain.ExecutionReport),
	}
}

// Insert adds a report. Returns ErrDuplicateKey if report_id exists.
func (s *ExecutionReportStore) Insert(_ context.Context, r *domain.ExecutionReport) error {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[r.ReportID]; exists {
		return storage.ErrDuplicateKey
	}

	reportCopy := *r
	s.reports[r.ReportID] = &reportCopy
	return nil
}

// GetByToken retrieves all reports for a token, ordered by created_at ASC.
func (s *ExecutionReportStore) GetByToken(_ context.Context, token string) ([]*domain.ExecutionReport, error) {
	return s.filter(func(r *domain.ExecutionReport) bool { return r.Token == token }), nil
}

// GetByMessageID retrieves all reports for a signal, ordered by created_at ASC.
func (s *ExecutionReportStore) GetByMessageID(_ context.Context, messageID int64) ([]*domain.ExecutionReport, error) {
	return s.filter(func(r *domain.ExecutionReport) bool { return r.MessageID == messageID }), nil
}

// All returns every report ordered by created_at ASC.
func (s *ExecutionReportStore) All() []*domain.ExecutionReport {
	return s.filter(func(*domain.ExecutionReport) bool { return true })
}

func (s *ExecutionReportStore) filter(keep func(*domain.ExecutionReport) bool) []*domain.ExecutionReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExecutionReport
	for _, r := range s.reports {
		if keep(r) {
			reportCopy := *r
			result = append(result, &reportCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Attempt < result[j].Attempt
	})

	return result
}

var _ storage.ExecutionReportStore = (*ExecutionReportStore)(nil)
