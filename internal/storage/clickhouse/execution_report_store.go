package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// ExecutionReportStore implements storage.ExecutionReportStore using ClickHouse.
type ExecutionReportStore struct {
	conn *Conn
}

// NewExecutionReportStore creates a new ExecutionReportStore.
func NewExecutionReportStore(conn *Conn) *ExecutionReportStore {
	return &ExecutionReportStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ExecutionReportStore = (*ExecutionReportStore)(nil)

const executionReportColumns = `
	report_id, message_id, side, token, strategy_id, venue, signature,
	amount, status, error, attempt, created_at`

// Insert adds a report. Returns ErrDuplicateKey if report_id exists.
// MergeTree does not enforce uniqueness, so existence is checked first.
func (s *ExecutionReportStore) Insert(ctx context.Context, r *domain.ExecutionReport) (err error) {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}
	defer observe("insert_execution_report", time.Now(), &err)

	exists, err := s.exists(ctx, r.ReportID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `INSERT INTO execution_reports (` + executionReportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err = s.conn.Exec(ctx, query,
		r.ReportID,
		r.MessageID,
		string(r.Side),
		r.Token,
		r.StrategyID,
		r.Venue,
		r.Signature,
		r.Amount,
		string(r.Status),
		r.Error,
		uint32(r.Attempt),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution report: %w", err)
	}
	return nil
}

// GetByToken retrieves all reports for a token, ordered by created_at ASC.
func (s *ExecutionReportStore) GetByToken(ctx context.Context, token string) (_ []*domain.ExecutionReport, err error) {
	defer observe("execution_reports_by_token", time.Now(), &err)

	query := `SELECT ` + executionReportColumns + `
		FROM execution_reports
		WHERE token = ?
		ORDER BY created_at ASC, attempt ASC`

	rows, err := s.conn.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("query execution reports: %w", err)
	}
	return scanExecutionReports(rows)
}

// GetByMessageID retrieves all reports for a signal, ordered by created_at ASC.
func (s *ExecutionReportStore) GetByMessageID(ctx context.Context, messageID int64) (_ []*domain.ExecutionReport, err error) {
	defer observe("execution_reports_by_message", time.Now(), &err)

	query := `SELECT ` + executionReportColumns + `
		FROM execution_reports
		WHERE message_id = ?
		ORDER BY created_at ASC, attempt ASC`

	rows, err := s.conn.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("query execution reports: %w", err)
	}
	return scanExecutionReports(rows)
}

func (s *ExecutionReportStore) exists(ctx context.Context, reportID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM execution_reports WHERE report_id = ?`, reportID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanExecutionReports(rows driver.Rows) ([]*domain.ExecutionReport, error) {
	defer rows.Close()

	var result []*domain.ExecutionReport
	for rows.Next() {
		var (
			r            domain.ExecutionReport
			side, status string
			attempt      uint32
		)
		if err := rows.Scan(
			&r.ReportID,
			&r.MessageID,
			&side,
			&r.Token,
			&r.StrategyID,
			&r.Venue,
			&r.Signature,
			&r.Amount,
			&status,
			&r.Error,
			&attempt,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan execution report: %w", err)
		}
		r.Side = domain.Side(side)
		r.Status = domain.ReportStatus(status)
		r.Attempt = int(attempt)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution reports: %w", err)
	}
	return result, nil
}
