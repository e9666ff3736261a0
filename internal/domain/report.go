package domain

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ReportStatus is the outcome of one execution attempt.
type ReportStatus string

const (
	ReportSubmitted ReportStatus = "submitted"
	ReportConfirmed ReportStatus = "confirmed"
	ReportFailed    ReportStatus = "failed"
)

// ExecutionReport records one venue attempt. Corresponds to execution_reports
// table in ClickHouse.
type ExecutionReport struct {
	ReportID   string // deterministic hash
	MessageID  int64  // originating signal, 0 for manual trades
	Side       Side
	Token      string
	StrategyID string
	Venue      string
	Signature  string // empty when nothing was submitted
	Amount     uint64 // lamports in for buys, tokens in for sells
	Status     ReportStatus
	Error      string
	Attempt    int   // 1-based, counts venue fallbacks
	CreatedAt  int64 // unix milliseconds
}

// SignalRecord is a persisted signal. Corresponds to signals table in PostgreSQL.
type SignalRecord struct {
	Signal
	ReceivedAt int64 // unix milliseconds
}
