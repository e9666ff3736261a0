package domain

import (
	"fmt"
)

// OperationType is the reason a close signal was emitted.
type OperationType string

const (
	OpStopLoss         OperationType = "SL"
	OpTakeProfit       OperationType = "TP"
	OpTrailingStopLoss OperationType = "TSL"
	OpManual           OperationType = "Manual"
)

// ParseOperationType parses SL, TP, TSL or Manual.
func ParseOperationType(s string) (OperationType, error) {
	switch op := OperationType(s); op {
	case OpStopLoss, OpTakeProfit, OpTrailingStopLoss, OpManual:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation type: %q", s)
	}
}

func (o OperationType) String() string { return string(o) }

// UnmarshalText validates the operation type when decoding.
func (o *OperationType) UnmarshalText(b []byte) error {
	op, err := ParseOperationType(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// SignalKind discriminates Signal payloads.
type SignalKind string

const (
	SignalOpen  SignalKind = "open"
	SignalClose SignalKind = "close"
)

// Signal is one inbound trading signal. Exactly one of Open or Close is set,
// matching Kind.
type Signal struct {
	MessageID    int64        `json:"message_id"`
	OriginalText string       `json:"original_text,omitempty"`
	Timestamp    int64        `json:"timestamp"` // unix seconds
	Kind         SignalKind   `json:"kind"`
	Open         *OpenSignal  `json:"open,omitempty"`
	Close        *CloseSignal `json:"close,omitempty"`
}

// OpenSignal asks to enter a position.
type OpenSignal struct {
	Strategy        string   `json:"strategy"`
	Token           string   `json:"token"`
	ContractAddress string   `json:"contract_address"`
	BuyPrice        float64  `json:"buy_price"`
	NumBuys         uint32   `json:"num_buys"`
	TotalBuys       *float64 `json:"total_buys,omitempty"`
	TimeWindow      uint32   `json:"time_window"`
	MarketCap       float64  `json:"market_cap"`
}

// CloseSignal asks to exit a position fully or partially.
type CloseSignal struct {
	Strategy        string        `json:"strategy"`
	Token           string        `json:"token"`
	ContractAddress string        `json:"contract_address"`
	OpType          OperationType `json:"op_type"`
	EntryPrice      float64       `json:"entry_price"`
	ExitPrice       float64       `json:"exit_price"`
	ProfitPct       float64       `json:"profit_pct"`
}

// Validate checks that the payload matches Kind.
func (s *Signal) Validate() error {
	switch s.Kind {
	case SignalOpen:
		if s.Open == nil || s.Close != nil {
			return fmt.Errorf("signal %d: open signal needs exactly an open payload", s.MessageID)
		}
		if s.Open.ContractAddress == "" {
			return fmt.Errorf("signal %d: missing contract address", s.MessageID)
		}
	case SignalClose:
		if s.Close == nil || s.Open != nil {
			return fmt.Errorf("signal %d: close signal needs exactly a close payload", s.MessageID)
		}
		if s.Close.ContractAddress == "" {
			return fmt.Errorf("signal %d: missing contract address", s.MessageID)
		}
	default:
		return fmt.Errorf("signal %d: unknown kind %q", s.MessageID, s.Kind)
	}
	return nil
}

// Strategy returns the strategy id of either payload.
func (s *Signal) Strategy() string {
	switch {
	case s.Open != nil:
		return s.Open.Strategy
	case s.Close != nil:
		return s.Close.Strategy
	default:
		return ""
	}
}

// ContractAddress returns the token mint of either payload.
func (s *Signal) ContractAddress() string {
	switch {
	case s.Open != nil:
		return s.Open.ContractAddress
	case s.Close != nil:
		return s.Close.ContractAddress
	default:
		return ""
	}
}
