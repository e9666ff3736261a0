// Package copier turns inbound signals into trades: it persists each signal,
// suppresses duplicate buys and dispatches work to the trader concurrently.
package copier

import (
	"sync"
	"time"
)

// DefaultDedupTimeout is how long a token stays blocked after a successful buy.
const DefaultDedupTimeout = 30 * time.Second

// Entry is the dedup state for one token.
type Entry struct {
	LastTrade time.Time // zero while the first buy is pending
	Strategy  string
	Pending   bool
}

type slot struct {
	cur  Entry
	prev *Entry // state before the pending reservation
}

// TradeMemory remembers recent buys per token so repeated open signals do
// not stack positions. It is owned by the copier and lives in memory only.
type TradeMemory struct {
	mu      sync.Mutex
	timeout time.Duration
	entries map[string]*slot
}

// NewTradeMemory creates a TradeMemory. A non-positive timeout uses
// DefaultDedupTimeout.
func NewTradeMemory(timeout time.Duration) *TradeMemory {
	if timeout <= 0 {
		timeout = DefaultDedupTimeout
	}
	return &TradeMemory{timeout: timeout, entries: make(map[string]*slot)}
}

// Reserve marks a buy for token as pending. It returns false and the blocking
// entry when a buy is already pending or the last buy is within the timeout.
func (m *TradeMemory) Reserve(token, strategy string, now time.Time) (bool, Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.entries[token]
	if ok {
		if s.cur.Pending {
			return false, s.cur
		}
		if now.Sub(s.cur.LastTrade) <= m.timeout {
			return false, s.cur
		}
		prev := s.cur
		s.prev = &prev
	} else {
		s = &slot{}
		m.entries[token] = s
	}
	s.cur = Entry{Strategy: strategy, Pending: true}
	return true, Entry{}
}

// Commit records a successful buy at t and clears the pending flag.
func (m *TradeMemory) Commit(token, strategy string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[token] = &slot{cur: Entry{LastTrade: t, Strategy: strategy}}
}

// Release undoes a pending reservation after a failed buy.
func (m *TradeMemory) Release(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.entries[token]
	if !ok || !s.cur.Pending {
		return
	}
	if s.prev == nil {
		delete(m.entries, token)
		return
	}
	s.cur, s.prev = *s.prev, nil
}

// Forget drops the entry for token.
func (m *TradeMemory) Forget(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, token)
}

// Get returns the current entry for token.
func (m *TradeMemory) Get(token string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.entries[token]
	if !ok {
		return Entry{}, false
	}
	return s.cur, true
}

// Len returns the number of tracked tokens.
func (m *TradeMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
