package projection

import (
	"sync"

	"github.com/google/uuid"
)

// TradeHistoryEntry represents one recorded trade for query consumption
type TradeHistoryEntry struct {
	RoomID      string
	TokenSymbol string
	Trader      uuid.UUID
	Amount      uint64
	Fee         uint64
	TradeType   string
	Sequence    int64
	Timestamp   int64
}

// TradeHistoryProjection maintains a queryable in-memory window of recent
// trades, fed by the projection worker and read by the HTTP layer without
// touching Postgres. Older entries are evicted once the window is full.
type TradeHistoryProjection struct {
	mu         sync.RWMutex
	entries    []TradeHistoryEntry
	maxEntries int
}

func NewTradeHistoryProjection(maxEntries int) *TradeHistoryProjection {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	return &TradeHistoryProjection{
		entries:    make([]TradeHistoryEntry, 0),
		maxEntries: maxEntries,
	}
}

// AddEntry records a trade, evicting the oldest entry when full
func (p *TradeHistoryProjection) AddEntry(entry TradeHistoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, entry)
	if len(p.entries) > p.maxEntries {
		p.entries = p.entries[len(p.entries)-p.maxEntries:]
	}
}

// QueryByRoom returns the most recent trades in a room, newest first
func (p *TradeHistoryProjection) QueryByRoom(roomID string, limit int) []TradeHistoryEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]TradeHistoryEntry, 0)
	for i := len(p.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if p.entries[i].RoomID == roomID {
			result = append(result, p.entries[i])
		}
	}
	return result
}

// QueryByTrader returns the most recent trades by a trader, newest first
func (p *TradeHistoryProjection) QueryByTrader(trader uuid.UUID, limit int) []TradeHistoryEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]TradeHistoryEntry, 0)
	for i := len(p.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if p.entries[i].Trader == trader {
			result = append(result, p.entries[i])
		}
	}
	return result
}

// Len returns the current number of cached entries.
func (p *TradeHistoryProjection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
