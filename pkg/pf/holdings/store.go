package holdings

import (
	"strings"
	"sync"

	"github.com/komsit37/pf/pkg/pf/types"
)

// Store is the in-memory set of holdings, keyed by ticker and kept in
// insertion order. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []types.Holding
}

// NewStore returns a store seeded with the given holdings. Seeds go through
// Upsert, so duplicate tickers collapse to the last one.
func NewStore(seed ...types.Holding) *Store {
	s := &Store{}
	for _, h := range seed {
		s.UpsertHolding(h)
	}
	return s
}

// Defaults is the starting portfolio of the dashboard.
func Defaults() []types.Holding {
	return []types.Holding{
		{Ticker: "IONQ", Shares: 30, CostBasis: 45.498},
		{Ticker: "EOSE", Shares: 100, CostBasis: 11.747},
		{Ticker: "ONDS", Shares: 10, CostBasis: 10.043},
	}
}

// Normalize upper-cases and trims a ticker.
func Normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Upsert inserts or replaces the holding for ticker. It reports false and
// leaves the store unchanged when the normalized ticker is empty.
func (s *Store) Upsert(ticker string, shares, costBasis float64) bool {
	return s.UpsertHolding(types.Holding{Ticker: ticker, Shares: shares, CostBasis: costBasis})
}

// UpsertHolding is Upsert with display metadata. A replaced holding keeps its
// position; share counts are never merged.
func (s *Store) UpsertHolding(h types.Holding) bool {
	h.Ticker = Normalize(h.Ticker)
	if h.Ticker == "" {
		return false
	}
	h.Domain = strings.TrimSpace(h.Domain)
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(h.Ticker); i >= 0 {
		s.items[i] = h
		return true
	}
	s.items = append(s.items, h)
	return true
}

// Remove deletes the holding for ticker if present.
func (s *Store) Remove(ticker string) bool {
	ticker = Normalize(ticker)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(ticker)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Reset empties the store. Defaults are not restored.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// List returns a snapshot of the holdings in insertion order.
func (s *Store) List() []types.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Holding, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks up a holding by ticker.
func (s *Store) Get(ticker string) (types.Holding, bool) {
	ticker = Normalize(ticker)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(ticker); i >= 0 {
		return s.items[i], true
	}
	return types.Holding{}, false
}

// Len returns the number of holdings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Tickers returns the tickers in insertion order.
func (s *Store) Tickers() []string {
	list := s.List()
	out := make([]string, 0, len(list))
	for _, h := range list {
		out = append(out, h.Ticker)
	}
	return out
}

func (s *Store) indexLocked(ticker string) int {
	for i, h := range s.items {
		if h.Ticker == ticker {
			return i
		}
	}
	return -1
}
