package memory

import (
	"context"
	"sync"

	"github.com/iho/tradingaccounts/internal/domain"
)

// HistorySink keeps archived balance change records in memory.
type HistorySink struct {
	name string

	mu      sync.Mutex
	records []domain.BalanceChange
}

// NewHistorySink creates a sink reporting name.
func NewHistorySink(name string) *HistorySink {
	return &HistorySink{name: name}
}

// Name implements usecase.HistorySink.
func (s *HistorySink) Name() string {
	return s.name
}

// Write implements usecase.HistorySink.
func (s *HistorySink) Write(ctx context.Context, record *domain.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

// Records returns a copy of the archived records.
func (s *HistorySink) Records() []domain.BalanceChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.BalanceChange(nil), s.records...)
}
