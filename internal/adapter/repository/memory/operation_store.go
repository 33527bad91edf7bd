package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iho/tradingaccounts/internal/domain"
)

// OperationStore implements usecase.OperationStore in memory.
type OperationStore struct {
	mu      sync.Mutex
	entries map[string]*domain.OperationExecutionInfo
}

// NewOperationStore creates an empty OperationStore.
func NewOperationStore() *OperationStore {
	return &OperationStore{entries: make(map[string]*domain.OperationExecutionInfo)}
}

// Insert stores info unless an entry with the same key exists.
func (s *OperationStore) Insert(ctx context.Context, info *domain.OperationExecutionInfo) (bool, *domain.OperationExecutionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[info.Key()]; ok {
		return false, cloneInfo(existing), nil
	}
	s.entries[info.Key()] = cloneInfo(info)
	return true, nil, nil
}

// Get returns the entry for (operationName, operationID).
func (s *OperationStore) Get(ctx context.Context, operationName, operationID string) (*domain.OperationExecutionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.entries[domain.OperationKey(operationName, operationID)]
	if !ok {
		return nil, domain.ErrOperationNotFound
	}
	return cloneInfo(info), nil
}

// CompareAndSwap replaces the entry if its version still equals expectedVersion.
func (s *OperationStore) CompareAndSwap(ctx context.Context, info *domain.OperationExecutionInfo, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[info.Key()]
	if !ok {
		return false, domain.ErrOperationNotFound
	}
	if current.Version != expectedVersion {
		return false, nil
	}
	s.entries[info.Key()] = cloneInfo(info)
	return true, nil
}

// ListStale returns non-terminal entries last modified before olderThan, oldest first.
func (s *OperationStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*domain.OperationExecutionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OperationExecutionInfo
	for _, info := range s.entries {
		if !info.State.IsTerminal() && info.LastModified.Before(olderThan) {
			out = append(out, cloneInfo(info))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.Before(out[j].LastModified) })

	return page(out, limit, 0), nil
}

func cloneInfo(info *domain.OperationExecutionInfo) *domain.OperationExecutionInfo {
	c := *info
	c.Data = append([]byte(nil), info.Data...)
	return &c
}
