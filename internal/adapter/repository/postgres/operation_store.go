package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/postgres/generated"
)

// OperationStore implements usecase.OperationStore on the operation_executions table.
// Insert relies on the (operation_name, id) primary key; CompareAndSwap on a version predicate.
type OperationStore struct {
	queries *generated.Queries
}

// NewOperationStore creates a new OperationStore.
func NewOperationStore(db generated.DBTX) *OperationStore {
	return &OperationStore{
		queries: generated.New(db),
	}
}

// Insert stores info unless the key exists, in which case the stored entry is returned.
func (s *OperationStore) Insert(ctx context.Context, info *domain.OperationExecutionInfo) (bool, *domain.OperationExecutionInfo, error) {
	affected, err := s.queries.InsertOperation(ctx, generated.InsertOperationParams{
		OperationName: info.OperationName,
		ID:            info.ID,
		Data:          jsonData(info.Data),
		State:         string(info.State),
		LastModified:  timeToPgTimestamptz(info.LastModified),
		Version:       info.Version,
	})
	if err != nil {
		return false, nil, fmt.Errorf("%w: insert %s: %v", domain.ErrStoreUnavailable, info.Key(), err)
	}

	if affected == 1 {
		return true, nil, nil
	}

	existing, err := s.Get(ctx, info.OperationName, info.ID)
	if err != nil {
		return false, nil, err
	}

	return false, existing, nil
}

// Get retrieves one ledger entry.
func (s *OperationStore) Get(ctx context.Context, operationName, operationID string) (*domain.OperationExecutionInfo, error) {
	row, err := s.queries.GetOperation(ctx, generated.GetOperationParams{
		OperationName: operationName,
		ID:            operationID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOperationNotFound
		}

		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrStoreUnavailable, domain.OperationKey(operationName, operationID), err)
	}

	return rowToOperation(row), nil
}

// CompareAndSwap replaces the entry if its stored version equals expectedVersion.
func (s *OperationStore) CompareAndSwap(ctx context.Context, info *domain.OperationExecutionInfo, expectedVersion int64) (bool, error) {
	affected, err := s.queries.SwapOperation(ctx, generated.SwapOperationParams{
		OperationName:   info.OperationName,
		ID:              info.ID,
		Data:            jsonData(info.Data),
		State:           string(info.State),
		LastModified:    timeToPgTimestamptz(info.LastModified),
		Version:         info.Version,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return false, fmt.Errorf("%w: swap %s: %v", domain.ErrStoreUnavailable, info.Key(), err)
	}

	return affected == 1, nil
}

// ListStale lists Started or Frozen entries not modified since olderThan.
func (s *OperationStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*domain.OperationExecutionInfo, error) {
	rows, err := s.queries.ListStaleOperations(ctx, generated.ListStaleOperationsParams{
		LastModified: timeToPgTimestamptz(olderThan),
		Limit:        int32(limit),
	})
	if err != nil {
		return nil, err
	}

	infos := make([]*domain.OperationExecutionInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, rowToOperation(row))
	}

	return infos, nil
}

func rowToOperation(row generated.OperationExecution) *domain.OperationExecutionInfo {
	return &domain.OperationExecutionInfo{
		OperationName: row.OperationName,
		ID:            row.ID,
		Data:          row.Data,
		State:         domain.OperationState(row.State),
		LastModified:  row.LastModified.Time,
		Version:       row.Version,
	}
}

func jsonData(data []byte) []byte {
	if len(data) == 0 {
		return []byte("null")
	}
	return data
}
