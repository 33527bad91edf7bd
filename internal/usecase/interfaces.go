package usecase

import (
	"context"
	"time"

	"github.com/iho/tradingaccounts/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// Save persists balance, flags, recent operations and temporary capital, bumping Version.
	Save(ctx context.Context, tx Transaction, account *domain.Account) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// BalanceChangeRepository defines data access for the append-only balance change log.
type BalanceChangeRepository interface {
	Create(ctx context.Context, tx Transaction, change *domain.BalanceChange) error
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BalanceChange, error)
	GetByOperation(ctx context.Context, accountID, operationID string) (*domain.BalanceChange, error)
}

// OperationStore persists ledger entries. Insert and CompareAndSwap must be linearizable per
// (OperationName, ID): concurrent inserts of the same key must not both succeed.
type OperationStore interface {
	// Insert stores info if no entry exists for its key. When one exists it is returned with inserted=false.
	Insert(ctx context.Context, info *domain.OperationExecutionInfo) (inserted bool, existing *domain.OperationExecutionInfo, err error)
	Get(ctx context.Context, operationName, operationID string) (*domain.OperationExecutionInfo, error)
	// CompareAndSwap replaces the entry only if its stored version equals expectedVersion.
	CompareAndSwap(ctx context.Context, info *domain.OperationExecutionInfo, expectedVersion int64) (bool, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*domain.OperationExecutionInfo, error)
}

// MessageBus delivers commands to a processing context and publishes events to subscribers.
type MessageBus interface {
	SendCommand(ctx context.Context, command domain.Message, targetContext string) error
	PublishEvent(ctx context.Context, event domain.Message) error
}

// HistorySink is one persistence target of the history aggregator.
type HistorySink interface {
	Name() string
	Write(ctx context.Context, record *domain.BalanceChange) error
}

// HistoryWriter accepts balance change records for archival.
type HistoryWriter interface {
	Write(ctx context.Context, record *domain.BalanceChange) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
