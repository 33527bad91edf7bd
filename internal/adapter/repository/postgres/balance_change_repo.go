package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/postgres/generated"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// BalanceChangeRepository implements usecase.BalanceChangeRepository.
type BalanceChangeRepository struct {
	queries *generated.Queries
}

// NewBalanceChangeRepository creates a new BalanceChangeRepository.
func NewBalanceChangeRepository(db generated.DBTX) *BalanceChangeRepository {
	return &BalanceChangeRepository{
		queries: generated.New(db),
	}
}

// Create inserts a balance change within a transaction. A second change for the same
// (account, operation) violates the unique index and is reported as ErrDuplicateOperation.
func (r *BalanceChangeRepository) Create(ctx context.Context, tx usecase.Transaction, change *domain.BalanceChange) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	err := queries.CreateBalanceChange(ctx, generated.CreateBalanceChangeParams{
		ID:                    change.ID,
		OperationID:           change.OperationID,
		ChangeTimestamp:       timeToPgTimestamptz(change.ChangeTimestamp),
		AccountID:             change.AccountID,
		ClientID:              change.ClientID,
		ChangeAmount:          decimalToNumeric(change.ChangeAmount),
		Balance:               decimalToNumeric(change.Balance),
		WithdrawTransferLimit: decimalToNumeric(change.WithdrawTransferLimit),
		Comment:               change.Comment,
		ReasonType:            string(change.ReasonType),
		EventSourceID:         change.EventSourceID,
		LegalEntity:           change.LegalEntity,
		AuditLog:              change.AuditLog,
		Instrument:            change.Instrument,
		TradingDate:           optionalTimestamptz(change.TradingDate),
	})
	if isUniqueViolation(err) {
		return domain.ErrDuplicateOperation
	}

	return err
}

// GetByAccount retrieves balance changes of an account, newest first.
func (r *BalanceChangeRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BalanceChange, error) {
	rows, err := r.queries.GetBalanceChangesByAccount(ctx, generated.GetBalanceChangesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	changes := make([]*domain.BalanceChange, 0, len(rows))
	for _, row := range rows {
		changes = append(changes, rowToBalanceChange(row))
	}

	return changes, nil
}

// GetByOperation retrieves the change an operation made to an account.
func (r *BalanceChangeRepository) GetByOperation(ctx context.Context, accountID, operationID string) (*domain.BalanceChange, error) {
	row, err := r.queries.GetBalanceChangeByOperation(ctx, generated.GetBalanceChangeByOperationParams{
		AccountID:   accountID,
		OperationID: operationID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOperationNotFound
		}

		return nil, err
	}

	return rowToBalanceChange(row), nil
}

func rowToBalanceChange(row generated.BalanceChange) *domain.BalanceChange {
	return &domain.BalanceChange{
		ID:                    row.ID,
		OperationID:           row.OperationID,
		ChangeTimestamp:       row.ChangeTimestamp.Time,
		AccountID:             row.AccountID,
		ClientID:              row.ClientID,
		ChangeAmount:          numericToDecimal(row.ChangeAmount),
		Balance:               numericToDecimal(row.Balance),
		WithdrawTransferLimit: numericToDecimal(row.WithdrawTransferLimit),
		Comment:               row.Comment,
		ReasonType:            domain.ReasonType(row.ReasonType),
		EventSourceID:         row.EventSourceID,
		LegalEntity:           row.LegalEntity,
		AuditLog:              row.AuditLog,
		Instrument:            row.Instrument,
		TradingDate:           row.TradingDate.Time,
	}
}
