package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/metrics"
)

// BalanceUseCase applies balance mutations to accounts exactly once.
type BalanceUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	changeRepo  BalanceChangeRepository
	bus         MessageBus
	history     HistoryWriter
	retrier     Retrier
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	capacity    int
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	changeRepo BalanceChangeRepository,
	bus MessageBus,
	history HistoryWriter,
	retrier Retrier,
	idGen IDGenerator,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *BalanceUseCase {
	return &BalanceUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		changeRepo:  changeRepo,
		bus:         bus,
		history:     history,
		retrier:     retrier,
		idGen:       idGen,
		logger:      logger,
		metrics:     m,
		capacity:    domain.DefaultRecentOperationsCapacity,
	}
}

// WithRecentOperationsCapacity overrides the per-account recent operations cache size.
func (uc *BalanceUseCase) WithRecentOperationsCapacity(capacity int) *BalanceUseCase {
	if capacity > 0 {
		uc.capacity = capacity
	}
	return uc
}

// ApplyBalanceChangeInput represents one signed balance mutation.
type ApplyBalanceChangeInput struct {
	OperationID      string
	AccountID        string
	ChangeAmount     decimal.Decimal
	Reason           domain.ReasonType
	Comment          string
	EventSourceID    string
	AuditLog         string
	Instrument       string
	TradingDate      time.Time
	TemporaryCapital *domain.TemporaryCapitalMutation
}

// Apply performs the mutation in a single transaction, archives it and publishes AccountBalanceChangedEvent.
// It returns ErrDuplicateOperation when OperationID is already in the account's recent operations.
// A publish failure is returned together with the committed change so the caller can retry delivery.
func (uc *BalanceUseCase) Apply(ctx context.Context, input ApplyBalanceChangeInput) (*domain.BalanceChange, error) {
	if input.OperationID == "" {
		return nil, fmt.Errorf("%w: empty operation id", domain.ErrSchemaViolation)
	}
	if !input.Reason.IsValid() {
		return nil, domain.ErrInvalidReason
	}

	start := time.Now()

	var change *domain.BalanceChange
	err := uc.retry(ctx, func() error {
		var txErr error
		change, txErr = uc.applyInTx(ctx, input)
		return txErr
	})

	if uc.metrics != nil {
		uc.metrics.BalanceChangeDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		uc.observeResult(input.Reason, err)
		return nil, err
	}

	uc.observeResult(input.Reason, nil)
	if uc.metrics != nil {
		amount, _ := change.ChangeAmount.Abs().Float64()
		uc.metrics.BalanceChangeAmount.WithLabelValues(string(input.Reason)).Observe(amount)
	}

	uc.logger.Info().
		Str("operation_id", change.OperationID).
		Str("account_id", change.AccountID).
		Str("reason", string(change.ReasonType)).
		Str("change_amount", change.ChangeAmount.String()).
		Str("balance", change.Balance.String()).
		Msg("balance changed")

	// Archive first: the change is committed even when the publish below fails.
	uc.archive(ctx, change)

	if err := uc.PublishChanged(ctx, change); err != nil {
		return change, err
	}

	return change, nil
}

func (uc *BalanceUseCase) applyInTx(ctx context.Context, input ApplyBalanceChangeInput) (*domain.BalanceChange, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Begin transaction
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 2. Lock account
	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	// 3. Deduplicate against recent operations
	if account.HasExecuted(input.OperationID) {
		return nil, domain.ErrDuplicateOperation
	}

	// 4. Validate
	if err := account.ValidateChange(input.ChangeAmount); err != nil {
		return nil, err
	}
	// The freeze check ran on an unlocked read; withdrawals that froze concurrently
	// are settled here against the locked balance.
	if input.Reason == domain.ReasonWithdrawal && input.ChangeAmount.IsNegative() {
		if err := account.ValidateWithdrawal(input.ChangeAmount.Neg()); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	if err := applyTemporaryCapital(account, input.TemporaryCapital, now); err != nil {
		return nil, err
	}

	// 5. Build change record
	newBalance := account.ApplyChange(input.ChangeAmount)
	change := &domain.BalanceChange{
		ID:                    uc.idGen.Generate(),
		OperationID:           input.OperationID,
		ChangeTimestamp:       now,
		AccountID:             account.ID,
		ClientID:              account.ClientID,
		ChangeAmount:          input.ChangeAmount,
		Balance:               newBalance,
		WithdrawTransferLimit: account.WithdrawTransferLimit,
		Comment:               input.Comment,
		ReasonType:            input.Reason,
		EventSourceID:         input.EventSourceID,
		LegalEntity:           account.LegalEntity,
		AuditLog:              input.AuditLog,
		Instrument:            input.Instrument,
		TradingDate:           input.TradingDate,
	}

	// 6. Update account
	account.Balance = newBalance
	account.ModificationTimestamp = now
	account.RememberOperation(input.OperationID, uc.capacity)

	if err := uc.changeRepo.Create(ctx, tx, change); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Save(ctx, tx, account); err != nil {
		return nil, err
	}

	// 7. Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return change, nil
}

func applyTemporaryCapital(account *domain.Account, mutation *domain.TemporaryCapitalMutation, now time.Time) error {
	if mutation == nil {
		return nil
	}
	if mutation.Grant != nil {
		entry := *mutation.Grant
		if entry.GrantedAt.IsZero() {
			entry.GrantedAt = now
		}
		return account.GrantTemporaryCapital(entry)
	}
	if mutation.RevokeID != "" {
		_, err := account.RevokeTemporaryCapital(mutation.RevokeID, now)
		return err
	}
	return nil
}

// FindApplied returns the change recorded for operationID on the account, or nil when none exists.
func (uc *BalanceUseCase) FindApplied(ctx context.Context, accountID, operationID string) (*domain.BalanceChange, error) {
	change, err := uc.changeRepo.GetByOperation(ctx, accountID, operationID)
	if errors.Is(err, domain.ErrOperationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return change, nil
}

// PublishChanged announces an applied change.
func (uc *BalanceUseCase) PublishChanged(ctx context.Context, change *domain.BalanceChange) error {
	return uc.bus.PublishEvent(ctx, domain.AccountBalanceChangedEvent{
		AccountRef:  domain.AccountRef{ClientID: change.ClientID, AccountID: change.AccountID},
		AmountDelta: change.ChangeAmount,
		OperationID: change.OperationID,
		Reason:      change.ReasonType,
	})
}

// GetAccount returns the current account state.
func (uc *BalanceUseCase) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, accountID)
}

// ListChanges returns the balance change log for an account, newest first.
func (uc *BalanceUseCase) ListChanges(ctx context.Context, accountID string, limit, offset int) ([]*domain.BalanceChange, error) {
	if limit <= 0 {
		limit = 100
	}
	return uc.changeRepo.GetByAccount(ctx, accountID, limit, offset)
}

func (uc *BalanceUseCase) retry(ctx context.Context, fn func() error) error {
	if uc.retrier == nil {
		return fn()
	}
	return uc.retrier.Retry(ctx, fn)
}

func (uc *BalanceUseCase) archive(ctx context.Context, change *domain.BalanceChange) {
	if uc.history == nil {
		return
	}
	if err := uc.history.Write(ctx, change); err != nil {
		uc.logger.Error().
			Err(err).
			Str("operation_id", change.OperationID).
			Str("account_id", change.AccountID).
			Msg("failed to archive balance change")
	}
}

func (uc *BalanceUseCase) observeResult(reason domain.ReasonType, err error) {
	if uc.metrics == nil {
		return
	}
	result := "applied"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateOperation):
		result = "duplicate"
	case domain.IsBusinessError(err):
		result = "rejected"
	default:
		result = "error"
	}
	uc.metrics.BalanceChanges.WithLabelValues(string(reason), result).Inc()
}
