package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRecentOperationsCapacity bounds Account.LastExecutedOperations.
const DefaultRecentOperationsCapacity = 50

// Account represents a trading account holding a balance in its base asset.
type Account struct {
	ID                     string
	ClientID               string
	TradingConditionID     string
	BaseAssetID            string
	LegalEntity            string
	Balance                decimal.Decimal
	WithdrawTransferLimit  decimal.Decimal
	IsDisabled             bool
	IsWithdrawalDisabled   bool
	IsDeleted              bool
	ModificationTimestamp  time.Time
	LastExecutedOperations []string
	TemporaryCapital       []TemporaryCapitalEntry
	Version                int64
}

// AvailableForWithdrawal is the part of the balance not locked by the withdraw/transfer limit.
func (a *Account) AvailableForWithdrawal() decimal.Decimal {
	return a.Balance.Sub(a.WithdrawTransferLimit)
}

// ValidateWithdrawal checks that amount can leave the account.
func (a *Account) ValidateWithdrawal(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if a.IsDisabled {
		return ErrAccountDisabled
	}
	if a.IsWithdrawalDisabled {
		return ErrWithdrawalDisabled
	}
	if a.AvailableForWithdrawal().LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateChange checks whether a signed balance delta may be applied.
func (a *Account) ValidateChange(delta decimal.Decimal) error {
	if a.IsDisabled {
		return ErrAccountDisabled
	}
	if delta.IsNegative() && a.IsWithdrawalDisabled {
		return ErrWithdrawalDisabled
	}
	return nil
}

// HasExecuted reports whether operationID is in the recent operations cache.
func (a *Account) HasExecuted(operationID string) bool {
	for _, id := range a.LastExecutedOperations {
		if id == operationID {
			return true
		}
	}
	return false
}

// RememberOperation pushes operationID to the front of the recent operations cache,
// evicting the oldest ids past capacity.
func (a *Account) RememberOperation(operationID string, capacity int) {
	if capacity <= 0 {
		capacity = DefaultRecentOperationsCapacity
	}

	ops := make([]string, 0, min(len(a.LastExecutedOperations)+1, capacity))
	ops = append(ops, operationID)
	for _, id := range a.LastExecutedOperations {
		if len(ops) == capacity {
			break
		}
		if id != operationID {
			ops = append(ops, id)
		}
	}

	a.LastExecutedOperations = ops
}

// ApplyChange returns new balance after a signed delta.
func (a *Account) ApplyChange(delta decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(delta)
}
