package domain

import (
	"encoding/json"
	"time"
)

// Operation names used as the first half of the ledger key.
const (
	OperationDeposit                = "Deposit"
	OperationWithdrawal             = "Withdrawal"
	OperationUpdateBalance          = "UpdateBalance"
	OperationGiveTemporaryCapital   = "GiveTemporaryCapital"
	OperationRevokeTemporaryCapital = "RevokeTemporaryCapital"
	OperationDeleteAccounts         = "DeleteAccounts"
)

// OperationState is the ledger state of a workflow.
type OperationState string

const (
	OperationStarted   OperationState = "Started"
	OperationFrozen    OperationState = "Frozen"
	OperationCompleted OperationState = "Completed"
	OperationFailed    OperationState = "Failed"
)

var stateRank = map[OperationState]int{
	OperationStarted:   0,
	OperationFrozen:    1,
	OperationCompleted: 2,
	OperationFailed:    2,
}

// IsValid checks if the state is known.
func (s OperationState) IsValid() bool {
	_, ok := stateRank[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed.
func (s OperationState) IsTerminal() bool {
	return s == OperationCompleted || s == OperationFailed
}

// CanTransitionTo enforces Started -> Frozen -> {Completed | Failed}.
// Skipping Frozen is allowed; going backwards or leaving a terminal state is not.
func (s OperationState) CanTransitionTo(next OperationState) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	return stateRank[next] > stateRank[s]
}

// OperationExecutionInfo is one entry of the operation ledger.
type OperationExecutionInfo struct {
	OperationName string
	ID            string
	Data          json.RawMessage
	State         OperationState
	LastModified  time.Time
	Version       int64
}

// Key returns the composite ledger key.
func (o *OperationExecutionInfo) Key() string {
	return OperationKey(o.OperationName, o.ID)
}

// OperationKey joins operation name and id.
func OperationKey(operationName, operationID string) string {
	return operationName + ":" + operationID
}
