package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// maxTransitionAttempts bounds CAS retries when a ledger entry is modified concurrently
	maxTransitionAttempts = 5

	// StaleOperationAge is how long a non-terminal operation may sit before reconciliation lists it
	StaleOperationAge = 15 * time.Minute
)

// Source values carried by UpdateBalanceCommand.
const (
	SourceDeposit       = "Deposit"
	SourceWithdrawal    = "Withdrawal"
	SourceClosePosition = "ClosePosition"
	SourceManual        = "Manual"
)
