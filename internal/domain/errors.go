package domain

import "errors"

var (
	// Ledger errors
	ErrDuplicateOperation = errors.New("operation already executed")
	ErrInvalidTransition  = errors.New("invalid operation state transition")
	ErrOperationNotFound  = errors.New("operation not found")

	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrWithdrawalDisabled = errors.New("withdrawal is disabled for account")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidReason      = errors.New("unknown balance change reason")

	// Temporary capital errors
	ErrTemporaryCapitalNotFound       = errors.New("temporary capital entry not found")
	ErrTemporaryCapitalAlreadyRevoked = errors.New("temporary capital entry already revoked")
	ErrTemporaryCapitalDuplicate      = errors.New("temporary capital entry already granted")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrSchemaViolation  = errors.New("malformed message")
)

var businessErrors = []error{
	ErrAccountNotFound,
	ErrAccountDisabled,
	ErrWithdrawalDisabled,
	ErrInsufficientFunds,
	ErrInvalidAmount,
	ErrInvalidReason,
	ErrTemporaryCapitalNotFound,
	ErrTemporaryCapitalDuplicate,
}

// IsBusinessError reports whether err is a rule rejection that ends a workflow in Failed
// rather than a failure the transport should redeliver.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
