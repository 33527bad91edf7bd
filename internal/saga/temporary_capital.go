package saga

import (
	"github.com/iho/tradingaccounts/internal/domain"
)

const (
	TemporaryCapitalGrantName  = "TemporaryCapitalGrant"
	TemporaryCapitalRevokeName = "TemporaryCapitalRevoke"
)

// TemporaryCapitalGrantSaga closes a grant once the credit was applied or rejected.
type TemporaryCapitalGrantSaga struct {
	Now Clock
}

// OnGranted finishes the grant successfully.
func (s TemporaryCapitalGrantSaga) OnGranted(e domain.TemporaryCapitalGrantedInternalEvent) (domain.Message, bool) {
	return domain.FinishGiveTemporaryCapitalCommand{
		OperationID:    e.OperationID,
		EventTimestamp: s.Now.now(),
		IsSuccess:      true,
	}, true
}

// OnGrantFailed finishes the grant with the rejection reason.
func (s TemporaryCapitalGrantSaga) OnGrantFailed(e domain.TemporaryCapitalGrantFailedInternalEvent) (domain.Message, bool) {
	return domain.FinishGiveTemporaryCapitalCommand{
		OperationID:    e.OperationID,
		EventTimestamp: s.Now.now(),
		IsSuccess:      false,
		FailReason:     e.Reason,
	}, true
}

// TemporaryCapitalRevokeSaga closes a revoke once entries were debited or the revoke was rejected.
type TemporaryCapitalRevokeSaga struct {
	Now Clock
}

// OnRevokeStarted finishes the revoke once every matching entry was debited.
func (s TemporaryCapitalRevokeSaga) OnRevokeStarted(e domain.RevokeTemporaryCapitalStartedEvent) (domain.Message, bool) {
	return domain.FinishRevokeTemporaryCapitalCommand{
		OperationID:    e.OperationID,
		EventTimestamp: e.EventTimestamp,
		IsSuccess:      true,
	}, true
}

// OnRevokeFailed finishes the revoke with the rejection reason.
func (s TemporaryCapitalRevokeSaga) OnRevokeFailed(e domain.RevokeTemporaryCapitalFailedInternalEvent) (domain.Message, bool) {
	return domain.FinishRevokeTemporaryCapitalCommand{
		OperationID:    e.OperationID,
		EventTimestamp: s.Now.now(),
		IsSuccess:      false,
		FailReason:     e.Reason,
	}, true
}
