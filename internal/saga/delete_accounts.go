package saga

import (
	"github.com/iho/tradingaccounts/internal/domain"
)

const DeleteAccountsName = "DeleteAccounts"

// DeleteAccountsSaga marks accounts deleted once they were disabled.
type DeleteAccountsSaga struct {
	Now Clock
}

// OnStarted marks the disabled accounts as deleted.
func (s DeleteAccountsSaga) OnStarted(e domain.DeleteAccountsStartedInternalEvent) (domain.Message, bool) {
	return domain.MarkAccountsAsDeletedCommand{
		OperationID: e.OperationID,
		Timestamp:   s.Now.now(),
	}, true
}
