package saga

import (
	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// ClosePositionName is the metrics and log label of ClosePositionSaga.
const ClosePositionName = "ClosePosition"

// ClosePositionSaga books realized PnL of a closed position.
type ClosePositionSaga struct{}

// UpdateBalanceOperationID derives the balance operation id of a closed position, so redelivered
// events of one position always map to the same mutation.
func UpdateBalanceOperationID(positionID string) string {
	return positionID + "-update-balance"
}

// OnPositionClosed maps the event to UpdateBalanceCommand. AssetPairID is not carried by the
// event and stays empty.
func (ClosePositionSaga) OnPositionClosed(e domain.PositionClosedEvent) (domain.Message, bool) {
	if e.PositionID == "" {
		return nil, false
	}

	return domain.UpdateBalanceCommand{
		OperationID:      UpdateBalanceOperationID(e.PositionID),
		AccountRef:       e.AccountRef,
		AmountDelta:      e.BalanceDelta,
		Comment:          "Position closed " + e.PositionID,
		Source:           usecase.SourceClosePosition,
		ChangeReasonType: domain.ReasonRealizedPnL,
		EventSourceID:    e.PositionID,
		TradingDay:       e.Timestamp,
	}, true
}
