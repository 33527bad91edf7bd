package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoundedContext is the bus context commands are sent to.
const BoundedContext = "accounts"

// Message is any command or event carried by the bus. Field order inside each struct is the
// wire-contract order; new fields are only appended.
type Message interface {
	MessageType() string
	OperationKey() string
}

// AccountRef is the client/account pair shared by most messages.
type AccountRef struct {
	ClientID  string `json:"clientId"`
	AccountID string `json:"accountId"`
}

// AccountAmount is an AccountRef with an unsigned amount.
type AccountAmount struct {
	AccountRef
	Amount decimal.Decimal `json:"amount"`
}

// NewAccountAmount builds the common client/account/amount value.
func NewAccountAmount(clientID, accountID string, amount decimal.Decimal) AccountAmount {
	return AccountAmount{
		AccountRef: AccountRef{ClientID: clientID, AccountID: accountID},
		Amount:     amount,
	}
}

// RevokedTemporaryCapital is the audit view of a revoked entry.
type RevokedTemporaryCapital struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	EventSourceID string          `json:"eventSourceId"`
}

// Commands

type UpdateBalanceCommand struct {
	OperationID string `json:"operationId"`
	AccountRef
	AmountDelta      decimal.Decimal `json:"amountDelta"`
	Comment          string          `json:"comment"`
	AuditLog         string          `json:"auditLog"`
	Source           string          `json:"source"`
	ChangeReasonType ReasonType      `json:"changeReasonType"`
	EventSourceID    string          `json:"eventSourceId"`
	AssetPairID      string          `json:"assetPairId"`
	TradingDay       time.Time       `json:"tradingDay"`
}

type DepositCommand struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Comment  string `json:"comment"`
	AuditLog string `json:"auditLog"`
}

type FreezeAmountForDepositCommand struct {
	AccountAmount
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type CompleteDepositCommand struct {
	OperationID string `json:"operationId"`
}

type FailDepositCommand struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason,omitempty"`
}

type WithdrawCommand struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Comment  string `json:"comment"`
	AuditLog string `json:"auditLog"`
}

type FreezeAmountForWithdrawalCommand struct {
	AccountAmount
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type CompleteWithdrawalCommand struct {
	OperationID string `json:"operationId"`
}

type FailWithdrawalCommand struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason,omitempty"`
}

type StartGiveTemporaryCapitalCommand struct {
	OperationID   string          `json:"operationId"`
	EventSourceID string          `json:"eventSourceId"`
	AccountID     string          `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	AuditLog      string          `json:"auditLog"`
}

type FinishGiveTemporaryCapitalCommand struct {
	OperationID    string    `json:"operationId"`
	EventTimestamp time.Time `json:"eventTimestamp"`
	IsSuccess      bool      `json:"isSuccess"`
	FailReason     string    `json:"failReason"`
}

type StartRevokeTemporaryCapitalCommand struct {
	OperationID         string `json:"operationId"`
	EventSourceID       string `json:"eventSourceId"`
	AccountID           string `json:"accountId"`
	RevokeEventSourceID string `json:"revokeEventSourceId"`
	Comment             string `json:"comment"`
	AuditLog            string `json:"auditLog"`
}

type FinishRevokeTemporaryCapitalCommand struct {
	OperationID    string    `json:"operationId"`
	EventTimestamp time.Time `json:"eventTimestamp"`
	IsSuccess      bool      `json:"isSuccess"`
	FailReason     string    `json:"failReason"`
}

type DeleteAccountsCommand struct {
	OperationID string   `json:"operationId"`
	AccountIDs  []string `json:"accountIds"`
	Comment     string   `json:"comment"`
}

type MarkAccountsAsDeletedCommand struct {
	OperationID string    `json:"operationId"`
	Timestamp   time.Time `json:"timestamp"`
}

// Events

type PositionClosedEvent struct {
	AccountRef
	PositionID   string          `json:"positionId"`
	BalanceDelta decimal.Decimal `json:"balanceDelta"`
	Timestamp    time.Time       `json:"timestamp"`
}

type AccountBalanceChangedEvent struct {
	AccountRef
	AmountDelta decimal.Decimal `json:"amountDelta"`
	OperationID string          `json:"operationId"`
	Reason      ReasonType      `json:"reason"`
}

type AccountBalanceChangeFailedEvent struct {
	AccountRef
	AmountDelta decimal.Decimal `json:"amountDelta"`
	OperationID string          `json:"operationId"`
	Reason      ReasonType      `json:"reason"`
	FailReason  string          `json:"failReason"`
}

type DepositStartedInternalEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Comment  string `json:"comment"`
	AuditLog string `json:"auditLog"`
}

type AmountForDepositFrozenInternalEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Comment  string `json:"comment"`
	AuditLog string `json:"auditLog"`
}

type AmountForDepositFreezeFailedInternalEvent struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type DepositSucceededEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
}

type DepositFailedEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Reason string `json:"reason"`
}

type WithdrawalStartedInternalEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Comment  string `json:"comment"`
	AuditLog string `json:"auditLog"`
}

type AmountForWithdrawalFrozenInternalEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Comment  string `json:"comment"`
	AuditLog string `json:"auditLog"`
}

type AmountForWithdrawalFreezeFailedInternalEvent struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type WithdrawalSucceededEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
}

type WithdrawalFailedEvent struct {
	OperationID string `json:"operationId"`
	AccountAmount
	Reason string `json:"reason"`
}

type TemporaryCapitalGrantedInternalEvent struct {
	OperationID string          `json:"operationId"`
	AccountID   string          `json:"accountId"`
	EntryID     string          `json:"entryId"`
	Amount      decimal.Decimal `json:"amount"`
}

type TemporaryCapitalGrantFailedInternalEvent struct {
	OperationID string `json:"operationId"`
	AccountID   string `json:"accountId"`
	Reason      string `json:"reason"`
}

type RevokeTemporaryCapitalStartedEvent struct {
	OperationID             string                    `json:"operationId"`
	EventTimestamp          time.Time                 `json:"eventTimestamp"`
	RevokedTemporaryCapital []RevokedTemporaryCapital `json:"revokedTemporaryCapital"`
	AccountID               string                    `json:"accountId"`
}

type RevokeTemporaryCapitalFailedInternalEvent struct {
	OperationID string `json:"operationId"`
	AccountID   string `json:"accountId"`
	Reason      string `json:"reason"`
}

// TemporaryCapitalChangedEvent is the terminal event of grant and revoke workflows.
type TemporaryCapitalChangedEvent struct {
	OperationID string `json:"operationId"`
	AccountID   string `json:"accountId"`
	Operation   string `json:"operation"`
	IsSuccess   bool   `json:"isSuccess"`
	FailReason  string `json:"failReason"`
}

type DeleteAccountsStartedInternalEvent struct {
	OperationID string   `json:"operationId"`
	AccountIDs  []string `json:"accountIds"`
}

type AccountsMarkedAsDeletedEvent struct {
	OperationID string    `json:"operationId"`
	AccountIDs  []string  `json:"accountIds"`
	Timestamp   time.Time `json:"timestamp"`
}

func (UpdateBalanceCommand) MessageType() string                { return "UpdateBalanceCommand" }
func (DepositCommand) MessageType() string                      { return "DepositCommand" }
func (FreezeAmountForDepositCommand) MessageType() string       { return "FreezeAmountForDepositCommand" }
func (CompleteDepositCommand) MessageType() string              { return "CompleteDepositCommand" }
func (FailDepositCommand) MessageType() string                  { return "FailDepositCommand" }
func (WithdrawCommand) MessageType() string                     { return "WithdrawCommand" }
func (FreezeAmountForWithdrawalCommand) MessageType() string    { return "FreezeAmountForWithdrawalCommand" }
func (CompleteWithdrawalCommand) MessageType() string           { return "CompleteWithdrawalCommand" }
func (FailWithdrawalCommand) MessageType() string               { return "FailWithdrawalCommand" }
func (StartGiveTemporaryCapitalCommand) MessageType() string    { return "StartGiveTemporaryCapitalCommand" }
func (FinishGiveTemporaryCapitalCommand) MessageType() string   { return "FinishGiveTemporaryCapitalCommand" }
func (StartRevokeTemporaryCapitalCommand) MessageType() string  { return "StartRevokeTemporaryCapitalCommand" }
func (FinishRevokeTemporaryCapitalCommand) MessageType() string { return "FinishRevokeTemporaryCapitalCommand" }
func (DeleteAccountsCommand) MessageType() string               { return "DeleteAccountsCommand" }
func (MarkAccountsAsDeletedCommand) MessageType() string        { return "MarkAccountsAsDeletedCommand" }

func (PositionClosedEvent) MessageType() string             { return "PositionClosedEvent" }
func (AccountBalanceChangedEvent) MessageType() string      { return "AccountBalanceChangedEvent" }
func (AccountBalanceChangeFailedEvent) MessageType() string { return "AccountBalanceChangeFailedEvent" }
func (DepositStartedInternalEvent) MessageType() string     { return "DepositStartedInternalEvent" }
func (AmountForDepositFrozenInternalEvent) MessageType() string {
	return "AmountForDepositFrozenInternalEvent"
}
func (AmountForDepositFreezeFailedInternalEvent) MessageType() string {
	return "AmountForDepositFreezeFailedInternalEvent"
}
func (DepositSucceededEvent) MessageType() string          { return "DepositSucceededEvent" }
func (DepositFailedEvent) MessageType() string             { return "DepositFailedEvent" }
func (WithdrawalStartedInternalEvent) MessageType() string { return "WithdrawalStartedInternalEvent" }
func (AmountForWithdrawalFrozenInternalEvent) MessageType() string {
	return "AmountForWithdrawalFrozenInternalEvent"
}
func (AmountForWithdrawalFreezeFailedInternalEvent) MessageType() string {
	return "AmountForWithdrawalFreezeFailedInternalEvent"
}
func (WithdrawalSucceededEvent) MessageType() string { return "WithdrawalSucceededEvent" }
func (WithdrawalFailedEvent) MessageType() string    { return "WithdrawalFailedEvent" }
func (TemporaryCapitalGrantedInternalEvent) MessageType() string {
	return "TemporaryCapitalGrantedInternalEvent"
}
func (TemporaryCapitalGrantFailedInternalEvent) MessageType() string {
	return "TemporaryCapitalGrantFailedInternalEvent"
}
func (RevokeTemporaryCapitalStartedEvent) MessageType() string {
	return "RevokeTemporaryCapitalStartedEvent"
}
func (RevokeTemporaryCapitalFailedInternalEvent) MessageType() string {
	return "RevokeTemporaryCapitalFailedInternalEvent"
}
func (TemporaryCapitalChangedEvent) MessageType() string { return "TemporaryCapitalChangedEvent" }
func (DeleteAccountsStartedInternalEvent) MessageType() string {
	return "DeleteAccountsStartedInternalEvent"
}
func (AccountsMarkedAsDeletedEvent) MessageType() string { return "AccountsMarkedAsDeletedEvent" }

func (m UpdateBalanceCommand) OperationKey() string                { return m.OperationID }
func (m DepositCommand) OperationKey() string                      { return m.OperationID }
func (m FreezeAmountForDepositCommand) OperationKey() string       { return m.OperationID }
func (m CompleteDepositCommand) OperationKey() string              { return m.OperationID }
func (m FailDepositCommand) OperationKey() string                  { return m.OperationID }
func (m WithdrawCommand) OperationKey() string                     { return m.OperationID }
func (m FreezeAmountForWithdrawalCommand) OperationKey() string    { return m.OperationID }
func (m CompleteWithdrawalCommand) OperationKey() string           { return m.OperationID }
func (m FailWithdrawalCommand) OperationKey() string               { return m.OperationID }
func (m StartGiveTemporaryCapitalCommand) OperationKey() string    { return m.OperationID }
func (m FinishGiveTemporaryCapitalCommand) OperationKey() string   { return m.OperationID }
func (m StartRevokeTemporaryCapitalCommand) OperationKey() string  { return m.OperationID }
func (m FinishRevokeTemporaryCapitalCommand) OperationKey() string { return m.OperationID }
func (m DeleteAccountsCommand) OperationKey() string               { return m.OperationID }
func (m MarkAccountsAsDeletedCommand) OperationKey() string        { return m.OperationID }

func (m PositionClosedEvent) OperationKey() string                          { return m.PositionID }
func (m AccountBalanceChangedEvent) OperationKey() string                   { return m.OperationID }
func (m AccountBalanceChangeFailedEvent) OperationKey() string              { return m.OperationID }
func (m DepositStartedInternalEvent) OperationKey() string                  { return m.OperationID }
func (m AmountForDepositFrozenInternalEvent) OperationKey() string          { return m.OperationID }
func (m AmountForDepositFreezeFailedInternalEvent) OperationKey() string    { return m.OperationID }
func (m DepositSucceededEvent) OperationKey() string                        { return m.OperationID }
func (m DepositFailedEvent) OperationKey() string                           { return m.OperationID }
func (m WithdrawalStartedInternalEvent) OperationKey() string               { return m.OperationID }
func (m AmountForWithdrawalFrozenInternalEvent) OperationKey() string       { return m.OperationID }
func (m AmountForWithdrawalFreezeFailedInternalEvent) OperationKey() string { return m.OperationID }
func (m WithdrawalSucceededEvent) OperationKey() string                     { return m.OperationID }
func (m WithdrawalFailedEvent) OperationKey() string                        { return m.OperationID }
func (m TemporaryCapitalGrantedInternalEvent) OperationKey() string         { return m.OperationID }
func (m TemporaryCapitalGrantFailedInternalEvent) OperationKey() string     { return m.OperationID }
func (m RevokeTemporaryCapitalStartedEvent) OperationKey() string           { return m.OperationID }
func (m RevokeTemporaryCapitalFailedInternalEvent) OperationKey() string    { return m.OperationID }
func (m TemporaryCapitalChangedEvent) OperationKey() string                 { return m.OperationID }
func (m DeleteAccountsStartedInternalEvent) OperationKey() string           { return m.OperationID }
func (m AccountsMarkedAsDeletedEvent) OperationKey() string                 { return m.OperationID }
