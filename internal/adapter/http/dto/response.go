package dto

import (
	"encoding/json"
	"time"

	"github.com/iho/tradingaccounts/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID                     string                      `json:"id"`
	ClientID               string                      `json:"client_id"`
	TradingConditionID     string                      `json:"trading_condition_id"`
	BaseAssetID            string                      `json:"base_asset_id"`
	LegalEntity            string                      `json:"legal_entity"`
	Balance                string                      `json:"balance"`
	WithdrawTransferLimit  string                      `json:"withdraw_transfer_limit"`
	IsDisabled             bool                        `json:"is_disabled"`
	IsWithdrawalDisabled   bool                        `json:"is_withdrawal_disabled"`
	IsDeleted              bool                        `json:"is_deleted"`
	ModificationTimestamp  time.Time                   `json:"modification_timestamp"`
	LastExecutedOperations []string                    `json:"last_executed_operations"`
	TemporaryCapital       []*TemporaryCapitalResponse `json:"temporary_capital"`
	TemporaryCapitalTotal  string                      `json:"temporary_capital_total"`
	Version                int64                       `json:"version"`
}

// TemporaryCapitalResponse represents one temporary capital entry.
type TemporaryCapitalResponse struct {
	ID            string     `json:"id"`
	Amount        string     `json:"amount"`
	Reason        string     `json:"reason"`
	EventSourceID string     `json:"event_source_id"`
	GrantedAt     time.Time  `json:"granted_at"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	capital := make([]*TemporaryCapitalResponse, len(a.TemporaryCapital))
	for i, e := range a.TemporaryCapital {
		capital[i] = &TemporaryCapitalResponse{
			ID:            e.ID,
			Amount:        e.Amount.String(),
			Reason:        e.Reason,
			EventSourceID: e.EventSourceID,
			GrantedAt:     e.GrantedAt,
			RevokedAt:     e.RevokedAt,
		}
	}

	recent := a.LastExecutedOperations
	if recent == nil {
		recent = []string{}
	}

	return &AccountResponse{
		ID:                     a.ID,
		ClientID:               a.ClientID,
		TradingConditionID:     a.TradingConditionID,
		BaseAssetID:            a.BaseAssetID,
		LegalEntity:            a.LegalEntity,
		Balance:                a.Balance.String(),
		WithdrawTransferLimit:  a.WithdrawTransferLimit.String(),
		IsDisabled:             a.IsDisabled,
		IsWithdrawalDisabled:   a.IsWithdrawalDisabled,
		IsDeleted:              a.IsDeleted,
		ModificationTimestamp:  a.ModificationTimestamp,
		LastExecutedOperations: recent,
		TemporaryCapital:       capital,
		TemporaryCapitalTotal:  a.TotalTemporaryCapital().String(),
		Version:                a.Version,
	}
}

// BalanceChangeResponse represents a balance change in API responses.
type BalanceChangeResponse struct {
	ID                    string    `json:"id"`
	OperationID           string    `json:"operation_id"`
	ChangeTimestamp       time.Time `json:"change_timestamp"`
	AccountID             string    `json:"account_id"`
	ClientID              string    `json:"client_id"`
	ChangeAmount          string    `json:"change_amount"`
	Balance               string    `json:"balance"`
	WithdrawTransferLimit string    `json:"withdraw_transfer_limit"`
	Comment               string    `json:"comment,omitempty"`
	ReasonType            string    `json:"reason_type"`
	EventSourceID         string    `json:"event_source_id,omitempty"`
	LegalEntity           string    `json:"legal_entity,omitempty"`
	AuditLog              string    `json:"audit_log,omitempty"`
	Instrument            string    `json:"instrument,omitempty"`
}

// BalanceChangeFromDomain converts domain balance change to response.
func BalanceChangeFromDomain(c *domain.BalanceChange) *BalanceChangeResponse {
	return &BalanceChangeResponse{
		ID:                    c.ID,
		OperationID:           c.OperationID,
		ChangeTimestamp:       c.ChangeTimestamp,
		AccountID:             c.AccountID,
		ClientID:              c.ClientID,
		ChangeAmount:          c.ChangeAmount.String(),
		Balance:               c.Balance.String(),
		WithdrawTransferLimit: c.WithdrawTransferLimit.String(),
		Comment:               c.Comment,
		ReasonType:            string(c.ReasonType),
		EventSourceID:         c.EventSourceID,
		LegalEntity:           c.LegalEntity,
		AuditLog:              c.AuditLog,
		Instrument:            c.Instrument,
	}
}

// BalanceChangesFromDomain converts domain balance changes to responses.
func BalanceChangesFromDomain(changes []*domain.BalanceChange) []*BalanceChangeResponse {
	result := make([]*BalanceChangeResponse, len(changes))
	for i, c := range changes {
		result[i] = BalanceChangeFromDomain(c)
	}
	return result
}

// OperationResponse represents an operation ledger entry in API responses.
type OperationResponse struct {
	OperationName string          `json:"operation_name"`
	ID            string          `json:"id"`
	State         string          `json:"state"`
	Data          json.RawMessage `json:"data,omitempty"`
	LastModified  time.Time       `json:"last_modified"`
	Version       int64           `json:"version"`
}

// OperationFromDomain converts a ledger entry to response.
func OperationFromDomain(info *domain.OperationExecutionInfo) *OperationResponse {
	return &OperationResponse{
		OperationName: info.OperationName,
		ID:            info.ID,
		State:         string(info.State),
		Data:          info.Data,
		LastModified:  info.LastModified,
		Version:       info.Version,
	}
}

// OperationsFromDomain converts ledger entries to responses.
func OperationsFromDomain(infos []*domain.OperationExecutionInfo) []*OperationResponse {
	result := make([]*OperationResponse, len(infos))
	for i, info := range infos {
		result[i] = OperationFromDomain(info)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
