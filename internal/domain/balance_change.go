package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReasonType classifies why a balance changed.
type ReasonType string

const (
	ReasonDeposit                ReasonType = "Deposit"
	ReasonWithdrawal             ReasonType = "Withdrawal"
	ReasonRealizedPnL            ReasonType = "RealizedPnL"
	ReasonUnrealizedDailyPnL     ReasonType = "UnrealizedDailyPnL"
	ReasonTemporaryCapitalGrant  ReasonType = "TemporaryCapitalGrant"
	ReasonTemporaryCapitalRevoke ReasonType = "TemporaryCapitalRevoke"
	ReasonManualCharge           ReasonType = "ManualCharge"
	ReasonCommission             ReasonType = "Commission"
	ReasonDividend               ReasonType = "Dividend"
	ReasonReset                  ReasonType = "Reset"
)

var validReasons = map[ReasonType]bool{
	ReasonDeposit:                true,
	ReasonWithdrawal:             true,
	ReasonRealizedPnL:            true,
	ReasonUnrealizedDailyPnL:     true,
	ReasonTemporaryCapitalGrant:  true,
	ReasonTemporaryCapitalRevoke: true,
	ReasonManualCharge:           true,
	ReasonCommission:             true,
	ReasonDividend:               true,
	ReasonReset:                  true,
}

// IsValid checks if the reason is a known reason type.
func (r ReasonType) IsValid() bool {
	return validReasons[r]
}

// BalanceChange is the immutable record of one applied balance mutation.
type BalanceChange struct {
	ID                    string
	OperationID           string
	ChangeTimestamp       time.Time
	AccountID             string
	ClientID              string
	ChangeAmount          decimal.Decimal
	Balance               decimal.Decimal
	WithdrawTransferLimit decimal.Decimal
	Comment               string
	ReasonType            ReasonType
	EventSourceID         string
	LegalEntity           string
	AuditLog              string
	Instrument            string
	TradingDate           time.Time
}

// PreviousBalance is the balance the change was applied to.
func (c *BalanceChange) PreviousBalance() decimal.Decimal {
	return c.Balance.Sub(c.ChangeAmount)
}
