package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TemporaryCapitalEntry is capital credited outside the deposit flow, tracked so it can be revoked.
type TemporaryCapitalEntry struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	EventSourceID string          `json:"eventSourceId"`
	GrantedAt     time.Time       `json:"grantedAt"`
	RevokedAt     *time.Time      `json:"revokedAt,omitempty"`
}

// IsRevoked reports whether the entry was already revoked.
func (e TemporaryCapitalEntry) IsRevoked() bool {
	return e.RevokedAt != nil
}

// TemporaryCapitalMutation describes a change to the account's temporary-capital set that must
// be applied atomically with the balance change. Exactly one of Grant or RevokeID is set.
type TemporaryCapitalMutation struct {
	Grant    *TemporaryCapitalEntry
	RevokeID string
}

// GrantTemporaryCapital adds entry to the account.
func (a *Account) GrantTemporaryCapital(entry TemporaryCapitalEntry) error {
	if entry.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	for _, existing := range a.TemporaryCapital {
		if existing.ID == entry.ID {
			return ErrTemporaryCapitalDuplicate
		}
	}

	a.TemporaryCapital = append(a.TemporaryCapital, entry)
	return nil
}

// RevokeTemporaryCapital marks the entry as revoked and returns it.
// Revoking an entry twice returns ErrTemporaryCapitalAlreadyRevoked.
func (a *Account) RevokeTemporaryCapital(id string, at time.Time) (TemporaryCapitalEntry, error) {
	for i := range a.TemporaryCapital {
		entry := &a.TemporaryCapital[i]
		if entry.ID != id {
			continue
		}
		if entry.IsRevoked() {
			return *entry, ErrTemporaryCapitalAlreadyRevoked
		}

		revokedAt := at
		entry.RevokedAt = &revokedAt
		return *entry, nil
	}

	return TemporaryCapitalEntry{}, ErrTemporaryCapitalNotFound
}

// TemporaryCapitalBySource returns every entry granted for eventSourceID, revoked ones
// included. An empty eventSourceID selects all entries.
func (a *Account) TemporaryCapitalBySource(eventSourceID string) []TemporaryCapitalEntry {
	var out []TemporaryCapitalEntry
	for _, entry := range a.TemporaryCapital {
		if eventSourceID != "" && entry.EventSourceID != eventSourceID {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// OutstandingTemporaryCapital returns entries not yet revoked, optionally filtered by
// event source id.
func (a *Account) OutstandingTemporaryCapital(eventSourceID string) []TemporaryCapitalEntry {
	var out []TemporaryCapitalEntry
	for _, entry := range a.TemporaryCapitalBySource(eventSourceID) {
		if !entry.IsRevoked() {
			out = append(out, entry)
		}
	}
	return out
}

// TotalTemporaryCapital sums outstanding entries.
func (a *Account) TotalTemporaryCapital() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range a.OutstandingTemporaryCapital("") {
		total = total.Add(entry.Amount)
	}
	return total
}
