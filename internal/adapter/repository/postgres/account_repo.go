package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/postgres/generated"
	"github.com/iho/tradingaccounts/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository. db is usually a *pgxpool.Pool.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	temporaryCapital, err := encodeTemporaryCapital(account.TemporaryCapital)
	if err != nil {
		return err
	}

	err = r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:                     account.ID,
		ClientID:               account.ClientID,
		TradingConditionID:     account.TradingConditionID,
		BaseAssetID:            account.BaseAssetID,
		LegalEntity:            account.LegalEntity,
		Balance:                decimalToNumeric(account.Balance),
		WithdrawTransferLimit:  decimalToNumeric(account.WithdrawTransferLimit),
		IsDisabled:             account.IsDisabled,
		IsWithdrawalDisabled:   account.IsWithdrawalDisabled,
		IsDeleted:              account.IsDeleted,
		ModificationTimestamp:  timeToPgTimestamptz(account.ModificationTimestamp),
		LastExecutedOperations: nonNilStrings(account.LastExecutedOperations),
		TemporaryCapital:       temporaryCapital,
		Version:                account.Version,
	})
	if isUniqueViolation(err) {
		return domain.ErrAccountExists
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row)
}

// Save writes the mutable account state and bumps its version.
func (r *AccountRepository) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	temporaryCapital, err := encodeTemporaryCapital(account.TemporaryCapital)
	if err != nil {
		return err
	}

	err = queries.SaveAccount(ctx, generated.SaveAccountParams{
		ID:                     account.ID,
		Balance:                decimalToNumeric(account.Balance),
		WithdrawTransferLimit:  decimalToNumeric(account.WithdrawTransferLimit),
		IsDisabled:             account.IsDisabled,
		IsWithdrawalDisabled:   account.IsWithdrawalDisabled,
		IsDeleted:              account.IsDeleted,
		ModificationTimestamp:  timeToPgTimestamptz(account.ModificationTimestamp),
		LastExecutedOperations: nonNilStrings(account.LastExecutedOperations),
		TemporaryCapital:       temporaryCapital,
	})
	if err != nil {
		return err
	}

	account.Version++
	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		account, err := rowToAccount(row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) (*domain.Account, error) {
	var temporaryCapital []domain.TemporaryCapitalEntry
	if len(row.TemporaryCapital) > 0 {
		if err := json.Unmarshal(row.TemporaryCapital, &temporaryCapital); err != nil {
			return nil, fmt.Errorf("decode temporary capital of %s: %w", row.ID, err)
		}
	}

	return &domain.Account{
		ID:                     row.ID,
		ClientID:               row.ClientID,
		TradingConditionID:     row.TradingConditionID,
		BaseAssetID:            row.BaseAssetID,
		LegalEntity:            row.LegalEntity,
		Balance:                numericToDecimal(row.Balance),
		WithdrawTransferLimit:  numericToDecimal(row.WithdrawTransferLimit),
		IsDisabled:             row.IsDisabled,
		IsWithdrawalDisabled:   row.IsWithdrawalDisabled,
		IsDeleted:              row.IsDeleted,
		ModificationTimestamp:  row.ModificationTimestamp.Time,
		LastExecutedOperations: row.LastExecutedOperations,
		TemporaryCapital:       temporaryCapital,
		Version:                row.Version,
	}, nil
}

func encodeTemporaryCapital(entries []domain.TemporaryCapitalEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.TemporaryCapitalEntry{}
	}
	return json.Marshal(entries)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(t)
}
