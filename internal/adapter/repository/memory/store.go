// Package memory provides in-process stores with the same transactional contract as the
// PostgreSQL adapter: rows locked with GetByIDForUpdate stay locked until Commit or Rollback and
// staged writes become visible only on Commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// Store holds accounts and balance changes.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	changes  []*domain.BalanceChange

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Store) rowLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &Tx{store: m.store, accounts: make(map[string]*domain.Account)}, nil
}

// Tx stages writes until Commit.
type Tx struct {
	store    *Store
	held     []*sync.Mutex
	accounts map[string]*domain.Account
	changes  []*domain.BalanceChange
	done     bool
}

// Commit applies staged writes and releases row locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	for id, acc := range t.accounts {
		t.store.accounts[id] = acc
	}
	t.store.changes = append(t.store.changes, t.changes...)
	t.store.mu.Unlock()

	t.release()
	return nil
}

// Rollback discards staged writes and releases row locks.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *Tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
	t.done = true
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.accounts[account.ID]; ok {
		return domain.ErrAccountExists
	}
	r.store.accounts[account.ID] = cloneAccount(account)
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	acc, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(acc), nil
}

// GetByIDForUpdate locks the account row for the rest of the transaction.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	memTx := tx.(*Tx)

	if staged, ok := memTx.accounts[id]; ok {
		return cloneAccount(staged), nil
	}

	lock := r.store.rowLock(id)
	lock.Lock()
	memTx.held = append(memTx.held, lock)

	return r.GetByID(ctx, id)
}

// Save stages the account, bumping its version.
func (r *AccountRepository) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	memTx := tx.(*Tx)
	account.Version++
	memTx.accounts[account.ID] = cloneAccount(account)
	return nil
}

// List returns accounts ordered by ID.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(r.store.accounts))
	for _, acc := range r.store.accounts {
		accounts = append(accounts, cloneAccount(acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })

	return page(accounts, limit, offset), nil
}

// BalanceChangeRepository implements usecase.BalanceChangeRepository.
type BalanceChangeRepository struct {
	store *Store
}

// NewBalanceChangeRepository creates a new BalanceChangeRepository.
func NewBalanceChangeRepository(store *Store) *BalanceChangeRepository {
	return &BalanceChangeRepository{store: store}
}

// Create stages a balance change.
func (r *BalanceChangeRepository) Create(ctx context.Context, tx usecase.Transaction, change *domain.BalanceChange) error {
	memTx := tx.(*Tx)
	c := *change
	memTx.changes = append(memTx.changes, &c)
	return nil
}

// GetByAccount returns changes of an account, newest first.
func (r *BalanceChangeRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BalanceChange, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.BalanceChange
	for i := len(r.store.changes) - 1; i >= 0; i-- {
		if r.store.changes[i].AccountID == accountID {
			c := *r.store.changes[i]
			out = append(out, &c)
		}
	}
	return page(out, limit, offset), nil
}

// GetByOperation returns the change recorded for operationID on the account.
func (r *BalanceChangeRepository) GetByOperation(ctx context.Context, accountID, operationID string) (*domain.BalanceChange, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.changes {
		if c.AccountID == accountID && c.OperationID == operationID {
			out := *c
			return &out, nil
		}
	}
	return nil, domain.ErrOperationNotFound
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.LastExecutedOperations = append([]string(nil), a.LastExecutedOperations...)
	c.TemporaryCapital = append([]domain.TemporaryCapitalEntry(nil), a.TemporaryCapital...)
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
