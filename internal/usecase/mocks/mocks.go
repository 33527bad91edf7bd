package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
// Reads return copies so that unsaved mutations never leak into the store.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	SaveFunc             func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository(accounts ...*domain.Account) *MockAccountRepository {
	m := &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
	for _, acc := range accounts {
		m.accounts[acc.ID] = cloneAccount(acc)
	}
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return cloneAccount(acc), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	account.Version++
	m.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, cloneAccount(acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.LastExecutedOperations = append([]string(nil), a.LastExecutedOperations...)
	c.TemporaryCapital = append([]domain.TemporaryCapitalEntry(nil), a.TemporaryCapital...)
	return &c
}

// MockBalanceChangeRepository is a mock implementation of BalanceChangeRepository.
type MockBalanceChangeRepository struct {
	mu      sync.RWMutex
	changes []*domain.BalanceChange

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, change *domain.BalanceChange) error
	GetByAccountFunc   func(ctx context.Context, accountID string, limit, offset int) ([]*domain.BalanceChange, error)
	GetByOperationFunc func(ctx context.Context, accountID, operationID string) (*domain.BalanceChange, error)
}

func NewMockBalanceChangeRepository() *MockBalanceChangeRepository {
	return &MockBalanceChangeRepository{}
}

func (m *MockBalanceChangeRepository) Create(ctx context.Context, tx usecase.Transaction, change *domain.BalanceChange) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, change)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return nil
}

func (m *MockBalanceChangeRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.BalanceChange, error) {
	if m.GetByAccountFunc != nil {
		return m.GetByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var changes []*domain.BalanceChange
	for i := len(m.changes) - 1; i >= 0; i-- {
		if m.changes[i].AccountID == accountID {
			changes = append(changes, m.changes[i])
		}
	}
	return changes, nil
}

func (m *MockBalanceChangeRepository) GetByOperation(ctx context.Context, accountID, operationID string) (*domain.BalanceChange, error) {
	if m.GetByOperationFunc != nil {
		return m.GetByOperationFunc(ctx, accountID, operationID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.changes {
		if c.AccountID == accountID && c.OperationID == operationID {
			return c, nil
		}
	}
	return nil, domain.ErrOperationNotFound
}

// All returns every recorded change in insertion order.
func (m *MockBalanceChangeRepository) All() []*domain.BalanceChange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.BalanceChange(nil), m.changes...)
}

// MockOperationStore is a mock implementation of OperationStore.
type MockOperationStore struct {
	mu      sync.Mutex
	entries map[string]domain.OperationExecutionInfo

	InsertFunc         func(ctx context.Context, info *domain.OperationExecutionInfo) (bool, *domain.OperationExecutionInfo, error)
	CompareAndSwapFunc func(ctx context.Context, info *domain.OperationExecutionInfo, expectedVersion int64) (bool, error)
}

func NewMockOperationStore() *MockOperationStore {
	return &MockOperationStore{
		entries: make(map[string]domain.OperationExecutionInfo),
	}
}

func (m *MockOperationStore) Insert(ctx context.Context, info *domain.OperationExecutionInfo) (bool, *domain.OperationExecutionInfo, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, info)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[info.Key()]; ok {
		return false, &existing, nil
	}
	m.entries[info.Key()] = *info
	return true, nil, nil
}

func (m *MockOperationStore) Get(ctx context.Context, operationName, operationID string) (*domain.OperationExecutionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[domain.OperationKey(operationName, operationID)]; ok {
		return &existing, nil
	}
	return nil, domain.ErrOperationNotFound
}

func (m *MockOperationStore) CompareAndSwap(ctx context.Context, info *domain.OperationExecutionInfo, expectedVersion int64) (bool, error) {
	if m.CompareAndSwapFunc != nil {
		return m.CompareAndSwapFunc(ctx, info, expectedVersion)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.entries[info.Key()]
	if !ok {
		return false, domain.ErrOperationNotFound
	}
	if existing.Version != expectedVersion {
		return false, nil
	}
	m.entries[info.Key()] = *info
	return true, nil
}

func (m *MockOperationStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*domain.OperationExecutionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OperationExecutionInfo
	for _, e := range m.entries {
		if !e.State.IsTerminal() && e.LastModified.Before(olderThan) {
			entry := e
			out = append(out, &entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.Before(out[j].LastModified) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Put stores info directly, bypassing insert-if-absent.
func (m *MockOperationStore) Put(info domain.OperationExecutionInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[info.Key()] = info
}

// RecordingBus is a MessageBus that keeps every sent command and published event.
type RecordingBus struct {
	mu       sync.Mutex
	Commands []domain.Message
	Events   []domain.Message

	PublishEventFunc func(ctx context.Context, event domain.Message) error
}

func NewRecordingBus() *RecordingBus {
	return &RecordingBus{}
}

func (b *RecordingBus) SendCommand(ctx context.Context, command domain.Message, targetContext string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Commands = append(b.Commands, command)
	return nil
}

func (b *RecordingBus) PublishEvent(ctx context.Context, event domain.Message) error {
	if b.PublishEventFunc != nil {
		if err := b.PublishEventFunc(ctx, event); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events = append(b.Events, event)
	return nil
}

// LastEvent returns the most recently published event or nil.
func (b *RecordingBus) LastEvent() domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Events) == 0 {
		return nil
	}
	return b.Events[len(b.Events)-1]
}

// EventTypes lists published event types in order.
func (b *RecordingBus) EventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.Events))
	for _, e := range b.Events {
		types = append(types, e.MessageType())
	}
	return types
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}
