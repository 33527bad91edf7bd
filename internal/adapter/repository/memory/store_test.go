package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradingaccounts/internal/domain"
)

func seed(t *testing.T, store *Store, id string, balance int64) *AccountRepository {
	t.Helper()
	repo := NewAccountRepository(store)
	require.NoError(t, repo.Create(context.Background(), &domain.Account{
		ID:      id,
		Balance: decimal.NewFromInt(balance),
	}))
	return repo
}

func TestTx_StagedWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := seed(t, store, "acc-1", 100)
	txm := NewTxManager(store)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)

	acc, err := repo.GetByIDForUpdate(ctx, tx, "acc-1")
	require.NoError(t, err)
	acc.Balance = decimal.NewFromInt(150)
	require.NoError(t, repo.Save(ctx, tx, acc))

	before, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, before.Balance.Equal(decimal.NewFromInt(100)))

	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	after, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, int64(1), after.Version)
}

func TestTx_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := seed(t, store, "acc-1", 100)
	changes := NewBalanceChangeRepository(store)
	txm := NewTxManager(store)

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	acc, err := repo.GetByIDForUpdate(ctx, tx, "acc-1")
	require.NoError(t, err)
	acc.Balance = decimal.Zero
	require.NoError(t, repo.Save(ctx, tx, acc))
	require.NoError(t, changes.Create(ctx, tx, &domain.BalanceChange{ID: "c-1", AccountID: "acc-1", OperationID: "op-1"}))
	require.NoError(t, tx.Rollback(ctx))

	after, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(100)))

	_, err = changes.GetByOperation(ctx, "acc-1", "op-1")
	assert.ErrorIs(t, err, domain.ErrOperationNotFound)
}

func TestTx_RowLockSerializesWriters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := seed(t, store, "acc-1", 0)
	txm := NewTxManager(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := txm.Begin(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			defer tx.Rollback(ctx)

			acc, err := repo.GetByIDForUpdate(ctx, tx, "acc-1")
			if err != nil {
				t.Error(err)
				return
			}
			acc.Balance = acc.Balance.Add(decimal.NewFromInt(1))
			if err := repo.Save(ctx, tx, acc); err != nil {
				t.Error(err)
				return
			}
			if err := tx.Commit(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	acc, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(20)), "got %s", acc.Balance)
	assert.Equal(t, int64(20), acc.Version)
}

func TestAccountRepository_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := seed(t, store, "acc-1", 0)

	err := repo.Create(ctx, &domain.Account{ID: "acc-1"})
	assert.ErrorIs(t, err, domain.ErrAccountExists)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	tx, _ := NewTxManager(store).Begin(ctx)
	defer tx.Rollback(ctx)
	_, err = repo.GetByIDForUpdate(ctx, tx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := seed(t, store, "acc-1", 10)

	acc, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	acc.Balance = decimal.NewFromInt(999)
	acc.LastExecutedOperations = append(acc.LastExecutedOperations, "op-x")

	again, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(decimal.NewFromInt(10)))
	assert.Empty(t, again.LastExecutedOperations)
}

func TestAccountRepository_List(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewAccountRepository(store)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Create(ctx, &domain.Account{ID: id}))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)

	paged, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "b", paged[0].ID)

	empty, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBalanceChangeRepository_GetByAccountNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	changes := NewBalanceChangeRepository(store)
	txm := NewTxManager(store)

	for _, op := range []string{"op-1", "op-2", "op-3"} {
		tx, _ := txm.Begin(ctx)
		require.NoError(t, changes.Create(ctx, tx, &domain.BalanceChange{ID: "c-" + op, AccountID: "acc-1", OperationID: op}))
		require.NoError(t, tx.Commit(ctx))
	}

	list, err := changes.GetByAccount(ctx, "acc-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "op-3", list[0].OperationID)
	assert.Equal(t, "op-2", list[1].OperationID)

	c, err := changes.GetByOperation(ctx, "acc-1", "op-1")
	require.NoError(t, err)
	assert.Equal(t, "c-op-1", c.ID)
}

func TestOperationStore(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()
	now := time.Now().UTC()

	info := &domain.OperationExecutionInfo{
		OperationName: domain.OperationDeposit,
		ID:            "op-1",
		State:         domain.OperationStarted,
		LastModified:  now.Add(-time.Hour),
	}

	inserted, existing, err := store.Insert(ctx, info)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Nil(t, existing)

	inserted, existing, err = store.Insert(ctx, info)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NotNil(t, existing)
	assert.Equal(t, domain.OperationStarted, existing.State)

	next := *info
	next.State = domain.OperationFrozen
	next.Version = 1

	ok, err := store.CompareAndSwap(ctx, &next, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CompareAndSwap(ctx, &next, 0)
	require.NoError(t, err)
	assert.False(t, ok, "stale version must lose")

	got, err := store.Get(ctx, domain.OperationDeposit, "op-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OperationFrozen, got.State)

	stale, err := store.ListStale(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	_, err = store.Get(ctx, domain.OperationDeposit, "missing")
	assert.ErrorIs(t, err, domain.ErrOperationNotFound)

	_, err = store.CompareAndSwap(ctx, &domain.OperationExecutionInfo{OperationName: "x", ID: "y"}, 0)
	assert.ErrorIs(t, err, domain.ErrOperationNotFound)
}

func TestHistorySink(t *testing.T) {
	sink := NewHistorySink("memory")
	assert.Equal(t, "memory", sink.Name())

	require.NoError(t, sink.Write(context.Background(), &domain.BalanceChange{ID: "c-1"}))
	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "c-1", records[0].ID)
}
