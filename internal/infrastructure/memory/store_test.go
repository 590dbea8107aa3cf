package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/unitofwork"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, description string) *entity.Order {
	t.Helper()
	order, err := entity.NewOrder(entity.NewOrderParams{
		CustomerID:  uuid.New(),
		TailorID:    uuid.New(),
		Description: description,
	}, now)
	require.NoError(t, err)
	return order
}

func begin(t *testing.T, store *memory.Store) repository.Scope {
	t.Helper()
	scope, err := store.Begin(context.Background())
	require.NoError(t, err)
	return scope
}

func TestStore_StagedWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	order := newOrder(t, "Пальто")

	writer := begin(t, store)
	require.NoError(t, writer.Orders().Add(ctx, order))
	assert.Equal(t, int64(1), order.Version)

	_, err := writer.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err, "own staged write must be visible")

	reader := begin(t, store)
	_, err = reader.Orders().FindByID(ctx, order.ID)
	assert.True(t, errors.Is(err, apperror.ErrOrderNotFound))

	require.NoError(t, writer.Commit(ctx))

	found, err := reader.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Пальто", found.Description)
	require.NoError(t, reader.Rollback(ctx))
}

func TestStore_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	order := newOrder(t, "Юбка")

	scope := begin(t, store)
	require.NoError(t, scope.Orders().Add(ctx, order))
	_, err := scope.Wallets().Open(ctx, order.CustomerID)
	require.NoError(t, err)
	require.NoError(t, scope.Rollback(ctx))

	_, err = scope.Orders().FindByID(ctx, order.ID)
	assert.True(t, errors.Is(err, apperror.ErrScopeClosed))
	assert.True(t, errors.Is(scope.Commit(ctx), apperror.ErrScopeClosed))

	check := begin(t, store)
	defer check.Rollback(ctx)
	_, err = check.Orders().FindByID(ctx, order.ID)
	assert.True(t, errors.Is(err, apperror.ErrOrderNotFound))
	_, err = check.Wallets().Find(ctx, order.CustomerID)
	assert.True(t, errors.Is(err, apperror.ErrWalletNotFound))
}

func TestStore_ReturnedEntitiesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	order := newOrder(t, "Рубашка")
	require.NoError(t, unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Orders().Add(ctx, order)
	}))

	order.Description = "изменено снаружи"
	found, err := unitofwork.Read(ctx, store, func(ctx context.Context, repos repository.Repositories) (*entity.Order, error) {
		return repos.Orders().FindByID(ctx, order.ID)
	})
	require.NoError(t, err)
	assert.Equal(t, "Рубашка", found.Description)
}

func TestStore_OptimisticConflict(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	order := newOrder(t, "Костюм")
	require.NoError(t, unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Orders().Add(ctx, order)
	}))

	first := begin(t, store)
	second := begin(t, store)

	a, err := first.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	b, err := second.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)

	a.Description = "первый"
	b.Description = "второй"
	require.NoError(t, first.Orders().Update(ctx, a))
	require.NoError(t, second.Orders().Update(ctx, b))

	require.NoError(t, first.Commit(ctx))
	err = second.Commit(ctx)
	assert.True(t, apperror.IsConcurrencyConflict(err), "got %v", err)

	stale := order.Clone()
	check := begin(t, store)
	defer check.Rollback(ctx)
	assert.True(t, errors.Is(check.Orders().Update(ctx, stale), apperror.ErrConcurrencyConflict))

	found, err := check.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "первый", found.Description)
	assert.Equal(t, int64(2), found.Version)
}

func TestStore_FindBySpecSeesOverlay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first, second, third := newOrder(t, "a"), newOrder(t, "b"), newOrder(t, "c")
	require.NoError(t, unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		for _, o := range []*entity.Order{first, second} {
			if err := repos.Orders().Add(ctx, o); err != nil {
				return err
			}
		}
		return nil
	}))

	scope := begin(t, store)
	defer scope.Rollback(ctx)

	require.NoError(t, scope.Orders().Add(ctx, third))
	changed := second.Clone()
	changed.Description = "b2"
	require.NoError(t, scope.Orders().Update(ctx, changed))

	all, err := scope.Orders().FindBySpec(ctx, specification.New[*entity.Order](nil))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b2", "c"}, []string{all[0].Description, all[1].Description, all[2].Description})

	quote, err := entity.NewQuote(first.ID, first.TailorID, decimal.NewFromInt(100), 3, "", now)
	require.NoError(t, err)
	require.NoError(t, scope.Quotes().Add(ctx, quote))
	require.NoError(t, scope.Quotes().Remove(ctx, quote.ID))
	quotes, err := scope.Quotes().FindBySpec(ctx, specification.QuotesForOrder(first.ID))
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestStore_RemoveCommitted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	quote, err := entity.NewQuote(uuid.New(), uuid.New(), decimal.NewFromInt(100), 3, "", now)
	require.NoError(t, err)
	require.NoError(t, unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Quotes().Add(ctx, quote)
	}))

	require.NoError(t, unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Quotes().Remove(ctx, quote.ID)
	}))

	err = unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Quotes().Remove(ctx, quote.ID)
	})
	assert.True(t, errors.Is(err, apperror.ErrQuoteNotFound))
}

func TestStore_DuplicateAdd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	order := newOrder(t, "дубль")

	err := unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Orders().Add(ctx, order); err != nil {
			return err
		}
		return repos.Orders().Add(ctx, order.Clone())
	})
	assert.True(t, errors.Is(err, apperror.ErrAlreadyExists))
}

func credit(ctx context.Context, store *memory.Store, userID uuid.UUID, amount string) error {
	return unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		wallet, err := repos.Wallets().Open(ctx, userID)
		if err != nil {
			return err
		}
		entry, err := wallet.Credit(decimal.RequireFromString(amount), entity.Posting{Description: "пополнение"}, now)
		if err != nil {
			return err
		}
		return repos.Wallets().Append(ctx, wallet, entry)
	})
}

func debit(ctx context.Context, store *memory.Store, userID uuid.UUID, amount string, beforeAppend func()) error {
	return unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
		wallet, err := repos.Wallets().Find(ctx, userID)
		if err != nil {
			return err
		}
		entry, err := wallet.Debit(decimal.RequireFromString(amount), entity.Posting{Description: "списание"}, now)
		if err != nil {
			return err
		}
		beforeAppend()
		return repos.Wallets().Append(ctx, wallet, entry)
	})
}

func balance(t *testing.T, store *memory.Store, userID uuid.UUID) string {
	t.Helper()
	wallet, err := unitofwork.Read(context.Background(), store, func(ctx context.Context, repos repository.Repositories) (*entity.Wallet, error) {
		return repos.Wallets().Find(ctx, userID)
	})
	require.NoError(t, err)
	return wallet.Balance().StringFixed(2)
}

func TestStore_SimultaneousDebitsCannotBothSucceed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := uuid.New()
	require.NoError(t, credit(ctx, store, userID, "100.00"))

	// Оба списания прочитали баланс 100 до того, как любое из них зафиксировалось.
	var ready sync.WaitGroup
	ready.Add(2)
	barrier := func() {
		ready.Done()
		ready.Wait()
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = debit(ctx, store, userID, "80.00", barrier)
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.True(t, apperror.IsConcurrencyConflict(err), "got %v", err)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, "20.00", balance(t, store, userID))
}

func TestStore_StaleWalletAppendRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := uuid.New()
	require.NoError(t, credit(ctx, store, userID, "50.00"))

	scope := begin(t, store)
	defer scope.Rollback(ctx)

	wallet, err := scope.Wallets().Find(ctx, userID)
	require.NoError(t, err)
	stale := wallet.Clone()

	entry, err := wallet.Debit(decimal.RequireFromString("10"), entity.Posting{}, now)
	require.NoError(t, err)
	require.NoError(t, scope.Wallets().Append(ctx, wallet, entry))
	assert.Equal(t, int64(2), wallet.Version)

	entry, err = stale.Debit(decimal.RequireFromString("45"), entity.Posting{}, now)
	require.NoError(t, err)
	assert.True(t, errors.Is(scope.Wallets().Append(ctx, stale, entry), apperror.ErrConcurrencyConflict))
}

func TestStore_ConcurrentOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := uuid.New()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = unitofwork.Run(ctx, store, func(ctx context.Context, repos repository.Repositories) error {
				_, err := repos.Wallets().Open(ctx, userID)
				return err
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, "0.00", balance(t, store, userID))
}
