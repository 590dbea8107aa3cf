package ledger_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
	"github.com/ignatzorin/atelier-backend/internal/usecase/ledger"
	"github.com/ignatzorin/atelier-backend/internal/usecase/usecasetest"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLedger(uow repository.UnitOfWork) *ledger.Ledger {
	log, _ := test.NewNullLogger()
	return ledger.NewLedger(usecase.Deps{UoW: uow, Log: log, Now: clock})
}

// failingUnitOfWork ломает запись журнала для одного пользователя.
type failingUnitOfWork struct {
	inner   repository.UnitOfWork
	failFor uuid.UUID
}

func (f *failingUnitOfWork) Begin(ctx context.Context) (repository.Scope, error) {
	scope, err := f.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingScope{Scope: scope, failFor: f.failFor}, nil
}

type failingScope struct {
	repository.Scope
	failFor uuid.UUID
}

func (s *failingScope) Wallets() repository.WalletRepository {
	return &failingWallets{WalletRepository: s.Scope.Wallets(), failFor: s.failFor}
}

type failingWallets struct {
	repository.WalletRepository
	failFor uuid.UUID
}

func (w *failingWallets) Append(ctx context.Context, wallet *entity.Wallet, entry entity.WalletEntry) error {
	if wallet.UserID == w.failFor {
		return apperror.New(apperror.ErrCodeDatabaseError, "диск заполнен")
	}
	return w.WalletRepository.Append(ctx, wallet, entry)
}

func TestLedger_DebitScenario(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewStore())
	user := uuid.New()

	_, err := l.Credit(ctx, user, dec("100.00"), "пополнение")
	require.NoError(t, err)

	_, err = l.Debit(ctx, user, dec("30.00"), "оплата")
	require.NoError(t, err)
	balance, err := l.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "70.00", balance.StringFixed(2))

	_, err = l.Debit(ctx, user, dec("80.00"), "оплата")
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds))
	balance, err = l.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "70.00", balance.StringFixed(2))

	entries, err := l.Statement(ctx, user)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLedger_Validation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewStore())
	user := uuid.New()

	_, err := l.Credit(ctx, user, dec("0"), "")
	assert.True(t, apperror.IsValidation(err))
	_, err = l.Credit(ctx, user, dec("-5"), "")
	assert.True(t, apperror.IsValidation(err))
	_, err = l.Credit(ctx, user, dec("1.005"), "")
	assert.True(t, apperror.IsValidation(err))

	_, err = l.Debit(ctx, user, dec("1"), "")
	assert.True(t, errors.Is(err, apperror.ErrWalletNotFound))
	_, err = l.GetBalance(ctx, user)
	assert.True(t, apperror.IsNotFound(err))

	_, err = l.Transfer(ctx, user, user, dec("1"), "")
	assert.True(t, apperror.IsValidation(err))
}

func TestLedger_OpenWalletIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewStore())
	user := uuid.New()

	_, err := l.OpenWallet(ctx, user)
	require.NoError(t, err)
	_, err = l.Credit(ctx, user, dec("5"), "")
	require.NoError(t, err)
	wallet, err := l.OpenWallet(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "5.00", wallet.Balance().StringFixed(2))
}

func TestLedger_TransferRecordsBothLegs(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewStore())
	from, to := uuid.New(), uuid.New()
	_, err := l.Credit(ctx, from, dec("50"), "")
	require.NoError(t, err)

	result, err := l.Transfer(ctx, from, to, dec("20.50"), "за ткань")
	require.NoError(t, err)
	assert.Equal(t, to, *result.Debit.CounterpartID)
	assert.Equal(t, from, *result.Credit.CounterpartID)

	fromBalance, _ := l.GetBalance(ctx, from)
	toBalance, _ := l.GetBalance(ctx, to)
	assert.Equal(t, "29.50", fromBalance.StringFixed(2))
	assert.Equal(t, "20.50", toBalance.StringFixed(2))
}

func TestLedger_TransferIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	from, to := uuid.New(), uuid.New()
	_, err := newLedger(store).Credit(ctx, from, dec("100"), "")
	require.NoError(t, err)
	_, err = newLedger(store).Credit(ctx, to, dec("10"), "")
	require.NoError(t, err)

	t.Run("credit leg fails", func(t *testing.T) {
		l := newLedger(&failingUnitOfWork{inner: store, failFor: to})
		_, err := l.Transfer(ctx, from, to, dec("40"), "")
		assert.True(t, apperror.IsInfrastructure(err))
	})

	t.Run("debit leg fails", func(t *testing.T) {
		l := newLedger(&failingUnitOfWork{inner: store, failFor: from})
		_, err := l.Transfer(ctx, from, to, dec("40"), "")
		assert.True(t, apperror.IsInfrastructure(err))
	})

	l := newLedger(store)
	fromEntries, err := l.Statement(ctx, from)
	require.NoError(t, err)
	toEntries, err := l.Statement(ctx, to)
	require.NoError(t, err)
	assert.Len(t, fromEntries, 1)
	assert.Len(t, toEntries, 1)
	fromBalance, _ := l.GetBalance(ctx, from)
	toBalance, _ := l.GetBalance(ctx, to)
	assert.Equal(t, "100.00", fromBalance.StringFixed(2))
	assert.Equal(t, "10.00", toBalance.StringFixed(2))
}

func TestLedger_Conservation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewStore())
	rnd := rand.New(rand.NewPCG(7, 11))

	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	external := decimal.Zero
	for _, u := range users {
		_, err := l.Credit(ctx, u, dec("100"), "")
		require.NoError(t, err)
		external = external.Add(dec("100"))
	}

	for range 300 {
		amount := decimal.New(int64(rnd.IntN(5000)+1), -2)
		a := users[rnd.IntN(len(users))]
		b := users[rnd.IntN(len(users))]

		before, err := l.GetBalance(ctx, a)
		require.NoError(t, err)

		switch rnd.IntN(3) {
		case 0:
			if _, err := l.Credit(ctx, a, amount, ""); err == nil {
				external = external.Add(amount)
			}
		case 1:
			_, err := l.Debit(ctx, a, amount, "")
			if err == nil {
				external = external.Sub(amount)
			} else {
				require.True(t, before.LessThan(amount), "debit failed with enough funds: %v", err)
				after, _ := l.GetBalance(ctx, a)
				require.True(t, after.Equal(before))
			}
		default:
			_, err := l.Transfer(ctx, a, b, amount, "")
			if err != nil && a != b {
				require.True(t, errors.Is(err, apperror.ErrInsufficientFunds))
				after, _ := l.GetBalance(ctx, a)
				require.True(t, after.Equal(before))
			}
		}

		total := decimal.Zero
		for _, u := range users {
			balance, err := l.GetBalance(ctx, u)
			require.NoError(t, err)
			require.False(t, balance.IsNegative())
			total = total.Add(balance)
		}
		require.True(t, total.Equal(external), "total %s, external %s", total, external)
	}
}

func TestLedger_PublishesWalletChanged(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	_, err := h.Ledger.Credit(ctx, alice, dec("100"), "пополнение")
	require.NoError(t, err)
	_, err = h.Ledger.Transfer(ctx, alice, bob, dec("40"), "за ткань")
	require.NoError(t, err)
	_, err = h.Ledger.Debit(ctx, bob, dec("500"), "сверх баланса")
	require.Error(t, err)

	h.Settle()
	changed := h.Recorder.OfType(notify.EventWalletChanged)
	owners := lo.Map(changed, func(e notify.Event, _ int) uuid.UUID { return e.UserID })
	assert.ElementsMatch(t, []uuid.UUID{alice, alice, bob}, owners)
	toBob, ok := lo.Find(changed, func(e notify.Event) bool { return e.UserID == bob })
	require.True(t, ok)
	assert.Equal(t, valueobject.EntryDirectionCredit, toBob.Data["direction"])
	assert.Equal(t, "40", toBob.Data["amount"])
}

func TestLedger_DepositAndWithdrawRecordPayments(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	user := uuid.New()

	deposit, err := h.Ledger.Deposit(ctx, user, dec("100"), ledger.ExternalPayment{ProviderRef: "psp-7781", Description: "пополнение картой"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentKindDeposit, deposit.Payment.Kind)
	assert.Equal(t, valueobject.PaymentTypeCard, deposit.Payment.Type)
	assert.Equal(t, valueobject.EntryDirectionCredit, deposit.Entry.Direction)

	h.Clock.Advance(time.Minute)
	withdrawal, err := h.Ledger.Withdraw(ctx, user, dec("30"), ledger.ExternalPayment{Type: valueobject.PaymentTypeBankTransfer})
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentKindWithdrawal, withdrawal.Payment.Kind)

	_, err = h.Ledger.Withdraw(ctx, user, dec("500"), ledger.ExternalPayment{Type: valueobject.PaymentTypeBankTransfer})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds), "got %v", err)

	payments, err := h.Ledger.Payments(ctx, user)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, withdrawal.Payment.ID, payments[0].ID)
	assert.Equal(t, deposit.Payment.ID, payments[1].ID)
	require.NotNil(t, payments[1].ProviderTransactionID)
	assert.Equal(t, "psp-7781", *payments[1].ProviderTransactionID)
	assert.Equal(t, "70.00", h.Balance(t, user))

	h.Settle()
	assert.Len(t, h.Recorder.OfType(notify.EventWalletChanged), 2)
}

func TestLedger_DepositIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()

	_, err := newLedger(&failingUnitOfWork{inner: store, failFor: user}).
		Deposit(ctx, user, dec("100"), ledger.ExternalPayment{ProviderRef: "psp-1"})
	assert.True(t, apperror.IsInfrastructure(err))

	payments, err := newLedger(store).Payments(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, payments)
}
