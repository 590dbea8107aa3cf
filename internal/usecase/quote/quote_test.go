package quote_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
	"github.com/ignatzorin/atelier-backend/internal/usecase/quote"
	"github.com/ignatzorin/atelier-backend/internal/usecase/usecasetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var dec = usecasetest.Dec

func pendingOrder(t *testing.T, h *usecasetest.Harness) *entity.Order {
	t.Helper()
	o, err := order.NewCreateOrderUseCase(h.Deps).Execute(context.Background(), order.CreateOrderInput{
		CustomerID:  uuid.New(),
		TailorID:    uuid.New(),
		Description: "Вечернее платье",
	})
	require.NoError(t, err)
	h.Fund(t, o.CustomerID, "1000")
	return o
}

func submit(t *testing.T, h *usecasetest.Harness, o *entity.Order, price string, days int) *entity.Quote {
	t.Helper()
	q, err := quote.NewSubmitQuoteUseCase(h.Deps).Execute(context.Background(), quote.SubmitQuoteInput{
		TailorID:      o.TailorID,
		OrderID:       o.ID,
		ProposedPrice: dec(price),
		EstimatedDays: days,
	})
	require.NoError(t, err)
	return q
}

func TestAcceptQuote_RejectsSiblings(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	a := submit(t, h, o, "500", 7)
	b := submit(t, h, o, "450", 10)

	res, err := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, b.ID)
	require.NoError(t, err)

	assert.Equal(t, valueobject.OrderStatusConfirmed, res.Order.Status)
	assert.True(t, res.Order.TotalPrice.Equal(dec("450")))
	assert.Equal(t, b.ID, *res.Order.AcceptedQuoteID)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, a.ID, res.Rejected[0].ID)
	assert.Equal(t, valueobject.PaymentKindCharge, res.Payment.Kind)

	assert.Equal(t, "550.00", h.Balance(t, o.CustomerID))
	assert.Equal(t, "450.00", h.Balance(t, h.Accounts.Escrow))

	quotes, err := quote.NewQueryQuotesUseCase(h.Deps).Execute(ctx, specification.QuotesForOrder(o.ID))
	require.NoError(t, err)
	accepted := lo.Filter(quotes, func(q *entity.Quote, _ int) bool { return q.IsAccepted() })
	require.Len(t, accepted, 1)
	assert.Equal(t, b.ID, accepted[0].ID)

	h.Settle()
	assert.Len(t, h.Recorder.OfType(notify.EventQuoteAccepted), 1)
	assert.Len(t, h.Recorder.OfType(notify.EventQuoteRejected), 1)
}

func TestAcceptQuote_SecondAcceptanceFails(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	a := submit(t, h, o, "500", 7)
	b := submit(t, h, o, "450", 10)
	uc := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement)

	_, err := uc.Execute(ctx, o.CustomerID, b.ID)
	require.NoError(t, err)
	_, err = uc.Execute(ctx, o.CustomerID, a.ID)
	assert.True(t, errors.Is(err, apperror.ErrQuoteAlreadyAccepted), "got %v", err)
	_, err = uc.Execute(ctx, o.CustomerID, b.ID)
	assert.True(t, errors.Is(err, apperror.ErrQuoteAlreadyAccepted), "got %v", err)

	assert.Equal(t, "550.00", h.Balance(t, o.CustomerID))
}

func TestAcceptQuote_ConcurrentAcceptsSingleWinner(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	quotes := []*entity.Quote{submit(t, h, o, "500", 7), submit(t, h, o, "450", 10), submit(t, h, o, "480", 5)}
	uc := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement)

	var wg sync.WaitGroup
	errs := make([]error, len(quotes))
	for i, q := range quotes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = uc.Execute(ctx, o.CustomerID, q.ID)
		}()
	}
	wg.Wait()

	succeeded := lo.CountBy(errs, func(err error) bool { return err == nil })
	assert.Equal(t, 1, succeeded)

	stored, err := quote.NewQueryQuotesUseCase(h.Deps).Execute(ctx, specification.QuotesForOrder(o.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, lo.CountBy(stored, (*entity.Quote).IsAccepted))

	// Деньги удержаны ровно один раз.
	escrow := dec(h.Balance(t, h.Accounts.Escrow))
	customer := dec(h.Balance(t, o.CustomerID))
	assert.True(t, escrow.Add(customer).Equal(dec("1000")))
}

func TestAcceptQuote_InsufficientFundsLeavesNothing(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	q := submit(t, h, o, "1500", 7)

	_, err := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, q.ID)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds), "got %v", err)

	got, err := order.NewGetOrderUseCase(h.Deps).Execute(ctx, o.CustomerID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusPending, got.Status)
	assert.Nil(t, got.AcceptedQuoteID)

	pending, err := quote.NewListQuotesForDecisionUseCase(h.Deps).Execute(ctx, o.CustomerID, o.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, "1000.00", h.Balance(t, o.CustomerID))
}

func TestAcceptQuote_Forbidden(t *testing.T) {
	h := usecasetest.New(t)
	o := pendingOrder(t, h)
	q := submit(t, h, o, "500", 7)

	_, err := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(context.Background(), o.TailorID, q.ID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestSubmitQuote_RequiresPendingOrder(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	uc := quote.NewSubmitQuoteUseCase(h.Deps)

	_, err := uc.Execute(ctx, quote.SubmitQuoteInput{TailorID: uuid.New(), OrderID: o.ID, ProposedPrice: dec("100"), EstimatedDays: 3})
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(ctx, quote.SubmitQuoteInput{TailorID: o.TailorID, OrderID: uuid.New(), ProposedPrice: dec("100"), EstimatedDays: 3})
	assert.True(t, apperror.IsNotFound(err))

	_, err = order.NewTransitionOrderStatusUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, o.ID, valueobject.OrderStatusCancelled)
	require.NoError(t, err)

	_, err = uc.Execute(ctx, quote.SubmitQuoteInput{TailorID: o.TailorID, OrderID: o.ID, ProposedPrice: dec("100"), EstimatedDays: 3})
	assert.True(t, errors.Is(err, apperror.ErrOrderNotPending), "got %v", err)
	assert.True(t, apperror.IsBusiness(err))
}

func TestSubmitQuote_AfterAcceptance(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	q := submit(t, h, o, "450", 7)
	_, err := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, q.ID)
	require.NoError(t, err)

	_, err = quote.NewSubmitQuoteUseCase(h.Deps).Execute(ctx, quote.SubmitQuoteInput{
		TailorID: o.TailorID, OrderID: o.ID, ProposedPrice: dec("400"), EstimatedDays: 3,
	})
	assert.True(t, errors.Is(err, apperror.ErrQuoteAlreadyAccepted))
}

// interleavingUnitOfWork выполняет between перед первой вставкой
// предложения, пока транзакция ещё не зафиксирована.
type interleavingUnitOfWork struct {
	inner   repository.UnitOfWork
	between func()
	once    sync.Once
}

func (u *interleavingUnitOfWork) Begin(ctx context.Context) (repository.Scope, error) {
	scope, err := u.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &interleavingScope{Scope: scope, uow: u}, nil
}

type interleavingScope struct {
	repository.Scope
	uow *interleavingUnitOfWork
}

func (s *interleavingScope) Quotes() repository.QuoteRepository {
	return &interleavingQuotes{QuoteRepository: s.Scope.Quotes(), uow: s.uow}
}

type interleavingQuotes struct {
	repository.QuoteRepository
	uow *interleavingUnitOfWork
}

func (q *interleavingQuotes) Add(ctx context.Context, quote *entity.Quote) error {
	q.uow.once.Do(q.uow.between)
	return q.QuoteRepository.Add(ctx, quote)
}

func TestSubmitQuote_ConflictsWithConcurrentAcceptance(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	first := submit(t, h, o, "500", 7)

	deps := h.Deps
	deps.UoW = &interleavingUnitOfWork{
		inner: h.Store,
		between: func() {
			_, err := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, first.ID)
			require.NoError(t, err)
		},
	}

	_, err := quote.NewSubmitQuoteUseCase(deps).Execute(ctx, quote.SubmitQuoteInput{
		TailorID: o.TailorID, OrderID: o.ID, ProposedPrice: dec("300"), EstimatedDays: 5,
	})
	assert.True(t, apperror.IsConcurrencyConflict(err), "got %v", err)

	stored, err := quote.NewQueryQuotesUseCase(h.Deps).Execute(ctx, specification.QuotesForOrder(o.ID))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first.ID, stored[0].ID)
	assert.True(t, stored[0].IsAccepted())

	got, err := order.NewGetOrderUseCase(h.Deps).Execute(ctx, o.CustomerID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusConfirmed, got.Status)
}

func TestRejectQuote_LeavesOrderOpen(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	q := submit(t, h, o, "500", 7)

	rejected, err := quote.NewRejectQuoteUseCase(h.Deps).Execute(ctx, o.CustomerID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.QuoteStatusRejected, rejected.Status)

	_, err = quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, q.ID)
	assert.True(t, errors.Is(err, apperror.ErrQuoteNotPending), "got %v", err)

	revised := submit(t, h, o, "470", 7)
	res, err := quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, revised.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Rejected)
}

func TestWithdrawQuote(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	q := submit(t, h, o, "500", 7)
	uc := quote.NewWithdrawQuoteUseCase(h.Deps)

	assert.True(t, apperror.IsForbidden(uc.Execute(ctx, o.CustomerID, q.ID)))
	require.NoError(t, uc.Execute(ctx, o.TailorID, q.ID))
	assert.True(t, errors.Is(uc.Execute(ctx, o.TailorID, q.ID), apperror.ErrQuoteNotFound))
}

func TestListQuotesForDecision_Order(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := pendingOrder(t, h)
	slow := submit(t, h, o, "450", 14)
	expensive := submit(t, h, o, "600", 3)
	fast := submit(t, h, o, "450", 5)

	list, err := quote.NewListQuotesForDecisionUseCase(h.Deps).Execute(ctx, o.CustomerID, o.ID)
	require.NoError(t, err)
	ids := lo.Map(list, func(q *entity.Quote, _ int) uuid.UUID { return q.ID })
	assert.Equal(t, []uuid.UUID{fast.ID, slow.ID, expensive.ID}, ids)

	_, err = quote.NewListQuotesForDecisionUseCase(h.Deps).Execute(ctx, uuid.New(), o.ID)
	assert.True(t, apperror.IsForbidden(err))
}
