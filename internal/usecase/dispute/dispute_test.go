package dispute_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/dispute"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
	"github.com/ignatzorin/atelier-backend/internal/usecase/quote"
	"github.com/ignatzorin/atelier-backend/internal/usecase/usecasetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var dec = usecasetest.Dec

// deliveredOrder проводит заказ за 450 до доставки и выплаты портному.
func deliveredOrder(t *testing.T, h *usecasetest.Harness) *entity.Order {
	t.Helper()
	ctx := context.Background()
	o, err := order.NewCreateOrderUseCase(h.Deps).Execute(ctx, order.CreateOrderInput{
		CustomerID:  uuid.New(),
		TailorID:    uuid.New(),
		Description: "Пальто",
	})
	require.NoError(t, err)
	h.Fund(t, o.CustomerID, "1000")

	q, err := quote.NewSubmitQuoteUseCase(h.Deps).Execute(ctx, quote.SubmitQuoteInput{
		TailorID: o.TailorID, OrderID: o.ID, ProposedPrice: dec("450"), EstimatedDays: 10,
	})
	require.NoError(t, err)
	_, err = quote.NewAcceptQuoteUseCase(h.Deps, h.Settlement).Execute(ctx, o.CustomerID, q.ID)
	require.NoError(t, err)

	transition := order.NewTransitionOrderStatusUseCase(h.Deps, h.Settlement)
	for _, s := range []valueobject.OrderStatus{valueobject.OrderStatusProcessing, valueobject.OrderStatusShipped} {
		_, err = transition.Execute(ctx, o.TailorID, o.ID, s)
		require.NoError(t, err)
	}
	delivered, err := transition.Execute(ctx, o.CustomerID, o.ID, valueobject.OrderStatusDelivered)
	require.NoError(t, err)
	return delivered
}

func openDispute(t *testing.T, h *usecasetest.Harness, o *entity.Order) *entity.Dispute {
	t.Helper()
	d, err := dispute.NewOpenDisputeUseCase(h.Deps, 0).Execute(context.Background(), dispute.OpenDisputeInput{
		OpenedByID: o.CustomerID,
		OrderID:    o.ID,
		Reason:     "Разошёлся шов",
	})
	require.NoError(t, err)
	return d
}

func currentOrder(t *testing.T, h *usecasetest.Harness, o *entity.Order) *entity.Order {
	t.Helper()
	got, err := order.NewGetOrderUseCase(h.Deps).Execute(context.Background(), o.CustomerID, o.ID)
	require.NoError(t, err)
	return got
}

func TestResolveDispute_PartialRefund(t *testing.T) {
	h := usecasetest.New(t)
	o := deliveredOrder(t, h)
	assert.Equal(t, "550.00", h.Balance(t, o.CustomerID))
	assert.Equal(t, "405.00", h.Balance(t, o.TailorID))

	d := openDispute(t, h, o)
	assert.Equal(t, valueobject.DisputeStatusOpen, d.Status)
	assert.Equal(t, valueobject.OrderStatusDisputed, currentOrder(t, h, o).Status)

	admin := uuid.New()
	res, err := dispute.NewResolveDisputeUseCase(h.Deps, h.Settlement).Execute(context.Background(), dispute.ResolveDisputeInput{
		AdminID:   admin,
		DisputeID: d.ID,
		Decision:  valueobject.DisputeStatusResolved,
		Notes:     "Частичный возврат",
		Refund:    dec("200"),
	})
	require.NoError(t, err)

	assert.Equal(t, valueobject.DisputeStatusResolved, res.Dispute.Status)
	assert.Equal(t, admin, *res.Dispute.ResolvedByID)
	assert.Equal(t, valueobject.OrderStatusCancelled, res.Order.Status)
	require.NotNil(t, res.Refund)
	assert.True(t, res.Refund.Amount.Equal(dec("200")))

	assert.Equal(t, "750.00", h.Balance(t, o.CustomerID))
	assert.Equal(t, "205.00", h.Balance(t, o.TailorID))
	assert.Equal(t, "45.00", h.Balance(t, h.Accounts.Revenue))

	statement, err := h.Ledger.Statement(context.Background(), o.CustomerID)
	require.NoError(t, err)
	last := statement[len(statement)-1]
	assert.Equal(t, valueobject.EntryDirectionCredit, last.Direction)
	assert.True(t, last.Amount.Equal(dec("200")))

	h.Settle()
	assert.Len(t, h.Recorder.OfType(notify.EventDisputeOpened), 1)
	assert.Len(t, h.Recorder.OfType(notify.EventDisputeUpdated), 2)
	refunded := lo.Filter(h.Recorder.OfType(notify.EventWalletChanged), func(e notify.Event, _ int) bool {
		return e.Data["kind"] == valueobject.PaymentKindRefund
	})
	owners := lo.Map(refunded, func(e notify.Event, _ int) uuid.UUID { return e.UserID })
	assert.ElementsMatch(t, []uuid.UUID{o.CustomerID, o.TailorID}, owners)
}

func TestResolveDispute_RejectedReturnsToDelivered(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := deliveredOrder(t, h)
	d := openDispute(t, h, o)
	review := dispute.NewReviewDisputeUseCase(h.Deps)

	_, err := review.Escalate(ctx, uuid.New(), d.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
	_, err = review.StartReview(ctx, uuid.New(), d.ID)
	require.NoError(t, err)
	escalated, err := review.Escalate(ctx, uuid.New(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusEscalated, escalated.Status)

	res, err := dispute.NewResolveDisputeUseCase(h.Deps, h.Settlement).Execute(ctx, dispute.ResolveDisputeInput{
		AdminID:   uuid.New(),
		DisputeID: d.ID,
		Decision:  valueobject.DisputeStatusRejected,
		Notes:     "Претензия не подтвердилась",
		Refund:    decimal.Zero,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Refund)
	assert.Equal(t, valueobject.OrderStatusDelivered, res.Order.Status)
	assert.Equal(t, "550.00", h.Balance(t, o.CustomerID))

	// После закрытия можно открыть новый спор.
	openDispute(t, h, o)
}

func TestResolveDispute_RefundExceedsPaidRollsBack(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := deliveredOrder(t, h)
	d := openDispute(t, h, o)

	_, err := dispute.NewResolveDisputeUseCase(h.Deps, h.Settlement).Execute(ctx, dispute.ResolveDisputeInput{
		AdminID:   uuid.New(),
		DisputeID: d.ID,
		Decision:  valueobject.DisputeStatusResolved,
		Notes:     "Полный возврат",
		Refund:    dec("451"),
	})
	assert.True(t, errors.Is(err, apperror.ErrRefundExceedsPaid), "got %v", err)

	assert.Equal(t, valueobject.OrderStatusDisputed, currentOrder(t, h, o).Status)
	disputes, err := dispute.NewListDisputesUseCase(h.Deps).Execute(ctx, o.TailorID, o.ID)
	require.NoError(t, err)
	require.Len(t, disputes, 1)
	assert.Equal(t, valueobject.DisputeStatusOpen, disputes[0].Status)
	assert.Equal(t, "550.00", h.Balance(t, o.CustomerID))
	assert.Equal(t, "405.00", h.Balance(t, o.TailorID))

	_, err = dispute.NewResolveDisputeUseCase(h.Deps, h.Settlement).Execute(ctx, dispute.ResolveDisputeInput{
		AdminID: uuid.New(), DisputeID: d.ID, Decision: valueobject.DisputeStatusResolved, Notes: "x", Refund: dec("-1"),
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestResolveDispute_ResolvedRequiresRefund(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := deliveredOrder(t, h)
	d := openDispute(t, h, o)

	_, err := dispute.NewResolveDisputeUseCase(h.Deps, h.Settlement).Execute(ctx, dispute.ResolveDisputeInput{
		AdminID:   uuid.New(),
		DisputeID: d.ID,
		Decision:  valueobject.DisputeStatusResolved,
		Notes:     "В пользу клиента",
		Refund:    decimal.Zero,
	})
	assert.True(t, apperror.IsValidation(err), "got %v", err)

	assert.Equal(t, valueobject.OrderStatusDisputed, currentOrder(t, h, o).Status)
	disputes, err := dispute.NewListDisputesUseCase(h.Deps).Execute(ctx, o.CustomerID, o.ID)
	require.NoError(t, err)
	require.Len(t, disputes, 1)
	assert.True(t, disputes[0].IsActive())
	assert.Equal(t, "405.00", h.Balance(t, o.TailorID))
}

func TestOpenDispute_Rules(t *testing.T) {
	h := usecasetest.New(t)
	ctx := context.Background()
	o := deliveredOrder(t, h)
	uc := dispute.NewOpenDisputeUseCase(h.Deps, 72*time.Hour)

	_, err := uc.Execute(ctx, dispute.OpenDisputeInput{OpenedByID: uuid.New(), OrderID: o.ID, Reason: "x"})
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(ctx, dispute.OpenDisputeInput{OpenedByID: o.CustomerID, OrderID: o.ID})
	assert.True(t, apperror.IsValidation(err))

	h.Clock.Advance(73 * time.Hour)
	_, err = uc.Execute(ctx, dispute.OpenDisputeInput{OpenedByID: o.CustomerID, OrderID: o.ID, Reason: "Поздно заметил"})
	assert.True(t, errors.Is(err, apperror.ErrDisputeWindowClosed))

	_, err = dispute.NewOpenDisputeUseCase(h.Deps, 0).Execute(ctx, dispute.OpenDisputeInput{OpenedByID: o.TailorID, OrderID: o.ID, Reason: "Клиент испортил вещь"})
	require.NoError(t, err)
	_, err = dispute.NewOpenDisputeUseCase(h.Deps, 0).Execute(ctx, dispute.OpenDisputeInput{OpenedByID: o.CustomerID, OrderID: o.ID, Reason: "Ответный спор"})
	assert.True(t, errors.Is(err, apperror.ErrDisputeExists))
}

func TestOpenDispute_RequiresDelivery(t *testing.T) {
	h := usecasetest.New(t)
	o, err := order.NewCreateOrderUseCase(h.Deps).Execute(context.Background(), order.CreateOrderInput{
		CustomerID: uuid.New(), TailorID: uuid.New(), Description: "Брюки",
	})
	require.NoError(t, err)

	_, err = dispute.NewOpenDisputeUseCase(h.Deps, 0).Execute(context.Background(), dispute.OpenDisputeInput{
		OpenedByID: o.CustomerID, OrderID: o.ID, Reason: "Долго",
	})
	var te *apperror.TransitionError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "pending", te.From)
	assert.Equal(t, "disputed", te.To)
}
