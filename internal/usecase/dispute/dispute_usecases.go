package dispute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/unitofwork"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
	"github.com/ignatzorin/atelier-backend/internal/usecase/ledger"
)

type OpenDisputeInput struct {
	OpenedByID  uuid.UUID
	OrderID     uuid.UUID
	Reason      string
	Description string
}

// OpenDisputeUseCase открывает спор по доставленному заказу.
// window ограничивает срок с момента доставки, ноль - без ограничения.
type OpenDisputeUseCase struct {
	deps   usecase.Deps
	window time.Duration
}

func NewOpenDisputeUseCase(deps usecase.Deps, window time.Duration) *OpenDisputeUseCase {
	return &OpenDisputeUseCase{deps: deps, window: window}
}

func (uc *OpenDisputeUseCase) Execute(ctx context.Context, input OpenDisputeInput) (*entity.Dispute, error) {
	now := uc.deps.Now()
	dispute, err := entity.NewDispute(input.OrderID, input.OpenedByID, input.Reason, input.Description, now)
	if err != nil {
		return nil, err
	}

	var order *entity.Order
	err = unitofwork.Run(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) error {
		order, err = repos.Orders().FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if !order.IsParticipant(input.OpenedByID) {
			return apperror.ErrForbidden
		}

		active, err := repos.Disputes().FindBySpec(ctx, specification.ActiveDisputesForOrder(order.ID))
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return apperror.ErrDisputeExists
		}
		if uc.window > 0 && order.DeliveredAt != nil && now.Sub(*order.DeliveredAt) > uc.window {
			return apperror.ErrDisputeWindowClosed
		}

		if err := order.OpenDispute(now); err != nil {
			return err
		}
		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}
		return repos.Disputes().Add(ctx, dispute)
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"order_id": input.OrderID, "user_id": input.OpenedByID})
	if err != nil {
		logger.Failure(log, err, "dispute: спор не открыт")
		return nil, err
	}
	log.WithField("dispute_id", dispute.ID).Info("dispute: спор открыт")

	counterpart := order.TailorID
	if input.OpenedByID == order.TailorID {
		counterpart = order.CustomerID
	}
	uc.deps.Notify(ctx, notify.Event{
		Type:   notify.EventDisputeOpened,
		UserID: counterpart,
		Data:   map[string]any{"order_id": order.ID, "dispute_id": dispute.ID, "reason": dispute.Reason},
	})
	return dispute, nil
}

// ReviewDisputeUseCase двигает спор по шагам рассмотрения без решения.
type ReviewDisputeUseCase struct {
	deps usecase.Deps
}

func NewReviewDisputeUseCase(deps usecase.Deps) *ReviewDisputeUseCase {
	return &ReviewDisputeUseCase{deps: deps}
}

// StartReview: Open -> UnderReview.
func (uc *ReviewDisputeUseCase) StartReview(ctx context.Context, adminID, disputeID uuid.UUID) (*entity.Dispute, error) {
	return uc.step(ctx, adminID, disputeID, "review", (*entity.Dispute).StartReview)
}

// Escalate: UnderReview -> Escalated.
func (uc *ReviewDisputeUseCase) Escalate(ctx context.Context, adminID, disputeID uuid.UUID) (*entity.Dispute, error) {
	return uc.step(ctx, adminID, disputeID, "escalate", (*entity.Dispute).Escalate)
}

func (uc *ReviewDisputeUseCase) step(ctx context.Context, adminID, disputeID uuid.UUID, action string, apply func(*entity.Dispute, time.Time) error) (*entity.Dispute, error) {
	var order *entity.Order
	dispute, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.Dispute, error) {
		dispute, err := repos.Disputes().FindByID(ctx, disputeID)
		if err != nil {
			return nil, err
		}
		if err := apply(dispute, uc.deps.Now()); err != nil {
			return nil, err
		}
		if err := repos.Disputes().Update(ctx, dispute); err != nil {
			return nil, err
		}
		order, err = repos.Orders().FindByID(ctx, dispute.OrderID)
		if err != nil {
			return nil, err
		}
		return dispute, nil
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"dispute_id": disputeID, "user_id": adminID, "action": action})
	if err != nil {
		logger.Failure(log, err, "dispute: шаг рассмотрения отклонён")
		return nil, err
	}
	log.WithField("status", dispute.Status).Info("dispute: статус изменён")
	uc.deps.Notify(ctx, updatedEvents(order, dispute)...)
	return dispute, nil
}

type ResolveDisputeInput struct {
	AdminID   uuid.UUID
	DisputeID uuid.UUID
	Decision  valueobject.DisputeStatus
	Notes     string
	Refund    decimal.Decimal
}

// ResolveResult - решение по спору и возврат, если он был.
type ResolveResult struct {
	Dispute *entity.Dispute
	Order   *entity.Order
	Refund  *entity.Payment
}

// ResolveDisputeUseCase закрывает спор одной транзакцией: статус спора,
// переход заказа и проводки возврата фиксируются вместе.
// Решение в пользу клиента отменяет заказ, отказ возвращает его в Delivered.
type ResolveDisputeUseCase struct {
	deps       usecase.Deps
	settlement *ledger.Settlement
}

func NewResolveDisputeUseCase(deps usecase.Deps, settlement *ledger.Settlement) *ResolveDisputeUseCase {
	return &ResolveDisputeUseCase{deps: deps, settlement: settlement}
}

func (uc *ResolveDisputeUseCase) Execute(ctx context.Context, input ResolveDisputeInput) (*ResolveResult, error) {
	if input.Refund.IsNegative() {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма возврата не может быть отрицательной")
	}

	result, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*ResolveResult, error) {
		dispute, err := repos.Disputes().FindByID(ctx, input.DisputeID)
		if err != nil {
			return nil, err
		}
		order, err := repos.Orders().FindByID(ctx, dispute.OrderID)
		if err != nil {
			return nil, err
		}

		now := uc.deps.Now()
		if err := dispute.Resolve(input.AdminID, input.Decision, input.Notes, input.Refund, now); err != nil {
			return nil, err
		}
		if err := order.CloseDispute(input.Decision == valueobject.DisputeStatusResolved, now); err != nil {
			return nil, err
		}

		var payment *entity.Payment
		if input.Refund.IsPositive() {
			payment, err = uc.settlement.Clawback(ctx, repos, order, input.Refund, now)
			if err != nil {
				return nil, fmt.Errorf("спор %s: %w", dispute.ID, err)
			}
		}

		if err := repos.Disputes().Update(ctx, dispute); err != nil {
			return nil, err
		}
		if err := repos.Orders().Update(ctx, order); err != nil {
			return nil, err
		}
		return &ResolveResult{Dispute: dispute, Order: order, Refund: payment}, nil
	})

	log := uc.deps.Log.WithFields(logrus.Fields{
		"dispute_id": input.DisputeID,
		"user_id":    input.AdminID,
		"decision":   input.Decision,
	})
	if err != nil {
		logger.Failure(log, err, "dispute: решение не принято")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"order_id": result.Order.ID,
		"refund":   input.Refund.StringFixed(valueobject.CurrencyScale),
	}).Info("dispute: спор закрыт")

	events := updatedEvents(result.Order, result.Dispute)
	if result.Refund != nil {
		// Возврат по спору списывается с портного и с выручки.
		events = append(events, ledger.PaymentEvents(result.Refund)...)
		events = append(events, ledger.WalletChanged(result.Order.TailorID, map[string]any{
			"payment_id": result.Refund.ID,
			"order_id":   result.Order.ID,
			"kind":       result.Refund.Kind,
		}))
	}
	uc.deps.Notify(ctx, events...)
	return result, nil
}

// ListDisputesUseCase - история споров по заказу для его участников.
type ListDisputesUseCase struct {
	deps usecase.Deps
}

func NewListDisputesUseCase(deps usecase.Deps) *ListDisputesUseCase {
	return &ListDisputesUseCase{deps: deps}
}

func (uc *ListDisputesUseCase) Execute(ctx context.Context, actorID, orderID uuid.UUID) ([]*entity.Dispute, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.Dispute, error) {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !order.IsParticipant(actorID) {
			return nil, apperror.ErrForbidden
		}
		return repos.Disputes().FindBySpec(ctx, specification.DisputesForOrder(orderID))
	})
}

func updatedEvents(order *entity.Order, dispute *entity.Dispute) []notify.Event {
	data := map[string]any{"order_id": order.ID, "dispute_id": dispute.ID, "status": dispute.Status}
	return []notify.Event{
		{Type: notify.EventDisputeUpdated, UserID: order.CustomerID, Data: data},
		{Type: notify.EventDisputeUpdated, UserID: order.TailorID, Data: data},
	}
}
