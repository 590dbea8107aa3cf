package order

import (
	"context"

	"github.com/google/uuid"
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

// TransitionOrderStatusUseCase двигает заказ по жизненному циклу.
// Confirmed достигается только принятием предложения, Disputed - только открытием спора.
type TransitionOrderStatusUseCase struct {
	deps       usecase.Deps
	settlement *ledger.Settlement
}

func NewTransitionOrderStatusUseCase(deps usecase.Deps, settlement *ledger.Settlement) *TransitionOrderStatusUseCase {
	return &TransitionOrderStatusUseCase{deps: deps, settlement: settlement}
}

func (uc *TransitionOrderStatusUseCase) Execute(ctx context.Context, actorID, orderID uuid.UUID, to valueobject.OrderStatus) (*entity.Order, error) {
	if !to.IsValid() {
		return nil, apperror.Validationf("неизвестный статус заказа: %q", to)
	}

	var (
		from    valueobject.OrderStatus
		payment *entity.Payment
	)
	order, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.Order, error) {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !order.IsParticipant(actorID) {
			return nil, apperror.ErrForbidden
		}
		from = order.Status
		now := uc.deps.Now()

		switch to {
		case valueobject.OrderStatusProcessing, valueobject.OrderStatusShipped:
			if actorID != order.TailorID {
				return nil, apperror.ErrForbidden
			}
			if err := order.Advance(to, now); err != nil {
				return nil, err
			}
		case valueobject.OrderStatusDelivered:
			if err := order.Advance(to, now); err != nil {
				return nil, err
			}
			if payment, err = uc.settlement.Release(ctx, repos, order, now); err != nil {
				return nil, err
			}
		case valueobject.OrderStatusCancelled:
			if err := order.Cancel(now); err != nil {
				return nil, err
			}
			if payment, err = uc.settlement.Refund(ctx, repos, order, now); err != nil {
				return nil, err
			}
		default:
			return nil, apperror.NewTransitionError("order", string(order.Status), string(to))
		}

		if err := repos.Orders().Update(ctx, order); err != nil {
			return nil, err
		}
		return order, nil
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"order_id": orderID, "user_id": actorID, "to": to})
	if err != nil {
		logger.Failure(log, err, "order: переход статуса отклонён")
		return nil, err
	}
	log.WithField("from", from).Info("order: статус изменён")

	data := map[string]any{"order_id": order.ID, "order_number": order.OrderNumber, "from": from, "to": order.Status}
	events := []notify.Event{
		{Type: notify.EventOrderStatusChanged, UserID: order.CustomerID, Data: data},
		{Type: notify.EventOrderStatusChanged, UserID: order.TailorID, Data: data},
	}
	uc.deps.Notify(ctx, append(events, ledger.PaymentEvents(payment)...)...)
	return order, nil
}

type GetOrderUseCase struct {
	deps usecase.Deps
}

func NewGetOrderUseCase(deps usecase.Deps) *GetOrderUseCase {
	return &GetOrderUseCase{deps: deps}
}

// Execute возвращает заказ участнику сделки.
func (uc *GetOrderUseCase) Execute(ctx context.Context, actorID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.Order, error) {
		return repos.Orders().FindByID(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	if !order.IsParticipant(actorID) {
		return nil, apperror.ErrForbidden
	}
	return order, nil
}

type QueryOrdersUseCase struct {
	deps usecase.Deps
}

func NewQueryOrdersUseCase(deps usecase.Deps) *QueryOrdersUseCase {
	return &QueryOrdersUseCase{deps: deps}
}

func (uc *QueryOrdersUseCase) Execute(ctx context.Context, spec specification.OrderSpec) ([]*entity.Order, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.Order, error) {
		return repos.Orders().FindBySpec(ctx, spec)
	})
}
