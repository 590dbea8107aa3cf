package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/unitofwork"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
)

type CreateOrderInput struct {
	CustomerID        uuid.UUID
	TailorID          uuid.UUID
	Description       string
	OrderType         valueobject.OrderType
	FulfillmentMethod valueobject.FulfillmentMethod
	DeliveryAddress   *string
	DueAt             *time.Time
	Items             []ItemInput
}

type ItemInput struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateOrderUseCase struct {
	deps usecase.Deps
}

func NewCreateOrderUseCase(deps usecase.Deps) *CreateOrderUseCase {
	return &CreateOrderUseCase{deps: deps}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, input CreateOrderInput) (*entity.Order, error) {
	items := make([]entity.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		item, err := entity.NewOrderItem(in.Name, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, err := entity.NewOrder(entity.NewOrderParams{
		CustomerID:        input.CustomerID,
		TailorID:          input.TailorID,
		Description:       input.Description,
		OrderType:         input.OrderType,
		FulfillmentMethod: input.FulfillmentMethod,
		DeliveryAddress:   input.DeliveryAddress,
		DueAt:             input.DueAt,
		Items:             items,
	}, uc.deps.Now())
	if err != nil {
		return nil, err
	}

	err = unitofwork.Run(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Orders().Add(ctx, order)
	})
	if err != nil {
		logger.Failure(uc.deps.Log.WithField("customer_id", input.CustomerID), err, "order: не удалось создать заказ")
		return nil, err
	}

	uc.deps.Log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	}).Info("order: заказ создан")

	uc.deps.Notify(ctx, notify.Event{
		Type:   notify.EventOrderCreated,
		UserID: order.TailorID,
		Data:   map[string]any{"order_id": order.ID, "order_number": order.OrderNumber},
	})
	return order, nil
}
