package entity

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type Order struct {
	ID                uuid.UUID
	OrderNumber       string
	CustomerID        uuid.UUID
	TailorID          uuid.UUID
	Description       string
	OrderType         valueobject.OrderType
	FulfillmentMethod valueobject.FulfillmentMethod
	DeliveryAddress   *string
	TotalPrice        decimal.Decimal
	CommissionAmount  decimal.Decimal
	Status            valueobject.OrderStatus
	AcceptedQuoteID   *uuid.UUID
	SourceBidID       *uuid.UUID
	DueAt             *time.Time
	ConfirmedAt       *time.Time
	DeliveredAt       *time.Time
	CancelledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64

	Items []OrderItem
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total возвращает стоимость позиции.
func (i OrderItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func NewOrderItem(name string, quantity int, unitPrice decimal.Decimal) (OrderItem, error) {
	if strings.TrimSpace(name) == "" {
		return OrderItem{}, apperror.New(apperror.ErrCodeValidation, "название позиции обязательно")
	}
	if quantity <= 0 {
		return OrderItem{}, apperror.New(apperror.ErrCodeValidation, "количество должно быть больше нуля")
	}
	price, err := valueobject.NewNonNegativeAmount(unitPrice)
	if err != nil {
		return OrderItem{}, err
	}
	return OrderItem{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Quantity:  quantity,
		UnitPrice: price,
	}, nil
}

// NewOrderParams описывает новый заказ клиента портному.
type NewOrderParams struct {
	CustomerID        uuid.UUID
	TailorID          uuid.UUID
	Description       string
	OrderType         valueobject.OrderType
	FulfillmentMethod valueobject.FulfillmentMethod
	DeliveryAddress   *string
	DueAt             *time.Time
	Items             []OrderItem
}

func NewOrder(p NewOrderParams, now time.Time) (*Order, error) {
	if p.CustomerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "клиент обязателен")
	}
	if p.TailorID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "портной обязателен")
	}
	if p.CustomerID == p.TailorID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя оформить заказ самому себе")
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание заказа обязательно")
	}
	if p.OrderType == "" {
		p.OrderType = valueobject.OrderTypeCustom
	}
	if !p.OrderType.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип заказа")
	}
	if p.FulfillmentMethod == "" {
		p.FulfillmentMethod = valueobject.FulfillmentPickup
	}
	if !p.FulfillmentMethod.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный способ получения")
	}
	if p.FulfillmentMethod == valueobject.FulfillmentDelivery && strings.TrimSpace(lo.FromPtr(p.DeliveryAddress)) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "для доставки нужен адрес")
	}
	if p.DueAt != nil && p.DueAt.Before(now) {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок не может быть в прошлом")
	}

	id := uuid.New()
	items := make([]OrderItem, len(p.Items))
	for i, item := range p.Items {
		item.OrderID = id
		items[i] = item
	}

	return &Order{
		ID:                id,
		OrderNumber:       NewOrderNumber(now),
		CustomerID:        p.CustomerID,
		TailorID:          p.TailorID,
		Description:       strings.TrimSpace(p.Description),
		OrderType:         p.OrderType,
		FulfillmentMethod: p.FulfillmentMethod,
		DeliveryAddress:   p.DeliveryAddress,
		TotalPrice:        ItemsTotal(items),
		CommissionAmount:  decimal.Zero,
		Status:            valueobject.OrderStatusPending,
		DueAt:             p.DueAt,
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             items,
	}, nil
}

// NewBulkOrder создаёт подтверждённый заказ по выигравшей ставке запроса котировок.
func NewBulkOrder(rfq *RFQ, bid *RFQBid, now time.Time) (*Order, error) {
	item, err := NewOrderItem(fmt.Sprintf("%s, %d шт.", rfq.Title, rfq.Quantity), 1, bid.Amount)
	if err != nil {
		return nil, err
	}
	description := rfq.Description
	if strings.TrimSpace(description) == "" {
		description = rfq.Title
	}
	order, err := NewOrder(NewOrderParams{
		CustomerID:  rfq.BuyerID,
		TailorID:    bid.TailorID,
		Description: description,
		OrderType:   valueobject.OrderTypeBulk,
		Items:       []OrderItem{item},
	}, now)
	if err != nil {
		return nil, err
	}
	// Срок из ставки переносится как есть, даже если он уже прошёл.
	due := bid.EstimatedDelivery
	order.DueAt = &due
	if err := order.transition(valueobject.OrderStatusConfirmed, now); err != nil {
		return nil, err
	}
	order.SourceBidID = &bid.ID
	order.ConfirmedAt = &now
	return order, nil
}

// NewOrderNumber выдаёт человекочитаемый номер, сортируемый по времени.
func NewOrderNumber(now time.Time) string {
	return "ORD-" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// ItemsTotal суммирует позиции заказа.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	return lo.Reduce(items, func(acc decimal.Decimal, item OrderItem, _ int) decimal.Decimal {
		return acc.Add(item.Total())
	}, decimal.Zero)
}

func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.CustomerID == userID || o.TailorID == userID
}

func (o *Order) transition(to valueobject.OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(to) {
		return apperror.NewTransitionError("order", string(o.Status), string(to))
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// Confirm фиксирует согласованную цену принятого предложения.
func (o *Order) Confirm(quoteID uuid.UUID, price decimal.Decimal, now time.Time) error {
	if o.AcceptedQuoteID != nil {
		return apperror.ErrQuoteAlreadyAccepted
	}
	if err := o.transition(valueobject.OrderStatusConfirmed, now); err != nil {
		return err
	}
	o.AcceptedQuoteID = &quoteID
	o.TotalPrice = price
	o.ConfirmedAt = &now
	return nil
}

// Advance продвигает заказ по цепочке Confirmed -> Processing -> Shipped -> Delivered.
func (o *Order) Advance(to valueobject.OrderStatus, now time.Time) error {
	switch to {
	case valueobject.OrderStatusProcessing, valueobject.OrderStatusShipped, valueobject.OrderStatusDelivered:
	default:
		return apperror.NewTransitionError("order", string(o.Status), string(to))
	}
	if o.Status == valueobject.OrderStatusDisputed {
		return apperror.NewTransitionError("order", string(o.Status), string(to))
	}
	if err := o.transition(to, now); err != nil {
		return err
	}
	if to == valueobject.OrderStatusDelivered {
		o.DeliveredAt = &now
	}
	return nil
}

// Cancel отменяет заказ до отправки.
func (o *Order) Cancel(now time.Time) error {
	if !o.Status.IsCancellable() {
		return apperror.NewTransitionError("order", string(o.Status), string(valueobject.OrderStatusCancelled))
	}
	if err := o.transition(valueobject.OrderStatusCancelled, now); err != nil {
		return err
	}
	o.CancelledAt = &now
	return nil
}

// OpenDispute переводит доставленный заказ в спор.
func (o *Order) OpenDispute(now time.Time) error {
	return o.transition(valueobject.OrderStatusDisputed, now)
}

// CloseDispute завершает спор: возвращает заказ в Delivered или отменяет его.
func (o *Order) CloseDispute(cancel bool, now time.Time) error {
	if o.Status != valueobject.OrderStatusDisputed {
		target := valueobject.OrderStatusDelivered
		if cancel {
			target = valueobject.OrderStatusCancelled
		}
		return apperror.NewTransitionError("order", string(o.Status), string(target))
	}
	if !cancel {
		return o.transition(valueobject.OrderStatusDelivered, now)
	}
	if err := o.transition(valueobject.OrderStatusCancelled, now); err != nil {
		return err
	}
	o.CancelledAt = &now
	return nil
}

// TailorNet - сумма портному после удержания комиссии.
func (o *Order) TailorNet() decimal.Decimal {
	return o.TotalPrice.Sub(o.CommissionAmount)
}

func (o *Order) EntityID() uuid.UUID { return o.ID }

func (o *Order) EntityVersion() int64 { return o.Version }

func (o *Order) SetEntityVersion(v int64) { o.Version = v }

func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.DeliveryAddress = clonePtr(o.DeliveryAddress)
	c.AcceptedQuoteID = clonePtr(o.AcceptedQuoteID)
	c.SourceBidID = clonePtr(o.SourceBidID)
	c.DueAt = clonePtr(o.DueAt)
	c.ConfirmedAt = clonePtr(o.ConfirmedAt)
	c.DeliveredAt = clonePtr(o.DeliveredAt)
	c.CancelledAt = clonePtr(o.CancelledAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
