package valueobject

import (
	"slices"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusDisputed   OrderStatus = "disputed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusDisputed},
	OrderStatusDisputed:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	return slices.Contains(orderTransitions[s], newStatus)
}

// IsTerminal: Disputed не терминален, спор может вернуть заказ в Delivered.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsCancellable сообщает, можно ли отменить заказ (только до отправки).
func (s OrderStatus) IsCancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed || s == OrderStatusProcessing
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusRejected:
		return true
	}
	return false
}

type RFQStatus string

const (
	RFQStatusOpen      RFQStatus = "open"
	RFQStatusClosed    RFQStatus = "closed"
	RFQStatusCancelled RFQStatus = "cancelled"
)

func (s RFQStatus) IsValid() bool {
	switch s {
	case RFQStatusOpen, RFQStatusClosed, RFQStatusCancelled:
		return true
	}
	return false
}

type BidStatus string

const (
	BidStatusPending BidStatus = "pending"
	BidStatusWon     BidStatus = "won"
	BidStatusLost    BidStatus = "lost"
)

func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusPending, BidStatusWon, BidStatusLost:
		return true
	}
	return false
}

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusEscalated   DisputeStatus = "escalated"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusRejected    DisputeStatus = "rejected"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview, DisputeStatusResolved, DisputeStatusRejected},
	DisputeStatusUnderReview: {DisputeStatusEscalated, DisputeStatusResolved, DisputeStatusRejected},
	DisputeStatusEscalated:   {DisputeStatusResolved, DisputeStatusRejected},
	DisputeStatusResolved:    {},
	DisputeStatusRejected:    {},
}

func (s DisputeStatus) IsValid() bool {
	_, ok := disputeTransitions[s]
	return ok
}

func (s DisputeStatus) CanTransitionTo(newStatus DisputeStatus) bool {
	return slices.Contains(disputeTransitions[s], newStatus)
}

func (s DisputeStatus) IsTerminal() bool {
	return s == DisputeStatusResolved || s == DisputeStatusRejected
}

func NewDisputeStatus(status string) (DisputeStatus, error) {
	s := DisputeStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}
	return s, nil
}

type PaymentType string

const (
	PaymentTypeCard         PaymentType = "card"
	PaymentTypeWallet       PaymentType = "wallet"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
	PaymentTypeCash         PaymentType = "cash"
	PaymentTypeOther        PaymentType = "other"
)

// ParsePaymentType разбирает способ внешнего платежа. Пустая строка - карта.
func ParsePaymentType(raw string) (PaymentType, error) {
	switch t := PaymentType(raw); t {
	case "":
		return PaymentTypeCard, nil
	case PaymentTypeCard, PaymentTypeBankTransfer, PaymentTypeCash, PaymentTypeOther:
		return t, nil
	default:
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный способ платежа")
	}
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type PaymentKind string

const (
	PaymentKindCharge PaymentKind = "charge"
	PaymentKindRefund PaymentKind = "refund"
	PaymentKindPayout PaymentKind = "payout"

	// Пополнение и вывод проходят мимо заказов.
	PaymentKindDeposit    PaymentKind = "deposit"
	PaymentKindWithdrawal PaymentKind = "withdrawal"
)

type EntryDirection string

const (
	EntryDirectionCredit EntryDirection = "credit"
	EntryDirectionDebit  EntryDirection = "debit"
)

type OrderType string

const (
	OrderTypeCustom     OrderType = "custom"
	OrderTypeAlteration OrderType = "alteration"
	OrderTypeRepair     OrderType = "repair"
	OrderTypeBulk       OrderType = "bulk"
)

func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeCustom, OrderTypeAlteration, OrderTypeRepair, OrderTypeBulk:
		return true
	}
	return false
}

type FulfillmentMethod string

const (
	FulfillmentPickup   FulfillmentMethod = "pickup"
	FulfillmentDelivery FulfillmentMethod = "delivery"
)

func (m FulfillmentMethod) IsValid() bool {
	return m == FulfillmentPickup || m == FulfillmentDelivery
}
