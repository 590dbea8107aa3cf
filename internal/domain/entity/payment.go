package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Payment - запись о движении денег по заказу. Записи только добавляются.
type Payment struct {
	ID                    uuid.UUID
	OrderID               uuid.UUID
	CustomerID            uuid.UUID
	TailorID              uuid.UUID
	Amount                decimal.Decimal
	Type                  valueobject.PaymentType
	Status                valueobject.PaymentStatus
	Kind                  valueobject.PaymentKind
	ProviderTransactionID *string
	CreatedAt             time.Time
	Version               int64
}

func NewPayment(order *Order, amount decimal.Decimal, kind valueobject.PaymentKind, paymentType valueobject.PaymentType, now time.Time) (*Payment, error) {
	value, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}
	switch kind {
	case valueobject.PaymentKindCharge, valueobject.PaymentKindRefund, valueobject.PaymentKindPayout:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный вид платежа")
	}

	return &Payment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		TailorID:   order.TailorID,
		Amount:     value,
		Type:       paymentType,
		Status:     valueobject.PaymentStatusCompleted,
		Kind:       kind,
		CreatedAt:  now,
	}, nil
}

// NewWalletPayment фиксирует пополнение или вывод средств пользователя.
// Такой платёж не привязан к заказу: OrderID и TailorID пусты.
func NewWalletPayment(userID uuid.UUID, amount decimal.Decimal, kind valueobject.PaymentKind, paymentType valueobject.PaymentType, providerRef string, now time.Time) (*Payment, error) {
	if userID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "пользователь обязателен")
	}
	value, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}
	switch kind {
	case valueobject.PaymentKindDeposit, valueobject.PaymentKindWithdrawal:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный вид платежа")
	}

	payment := &Payment{
		ID:         uuid.New(),
		CustomerID: userID,
		Amount:     value,
		Type:       paymentType,
		Status:     valueobject.PaymentStatusCompleted,
		Kind:       kind,
		CreatedAt:  now,
	}
	if ref := strings.TrimSpace(providerRef); ref != "" {
		payment.ProviderTransactionID = &ref
	}
	return payment, nil
}

// HasOrder сообщает, относится ли платёж к заказу.
func (p *Payment) HasOrder() bool { return p.OrderID != uuid.Nil }

// NetPaid - оплачено клиентом за вычетом возвратов (только завершённые платежи).
func NetPaid(payments []*Payment) decimal.Decimal {
	return lo.Reduce(payments, func(acc decimal.Decimal, p *Payment, _ int) decimal.Decimal {
		if p.Status != valueobject.PaymentStatusCompleted {
			return acc
		}
		switch p.Kind {
		case valueobject.PaymentKindCharge:
			return acc.Add(p.Amount)
		case valueobject.PaymentKindRefund:
			return acc.Sub(p.Amount)
		}
		return acc
	}, decimal.Zero)
}

func (p *Payment) EntityID() uuid.UUID { return p.ID }

func (p *Payment) EntityVersion() int64 { return p.Version }

func (p *Payment) SetEntityVersion(v int64) { p.Version = v }

func (p *Payment) Clone() *Payment {
	c := *p
	c.ProviderTransactionID = clonePtr(p.ProviderTransactionID)
	return &c
}
