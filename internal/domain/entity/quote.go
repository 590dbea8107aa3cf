package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Quote - предложение портного по прямому заказу.
type Quote struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	TailorID      uuid.UUID
	ProposedPrice decimal.Decimal
	EstimatedDays int
	Note          string
	Status        valueobject.QuoteStatus
	CreatedAt     time.Time
	DecidedAt     *time.Time
	Version       int64
}

func NewQuote(orderID, tailorID uuid.UUID, price decimal.Decimal, estimatedDays int, note string, now time.Time) (*Quote, error) {
	if orderID == uuid.Nil || tailorID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказ и портной обязательны")
	}
	amount, err := valueobject.NewAmount(price)
	if err != nil {
		return nil, err
	}
	if estimatedDays <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок выполнения должен быть положительным")
	}

	return &Quote{
		ID:            uuid.New(),
		OrderID:       orderID,
		TailorID:      tailorID,
		ProposedPrice: amount,
		EstimatedDays: estimatedDays,
		Note:          strings.TrimSpace(note),
		Status:        valueobject.QuoteStatusPending,
		CreatedAt:     now,
	}, nil
}

func (q *Quote) IsAccepted() bool {
	return q.Status == valueobject.QuoteStatusAccepted
}

func (q *Quote) IsPending() bool {
	return q.Status == valueobject.QuoteStatusPending
}

// Accept терминален: после отклонения повторно принять нельзя.
func (q *Quote) Accept(now time.Time) error {
	if !q.IsPending() {
		return apperror.ErrQuoteNotPending
	}
	q.Status = valueobject.QuoteStatusAccepted
	q.DecidedAt = &now
	return nil
}

func (q *Quote) Reject(now time.Time) error {
	if !q.IsPending() {
		return apperror.ErrQuoteNotPending
	}
	q.Status = valueobject.QuoteStatusRejected
	q.DecidedAt = &now
	return nil
}

func (q *Quote) EntityID() uuid.UUID { return q.ID }

func (q *Quote) EntityVersion() int64 { return q.Version }

func (q *Quote) SetEntityVersion(v int64) { q.Version = v }

func (q *Quote) Clone() *Quote {
	c := *q
	c.DecidedAt = clonePtr(q.DecidedAt)
	return &c
}
