package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type Dispute struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	OpenedByID      uuid.UUID
	Reason          string
	Description     string
	Status          valueobject.DisputeStatus
	ResolutionNotes *string
	ResolvedByID    *uuid.UUID
	RefundAmount    decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
	Version         int64
}

func NewDispute(orderID, openedByID uuid.UUID, reason, description string, now time.Time) (*Dispute, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина спора обязательна")
	}
	return &Dispute{
		ID:           uuid.New(),
		OrderID:      orderID,
		OpenedByID:   openedByID,
		Reason:       strings.TrimSpace(reason),
		Description:  strings.TrimSpace(description),
		Status:       valueobject.DisputeStatusOpen,
		RefundAmount: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (d *Dispute) IsActive() bool {
	return !d.Status.IsTerminal()
}

func (d *Dispute) transition(to valueobject.DisputeStatus, now time.Time) error {
	if !d.Status.CanTransitionTo(to) {
		return apperror.NewTransitionError("dispute", string(d.Status), string(to))
	}
	d.Status = to
	d.UpdatedAt = now
	return nil
}

func (d *Dispute) StartReview(now time.Time) error {
	return d.transition(valueobject.DisputeStatusUnderReview, now)
}

func (d *Dispute) Escalate(now time.Time) error {
	return d.transition(valueobject.DisputeStatusEscalated, now)
}

// Resolve закрывает спор решением администратора. Resolved требует
// положительного возврата, Rejected допускает только нулевой.
func (d *Dispute) Resolve(adminID uuid.UUID, decision valueobject.DisputeStatus, notes string, refund decimal.Decimal, now time.Time) error {
	if decision != valueobject.DisputeStatusResolved && decision != valueobject.DisputeStatusRejected {
		return apperror.New(apperror.ErrCodeValidation, "решение должно быть resolved или rejected")
	}
	if adminID == uuid.Nil {
		return apperror.New(apperror.ErrCodeValidation, "администратор обязателен")
	}
	if strings.TrimSpace(notes) == "" {
		return apperror.New(apperror.ErrCodeValidation, "описание решения обязательно")
	}
	if refund.IsNegative() {
		return apperror.New(apperror.ErrCodeValidation, "сумма возврата не может быть отрицательной")
	}
	if decision == valueobject.DisputeStatusRejected && !refund.IsZero() {
		return apperror.New(apperror.ErrCodeValidation, "отклонённый спор не предполагает возврата")
	}
	if decision == valueobject.DisputeStatusResolved && !refund.IsPositive() {
		return apperror.New(apperror.ErrCodeValidation, "решение в пользу клиента требует суммы возврата")
	}
	if err := d.transition(decision, now); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(notes)
	d.ResolutionNotes = &trimmed
	d.ResolvedByID = &adminID
	d.RefundAmount = refund
	d.ResolvedAt = &now
	return nil
}

func (d *Dispute) EntityID() uuid.UUID { return d.ID }

func (d *Dispute) EntityVersion() int64 { return d.Version }

func (d *Dispute) SetEntityVersion(v int64) { d.Version = v }

func (d *Dispute) Clone() *Dispute {
	c := *d
	c.ResolutionNotes = clonePtr(d.ResolutionNotes)
	c.ResolvedByID = clonePtr(d.ResolvedByID)
	c.ResolvedAt = clonePtr(d.ResolvedAt)
	return &c
}
