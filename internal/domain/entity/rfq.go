package entity

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// RFQ - запрос котировок корпоративного клиента.
type RFQ struct {
	ID              uuid.UUID
	ReferenceNumber string
	BuyerID         uuid.UUID
	Title           string
	Description     string
	Quantity        int
	Budget          decimal.Decimal
	Deadline        time.Time
	Status          valueobject.RFQStatus
	WinningBidID    *uuid.UUID
	CreatedAt       time.Time
	ClosedAt        *time.Time
	Version         int64
}

type NewRFQParams struct {
	BuyerID     uuid.UUID
	Title       string
	Description string
	Quantity    int
	Budget      decimal.Decimal
	Deadline    time.Time
}

func NewRFQ(p NewRFQParams, now time.Time) (*RFQ, error) {
	if p.BuyerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказчик обязателен")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название запроса обязательно")
	}
	if p.Quantity <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "количество должно быть больше нуля")
	}
	budget, err := valueobject.NewNonNegativeAmount(p.Budget)
	if err != nil {
		return nil, err
	}
	if !p.Deadline.After(now) {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок приёма ставок должен быть в будущем")
	}

	return &RFQ{
		ID:              uuid.New(),
		ReferenceNumber: "RFQ-" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		BuyerID:         p.BuyerID,
		Title:           strings.TrimSpace(p.Title),
		Description:     strings.TrimSpace(p.Description),
		Quantity:        p.Quantity,
		Budget:          budget,
		Deadline:        p.Deadline,
		Status:          valueobject.RFQStatusOpen,
		CreatedAt:       now,
	}, nil
}

// AcceptsBids проверяет, что запрос открыт и срок не истёк.
func (r *RFQ) AcceptsBids(now time.Time) error {
	if r.Status != valueobject.RFQStatusOpen {
		return apperror.ErrRFQNotOpen
	}
	if now.After(r.Deadline) {
		return apperror.ErrDeadlineExpired
	}
	return nil
}

// Close фиксирует победителя и закрывает запрос.
func (r *RFQ) Close(winningBidID uuid.UUID, now time.Time) error {
	if r.Status != valueobject.RFQStatusOpen {
		return apperror.NewTransitionError("rfq", string(r.Status), string(valueobject.RFQStatusClosed))
	}
	r.Status = valueobject.RFQStatusClosed
	r.WinningBidID = &winningBidID
	r.ClosedAt = &now
	return nil
}

func (r *RFQ) Cancel(now time.Time) error {
	if r.Status != valueobject.RFQStatusOpen {
		return apperror.NewTransitionError("rfq", string(r.Status), string(valueobject.RFQStatusCancelled))
	}
	r.Status = valueobject.RFQStatusCancelled
	r.ClosedAt = &now
	return nil
}

func (r *RFQ) EntityID() uuid.UUID { return r.ID }

func (r *RFQ) EntityVersion() int64 { return r.Version }

func (r *RFQ) SetEntityVersion(v int64) { r.Version = v }

func (r *RFQ) Clone() *RFQ {
	c := *r
	c.WinningBidID = clonePtr(r.WinningBidID)
	c.ClosedAt = clonePtr(r.ClosedAt)
	return &c
}

// RFQBid - ставка портного по запросу котировок.
type RFQBid struct {
	ID                uuid.UUID
	RFQID             uuid.UUID
	TailorID          uuid.UUID
	Amount            decimal.Decimal
	EstimatedDelivery time.Time
	Note              string
	Status            valueobject.BidStatus
	CreatedAt         time.Time
	Version           int64
}

func NewRFQBid(rfqID, tailorID uuid.UUID, amount decimal.Decimal, estimatedDelivery time.Time, note string, now time.Time) (*RFQBid, error) {
	if rfqID == uuid.Nil || tailorID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "запрос и портной обязательны")
	}
	value, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}
	if !estimatedDelivery.After(now) {
		return nil, apperror.New(apperror.ErrCodeValidation, "дата поставки должна быть в будущем")
	}

	return &RFQBid{
		ID:                uuid.New(),
		RFQID:             rfqID,
		TailorID:          tailorID,
		Amount:            value,
		EstimatedDelivery: estimatedDelivery,
		Note:              strings.TrimSpace(note),
		Status:            valueobject.BidStatusPending,
		CreatedAt:         now,
	}, nil
}

func (b *RFQBid) MarkWon() error {
	if b.Status != valueobject.BidStatusPending {
		return apperror.NewTransitionError("bid", string(b.Status), string(valueobject.BidStatusWon))
	}
	b.Status = valueobject.BidStatusWon
	return nil
}

func (b *RFQBid) MarkLost() error {
	if b.Status != valueobject.BidStatusPending {
		return apperror.NewTransitionError("bid", string(b.Status), string(valueobject.BidStatusLost))
	}
	b.Status = valueobject.BidStatusLost
	return nil
}

func (b *RFQBid) EntityID() uuid.UUID { return b.ID }

func (b *RFQBid) EntityVersion() int64 { return b.Version }

func (b *RFQBid) SetEntityVersion(v int64) { b.Version = v }

func (b *RFQBid) Clone() *RFQBid {
	c := *b
	return &c
}
