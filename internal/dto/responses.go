package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ListResponse - страница выборки.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func NewList[S any, T any](items []S, convert func(S) T) ListResponse[T] {
	out := lo.Map(items, func(v S, _ int) T { return convert(v) })
	return ListResponse[T]{Items: out, Count: len(out)}
}

type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       string              `json:"order_number"`
	CustomerID        uuid.UUID           `json:"customer_id"`
	TailorID          uuid.UUID           `json:"tailor_id"`
	Description       string              `json:"description"`
	OrderType         string              `json:"order_type"`
	FulfillmentMethod string              `json:"fulfillment_method"`
	DeliveryAddress   *string             `json:"delivery_address,omitempty"`
	TotalPrice        decimal.Decimal     `json:"total_price"`
	CommissionAmount  decimal.Decimal     `json:"commission_amount"`
	Status            string              `json:"status"`
	AcceptedQuoteID   *uuid.UUID          `json:"accepted_quote_id,omitempty"`
	SourceBidID       *uuid.UUID          `json:"source_bid_id,omitempty"`
	DueAt             *time.Time          `json:"due_at,omitempty"`
	ConfirmedAt       *time.Time          `json:"confirmed_at,omitempty"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Items             []OrderItemResponse `json:"items"`
}

func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		TailorID:          o.TailorID,
		Description:       o.Description,
		OrderType:         string(o.OrderType),
		FulfillmentMethod: string(o.FulfillmentMethod),
		DeliveryAddress:   o.DeliveryAddress,
		TotalPrice:        o.TotalPrice,
		CommissionAmount:  o.CommissionAmount,
		Status:            string(o.Status),
		AcceptedQuoteID:   o.AcceptedQuoteID,
		SourceBidID:       o.SourceBidID,
		DueAt:             o.DueAt,
		ConfirmedAt:       o.ConfirmedAt,
		DeliveredAt:       o.DeliveredAt,
		CancelledAt:       o.CancelledAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Items: lo.Map(o.Items, func(i entity.OrderItem, _ int) OrderItemResponse {
			return OrderItemResponse{ID: i.ID, Name: i.Name, Quantity: i.Quantity, UnitPrice: i.UnitPrice}
		}),
	}
}

type QuoteResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	TailorID      uuid.UUID       `json:"tailor_id"`
	ProposedPrice decimal.Decimal `json:"proposed_price"`
	EstimatedDays int             `json:"estimated_days"`
	Note          string          `json:"note,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
}

func NewQuoteResponse(q *entity.Quote) QuoteResponse {
	return QuoteResponse{
		ID:            q.ID,
		OrderID:       q.OrderID,
		TailorID:      q.TailorID,
		ProposedPrice: q.ProposedPrice,
		EstimatedDays: q.EstimatedDays,
		Note:          q.Note,
		Status:        string(q.Status),
		CreatedAt:     q.CreatedAt,
		DecidedAt:     q.DecidedAt,
	}
}

type PaymentResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           *uuid.UUID      `json:"order_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Kind              string          `json:"kind"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	ProviderReference string          `json:"provider_reference,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func NewPaymentResponse(p *entity.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	resp := &PaymentResponse{
		ID:                p.ID,
		Amount:            p.Amount,
		Kind:              string(p.Kind),
		Type:              string(p.Type),
		Status:            string(p.Status),
		ProviderReference: lo.FromPtr(p.ProviderTransactionID),
		CreatedAt:         p.CreatedAt,
	}
	if p.HasOrder() {
		resp.OrderID = lo.ToPtr(p.OrderID)
	}
	return resp
}

// WalletPaymentResponse - элемент списка пополнений и выводов.
func WalletPaymentResponse(p *entity.Payment) PaymentResponse {
	return *NewPaymentResponse(p)
}

type AcceptQuoteResponse struct {
	Order    OrderResponse    `json:"order"`
	Quote    QuoteResponse    `json:"quote"`
	Rejected []QuoteResponse  `json:"rejected"`
	Payment  *PaymentResponse `json:"payment,omitempty"`
}

type RFQResponse struct {
	ID              uuid.UUID       `json:"id"`
	ReferenceNumber string          `json:"reference_number"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Quantity        int             `json:"quantity"`
	Budget          decimal.Decimal `json:"budget"`
	Deadline        time.Time       `json:"deadline"`
	Status          string          `json:"status"`
	WinningBidID    *uuid.UUID      `json:"winning_bid_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
}

func NewRFQResponse(r *entity.RFQ) RFQResponse {
	return RFQResponse{
		ID:              r.ID,
		ReferenceNumber: r.ReferenceNumber,
		BuyerID:         r.BuyerID,
		Title:           r.Title,
		Description:     r.Description,
		Quantity:        r.Quantity,
		Budget:          r.Budget,
		Deadline:        r.Deadline,
		Status:          string(r.Status),
		WinningBidID:    r.WinningBidID,
		CreatedAt:       r.CreatedAt,
		ClosedAt:        r.ClosedAt,
	}
}

type BidResponse struct {
	ID                uuid.UUID       `json:"id"`
	RFQID             uuid.UUID       `json:"rfq_id"`
	TailorID          uuid.UUID       `json:"tailor_id"`
	Amount            decimal.Decimal `json:"amount"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	Note              string          `json:"note,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

func NewBidResponse(b *entity.RFQBid) BidResponse {
	return BidResponse{
		ID:                b.ID,
		RFQID:             b.RFQID,
		TailorID:          b.TailorID,
		Amount:            b.Amount,
		EstimatedDelivery: b.EstimatedDelivery,
		Note:              b.Note,
		Status:            string(b.Status),
		CreatedAt:         b.CreatedAt,
	}
}

type SelectWinnerResponse struct {
	RFQ     RFQResponse      `json:"rfq"`
	Winner  BidResponse      `json:"winner"`
	Order   OrderResponse    `json:"order"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type DisputeResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"order_id"`
	OpenedByID      uuid.UUID       `json:"opened_by_id"`
	Reason          string          `json:"reason"`
	Description     string          `json:"description,omitempty"`
	Status          string          `json:"status"`
	ResolutionNotes *string         `json:"resolution_notes,omitempty"`
	ResolvedByID    *uuid.UUID      `json:"resolved_by_id,omitempty"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
}

func NewDisputeResponse(d *entity.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:              d.ID,
		OrderID:         d.OrderID,
		OpenedByID:      d.OpenedByID,
		Reason:          d.Reason,
		Description:     d.Description,
		Status:          string(d.Status),
		ResolutionNotes: d.ResolutionNotes,
		ResolvedByID:    d.ResolvedByID,
		RefundAmount:    d.RefundAmount,
		CreatedAt:       d.CreatedAt,
		ResolvedAt:      d.ResolvedAt,
	}
}

type ResolveDisputeResponse struct {
	Dispute DisputeResponse  `json:"dispute"`
	Order   OrderResponse    `json:"order"`
	Refund  *PaymentResponse `json:"refund,omitempty"`
}

type BalanceResponse struct {
	UserID  uuid.UUID       `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

type WalletEntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	CounterpartID *uuid.UUID      `json:"counterpart_id,omitempty"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewWalletEntryResponse(e entity.WalletEntry) WalletEntryResponse {
	return WalletEntryResponse{
		ID:            e.ID,
		Direction:     string(e.Direction),
		Amount:        e.Amount,
		CounterpartID: e.CounterpartID,
		OrderID:       e.OrderID,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

type WalletMovementResponse struct {
	Entry   WalletEntryResponse `json:"entry"`
	Payment *PaymentResponse    `json:"payment"`
}

type TransferResponse struct {
	Debit  WalletEntryResponse `json:"debit"`
	Credit WalletEntryResponse `json:"credit"`
}

type TailorResponse struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	ShopName        string     `json:"shop_name"`
	FullName        string     `json:"full_name,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	City            string     `json:"city,omitempty"`
	Specialization  string     `json:"specialization,omitempty"`
	ExperienceYears int        `json:"experience_years"`
	AverageRating   float64    `json:"average_rating"`
	ReviewCount     int        `json:"review_count"`
	IsVerified      bool       `json:"is_verified"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
}

func NewTailorResponse(t *entity.TailorProfile) TailorResponse {
	return TailorResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		ShopName:        t.ShopName,
		FullName:        t.FullName,
		Bio:             t.Bio,
		City:            t.City,
		Specialization:  t.Specialization,
		ExperienceYears: t.ExperienceYears,
		AverageRating:   t.AverageRating,
		ReviewCount:     t.ReviewCount,
		IsVerified:      t.IsVerified,
		VerifiedAt:      t.VerifiedAt,
	}
}
