package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Суммы принимаются строкой или числом, decimal разбирает оба варианта.

type OrderItemRequest struct {
	Name      string          `json:"name" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderRequest struct {
	TailorID          uuid.UUID          `json:"tailor_id" binding:"required"`
	Description       string             `json:"description" binding:"required"`
	OrderType         string             `json:"order_type"`
	FulfillmentMethod string             `json:"fulfillment_method"`
	DeliveryAddress   *string            `json:"delivery_address"`
	DueAt             *time.Time         `json:"due_at"`
	Items             []OrderItemRequest `json:"items" binding:"dive"`
}

type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

type SubmitQuoteRequest struct {
	ProposedPrice decimal.Decimal `json:"proposed_price"`
	EstimatedDays int             `json:"estimated_days" binding:"required,min=1"`
	Note          string          `json:"note" binding:"max=2000"`
}

type CreateRFQRequest struct {
	Title       string          `json:"title" binding:"required,max=200"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	Budget      decimal.Decimal `json:"budget"`
	Deadline    time.Time       `json:"deadline" binding:"required"`
}

type SubmitBidRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	EstimatedDelivery time.Time       `json:"estimated_delivery" binding:"required"`
	Note              string          `json:"note" binding:"max=2000"`
}

type OpenDisputeRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

type ResolveDisputeRequest struct {
	Decision string          `json:"decision" binding:"required,oneof=resolved rejected"`
	Notes    string          `json:"notes" binding:"required"`
	Refund   decimal.Decimal `json:"refund"`
}

type WalletAmountRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description" binding:"max=500"`
	PaymentType       string          `json:"payment_type"`
	ProviderReference string          `json:"provider_reference" binding:"max=200"`
}

type TransferRequest struct {
	ToUserID    uuid.UUID       `json:"to_user_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

type RegisterTailorRequest struct {
	ShopName        string `json:"shop_name" binding:"required,max=200"`
	FullName        string `json:"full_name"`
	Bio             string `json:"bio"`
	City            string `json:"city"`
	Specialization  string `json:"specialization"`
	ExperienceYears int    `json:"experience_years" binding:"min=0"`
}
