package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
)

// Строки таблиц. Поля сущностей без тегов, поэтому маппинг явный.

type orderRow struct {
	ID                uuid.UUID       `db:"id"`
	OrderNumber       string          `db:"order_number"`
	CustomerID        uuid.UUID       `db:"customer_id"`
	TailorID          uuid.UUID       `db:"tailor_id"`
	Description       string          `db:"description"`
	OrderType         string          `db:"order_type"`
	FulfillmentMethod string          `db:"fulfillment_method"`
	DeliveryAddress   *string         `db:"delivery_address"`
	TotalPrice        decimal.Decimal `db:"total_price"`
	CommissionAmount  decimal.Decimal `db:"commission_amount"`
	Status            string          `db:"status"`
	AcceptedQuoteID   *uuid.UUID      `db:"accepted_quote_id"`
	SourceBidID       *uuid.UUID      `db:"source_bid_id"`
	DueAt             *time.Time      `db:"due_at"`
	ConfirmedAt       *time.Time      `db:"confirmed_at"`
	DeliveredAt       *time.Time      `db:"delivered_at"`
	CancelledAt       *time.Time      `db:"cancelled_at"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
	Version           int64           `db:"version"`
}

var orderMapping = mapping[entity.Order, orderRow]{
	table: "orders",
	columns: []string{
		"id", "order_number", "customer_id", "tailor_id", "description", "order_type",
		"fulfillment_method", "delivery_address", "total_price", "commission_amount", "status",
		"accepted_quote_id", "source_bid_id", "due_at", "confirmed_at", "delivered_at",
		"cancelled_at", "created_at", "updated_at", "version",
	},
	values: func(o *entity.Order) map[string]any {
		return map[string]any{
			"id":                 o.ID,
			"order_number":       o.OrderNumber,
			"customer_id":        o.CustomerID,
			"tailor_id":          o.TailorID,
			"description":        o.Description,
			"order_type":         string(o.OrderType),
			"fulfillment_method": string(o.FulfillmentMethod),
			"delivery_address":   o.DeliveryAddress,
			"total_price":        o.TotalPrice,
			"commission_amount":  o.CommissionAmount,
			"status":             string(o.Status),
			"accepted_quote_id":  o.AcceptedQuoteID,
			"source_bid_id":      o.SourceBidID,
			"due_at":             o.DueAt,
			"confirmed_at":       o.ConfirmedAt,
			"delivered_at":       o.DeliveredAt,
			"cancelled_at":       o.CancelledAt,
			"created_at":         o.CreatedAt,
			"updated_at":         o.UpdatedAt,
		}
	},
	fromRow: func(r *orderRow) *entity.Order {
		return &entity.Order{
			ID:                r.ID,
			OrderNumber:       r.OrderNumber,
			CustomerID:        r.CustomerID,
			TailorID:          r.TailorID,
			Description:       r.Description,
			OrderType:         valueobject.OrderType(r.OrderType),
			FulfillmentMethod: valueobject.FulfillmentMethod(r.FulfillmentMethod),
			DeliveryAddress:   r.DeliveryAddress,
			TotalPrice:        r.TotalPrice,
			CommissionAmount:  r.CommissionAmount,
			Status:            valueobject.OrderStatus(r.Status),
			AcceptedQuoteID:   r.AcceptedQuoteID,
			SourceBidID:       r.SourceBidID,
			DueAt:             utcPtr(r.DueAt),
			ConfirmedAt:       utcPtr(r.ConfirmedAt),
			DeliveredAt:       utcPtr(r.DeliveredAt),
			CancelledAt:       utcPtr(r.CancelledAt),
			CreatedAt:         r.CreatedAt.UTC(),
			UpdatedAt:         r.UpdatedAt.UTC(),
			Version:           r.Version,
		}
	},
}

type orderItemRow struct {
	ID        uuid.UUID       `db:"id"`
	OrderID   uuid.UUID       `db:"order_id"`
	Position  int             `db:"position"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

type quoteRow struct {
	ID            uuid.UUID       `db:"id"`
	OrderID       uuid.UUID       `db:"order_id"`
	TailorID      uuid.UUID       `db:"tailor_id"`
	ProposedPrice decimal.Decimal `db:"proposed_price"`
	EstimatedDays int             `db:"estimated_days"`
	Note          string          `db:"note"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	DecidedAt     *time.Time      `db:"decided_at"`
	Version       int64           `db:"version"`
}

var quoteMapping = mapping[entity.Quote, quoteRow]{
	table: "quotes",
	columns: []string{
		"id", "order_id", "tailor_id", "proposed_price", "estimated_days", "note",
		"status", "created_at", "decided_at", "version",
	},
	values: func(q *entity.Quote) map[string]any {
		return map[string]any{
			"id":             q.ID,
			"order_id":       q.OrderID,
			"tailor_id":      q.TailorID,
			"proposed_price": q.ProposedPrice,
			"estimated_days": q.EstimatedDays,
			"note":           q.Note,
			"status":         string(q.Status),
			"created_at":     q.CreatedAt,
			"decided_at":     q.DecidedAt,
		}
	},
	fromRow: func(r *quoteRow) *entity.Quote {
		return &entity.Quote{
			ID:            r.ID,
			OrderID:       r.OrderID,
			TailorID:      r.TailorID,
			ProposedPrice: r.ProposedPrice,
			EstimatedDays: r.EstimatedDays,
			Note:          r.Note,
			Status:        valueobject.QuoteStatus(r.Status),
			CreatedAt:     r.CreatedAt.UTC(),
			DecidedAt:     utcPtr(r.DecidedAt),
			Version:       r.Version,
		}
	},
}

type rfqRow struct {
	ID              uuid.UUID       `db:"id"`
	ReferenceNumber string          `db:"reference_number"`
	BuyerID         uuid.UUID       `db:"buyer_id"`
	Title           string          `db:"title"`
	Description     string          `db:"description"`
	Quantity        int             `db:"quantity"`
	Budget          decimal.Decimal `db:"budget"`
	Deadline        time.Time       `db:"deadline"`
	Status          string          `db:"status"`
	WinningBidID    *uuid.UUID      `db:"winning_bid_id"`
	CreatedAt       time.Time       `db:"created_at"`
	ClosedAt        *time.Time      `db:"closed_at"`
	Version         int64           `db:"version"`
}

var rfqMapping = mapping[entity.RFQ, rfqRow]{
	table: "rfqs",
	columns: []string{
		"id", "reference_number", "buyer_id", "title", "description", "quantity", "budget",
		"deadline", "status", "winning_bid_id", "created_at", "closed_at", "version",
	},
	values: func(r *entity.RFQ) map[string]any {
		return map[string]any{
			"id":               r.ID,
			"reference_number": r.ReferenceNumber,
			"buyer_id":         r.BuyerID,
			"title":            r.Title,
			"description":      r.Description,
			"quantity":         r.Quantity,
			"budget":           r.Budget,
			"deadline":         r.Deadline,
			"status":           string(r.Status),
			"winning_bid_id":   r.WinningBidID,
			"created_at":       r.CreatedAt,
			"closed_at":        r.ClosedAt,
		}
	},
	fromRow: func(r *rfqRow) *entity.RFQ {
		return &entity.RFQ{
			ID:              r.ID,
			ReferenceNumber: r.ReferenceNumber,
			BuyerID:         r.BuyerID,
			Title:           r.Title,
			Description:     r.Description,
			Quantity:        r.Quantity,
			Budget:          r.Budget,
			Deadline:        r.Deadline.UTC(),
			Status:          valueobject.RFQStatus(r.Status),
			WinningBidID:    r.WinningBidID,
			CreatedAt:       r.CreatedAt.UTC(),
			ClosedAt:        utcPtr(r.ClosedAt),
			Version:         r.Version,
		}
	},
}

type bidRow struct {
	ID                uuid.UUID       `db:"id"`
	RFQID             uuid.UUID       `db:"rfq_id"`
	TailorID          uuid.UUID       `db:"tailor_id"`
	Amount            decimal.Decimal `db:"amount"`
	EstimatedDelivery time.Time       `db:"estimated_delivery"`
	Note              string          `db:"note"`
	Status            string          `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	Version           int64           `db:"version"`
}

var bidMapping = mapping[entity.RFQBid, bidRow]{
	table: "rfq_bids",
	columns: []string{
		"id", "rfq_id", "tailor_id", "amount", "estimated_delivery", "note", "status",
		"created_at", "version",
	},
	values: func(b *entity.RFQBid) map[string]any {
		return map[string]any{
			"id":                 b.ID,
			"rfq_id":             b.RFQID,
			"tailor_id":          b.TailorID,
			"amount":             b.Amount,
			"estimated_delivery": b.EstimatedDelivery,
			"note":               b.Note,
			"status":             string(b.Status),
			"created_at":         b.CreatedAt,
		}
	},
	fromRow: func(r *bidRow) *entity.RFQBid {
		return &entity.RFQBid{
			ID:                r.ID,
			RFQID:             r.RFQID,
			TailorID:          r.TailorID,
			Amount:            r.Amount,
			EstimatedDelivery: r.EstimatedDelivery.UTC(),
			Note:              r.Note,
			Status:            valueobject.BidStatus(r.Status),
			CreatedAt:         r.CreatedAt.UTC(),
			Version:           r.Version,
		}
	},
}

// paymentRow: у пополнений и выводов order_id и tailor_id равны NULL.
type paymentRow struct {
	ID                    uuid.UUID       `db:"id"`
	OrderID               *uuid.UUID      `db:"order_id"`
	CustomerID            uuid.UUID       `db:"customer_id"`
	TailorID              *uuid.UUID      `db:"tailor_id"`
	Amount                decimal.Decimal `db:"amount"`
	Type                  string          `db:"payment_type"`
	Status                string          `db:"status"`
	Kind                  string          `db:"kind"`
	ProviderTransactionID *string         `db:"provider_transaction_id"`
	CreatedAt             time.Time       `db:"created_at"`
	Version               int64           `db:"version"`
}

var paymentMapping = mapping[entity.Payment, paymentRow]{
	table: "payments",
	columns: []string{
		"id", "order_id", "customer_id", "tailor_id", "amount", "payment_type", "status",
		"kind", "provider_transaction_id", "created_at", "version",
	},
	values: func(p *entity.Payment) map[string]any {
		return map[string]any{
			"id":                      p.ID,
			"order_id":                nullableID(p.OrderID),
			"customer_id":             p.CustomerID,
			"tailor_id":               nullableID(p.TailorID),
			"amount":                  p.Amount,
			"payment_type":            string(p.Type),
			"status":                  string(p.Status),
			"kind":                    string(p.Kind),
			"provider_transaction_id": p.ProviderTransactionID,
			"created_at":              p.CreatedAt,
		}
	},
	fromRow: func(r *paymentRow) *entity.Payment {
		return &entity.Payment{
			ID:                    r.ID,
			OrderID:               lo.FromPtr(r.OrderID),
			CustomerID:            r.CustomerID,
			TailorID:              lo.FromPtr(r.TailorID),
			Amount:                r.Amount,
			Type:                  valueobject.PaymentType(r.Type),
			Status:                valueobject.PaymentStatus(r.Status),
			Kind:                  valueobject.PaymentKind(r.Kind),
			ProviderTransactionID: r.ProviderTransactionID,
			CreatedAt:             r.CreatedAt.UTC(),
			Version:               r.Version,
		}
	},
}

type disputeRow struct {
	ID              uuid.UUID       `db:"id"`
	OrderID         uuid.UUID       `db:"order_id"`
	OpenedByID      uuid.UUID       `db:"opened_by_id"`
	Reason          string          `db:"reason"`
	Description     string          `db:"description"`
	Status          string          `db:"status"`
	ResolutionNotes *string         `db:"resolution_notes"`
	ResolvedByID    *uuid.UUID      `db:"resolved_by_id"`
	RefundAmount    decimal.Decimal `db:"refund_amount"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	ResolvedAt      *time.Time      `db:"resolved_at"`
	Version         int64           `db:"version"`
}

var disputeMapping = mapping[entity.Dispute, disputeRow]{
	table: "disputes",
	columns: []string{
		"id", "order_id", "opened_by_id", "reason", "description", "status", "resolution_notes",
		"resolved_by_id", "refund_amount", "created_at", "updated_at", "resolved_at", "version",
	},
	values: func(d *entity.Dispute) map[string]any {
		return map[string]any{
			"id":               d.ID,
			"order_id":         d.OrderID,
			"opened_by_id":     d.OpenedByID,
			"reason":           d.Reason,
			"description":      d.Description,
			"status":           string(d.Status),
			"resolution_notes": d.ResolutionNotes,
			"resolved_by_id":   d.ResolvedByID,
			"refund_amount":    d.RefundAmount,
			"created_at":       d.CreatedAt,
			"updated_at":       d.UpdatedAt,
			"resolved_at":      d.ResolvedAt,
		}
	},
	fromRow: func(r *disputeRow) *entity.Dispute {
		return &entity.Dispute{
			ID:              r.ID,
			OrderID:         r.OrderID,
			OpenedByID:      r.OpenedByID,
			Reason:          r.Reason,
			Description:     r.Description,
			Status:          valueobject.DisputeStatus(r.Status),
			ResolutionNotes: r.ResolutionNotes,
			ResolvedByID:    r.ResolvedByID,
			RefundAmount:    r.RefundAmount,
			CreatedAt:       r.CreatedAt.UTC(),
			UpdatedAt:       r.UpdatedAt.UTC(),
			ResolvedAt:      utcPtr(r.ResolvedAt),
			Version:         r.Version,
		}
	},
}

type tailorRow struct {
	ID              uuid.UUID  `db:"id"`
	UserID          uuid.UUID  `db:"user_id"`
	ShopName        string     `db:"shop_name"`
	FullName        string     `db:"full_name"`
	Bio             string     `db:"bio"`
	City            string     `db:"city"`
	Specialization  string     `db:"specialization"`
	ExperienceYears int        `db:"experience_years"`
	AverageRating   float64    `db:"average_rating"`
	ReviewCount     int        `db:"review_count"`
	IsVerified      bool       `db:"is_verified"`
	VerifiedAt      *time.Time `db:"verified_at"`
	CreatedAt       time.Time  `db:"created_at"`
	Version         int64      `db:"version"`
}

var tailorMapping = mapping[entity.TailorProfile, tailorRow]{
	table: "tailor_profiles",
	columns: []string{
		"id", "user_id", "shop_name", "full_name", "bio", "city", "specialization",
		"experience_years", "average_rating", "review_count", "is_verified", "verified_at",
		"created_at", "version",
	},
	values: func(t *entity.TailorProfile) map[string]any {
		return map[string]any{
			"id":               t.ID,
			"user_id":          t.UserID,
			"shop_name":        t.ShopName,
			"full_name":        t.FullName,
			"bio":              t.Bio,
			"city":             t.City,
			"specialization":   t.Specialization,
			"experience_years": t.ExperienceYears,
			"average_rating":   t.AverageRating,
			"review_count":     t.ReviewCount,
			"is_verified":      t.IsVerified,
			"verified_at":      t.VerifiedAt,
			"created_at":       t.CreatedAt,
		}
	},
	fromRow: func(r *tailorRow) *entity.TailorProfile {
		return &entity.TailorProfile{
			ID:              r.ID,
			UserID:          r.UserID,
			ShopName:        r.ShopName,
			FullName:        r.FullName,
			Bio:             r.Bio,
			City:            r.City,
			Specialization:  r.Specialization,
			ExperienceYears: r.ExperienceYears,
			AverageRating:   r.AverageRating,
			ReviewCount:     r.ReviewCount,
			IsVerified:      r.IsVerified,
			VerifiedAt:      utcPtr(r.VerifiedAt),
			CreatedAt:       r.CreatedAt.UTC(),
			Version:         r.Version,
		}
	},
}

type walletEntryRow struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	Seq           int64           `db:"seq"`
	Direction     string          `db:"direction"`
	Amount        decimal.Decimal `db:"amount"`
	CounterpartID *uuid.UUID      `db:"counterpart_id"`
	OrderID       *uuid.UUID      `db:"order_id"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r walletEntryRow) entry() entity.WalletEntry {
	return entity.WalletEntry{
		ID:            r.ID,
		UserID:        r.UserID,
		Direction:     valueobject.EntryDirection(r.Direction),
		Amount:        r.Amount,
		CounterpartID: r.CounterpartID,
		OrderID:       r.OrderID,
		Description:   r.Description,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// nullableID пишет uuid.Nil как NULL.
func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
