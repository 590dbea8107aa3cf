package specification

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
)

type (
	QuoteSpec   = Spec[*entity.Quote]
	BidSpec     = Spec[*entity.RFQBid]
	PaymentSpec = Spec[*entity.Payment]
	DisputeSpec = Spec[*entity.Dispute]
	RFQSpec     = Spec[*entity.RFQ]
)

// quoteDecisionOrder: дешевле первыми, при равной цене - быстрее первыми.
var quoteDecisionOrder = ThenBy(
	ByDecimal(func(q *entity.Quote) decimal.Decimal { return q.ProposedPrice }),
	By(func(q *entity.Quote) int { return q.EstimatedDays }),
)

// QuotesForOrder - все предложения по заказу в порядке принятия решения.
func QuotesForOrder(orderID uuid.UUID) QuoteSpec {
	return New[*entity.Quote](nil).
		Key("order_id", orderID, func(q *entity.Quote) bool { return q.OrderID == orderID }).
		OrderByAsc(quoteDecisionOrder)
}

// QuotesForDecision - ожидающие предложения по заказу.
func QuotesForDecision(orderID uuid.UUID) QuoteSpec {
	return QuotesForOrder(orderID).Where((*entity.Quote).IsPending)
}

func QuotesByTailor(tailorID uuid.UUID) QuoteSpec {
	return New[*entity.Quote](nil).
		Key("tailor_id", tailorID, func(q *entity.Quote) bool { return q.TailorID == tailorID }).
		OrderByDesc(func(a, b *entity.Quote) int { return a.CreatedAt.Compare(b.CreatedAt) })
}

// BidsForRFQ - ставки по запросу: дешевле первыми, затем раньше поставка.
func BidsForRFQ(rfqID uuid.UUID) BidSpec {
	return New[*entity.RFQBid](nil).
		Key("rfq_id", rfqID, func(b *entity.RFQBid) bool { return b.RFQID == rfqID }).
		OrderByAsc(ThenBy(
			ByDecimal(func(b *entity.RFQBid) decimal.Decimal { return b.Amount }),
			func(a, b *entity.RFQBid) int { return a.EstimatedDelivery.Compare(b.EstimatedDelivery) },
		))
}

// RFQsByBuyer - запросы заказчика, ближайший срок первым.
func RFQsByBuyer(buyerID uuid.UUID) RFQSpec {
	return New[*entity.RFQ](nil).
		Key("buyer_id", buyerID, func(r *entity.RFQ) bool { return r.BuyerID == buyerID }).
		OrderByAsc(func(a, b *entity.RFQ) int { return a.Deadline.Compare(b.Deadline) })
}

func PaymentsForOrder(orderID uuid.UUID) PaymentSpec {
	return New[*entity.Payment](nil).
		Key("order_id", orderID, func(p *entity.Payment) bool { return p.OrderID == orderID }).
		OrderByAsc(func(a, b *entity.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
}

// WalletPayments - пополнения и выводы пользователя, новые первыми.
func WalletPayments(userID uuid.UUID) PaymentSpec {
	return New[*entity.Payment](nil).
		Key("customer_id", userID, func(p *entity.Payment) bool { return p.CustomerID == userID }).
		Where(func(p *entity.Payment) bool { return !p.HasOrder() }).
		OrderByDesc(func(a, b *entity.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
}

func DisputesForOrder(orderID uuid.UUID) DisputeSpec {
	return New[*entity.Dispute](nil).
		Key("order_id", orderID, func(d *entity.Dispute) bool { return d.OrderID == orderID }).
		OrderByAsc(func(a, b *entity.Dispute) int { return a.CreatedAt.Compare(b.CreatedAt) })
}

func ActiveDisputesForOrder(orderID uuid.UUID) DisputeSpec {
	return DisputesForOrder(orderID).Where((*entity.Dispute).IsActive)
}
