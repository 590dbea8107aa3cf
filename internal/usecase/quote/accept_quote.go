package quote

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/unitofwork"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
	"github.com/ignatzorin/atelier-backend/internal/usecase/ledger"
)

// AcceptResult - всё, что изменилось при принятии предложения.
type AcceptResult struct {
	Order    *entity.Order
	Quote    *entity.Quote
	Rejected []*entity.Quote
	Payment  *entity.Payment
}

// AcceptQuoteUseCase принимает предложение одной транзакцией: предложение принято,
// остальные ожидающие отклонены, заказ подтверждён по согласованной цене,
// цена переведена с кошелька клиента в эскроу.
type AcceptQuoteUseCase struct {
	deps       usecase.Deps
	settlement *ledger.Settlement
}

func NewAcceptQuoteUseCase(deps usecase.Deps, settlement *ledger.Settlement) *AcceptQuoteUseCase {
	return &AcceptQuoteUseCase{deps: deps, settlement: settlement}
}

func (uc *AcceptQuoteUseCase) Execute(ctx context.Context, customerID, quoteID uuid.UUID) (*AcceptResult, error) {
	result, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*AcceptResult, error) {
		quote, err := repos.Quotes().FindByID(ctx, quoteID)
		if err != nil {
			return nil, err
		}
		order, err := repos.Orders().FindByID(ctx, quote.OrderID)
		if err != nil {
			return nil, err
		}
		if order.CustomerID != customerID {
			return nil, apperror.ErrForbidden
		}

		now := uc.deps.Now()
		if err := order.Confirm(quote.ID, quote.ProposedPrice, now); err != nil {
			return nil, err
		}
		if err := quote.Accept(now); err != nil {
			return nil, err
		}

		siblings, err := repos.Quotes().FindBySpec(ctx, specification.QuotesForDecision(order.ID))
		if err != nil {
			return nil, err
		}
		rejected := make([]*entity.Quote, 0, len(siblings))
		for _, sibling := range siblings {
			if sibling.ID == quote.ID {
				continue
			}
			if err := sibling.Reject(now); err != nil {
				return nil, err
			}
			if err := repos.Quotes().Update(ctx, sibling); err != nil {
				return nil, err
			}
			rejected = append(rejected, sibling)
		}

		payment, err := uc.settlement.Hold(ctx, repos, order, now)
		if err != nil {
			return nil, err
		}
		if err := repos.Quotes().Update(ctx, quote); err != nil {
			return nil, err
		}
		if err := repos.Orders().Update(ctx, order); err != nil {
			return nil, err
		}
		return &AcceptResult{Order: order, Quote: quote, Rejected: rejected, Payment: payment}, nil
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"quote_id": quoteID, "user_id": customerID})
	if err != nil {
		logger.Failure(log, err, "quote: предложение не принято")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"order_id": result.Order.ID,
		"amount":   result.Order.TotalPrice.String(),
		"rejected": len(result.Rejected),
	}).Info("quote: предложение принято, заказ подтверждён")

	data := map[string]any{"order_id": result.Order.ID, "quote_id": result.Quote.ID}
	events := []notify.Event{{Type: notify.EventQuoteAccepted, UserID: result.Quote.TailorID, Data: data}}
	for _, q := range result.Rejected {
		events = append(events, notify.Event{
			Type:   notify.EventQuoteRejected,
			UserID: q.TailorID,
			Data:   map[string]any{"order_id": q.OrderID, "quote_id": q.ID},
		})
	}
	events = append(events, ledger.PaymentEvents(result.Payment)...)
	uc.deps.Notify(ctx, events...)
	return result, nil
}
