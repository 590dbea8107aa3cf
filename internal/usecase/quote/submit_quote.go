package quote

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/unitofwork"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
)

type SubmitQuoteInput struct {
	TailorID      uuid.UUID
	OrderID       uuid.UUID
	ProposedPrice decimal.Decimal
	EstimatedDays int
	Note          string
}

// SubmitQuoteUseCase - портной предлагает цену и срок по ожидающему заказу.
// Портной может прислать несколько вариантов, клиент выберет один.
type SubmitQuoteUseCase struct {
	deps usecase.Deps
}

func NewSubmitQuoteUseCase(deps usecase.Deps) *SubmitQuoteUseCase {
	return &SubmitQuoteUseCase{deps: deps}
}

func (uc *SubmitQuoteUseCase) Execute(ctx context.Context, input SubmitQuoteInput) (*entity.Quote, error) {
	quote, err := entity.NewQuote(input.OrderID, input.TailorID, input.ProposedPrice, input.EstimatedDays, input.Note, uc.deps.Now())
	if err != nil {
		return nil, err
	}

	var customerID uuid.UUID
	err = unitofwork.Run(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) error {
		order, err := repos.Orders().FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.TailorID != input.TailorID {
			return apperror.ErrForbidden
		}
		if order.AcceptedQuoteID != nil {
			return apperror.ErrQuoteAlreadyAccepted
		}
		if order.Status != valueobject.OrderStatusPending {
			return fmt.Errorf("%w: статус %s", apperror.ErrOrderNotPending, order.Status)
		}
		customerID = order.CustomerID
		// Запись заказа поднимает версию: параллельное принятие другого
		// предложения и это предложение не зафиксируются вместе.
		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}
		return repos.Quotes().Add(ctx, quote)
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"order_id": input.OrderID, "user_id": input.TailorID})
	if err != nil {
		logger.Failure(log, err, "quote: предложение не принято к рассмотрению")
		return nil, err
	}
	log.WithField("amount", quote.ProposedPrice.String()).Info("quote: предложение отправлено")

	uc.deps.Notify(ctx, notify.Event{
		Type:   notify.EventQuoteSubmitted,
		UserID: customerID,
		Data:   map[string]any{"order_id": quote.OrderID, "quote_id": quote.ID, "price": quote.ProposedPrice.String()},
	})
	return quote, nil
}
