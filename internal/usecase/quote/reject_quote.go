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
)

// RejectQuoteUseCase - клиент отклоняет предложение, заказ остаётся открытым.
type RejectQuoteUseCase struct {
	deps usecase.Deps
}

func NewRejectQuoteUseCase(deps usecase.Deps) *RejectQuoteUseCase {
	return &RejectQuoteUseCase{deps: deps}
}

func (uc *RejectQuoteUseCase) Execute(ctx context.Context, customerID, quoteID uuid.UUID) (*entity.Quote, error) {
	quote, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.Quote, error) {
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
		if err := quote.Reject(uc.deps.Now()); err != nil {
			return nil, err
		}
		if err := repos.Quotes().Update(ctx, quote); err != nil {
			return nil, err
		}
		return quote, nil
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"quote_id": quoteID, "user_id": customerID})
	if err != nil {
		logger.Failure(log, err, "quote: не удалось отклонить предложение")
		return nil, err
	}
	log.Info("quote: предложение отклонено")

	uc.deps.Notify(ctx, notify.Event{
		Type:   notify.EventQuoteRejected,
		UserID: quote.TailorID,
		Data:   map[string]any{"order_id": quote.OrderID, "quote_id": quote.ID},
	})
	return quote, nil
}

// WithdrawQuoteUseCase - портной отзывает своё ожидающее предложение.
type WithdrawQuoteUseCase struct {
	deps usecase.Deps
}

func NewWithdrawQuoteUseCase(deps usecase.Deps) *WithdrawQuoteUseCase {
	return &WithdrawQuoteUseCase{deps: deps}
}

func (uc *WithdrawQuoteUseCase) Execute(ctx context.Context, tailorID, quoteID uuid.UUID) error {
	err := unitofwork.Run(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) error {
		quote, err := repos.Quotes().FindByID(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote.TailorID != tailorID {
			return apperror.ErrForbidden
		}
		if !quote.IsPending() {
			return apperror.ErrQuoteNotPending
		}
		return repos.Quotes().Remove(ctx, quote.ID)
	})
	if err != nil {
		logger.Failure(uc.deps.Log.WithField("quote_id", quoteID), err, "quote: не удалось отозвать предложение")
	}
	return err
}

// ListQuotesForDecisionUseCase возвращает ожидающие предложения по заказу
// в порядке выбора: цена по возрастанию, затем срок.
type ListQuotesForDecisionUseCase struct {
	deps usecase.Deps
}

func NewListQuotesForDecisionUseCase(deps usecase.Deps) *ListQuotesForDecisionUseCase {
	return &ListQuotesForDecisionUseCase{deps: deps}
}

func (uc *ListQuotesForDecisionUseCase) Execute(ctx context.Context, actorID, orderID uuid.UUID) ([]*entity.Quote, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.Quote, error) {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !order.IsParticipant(actorID) {
			return nil, apperror.ErrForbidden
		}
		return repos.Quotes().FindBySpec(ctx, specification.QuotesForDecision(orderID))
	})
}

type QueryQuotesUseCase struct {
	deps usecase.Deps
}

func NewQueryQuotesUseCase(deps usecase.Deps) *QueryQuotesUseCase {
	return &QueryQuotesUseCase{deps: deps}
}

func (uc *QueryQuotesUseCase) Execute(ctx context.Context, spec specification.QuoteSpec) ([]*entity.Quote, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.Quote, error) {
		return repos.Quotes().FindBySpec(ctx, spec)
	})
}
