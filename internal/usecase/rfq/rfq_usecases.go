package rfq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
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

type CreateRFQInput struct {
	BuyerID     uuid.UUID
	Title       string
	Description string
	Quantity    int
	Budget      decimal.Decimal
	Deadline    time.Time
}

type CreateRFQUseCase struct {
	deps usecase.Deps
}

func NewCreateRFQUseCase(deps usecase.Deps) *CreateRFQUseCase {
	return &CreateRFQUseCase{deps: deps}
}

func (uc *CreateRFQUseCase) Execute(ctx context.Context, input CreateRFQInput) (*entity.RFQ, error) {
	rfq, err := entity.NewRFQ(entity.NewRFQParams{
		BuyerID:     input.BuyerID,
		Title:       input.Title,
		Description: input.Description,
		Quantity:    input.Quantity,
		Budget:      input.Budget,
		Deadline:    input.Deadline,
	}, uc.deps.Now())
	if err != nil {
		return nil, err
	}

	err = unitofwork.Run(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) error {
		return repos.RFQs().Add(ctx, rfq)
	})
	if err != nil {
		logger.Failure(uc.deps.Log.WithField("user_id", input.BuyerID), err, "rfq: не удалось создать запрос")
		return nil, err
	}
	uc.deps.Log.WithFields(logrus.Fields{"rfq_id": rfq.ID, "reference": rfq.ReferenceNumber}).Info("rfq: запрос создан")
	return rfq, nil
}

type SubmitBidInput struct {
	TailorID          uuid.UUID
	RFQID             uuid.UUID
	Amount            decimal.Decimal
	EstimatedDelivery time.Time
	Note              string
}

// SubmitBidUseCase принимает ставку по открытому запросу до истечения срока.
// От одного портного по запросу принимается одна ставка.
type SubmitBidUseCase struct {
	deps usecase.Deps
}

func NewSubmitBidUseCase(deps usecase.Deps) *SubmitBidUseCase {
	return &SubmitBidUseCase{deps: deps}
}

func (uc *SubmitBidUseCase) Execute(ctx context.Context, input SubmitBidInput) (*entity.RFQBid, error) {
	now := uc.deps.Now()
	bid, err := entity.NewRFQBid(input.RFQID, input.TailorID, input.Amount, input.EstimatedDelivery, input.Note, now)
	if err != nil {
		return nil, err
	}

	var buyerID uuid.UUID
	err = unitofwork.Run(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) error {
		rfq, err := repos.RFQs().FindByID(ctx, input.RFQID)
		if err != nil {
			return err
		}
		if rfq.BuyerID == input.TailorID {
			return apperror.New(apperror.ErrCodeValidation, "нельзя делать ставку по своему запросу")
		}
		if err := rfq.AcceptsBids(now); err != nil {
			return err
		}

		existing, err := repos.Bids().FindBySpec(ctx, specification.BidsForRFQ(rfq.ID))
		if err != nil {
			return err
		}
		if lo.ContainsBy(existing, func(b *entity.RFQBid) bool { return b.TailorID == input.TailorID }) {
			return apperror.ErrBidAlreadyExists
		}

		buyerID = rfq.BuyerID
		// Запись запроса поднимает версию: ставка не зафиксируется вместе
		// с параллельным выбором победителя или отменой.
		if err := repos.RFQs().Update(ctx, rfq); err != nil {
			return err
		}
		return repos.Bids().Add(ctx, bid)
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"rfq_id": input.RFQID, "user_id": input.TailorID})
	if err != nil {
		logger.Failure(log, err, "rfq: ставка отклонена")
		return nil, err
	}
	log.WithField("amount", bid.Amount.String()).Info("rfq: ставка принята")

	uc.deps.Notify(ctx, notify.Event{
		Type:   notify.EventBidSubmitted,
		UserID: buyerID,
		Data:   map[string]any{"rfq_id": bid.RFQID, "bid_id": bid.ID, "amount": bid.Amount.String()},
	})
	return bid, nil
}

// SelectWinnerResult - итог выбора победителя.
type SelectWinnerResult struct {
	RFQ     *entity.RFQ
	Winner  *entity.RFQBid
	Losers  []*entity.RFQBid
	Order   *entity.Order
	Payment *entity.Payment
}

// SelectWinnerUseCase закрывает запрос выбранной ставкой. Выбор победителя
// равносилен принятию предложения: создаётся подтверждённый заказ и
// сумма ставки переводится в эскроу.
type SelectWinnerUseCase struct {
	deps       usecase.Deps
	settlement *ledger.Settlement
}

func NewSelectWinnerUseCase(deps usecase.Deps, settlement *ledger.Settlement) *SelectWinnerUseCase {
	return &SelectWinnerUseCase{deps: deps, settlement: settlement}
}

func (uc *SelectWinnerUseCase) Execute(ctx context.Context, buyerID, bidID uuid.UUID) (*SelectWinnerResult, error) {
	result, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*SelectWinnerResult, error) {
		winner, err := repos.Bids().FindByID(ctx, bidID)
		if err != nil {
			return nil, err
		}
		rfq, err := repos.RFQs().FindByID(ctx, winner.RFQID)
		if err != nil {
			return nil, err
		}
		if rfq.BuyerID != buyerID {
			return nil, apperror.ErrForbidden
		}

		now := uc.deps.Now()
		if err := rfq.Close(winner.ID, now); err != nil {
			return nil, err
		}
		if err := winner.MarkWon(); err != nil {
			return nil, err
		}

		bids, err := repos.Bids().FindBySpec(ctx, specification.BidsForRFQ(rfq.ID))
		if err != nil {
			return nil, err
		}
		losers := make([]*entity.RFQBid, 0, len(bids))
		for _, b := range bids {
			if b.ID == winner.ID {
				continue
			}
			if err := b.MarkLost(); err != nil {
				return nil, err
			}
			if err := repos.Bids().Update(ctx, b); err != nil {
				return nil, err
			}
			losers = append(losers, b)
		}

		order, err := entity.NewBulkOrder(rfq, winner, now)
		if err != nil {
			return nil, err
		}
		if err := repos.Orders().Add(ctx, order); err != nil {
			return nil, err
		}
		payment, err := uc.settlement.Hold(ctx, repos, order, now)
		if err != nil {
			return nil, err
		}

		if err := repos.Bids().Update(ctx, winner); err != nil {
			return nil, err
		}
		if err := repos.RFQs().Update(ctx, rfq); err != nil {
			return nil, err
		}
		return &SelectWinnerResult{RFQ: rfq, Winner: winner, Losers: losers, Order: order, Payment: payment}, nil
	})

	log := uc.deps.Log.WithFields(logrus.Fields{"bid_id": bidID, "user_id": buyerID})
	if err != nil {
		logger.Failure(log, err, "rfq: победитель не выбран")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"rfq_id":   result.RFQ.ID,
		"order_id": result.Order.ID,
		"amount":   result.Winner.Amount.String(),
	}).Info("rfq: запрос закрыт")

	events := []notify.Event{{
		Type:   notify.EventRFQClosed,
		UserID: result.Winner.TailorID,
		Data:   map[string]any{"rfq_id": result.RFQ.ID, "won": true, "order_id": result.Order.ID},
	}}
	for _, b := range result.Losers {
		events = append(events, notify.Event{
			Type:   notify.EventRFQClosed,
			UserID: b.TailorID,
			Data:   map[string]any{"rfq_id": result.RFQ.ID, "won": false},
		})
	}
	events = append(events, ledger.PaymentEvents(result.Payment)...)
	uc.deps.Notify(ctx, events...)
	return result, nil
}

// CancelRFQUseCase - заказчик снимает открытый запрос, все ставки проигрывают.
type CancelRFQUseCase struct {
	deps usecase.Deps
}

func NewCancelRFQUseCase(deps usecase.Deps) *CancelRFQUseCase {
	return &CancelRFQUseCase{deps: deps}
}

func (uc *CancelRFQUseCase) Execute(ctx context.Context, buyerID, rfqID uuid.UUID) (*entity.RFQ, error) {
	rfq, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.RFQ, error) {
		rfq, err := repos.RFQs().FindByID(ctx, rfqID)
		if err != nil {
			return nil, err
		}
		if rfq.BuyerID != buyerID {
			return nil, apperror.ErrForbidden
		}
		if err := rfq.Cancel(uc.deps.Now()); err != nil {
			return nil, err
		}
		bids, err := repos.Bids().FindBySpec(ctx, specification.BidsForRFQ(rfq.ID))
		if err != nil {
			return nil, err
		}
		for _, b := range bids {
			if err := b.MarkLost(); err != nil {
				return nil, fmt.Errorf("ставка %s: %w", b.ID, err)
			}
			if err := repos.Bids().Update(ctx, b); err != nil {
				return nil, err
			}
		}
		if err := repos.RFQs().Update(ctx, rfq); err != nil {
			return nil, err
		}
		return rfq, nil
	})
	if err != nil {
		logger.Failure(uc.deps.Log.WithField("rfq_id", rfqID), err, "rfq: не удалось отменить запрос")
		return nil, err
	}
	uc.deps.Log.WithField("rfq_id", rfqID).Info("rfq: запрос отменён")
	return rfq, nil
}

// ListBidsUseCase возвращает ставки заказчику в порядке выбора:
// сумма по возрастанию, затем дата поставки.
type ListBidsUseCase struct {
	deps usecase.Deps
}

func NewListBidsUseCase(deps usecase.Deps) *ListBidsUseCase {
	return &ListBidsUseCase{deps: deps}
}

func (uc *ListBidsUseCase) Execute(ctx context.Context, buyerID, rfqID uuid.UUID) ([]*entity.RFQBid, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.RFQBid, error) {
		rfq, err := repos.RFQs().FindByID(ctx, rfqID)
		if err != nil {
			return nil, err
		}
		if rfq.BuyerID != buyerID {
			return nil, apperror.ErrForbidden
		}
		return repos.Bids().FindBySpec(ctx, specification.BidsForRFQ(rfqID))
	})
}

type QueryRFQsUseCase struct {
	deps usecase.Deps
}

func NewQueryRFQsUseCase(deps usecase.Deps) *QueryRFQsUseCase {
	return &QueryRFQsUseCase{deps: deps}
}

func (uc *QueryRFQsUseCase) Execute(ctx context.Context, spec specification.RFQSpec) ([]*entity.RFQ, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.RFQ, error) {
		return repos.RFQs().FindBySpec(ctx, spec)
	})
}
