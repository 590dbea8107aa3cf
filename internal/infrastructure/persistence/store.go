// Package persistence - хранилище PostgreSQL с транзакциями UnitOfWork.
// Конкурентные записи разрешаются оптимистично: каждая строка несёт
// версию, а журнал кошелька - счётчик записей.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

type Option func(*Store)

// WithClock задаёт источник времени для новых кошельков.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.UnitOfWork = (*Store)(nil)

func (s *Store) Begin(ctx context.Context) (repository.Scope, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, mapError(err, "начало транзакции")
	}
	return &scope{
		tx:       tx,
		orders:   newOrderTable(tx),
		quotes:   newSQLTable[entity.Quote, quoteRow, *entity.Quote](tx, quoteMapping, apperror.ErrQuoteNotFound),
		rfqs:     newSQLTable[entity.RFQ, rfqRow, *entity.RFQ](tx, rfqMapping, apperror.ErrRFQNotFound),
		bids:     newSQLTable[entity.RFQBid, bidRow, *entity.RFQBid](tx, bidMapping, apperror.ErrBidNotFound),
		payments: newSQLTable[entity.Payment, paymentRow, *entity.Payment](tx, paymentMapping, apperror.ErrPaymentNotFound),
		disputes: newSQLTable[entity.Dispute, disputeRow, *entity.Dispute](tx, disputeMapping, apperror.ErrDisputeNotFound),
		tailors:  newSQLTable[entity.TailorProfile, tailorRow, *entity.TailorProfile](tx, tailorMapping, apperror.ErrTailorNotFound),
		wallets:  &walletTable{tx: tx, now: s.now},
	}, nil
}

type scope struct {
	tx *sqlx.Tx

	orders   *orderTable
	quotes   *sqlTable[entity.Quote, quoteRow, *entity.Quote]
	rfqs     *sqlTable[entity.RFQ, rfqRow, *entity.RFQ]
	bids     *sqlTable[entity.RFQBid, bidRow, *entity.RFQBid]
	payments *sqlTable[entity.Payment, paymentRow, *entity.Payment]
	disputes *sqlTable[entity.Dispute, disputeRow, *entity.Dispute]
	tailors  *sqlTable[entity.TailorProfile, tailorRow, *entity.TailorProfile]
	wallets  *walletTable
}

func (s *scope) Orders() repository.OrderRepository     { return s.orders }
func (s *scope) Quotes() repository.QuoteRepository     { return s.quotes }
func (s *scope) RFQs() repository.RFQRepository         { return s.rfqs }
func (s *scope) Bids() repository.BidRepository         { return s.bids }
func (s *scope) Payments() repository.PaymentRepository { return s.payments }
func (s *scope) Disputes() repository.DisputeRepository { return s.disputes }
func (s *scope) Tailors() repository.TailorRepository   { return s.tailors }
func (s *scope) Wallets() repository.WalletRepository   { return s.wallets }

func (s *scope) Commit(context.Context) error {
	if err := s.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return apperror.ErrScopeClosed
		}
		return mapError(err, "фиксация транзакции")
	}
	return nil
}

// Rollback повторно ничего не делает.
func (s *scope) Rollback(context.Context) error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return mapError(err, "откат транзакции")
	}
	return nil
}
