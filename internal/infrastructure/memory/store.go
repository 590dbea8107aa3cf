// Package memory - хранилище в памяти процесса с транзакциями UnitOfWork.
// Изменения транзакции копятся отдельно и применяются при Commit целиком,
// после проверки версий всех затронутых строк.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	orders   *table[entity.Order, *entity.Order]
	quotes   *table[entity.Quote, *entity.Quote]
	rfqs     *table[entity.RFQ, *entity.RFQ]
	bids     *table[entity.RFQBid, *entity.RFQBid]
	payments *table[entity.Payment, *entity.Payment]
	disputes *table[entity.Dispute, *entity.Dispute]
	tailors  *table[entity.TailorProfile, *entity.TailorProfile]
	wallets  map[uuid.UUID]*entity.Wallet
}

type Option func(*Store)

// WithClock задаёт источник времени для новых кошельков.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		orders:   newTable[entity.Order](),
		quotes:   newTable[entity.Quote](),
		rfqs:     newTable[entity.RFQ](),
		bids:     newTable[entity.RFQBid](),
		payments: newTable[entity.Payment](),
		disputes: newTable[entity.Dispute](),
		tailors:  newTable[entity.TailorProfile](),
		wallets:  make(map[uuid.UUID]*entity.Wallet),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.UnitOfWork = (*Store)(nil)

func (s *Store) Begin(ctx context.Context) (repository.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sc := &scope{store: s}
	sc.orders = newStagedTable(sc, s.orders, apperror.ErrOrderNotFound)
	sc.quotes = newStagedTable(sc, s.quotes, apperror.ErrQuoteNotFound)
	sc.rfqs = newStagedTable(sc, s.rfqs, apperror.ErrRFQNotFound)
	sc.bids = newStagedTable(sc, s.bids, apperror.ErrBidNotFound)
	sc.payments = newStagedTable(sc, s.payments, apperror.ErrPaymentNotFound)
	sc.disputes = newStagedTable(sc, s.disputes, apperror.ErrDisputeNotFound)
	sc.tailors = newStagedTable(sc, s.tailors, apperror.ErrTailorNotFound)
	sc.wallets = newStagedWallets(sc, s.wallets, s.now)
	return sc, nil
}

type stage interface {
	validate() error
	apply()
}

// scope не предназначен для использования из нескольких горутин.
type scope struct {
	store  *Store
	closed atomic.Bool

	orders   *stagedTable[entity.Order, *entity.Order]
	quotes   *stagedTable[entity.Quote, *entity.Quote]
	rfqs     *stagedTable[entity.RFQ, *entity.RFQ]
	bids     *stagedTable[entity.RFQBid, *entity.RFQBid]
	payments *stagedTable[entity.Payment, *entity.Payment]
	disputes *stagedTable[entity.Dispute, *entity.Dispute]
	tailors  *stagedTable[entity.TailorProfile, *entity.TailorProfile]
	wallets  *stagedWallets
}

func (s *scope) check() error {
	if s.closed.Load() {
		return apperror.ErrScopeClosed
	}
	return nil
}

func (s *scope) Orders() repository.OrderRepository { return s.orders }
func (s *scope) Quotes() repository.QuoteRepository { return s.quotes }
func (s *scope) RFQs() repository.RFQRepository { return s.rfqs }
func (s *scope) Bids() repository.BidRepository { return s.bids }
func (s *scope) Payments() repository.PaymentRepository { return s.payments }
func (s *scope) Disputes() repository.DisputeRepository { return s.disputes }
func (s *scope) Tailors() repository.TailorRepository { return s.tailors }
func (s *scope) Wallets() repository.WalletRepository { return s.wallets }

func (s *scope) stages() []stage {
	return []stage{s.orders, s.quotes, s.rfqs, s.bids, s.payments, s.disputes, s.tailors, s.wallets}
}

// Commit проверяет версии всех изменённых строк и применяет изменения
// под одной блокировкой: читатели не видят частично применённую транзакцию.
func (s *scope) Commit(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return apperror.ErrScopeClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	stages := s.stages()
	for _, st := range stages {
		if err := st.validate(); err != nil {
			return err
		}
	}
	for _, st := range stages {
		st.apply()
	}
	return nil
}

// Rollback отбрасывает изменения. Повторный вызов ничего не делает.
func (s *scope) Rollback(context.Context) error {
	s.closed.Store(true)
	return nil
}
