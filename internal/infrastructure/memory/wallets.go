package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// walletView - снимок кошелька внутри транзакции.
type walletView struct {
	wallet *entity.Wallet
	// observed - число записей журнала при первом чтении, -1 если кошелька не было.
	observed int
	appended []entity.WalletEntry
}

type stagedWallets struct {
	scope *scope
	base  map[uuid.UUID]*entity.Wallet
	now   func() time.Time
	views map[uuid.UUID]*walletView
	// opened - порядок открытия новых кошельков.
	opened []uuid.UUID
}

func newStagedWallets(s *scope, base map[uuid.UUID]*entity.Wallet, now func() time.Time) *stagedWallets {
	return &stagedWallets{scope: s, base: base, now: now, views: make(map[uuid.UUID]*walletView)}
}

func (w *stagedWallets) view(userID uuid.UUID) *walletView {
	if v, ok := w.views[userID]; ok {
		return v
	}
	w.scope.store.mu.RLock()
	committed, ok := w.base[userID]
	var v *walletView
	if ok {
		v = &walletView{wallet: committed.Clone(), observed: len(committed.Entries)}
	}
	w.scope.store.mu.RUnlock()
	if v != nil {
		v.wallet.Version = int64(v.observed)
		w.views[userID] = v
	}
	return v
}

func (w *stagedWallets) Open(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	if err := w.scope.check(); err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "владелец кошелька обязателен")
	}
	if w.view(userID) == nil {
		w.views[userID] = &walletView{wallet: entity.NewWallet(userID, w.now()), observed: -1}
		w.opened = append(w.opened, userID)
	}
	return w.Find(ctx, userID)
}

func (w *stagedWallets) Find(_ context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	if err := w.scope.check(); err != nil {
		return nil, err
	}
	v := w.view(userID)
	if v == nil {
		return nil, apperror.ErrWalletNotFound
	}
	return v.wallet.Clone(), nil
}

func (w *stagedWallets) Append(_ context.Context, wallet *entity.Wallet, entry entity.WalletEntry) error {
	if err := w.scope.check(); err != nil {
		return err
	}
	if entry.UserID != wallet.UserID {
		return apperror.New(apperror.ErrCodeInternal, "запись журнала относится к другому кошельку")
	}
	v := w.view(wallet.UserID)
	if v == nil {
		return apperror.ErrWalletNotFound
	}
	if wallet.Version != int64(len(v.wallet.Entries)) {
		return apperror.ErrConcurrencyConflict
	}

	v.wallet.Entries = append(v.wallet.Entries, entry)
	v.wallet.Version = int64(len(v.wallet.Entries))
	v.appended = append(v.appended, entry)
	wallet.Version = v.wallet.Version
	return nil
}

func (w *stagedWallets) validate() error {
	for userID, v := range w.views {
		committed, exists := w.base[userID]
		if v.observed < 0 {
			if exists {
				// Кошелёк открыт параллельно: допустимо, если здесь в него не писали.
				if len(v.appended) > 0 {
					return apperror.ErrConcurrencyConflict
				}
			}
			continue
		}
		if !exists || len(committed.Entries) != v.observed {
			if len(v.appended) > 0 {
				return apperror.ErrConcurrencyConflict
			}
		}
	}
	return nil
}

func (w *stagedWallets) apply() {
	for _, userID := range w.opened {
		if _, exists := w.base[userID]; !exists {
			v := w.views[userID]
			w.base[userID] = &entity.Wallet{UserID: userID, CreatedAt: v.wallet.CreatedAt}
		}
	}
	for userID, v := range w.views {
		if len(v.appended) == 0 {
			continue
		}
		committed := w.base[userID]
		committed.Entries = append(committed.Entries, v.appended...)
		committed.Version = int64(len(committed.Entries))
	}
}
