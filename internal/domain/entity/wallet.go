package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Wallet - кошелёк пользователя. Баланс не хранится, а всегда
// вычисляется как сумма журнала записей.
type Wallet struct {
	UserID    uuid.UUID
	CreatedAt time.Time
	Entries   []WalletEntry
	// Version - число записей журнала, прочитанных из хранилища.
	Version int64
}

// WalletEntry - неизменяемая запись журнала кошелька.
type WalletEntry struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Direction     valueobject.EntryDirection
	Amount        decimal.Decimal
	CounterpartID *uuid.UUID
	OrderID       *uuid.UUID
	Description   string
	CreatedAt     time.Time
}

// Posting - контекст проводки: описание, контрагент и заказ.
type Posting struct {
	Description   string
	CounterpartID *uuid.UUID
	OrderID       *uuid.UUID
}

func NewWallet(userID uuid.UUID, now time.Time) *Wallet {
	return &Wallet{UserID: userID, CreatedAt: now}
}

// Signed возвращает сумму со знаком: дебет отрицательный.
func (e WalletEntry) Signed() decimal.Decimal {
	if e.Direction == valueobject.EntryDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

func (w *Wallet) Balance() decimal.Decimal {
	return lo.Reduce(w.Entries, func(acc decimal.Decimal, e WalletEntry, _ int) decimal.Decimal {
		return acc.Add(e.Signed())
	}, decimal.Zero)
}

// Credit добавляет положительную запись в журнал.
func (w *Wallet) Credit(amount decimal.Decimal, p Posting, now time.Time) (WalletEntry, error) {
	value, err := valueobject.NewAmount(amount)
	if err != nil {
		return WalletEntry{}, err
	}
	return w.append(valueobject.EntryDirectionCredit, value, p, now), nil
}

// Debit добавляет отрицательную запись, только если баланс останется неотрицательным.
func (w *Wallet) Debit(amount decimal.Decimal, p Posting, now time.Time) (WalletEntry, error) {
	value, err := valueobject.NewAmount(amount)
	if err != nil {
		return WalletEntry{}, err
	}
	if balance := w.Balance(); balance.LessThan(value) {
		return WalletEntry{}, fmt.Errorf("%w: баланс %s, требуется %s", apperror.ErrInsufficientFunds, balance.StringFixed(valueobject.CurrencyScale), value.StringFixed(valueobject.CurrencyScale))
	}
	return w.append(valueobject.EntryDirectionDebit, value, p, now), nil
}

func (w *Wallet) append(direction valueobject.EntryDirection, amount decimal.Decimal, p Posting, now time.Time) WalletEntry {
	entry := WalletEntry{
		ID:            uuid.New(),
		UserID:        w.UserID,
		Direction:     direction,
		Amount:        amount,
		CounterpartID: clonePtr(p.CounterpartID),
		OrderID:       clonePtr(p.OrderID),
		Description:   strings.TrimSpace(p.Description),
		CreatedAt:     now,
	}
	w.Entries = append(w.Entries, entry)
	return entry
}

func (w *Wallet) Clone() *Wallet {
	c := *w
	c.Entries = append([]WalletEntry(nil), w.Entries...)
	return &c
}
