// Package ledger - операции с кошельками. Баланс вычисляется из журнала записей.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/unitofwork"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
)

type Ledger struct {
	deps usecase.Deps
}

// NewLedger создаёт сервис кошельков. Изменения балансов рассылаются
// через deps.Events после фиксации.
func NewLedger(deps usecase.Deps) *Ledger {
	return &Ledger{deps: deps}
}

// GetBalance возвращает баланс, пересчитанный по журналу.
func (l *Ledger) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := l.find(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance(), nil
}

// Statement возвращает записи журнала в порядке добавления.
func (l *Ledger) Statement(ctx context.Context, userID uuid.UUID) ([]entity.WalletEntry, error) {
	wallet, err := l.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return wallet.Entries, nil
}

func (l *Ledger) find(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	return unitofwork.Read(ctx, l.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.Wallet, error) {
		return repos.Wallets().Find(ctx, userID)
	})
}

// OpenWallet создаёт кошелёк, если его ещё нет.
func (l *Ledger) OpenWallet(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	return unitofwork.Do(ctx, l.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.Wallet, error) {
		return repos.Wallets().Open(ctx, userID)
	})
}

func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*entity.WalletEntry, error) {
	entry, err := unitofwork.Do(ctx, l.deps.UoW, func(ctx context.Context, repos repository.Repositories) (entity.WalletEntry, error) {
		return PostCredit(ctx, repos, userID, amount, entity.Posting{Description: description}, l.deps.Now())
	})
	if err != nil {
		l.logFailure(err, "credit", userID, amount)
		return nil, err
	}

	l.deps.Log.WithFields(logrus.Fields{"user_id": userID, "amount": amount.String()}).Info("ledger: зачисление")
	l.deps.Notify(ctx, WalletEvents(entry)...)
	return &entry, nil
}

func (l *Ledger) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*entity.WalletEntry, error) {
	entry, err := unitofwork.Do(ctx, l.deps.UoW, func(ctx context.Context, repos repository.Repositories) (entity.WalletEntry, error) {
		return PostDebit(ctx, repos, userID, amount, entity.Posting{Description: description}, l.deps.Now())
	})
	if err != nil {
		l.logFailure(err, "debit", userID, amount)
		return nil, err
	}

	l.deps.Log.WithFields(logrus.Fields{"user_id": userID, "amount": amount.String()}).Info("ledger: списание")
	l.deps.Notify(ctx, WalletEvents(entry)...)
	return &entry, nil
}

// Transfer переводит средства одной транзакцией: записываются обе ноги или ни одной.
func (l *Ledger) Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal, description string) (*TransferResult, error) {
	result, err := unitofwork.Do(ctx, l.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*TransferResult, error) {
		return PostTransfer(ctx, repos, from, to, amount, description, nil, l.deps.Now())
	})
	if err != nil {
		l.logFailure(err, "transfer", from, amount)
		return nil, err
	}

	l.deps.Log.WithFields(logrus.Fields{"from": from, "to": to, "amount": amount.String()}).Info("ledger: перевод")
	l.deps.Notify(ctx, WalletEvents(result.Debit, result.Credit)...)
	return result, nil
}

// ExternalPayment - внешняя сторона пополнения или вывода.
type ExternalPayment struct {
	Type        valueobject.PaymentType
	ProviderRef string
	Description string
}

// MovementResult - запись журнала и платёж, который её объясняет.
type MovementResult struct {
	Entry   entity.WalletEntry
	Payment *entity.Payment
}

// Deposit зачисляет внешний платёж и сохраняет его в той же транзакции.
func (l *Ledger) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ext ExternalPayment) (*MovementResult, error) {
	return l.move(ctx, "deposit", valueobject.PaymentKindDeposit, userID, amount, ext)
}

// Withdraw списывает средства на внешний счёт, не уводя баланс в минус.
func (l *Ledger) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ext ExternalPayment) (*MovementResult, error) {
	return l.move(ctx, "withdraw", valueobject.PaymentKindWithdrawal, userID, amount, ext)
}

func (l *Ledger) move(ctx context.Context, op string, kind valueobject.PaymentKind, userID uuid.UUID, amount decimal.Decimal, ext ExternalPayment) (*MovementResult, error) {
	if ext.Type == "" {
		ext.Type = valueobject.PaymentTypeCard
	}
	now := l.deps.Now()
	payment, err := entity.NewWalletPayment(userID, amount, kind, ext.Type, ext.ProviderRef, now)
	if err != nil {
		l.logFailure(err, op, userID, amount)
		return nil, err
	}

	result, err := unitofwork.Do(ctx, l.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*MovementResult, error) {
		posting := entity.Posting{Description: ext.Description}
		var (
			entry entity.WalletEntry
			err   error
		)
		if kind == valueobject.PaymentKindDeposit {
			entry, err = PostCredit(ctx, repos, userID, payment.Amount, posting, now)
		} else {
			entry, err = PostDebit(ctx, repos, userID, payment.Amount, posting, now)
		}
		if err != nil {
			return nil, err
		}
		if err := repos.Payments().Add(ctx, payment); err != nil {
			return nil, err
		}
		return &MovementResult{Entry: entry, Payment: payment}, nil
	})
	if err != nil {
		l.logFailure(err, op, userID, amount)
		return nil, err
	}

	l.deps.Log.WithFields(logrus.Fields{
		"op":         op,
		"user_id":    userID,
		"amount":     payment.Amount.String(),
		"payment_id": payment.ID,
	}).Info("ledger: внешний платёж проведён")
	l.deps.Notify(ctx, PaymentEvents(payment)...)
	return result, nil
}

// Payments - пополнения и выводы пользователя.
func (l *Ledger) Payments(ctx context.Context, userID uuid.UUID) ([]*entity.Payment, error) {
	return unitofwork.Read(ctx, l.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.Payment, error) {
		return repos.Payments().FindBySpec(ctx, specification.WalletPayments(userID))
	})
}

func (l *Ledger) logFailure(err error, op string, userID uuid.UUID, amount decimal.Decimal) {
	logger.Failure(l.deps.Log.WithFields(logrus.Fields{"op": op, "user_id": userID, "amount": amount.String()}), err, "ledger: операция не выполнена")
}
