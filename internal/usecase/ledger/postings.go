package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Функции Post* выполняются внутри уже открытой транзакции и являются
// единственным способом изменить баланс кошелька.

// PostCredit зачисляет сумму, открывая кошелёк при необходимости.
func PostCredit(ctx context.Context, repos repository.Repositories, userID uuid.UUID, amount decimal.Decimal, p entity.Posting, now time.Time) (entity.WalletEntry, error) {
	if _, err := valueobject.NewAmount(amount); err != nil {
		return entity.WalletEntry{}, err
	}
	wallet, err := repos.Wallets().Open(ctx, userID)
	if err != nil {
		return entity.WalletEntry{}, err
	}
	entry, err := wallet.Credit(amount, p, now)
	if err != nil {
		return entity.WalletEntry{}, err
	}
	if err := repos.Wallets().Append(ctx, wallet, entry); err != nil {
		return entity.WalletEntry{}, err
	}
	return entry, nil
}

// PostDebit списывает сумму, только если баланс останется неотрицательным.
func PostDebit(ctx context.Context, repos repository.Repositories, userID uuid.UUID, amount decimal.Decimal, p entity.Posting, now time.Time) (entity.WalletEntry, error) {
	if _, err := valueobject.NewAmount(amount); err != nil {
		return entity.WalletEntry{}, err
	}
	wallet, err := repos.Wallets().Find(ctx, userID)
	if err != nil {
		return entity.WalletEntry{}, err
	}
	entry, err := wallet.Debit(amount, p, now)
	if err != nil {
		return entity.WalletEntry{}, err
	}
	if err := repos.Wallets().Append(ctx, wallet, entry); err != nil {
		return entity.WalletEntry{}, err
	}
	return entry, nil
}

// TransferResult - пара записей одного перевода.
type TransferResult struct {
	Debit  entity.WalletEntry
	Credit entity.WalletEntry
}

// PostTransfer списывает с from и зачисляет на to. Атомарность обеспечивает
// транзакция вызывающего: при ошибке любой из ног откатываются обе.
func PostTransfer(ctx context.Context, repos repository.Repositories, from, to uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID, now time.Time) (*TransferResult, error) {
	if from == to {
		return nil, apperror.New(apperror.ErrCodeValidation, "перевод самому себе невозможен")
	}
	if _, err := valueobject.NewAmount(amount); err != nil {
		return nil, err
	}

	debit, err := PostDebit(ctx, repos, from, amount, entity.Posting{
		Description:   description,
		CounterpartID: &to,
		OrderID:       orderID,
	}, now)
	if err != nil {
		return nil, err
	}

	credit, err := PostCredit(ctx, repos, to, amount, entity.Posting{
		Description:   description,
		CounterpartID: &from,
		OrderID:       orderID,
	}, now)
	if err != nil {
		return nil, err
	}

	return &TransferResult{Debit: debit, Credit: credit}, nil
}
