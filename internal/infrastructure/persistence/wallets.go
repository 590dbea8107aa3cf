package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// walletTable хранит кошельки как счётчик записей и журнал.
// Баланс в базе не хранится.
type walletTable struct {
	tx  sqlx.ExtContext
	now func() time.Time
}

type walletRow struct {
	UserID     uuid.UUID `db:"user_id"`
	CreatedAt  time.Time `db:"created_at"`
	EntryCount int64     `db:"entry_count"`
}

func (w *walletTable) Open(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	if userID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "владелец кошелька обязателен")
	}
	query, args, err := psql.Insert("wallets").
		Columns("user_id", "created_at", "entry_count").
		Values(userID, w.now(), 0).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, mapError(err, "построение открытия кошелька")
	}
	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		return nil, mapError(err, "открытие кошелька")
	}
	return w.Find(ctx, userID)
}

func (w *walletTable) Find(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	query, args, err := psql.Select("user_id", "created_at", "entry_count").
		From("wallets").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, mapError(err, "построение запроса кошелька")
	}
	var row walletRow
	if err := sqlx.GetContext(ctx, w.tx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWalletNotFound
		}
		return nil, mapError(err, "чтение кошелька")
	}

	query, args, err = psql.Select("id", "user_id", "seq", "direction", "amount", "counterpart_id", "order_id", "description", "created_at").
		From("wallet_entries").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.LtOrEq{"seq": row.EntryCount}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, mapError(err, "построение запроса журнала")
	}
	var entries []walletEntryRow
	if err := sqlx.SelectContext(ctx, w.tx, &entries, query, args...); err != nil {
		return nil, mapError(err, "чтение журнала кошелька")
	}

	return &entity.Wallet{
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt.UTC(),
		Entries:   lo.Map(entries, func(r walletEntryRow, _ int) entity.WalletEntry { return r.entry() }),
		Version:   row.EntryCount,
	}, nil
}

// Append сдвигает счётчик записей условным UPDATE: если другая транзакция
// уже дописала журнал, строка не совпадёт и запись отклоняется.
func (w *walletTable) Append(ctx context.Context, wallet *entity.Wallet, entry entity.WalletEntry) error {
	if entry.UserID != wallet.UserID {
		return apperror.New(apperror.ErrCodeInternal, "запись журнала относится к другому кошельку")
	}
	query, args, err := psql.Update("wallets").
		Set("entry_count", sq.Expr("entry_count + 1")).
		Where(sq.Eq{"user_id": wallet.UserID, "entry_count": wallet.Version}).
		ToSql()
	if err != nil {
		return mapError(err, "построение записи в журнал")
	}
	res, err := w.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "запись в журнал")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "запись в журнал")
	}
	if affected == 0 {
		if _, err := w.Find(ctx, wallet.UserID); err != nil {
			return err
		}
		return apperror.ErrConcurrencyConflict
	}

	seq := wallet.Version + 1
	query, args, err = psql.Insert("wallet_entries").
		Columns("id", "user_id", "seq", "direction", "amount", "counterpart_id", "order_id", "description", "created_at").
		Values(entry.ID, entry.UserID, seq, string(entry.Direction), entry.Amount, entry.CounterpartID, entry.OrderID, entry.Description, entry.CreatedAt).
		ToSql()
	if err != nil {
		return mapError(err, "построение записи в журнал")
	}
	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "запись в журнал")
	}
	wallet.Version = seq
	return nil
}
