package persistence

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// versioned - указатель на сущность с оптимистичной версией.
type versioned[T any] interface {
	*T
	EntityID() uuid.UUID
	EntityVersion() int64
	SetEntityVersion(int64)
}

// mapping связывает сущность T со строкой R таблицы.
type mapping[T any, R any] struct {
	table   string
	columns []string
	// values - значения колонок без version.
	values  func(*T) map[string]any
	fromRow func(*R) *T
}

// sqlTable - CRUD по одной таблице внутри транзакции.
type sqlTable[T any, R any, P versioned[T]] struct {
	tx       sqlx.ExtContext
	m        mapping[T, R]
	notFound error
}

func newSQLTable[T any, R any, P versioned[T]](tx sqlx.ExtContext, m mapping[T, R], notFound error) *sqlTable[T, R, P] {
	return &sqlTable[T, R, P]{tx: tx, m: m, notFound: notFound}
}

func (t *sqlTable[T, R, P]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	query, args, err := psql.Select(t.m.columns...).From(t.m.table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, mapError(err, "построение запроса к "+t.m.table)
	}
	var row R
	if err := sqlx.GetContext(ctx, t.tx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, t.notFound
		}
		return nil, mapError(err, "чтение из "+t.m.table)
	}
	return t.m.fromRow(&row), nil
}

// FindBySpec сужает чтение по Keys спецификации, остальное вычисляет
// в памяти: фильтры спецификации - функции Go, в SQL они не переводятся.
func (t *sqlTable[T, R, P]) FindBySpec(ctx context.Context, spec specification.Spec[*T]) ([]*T, error) {
	rows, err := t.all(ctx, spec.Keys)
	if err != nil {
		return nil, err
	}
	return specification.Evaluate(rows, spec), nil
}

func (t *sqlTable[T, R, P]) all(ctx context.Context, keys map[string]any) ([]*T, error) {
	selection := psql.Select(t.m.columns...).From(t.m.table)
	if len(keys) > 0 {
		for column := range keys {
			if !slices.Contains(t.m.columns, column) {
				return nil, apperror.New(apperror.ErrCodeInternal, "неизвестная колонка "+column+" в "+t.m.table)
			}
		}
		selection = selection.Where(sq.Eq(keys))
	}
	query, args, err := selection.OrderBy("created_at", "id").ToSql()
	if err != nil {
		return nil, mapError(err, "построение запроса к "+t.m.table)
	}
	var rows []R
	if err := sqlx.SelectContext(ctx, t.tx, &rows, query, args...); err != nil {
		return nil, mapError(err, "чтение из "+t.m.table)
	}
	result := make([]*T, len(rows))
	for i := range rows {
		result[i] = t.m.fromRow(&rows[i])
	}
	return result, nil
}

func (t *sqlTable[T, R, P]) Add(ctx context.Context, e *T) error {
	values := t.m.values(e)
	values["version"] = int64(1)
	query, args, err := psql.Insert(t.m.table).SetMap(values).ToSql()
	if err != nil {
		return mapError(err, "построение вставки в "+t.m.table)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "вставка в "+t.m.table)
	}
	P(e).SetEntityVersion(1)
	return nil
}

// Update пишет строку, только если её версия не изменилась с момента чтения.
func (t *sqlTable[T, R, P]) Update(ctx context.Context, e *T) error {
	p := P(e)
	values := t.m.values(e)
	delete(values, "id")
	query, args, err := psql.Update(t.m.table).
		SetMap(values).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": p.EntityID(), "version": p.EntityVersion()}).
		ToSql()
	if err != nil {
		return mapError(err, "построение обновления "+t.m.table)
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "обновление "+t.m.table)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "обновление "+t.m.table)
	}
	if affected == 0 {
		return t.missingOrStale(ctx, p.EntityID())
	}
	p.SetEntityVersion(p.EntityVersion() + 1)
	return nil
}

func (t *sqlTable[T, R, P]) Remove(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete(t.m.table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return mapError(err, "построение удаления из "+t.m.table)
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "удаление из "+t.m.table)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "удаление из "+t.m.table)
	}
	if affected == 0 {
		return t.notFound
	}
	return nil
}

// missingOrStale различает удалённую строку и устаревшую версию.
func (t *sqlTable[T, R, P]) missingOrStale(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Select("1").From(t.m.table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return mapError(err, "построение запроса к "+t.m.table)
	}
	var one int
	if err := sqlx.GetContext(ctx, t.tx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t.notFound
		}
		return mapError(err, "чтение из "+t.m.table)
	}
	return apperror.ErrConcurrencyConflict
}
