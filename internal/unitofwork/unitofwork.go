// Package unitofwork выполняет функции внутри транзакции UnitOfWork
// с неявным откатом при ошибке, панике или истёкшем дедлайне.
package unitofwork

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type scopeKey struct{}

// Active сообщает, открыта ли транзакция в ctx.
func Active(ctx context.Context) bool {
	_, ok := ctx.Value(scopeKey{}).(repository.Scope)
	return ok
}

// Do открывает транзакцию, выполняет fn и фиксирует результат.
// Вложенные транзакции запрещены: ctx с открытой транзакцией даёт ErrNestedScope.
func Do[T any](ctx context.Context, uow repository.UnitOfWork, fn func(ctx context.Context, repos repository.Repositories) (T, error)) (result T, err error) {
	var zero T
	if Active(ctx) {
		return zero, apperror.ErrNestedScope
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	scope, err := uow.Begin(ctx)
	if err != nil {
		return zero, err
	}
	// Откат выполняется даже при отменённом контексте вызывающего.
	cleanupCtx := context.WithoutCancel(ctx)

	defer func() {
		if p := recover(); p != nil {
			_ = scope.Rollback(cleanupCtx)
			panic(p)
		}
	}()

	result, err = fn(context.WithValue(ctx, scopeKey{}, scope), scope)
	if err != nil {
		if rbErr := scope.Rollback(cleanupCtx); rbErr != nil {
			return zero, errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return zero, err
	}

	if err := ctx.Err(); err != nil {
		_ = scope.Rollback(cleanupCtx)
		return zero, fmt.Errorf("unit of work: %w", err)
	}

	if err := scope.Commit(ctx); err != nil {
		_ = scope.Rollback(cleanupCtx)
		return zero, err
	}
	return result, nil
}

// Run - Do без результата.
func Run(ctx context.Context, uow repository.UnitOfWork, fn func(ctx context.Context, repos repository.Repositories) error) error {
	_, err := Do(ctx, uow, func(ctx context.Context, repos repository.Repositories) (struct{}, error) {
		return struct{}{}, fn(ctx, repos)
	})
	return err
}

// Read выполняет fn только для чтения. Внутри открытой транзакции
// используются её репозитории, иначе открывается транзакция, которая всегда откатывается.
func Read[T any](ctx context.Context, uow repository.UnitOfWork, fn func(ctx context.Context, repos repository.Repositories) (T, error)) (T, error) {
	if scope, ok := ctx.Value(scopeKey{}).(repository.Scope); ok {
		return fn(ctx, scope)
	}

	var zero T
	scope, err := uow.Begin(ctx)
	if err != nil {
		return zero, err
	}
	defer func() { _ = scope.Rollback(context.WithoutCancel(ctx)) }()

	return fn(context.WithValue(ctx, scopeKey{}, scope), scope)
}
