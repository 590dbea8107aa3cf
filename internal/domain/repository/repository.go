package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
)

// Reader - чтение сущности по ID и по спецификации.
type Reader[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindBySpec(ctx context.Context, spec specification.Spec[*T]) ([]*T, error)
}

// Writer - добавление и обновление. Update выполняется только если
// версия сущности совпадает с сохранённой, иначе ErrConcurrencyConflict.
type Writer[T any] interface {
	Add(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
}

type Remover interface {
	Remove(ctx context.Context, id uuid.UUID) error
}

// Repository - полный набор операций над сущностью.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
	Remover
}
