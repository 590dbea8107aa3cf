package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// entityOf - указатель на сущность с идентификатором и версией.
type entityOf[T any] interface {
	*T
	EntityID() uuid.UUID
	EntityVersion() int64
	SetEntityVersion(int64)
	Clone() *T
}

// table - зафиксированные строки одного типа в порядке вставки.
type table[T any, P entityOf[T]] struct {
	rows  map[uuid.UUID]P
	order []uuid.UUID
}

func newTable[T any, P entityOf[T]]() *table[T, P] {
	return &table[T, P]{rows: make(map[uuid.UUID]P)}
}

type writeKind int

const (
	writeAdd writeKind = iota
	writeUpdate
	writeRemove
)

type stagedWrite[T any, P entityOf[T]] struct {
	kind writeKind
	row  P
	// expected - версия зафиксированной строки, на которую опирается запись.
	expected int64
}

// stagedTable - изменения одной таблицы внутри транзакции. Чтение идёт
// через наложение staged-записей на зафиксированное состояние.
type stagedTable[T any, P entityOf[T]] struct {
	scope    *scope
	base     *table[T, P]
	notFound error
	writes   map[uuid.UUID]*stagedWrite[T, P]
	added    []uuid.UUID
}

func newStagedTable[T any, P entityOf[T]](s *scope, base *table[T, P], notFound error) *stagedTable[T, P] {
	return &stagedTable[T, P]{
		scope:    s,
		base:     base,
		notFound: notFound,
		writes:   make(map[uuid.UUID]*stagedWrite[T, P]),
	}
}

func (t *stagedTable[T, P]) committed(id uuid.UUID) (P, bool) {
	t.scope.store.mu.RLock()
	defer t.scope.store.mu.RUnlock()
	row, ok := t.base.rows[id]
	if !ok {
		return nil, false
	}
	return P(row.Clone()), true
}

func (t *stagedTable[T, P]) FindByID(_ context.Context, id uuid.UUID) (*T, error) {
	if err := t.scope.check(); err != nil {
		return nil, err
	}
	if w, ok := t.writes[id]; ok {
		if w.kind == writeRemove {
			return nil, t.notFound
		}
		return w.row.Clone(), nil
	}
	row, ok := t.committed(id)
	if !ok {
		return nil, t.notFound
	}
	return row, nil
}

func (t *stagedTable[T, P]) FindBySpec(_ context.Context, spec specification.Spec[*T]) ([]*T, error) {
	if err := t.scope.check(); err != nil {
		return nil, err
	}

	t.scope.store.mu.RLock()
	source := make([]*T, 0, len(t.base.order)+len(t.added))
	for _, id := range t.base.order {
		if w, ok := t.writes[id]; ok {
			if w.kind != writeRemove {
				source = append(source, w.row.Clone())
			}
			continue
		}
		source = append(source, t.base.rows[id].Clone())
	}
	t.scope.store.mu.RUnlock()

	for _, id := range t.added {
		if w, ok := t.writes[id]; ok && w.kind == writeAdd {
			source = append(source, w.row.Clone())
		}
	}

	return specification.Evaluate(source, spec), nil
}

func (t *stagedTable[T, P]) Add(_ context.Context, e *T) error {
	if err := t.scope.check(); err != nil {
		return err
	}
	p := P(e)
	id := p.EntityID()
	if w, ok := t.writes[id]; ok && w.kind != writeRemove {
		return apperror.ErrAlreadyExists
	}
	if _, ok := t.committed(id); ok {
		return apperror.ErrAlreadyExists
	}

	p.SetEntityVersion(1)
	t.writes[id] = &stagedWrite[T, P]{kind: writeAdd, row: P(p.Clone())}
	t.added = append(t.added, id)
	return nil
}

func (t *stagedTable[T, P]) Update(_ context.Context, e *T) error {
	if err := t.scope.check(); err != nil {
		return err
	}
	p := P(e)
	id := p.EntityID()

	if w, ok := t.writes[id]; ok {
		if w.kind == writeRemove {
			return t.notFound
		}
		if w.row.EntityVersion() != p.EntityVersion() {
			return apperror.ErrConcurrencyConflict
		}
		p.SetEntityVersion(p.EntityVersion() + 1)
		w.row = P(p.Clone())
		return nil
	}

	current, ok := t.committed(id)
	if !ok {
		return t.notFound
	}
	if current.EntityVersion() != p.EntityVersion() {
		return apperror.ErrConcurrencyConflict
	}
	expected := p.EntityVersion()
	p.SetEntityVersion(expected + 1)
	t.writes[id] = &stagedWrite[T, P]{kind: writeUpdate, row: P(p.Clone()), expected: expected}
	return nil
}

func (t *stagedTable[T, P]) Remove(_ context.Context, id uuid.UUID) error {
	if err := t.scope.check(); err != nil {
		return err
	}
	if w, ok := t.writes[id]; ok {
		switch w.kind {
		case writeRemove:
			return t.notFound
		case writeAdd:
			delete(t.writes, id)
			return nil
		}
		w.kind = writeRemove
		return nil
	}

	current, ok := t.committed(id)
	if !ok {
		return t.notFound
	}
	t.writes[id] = &stagedWrite[T, P]{kind: writeRemove, row: current, expected: current.EntityVersion()}
	return nil
}

// validate вызывается под эксклюзивной блокировкой хранилища.
func (t *stagedTable[T, P]) validate() error {
	for id, w := range t.writes {
		current, exists := t.base.rows[id]
		switch w.kind {
		case writeAdd:
			if exists {
				return apperror.ErrAlreadyExists
			}
		default:
			if !exists || current.EntityVersion() != w.expected {
				return apperror.ErrConcurrencyConflict
			}
		}
	}
	return nil
}

// apply вызывается под эксклюзивной блокировкой после validate.
func (t *stagedTable[T, P]) apply() {
	for _, id := range t.added {
		if w, ok := t.writes[id]; ok && w.kind == writeAdd {
			t.base.order = append(t.base.order, id)
		}
	}
	removed := false
	for id, w := range t.writes {
		if w.kind == writeRemove {
			delete(t.base.rows, id)
			removed = true
			continue
		}
		t.base.rows[id] = w.row
	}
	if removed {
		order := t.base.order[:0]
		for _, id := range t.base.order {
			if _, ok := t.base.rows[id]; ok {
				order = append(order, id)
			}
		}
		t.base.order = order
	}
}
