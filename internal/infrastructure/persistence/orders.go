package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// orderTable дополняет заказы позициями: FindByID загружает их всегда,
// FindBySpec - только при подсказке IncludeItems.
type orderTable struct {
	*sqlTable[entity.Order, orderRow, *entity.Order]
}

func newOrderTable(tx sqlx.ExtContext) *orderTable {
	return &orderTable{newSQLTable[entity.Order, orderRow, *entity.Order](tx, orderMapping, apperror.ErrOrderNotFound)}
}

func (t *orderTable) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := t.sqlTable.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.loadItems(ctx, []*entity.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (t *orderTable) FindBySpec(ctx context.Context, spec specification.Spec[*entity.Order]) ([]*entity.Order, error) {
	orders, err := t.all(ctx, spec.Keys)
	if err != nil {
		return nil, err
	}
	if spec.HasInclude(specification.IncludeItems) {
		if err := t.loadItems(ctx, orders); err != nil {
			return nil, err
		}
	}
	return specification.Evaluate(orders, spec), nil
}

func (t *orderTable) Add(ctx context.Context, order *entity.Order) error {
	if err := t.sqlTable.Add(ctx, order); err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	insert := psql.Insert("order_items").Columns("id", "order_id", "position", "name", "quantity", "unit_price")
	for i, item := range order.Items {
		insert = insert.Values(item.ID, order.ID, i, item.Name, item.Quantity, item.UnitPrice)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return mapError(err, "построение вставки позиций")
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "вставка позиций заказа")
	}
	return nil
}

func (t *orderTable) loadItems(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := lo.Map(orders, func(o *entity.Order, _ int) uuid.UUID { return o.ID })
	query, args, err := psql.Select("id", "order_id", "position", "name", "quantity", "unit_price").
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("order_id", "position").
		ToSql()
	if err != nil {
		return mapError(err, "построение запроса позиций")
	}
	var rows []orderItemRow
	if err := sqlx.SelectContext(ctx, t.tx, &rows, query, args...); err != nil {
		return mapError(err, "чтение позиций заказа")
	}
	byOrder := lo.GroupBy(rows, func(r orderItemRow) uuid.UUID { return r.OrderID })
	for _, order := range orders {
		order.Items = lo.Map(byOrder[order.ID], func(r orderItemRow, _ int) entity.OrderItem {
			return entity.OrderItem{ID: r.ID, OrderID: r.OrderID, Name: r.Name, Quantity: r.Quantity, UnitPrice: r.UnitPrice}
		})
	}
	return nil
}
