package specification

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
)

// IncludeItems - подсказка хранилищу загрузить позиции заказа.
const IncludeItems = "items"

const (
	DefaultRecentOrders           = 5
	DefaultAttentionThresholdDays = 3
	DefaultPageSize               = 20
)

type OrderSpec = Spec[*entity.Order]

func orderCreatedAt(a, b *entity.Order) int { return a.CreatedAt.Compare(b.CreatedAt) }

func ofTailor(tailorID uuid.UUID) OrderSpec {
	return New[*entity.Order](nil).
		Key("tailor_id", tailorID, func(o *entity.Order) bool { return o.TailorID == tailorID })
}

func withStatuses(statuses ...valueobject.OrderStatus) func(*entity.Order) bool {
	return func(o *entity.Order) bool { return slices.Contains(statuses, o.Status) }
}

// OrdersByTailor - заказы портного, новые первыми.
func OrdersByTailor(tailorID uuid.UUID) OrderSpec {
	return ofTailor(tailorID).
		Include(IncludeItems).
		OrderByDesc(orderCreatedAt)
}

// RecentOrdersByTailor - последние take заказов портного.
func RecentOrdersByTailor(tailorID uuid.UUID, take int) OrderSpec {
	if take <= 0 {
		take = DefaultRecentOrders
	}
	return OrdersByTailor(tailorID).Page(0, take)
}

// PendingOrdersForTailor - ожидающие заказы, самые старые первыми.
func PendingOrdersForTailor(tailorID uuid.UUID) OrderSpec {
	return ofTailor(tailorID).
		Where(withStatuses(valueobject.OrderStatusPending)).
		OrderByAsc(orderCreatedAt)
}

// ActiveOrdersForTailor - заказы в работе или в пути.
func ActiveOrdersForTailor(tailorID uuid.UUID) OrderSpec {
	return OrdersByTailor(tailorID).
		Where(withStatuses(valueobject.OrderStatusProcessing, valueobject.OrderStatusShipped))
}

func CompletedOrdersForTailor(tailorID uuid.UUID) OrderSpec {
	return OrdersByTailor(tailorID).
		Where(withStatuses(valueobject.OrderStatusDelivered))
}

// OrdersByDateRange - заказы портного, созданные в [from, to].
func OrdersByDateRange(tailorID uuid.UUID, from, to time.Time) OrderSpec {
	return OrdersByTailor(tailorID).Where(func(o *entity.Order) bool {
		return !o.CreatedAt.Before(from) && !o.CreatedAt.After(to)
	})
}

func OrdersWithStatus(tailorID uuid.UUID, status valueobject.OrderStatus) OrderSpec {
	return OrdersByTailor(tailorID).Where(withStatuses(status))
}

// OrdersPaginated - страница заказов портного, опционально по статусу.
func OrdersPaginated(tailorID uuid.UUID, page, size int, status *valueobject.OrderStatus) OrderSpec {
	spec := OrdersByTailor(tailorID)
	if status != nil {
		spec = spec.Where(withStatuses(*status))
	}
	return spec.Paginate(page, size)
}

func OrdersByCustomer(customerID uuid.UUID) OrderSpec {
	return New[*entity.Order](nil).
		Key("customer_id", customerID, func(o *entity.Order) bool { return o.CustomerID == customerID }).
		Include(IncludeItems).
		OrderByDesc(orderCreatedAt)
}

// OrdersNeedingAttention - ожидающие или выполняемые заказы старше days дней.
func OrdersNeedingAttention(tailorID uuid.UUID, days int, now time.Time) OrderSpec {
	if days <= 0 {
		days = DefaultAttentionThresholdDays
	}
	threshold := now.AddDate(0, 0, -days)
	return ofTailor(tailorID).
		Where(withStatuses(valueobject.OrderStatusPending, valueobject.OrderStatusProcessing)).
		Where(func(o *entity.Order) bool { return o.CreatedAt.Before(threshold) }).
		OrderByAsc(orderCreatedAt)
}

// OrdersSearch ищет по описанию и номеру заказа без учёта регистра.
func OrdersSearch(tailorID uuid.UUID, term string) OrderSpec {
	needle := strings.ToLower(strings.TrimSpace(term))
	return OrdersByTailor(tailorID).Where(func(o *entity.Order) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(o.Description), needle) ||
			strings.Contains(strings.ToLower(o.OrderNumber), needle)
	})
}

// OrdersGroupedByStatus - заказы портного, сгруппированные по статусу.
func OrdersGroupedByStatus(tailorID uuid.UUID) OrderSpec {
	return OrdersByTailor(tailorID).Group(func(o *entity.Order) string { return string(o.Status) })
}
