package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers/common"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
)

type OrderHandler struct {
	svc           *service.SettlementService
	attentionDays int
	now           func() time.Time
}

func NewOrderHandler(svc *service.SettlementService, attentionDays int, now func() time.Time) *OrderHandler {
	if attentionDays <= 0 {
		attentionDays = specification.DefaultAttentionThresholdDays
	}
	return &OrderHandler{svc: svc, attentionDays: attentionDays, now: now}
}

// CreateOrder POST /api/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.CreateOrderRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	created, err := h.svc.CreateOrder(c.Request.Context(), order.CreateOrderInput{
		CustomerID:        userID,
		TailorID:          req.TailorID,
		Description:       req.Description,
		OrderType:         valueobject.OrderType(req.OrderType),
		FulfillmentMethod: valueobject.FulfillmentMethod(req.FulfillmentMethod),
		DeliveryAddress:   req.DeliveryAddress,
		DueAt:             req.DueAt,
		Items: lo.Map(req.Items, func(i dto.OrderItemRequest, _ int) order.ItemInput {
			return order.ItemInput{Name: i.Name, Quantity: i.Quantity, UnitPrice: i.UnitPrice}
		}),
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.NewOrderResponse(created))
}

// GetOrder GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	found, err := h.svc.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewOrderResponse(found))
}

// TransitionStatus PATCH /api/orders/:id/status
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.TransitionOrderRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	updated, err := h.svc.TransitionOrderStatus(c.Request.Context(), userID, orderID, valueobject.OrderStatus(req.Status))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewOrderResponse(updated))
}

// ListOrders GET /api/orders?view=...
// Клиент видит свои заказы, портной - выборки по своей мастерской.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	spec, err := h.orderSpec(c, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	orders, err := h.svc.RunOrderSpecification(c.Request.Context(), spec)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, orders, dto.NewOrderResponse)
}

func (h *OrderHandler) orderSpec(c *gin.Context, userID uuid.UUID) (specification.OrderSpec, error) {
	page, size := common.GetPage(c, specification.DefaultPageSize)

	if common.CurrentUserRole(c) != service.RoleTailor {
		return specification.OrdersByCustomer(userID).Paginate(page, size), nil
	}

	switch view := c.DefaultQuery("view", "all"); view {
	case "all":
		var status *valueobject.OrderStatus
		if raw := c.Query("status"); raw != "" {
			parsed := valueobject.OrderStatus(raw)
			if !parsed.IsValid() {
				return specification.OrderSpec{}, apperror.Validationf("неизвестный статус %q", raw)
			}
			status = &parsed
		}
		return specification.OrdersPaginated(userID, page, size, status), nil
	case "recent":
		return specification.RecentOrdersByTailor(userID, common.ParseIntQuery(c, "take", specification.DefaultRecentOrders)), nil
	case "pending":
		return specification.PendingOrdersForTailor(userID), nil
	case "active":
		return specification.ActiveOrdersForTailor(userID), nil
	case "completed":
		return specification.CompletedOrdersForTailor(userID), nil
	case "attention":
		return specification.OrdersNeedingAttention(userID, h.attentionDays, h.now()), nil
	case "grouped":
		return specification.OrdersGroupedByStatus(userID), nil
	case "search":
		return specification.OrdersSearch(userID, c.Query("q")), nil
	case "range":
		from, errFrom := time.Parse(time.RFC3339, c.Query("from"))
		to, errTo := time.Parse(time.RFC3339, c.Query("to"))
		if errFrom != nil || errTo != nil {
			return specification.OrderSpec{}, apperror.Validationf("from и to должны быть в формате RFC3339")
		}
		return specification.OrdersByDateRange(userID, from, to), nil
	default:
		return specification.OrderSpec{}, apperror.Validationf("неизвестное представление %q", view)
	}
}
