package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers/common"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/usecase/dispute"
)

type DisputeHandler struct {
	svc *service.SettlementService
}

func NewDisputeHandler(s *service.SettlementService) *DisputeHandler {
	return &DisputeHandler{svc: s}
}

// OpenDispute POST /api/orders/:id/disputes
func (h *DisputeHandler) OpenDispute(c *gin.Context) {
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
	var req dto.OpenDisputeRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	opened, err := h.svc.OpenDispute(c.Request.Context(), dispute.OpenDisputeInput{
		OpenedByID:  userID,
		OrderID:     orderID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.NewDisputeResponse(opened))
}

// ListDisputes GET /api/orders/:id/disputes
func (h *DisputeHandler) ListDisputes(c *gin.Context) {
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

	disputes, err := h.svc.ListDisputes(c.Request.Context(), userID, orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, disputes, dto.NewDisputeResponse)
}

// StartReview POST /api/admin/disputes/:id/review
func (h *DisputeHandler) StartReview(c *gin.Context) {
	h.step(c, h.svc.StartDisputeReview)
}

// Escalate POST /api/admin/disputes/:id/escalate
func (h *DisputeHandler) Escalate(c *gin.Context) {
	h.step(c, h.svc.EscalateDispute)
}

func (h *DisputeHandler) step(c *gin.Context, fn func(ctx context.Context, adminID, disputeID uuid.UUID) (*entity.Dispute, error)) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	updated, err := fn(c.Request.Context(), adminID, disputeID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewDisputeResponse(updated))
}

// Resolve POST /api/admin/disputes/:id/resolve
func (h *DisputeHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.ResolveDisputeRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.svc.ResolveDispute(c.Request.Context(), dispute.ResolveDisputeInput{
		AdminID:   adminID,
		DisputeID: disputeID,
		Decision:  valueobject.DisputeStatus(req.Decision),
		Notes:     req.Notes,
		Refund:    req.Refund,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.ResolveDisputeResponse{
		Dispute: dto.NewDisputeResponse(result.Dispute),
		Order:   dto.NewOrderResponse(result.Order),
		Refund:  dto.NewPaymentResponse(result.Refund),
	})
}
