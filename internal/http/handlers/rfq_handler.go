package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers/common"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/usecase/rfq"
)

// RFQHandler обслуживает запросы котировок и ставки по ним.
type RFQHandler struct {
	svc *service.SettlementService
}

func NewRFQHandler(svc *service.SettlementService) *RFQHandler {
	return &RFQHandler{svc: svc}
}

// CreateRFQ POST /api/rfqs
func (h *RFQHandler) CreateRFQ(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.CreateRFQRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	created, err := h.svc.CreateRFQ(c.Request.Context(), rfq.CreateRFQInput{
		BuyerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Quantity:    req.Quantity,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.NewRFQResponse(created))
}

// ListMine GET /api/rfqs
func (h *RFQHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	page, size := common.GetPage(c, specification.DefaultPageSize)
	rfqs, err := h.svc.RunRFQSpecification(c.Request.Context(), specification.RFQsByBuyer(userID).Paginate(page, size))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, rfqs, dto.NewRFQResponse)
}

// SubmitBid POST /api/rfqs/:id/bids
func (h *RFQHandler) SubmitBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	rfqID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.SubmitBidRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	bid, err := h.svc.SubmitBid(c.Request.Context(), rfq.SubmitBidInput{
		TailorID:          userID,
		RFQID:             rfqID,
		Amount:            req.Amount,
		EstimatedDelivery: req.EstimatedDelivery,
		Note:              req.Note,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.NewBidResponse(bid))
}

// ListBids GET /api/rfqs/:id/bids
func (h *RFQHandler) ListBids(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	rfqID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	bids, err := h.svc.ListBids(c.Request.Context(), userID, rfqID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, bids, dto.NewBidResponse)
}

// CancelRFQ POST /api/rfqs/:id/cancel
func (h *RFQHandler) CancelRFQ(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	rfqID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	cancelled, err := h.svc.CancelRFQ(c.Request.Context(), userID, rfqID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewRFQResponse(cancelled))
}

// SelectWinner POST /api/bids/:id/select
func (h *RFQHandler) SelectWinner(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.svc.SelectWinningBid(c.Request.Context(), userID, bidID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.SelectWinnerResponse{
		RFQ:     dto.NewRFQResponse(result.RFQ),
		Winner:  dto.NewBidResponse(result.Winner),
		Order:   dto.NewOrderResponse(result.Order),
		Payment: dto.NewPaymentResponse(result.Payment),
	})
}
