package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers/common"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/usecase/quote"
)

type QuoteHandler struct {
	svc *service.SettlementService
}

func NewQuoteHandler(svc *service.SettlementService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// SubmitQuote POST /api/orders/:id/quotes
func (h *QuoteHandler) SubmitQuote(c *gin.Context) {
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
	var req dto.SubmitQuoteRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	submitted, err := h.svc.SubmitQuote(c.Request.Context(), quote.SubmitQuoteInput{
		TailorID:      userID,
		OrderID:       orderID,
		ProposedPrice: req.ProposedPrice,
		EstimatedDays: req.EstimatedDays,
		Note:          req.Note,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.NewQuoteResponse(submitted))
}

// ListForDecision GET /api/orders/:id/quotes
// Порядок: цена, затем срок.
func (h *QuoteHandler) ListForDecision(c *gin.Context) {
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

	quotes, err := h.svc.ListQuotesForDecision(c.Request.Context(), userID, orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, quotes, dto.NewQuoteResponse)
}

// ListMine GET /api/quotes - предложения текущего портного.
func (h *QuoteHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	page, size := common.GetPage(c, specification.DefaultPageSize)
	quotes, err := h.svc.RunQuoteSpecification(c.Request.Context(), specification.QuotesByTailor(userID).Paginate(page, size))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, quotes, dto.NewQuoteResponse)
}

// AcceptQuote POST /api/quotes/:id/accept
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	quoteID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.svc.AcceptQuote(c.Request.Context(), userID, quoteID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.AcceptQuoteResponse{
		Order: dto.NewOrderResponse(result.Order),
		Quote: dto.NewQuoteResponse(result.Quote),
		Rejected: lo.Map(result.Rejected, func(q *entity.Quote, _ int) dto.QuoteResponse {
			return dto.NewQuoteResponse(q)
		}),
		Payment: dto.NewPaymentResponse(result.Payment),
	})
}

// RejectQuote POST /api/quotes/:id/reject
func (h *QuoteHandler) RejectQuote(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	quoteID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	rejected, err := h.svc.RejectQuote(c.Request.Context(), userID, quoteID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewQuoteResponse(rejected))
}

// WithdrawQuote DELETE /api/quotes/:id
func (h *QuoteHandler) WithdrawQuote(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	quoteID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.svc.WithdrawQuote(c.Request.Context(), userID, quoteID); err != nil {
		common.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
