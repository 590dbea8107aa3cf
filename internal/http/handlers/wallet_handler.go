package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers/common"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/usecase/ledger"
)

// WalletHandler - баланс, выписка и движения по кошельку текущего пользователя.
type WalletHandler struct {
	svc *service.SettlementService
}

func NewWalletHandler(svc *service.SettlementService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// GetBalance GET /api/wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	balance, err := h.svc.GetWalletBalance(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.BalanceResponse{UserID: userID, Balance: balance})
}

// Statement GET /api/wallet/statement
func (h *WalletHandler) Statement(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	entries, err := h.svc.WalletStatement(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, entries, dto.NewWalletEntryResponse)
}

// Payments GET /api/wallet/payments
func (h *WalletHandler) Payments(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	payments, err := h.svc.WalletPayments(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, payments, dto.WalletPaymentResponse)
}

// Deposit POST /api/wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.WalletAmountRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	ext, err := externalPayment(req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.svc.DepositWallet(c.Request.Context(), userID, req.Amount, ext)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.WalletMovementResponse{
		Entry:   dto.NewWalletEntryResponse(result.Entry),
		Payment: dto.NewPaymentResponse(result.Payment),
	})
}

// Withdraw POST /api/wallet/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.WalletAmountRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	ext, err := externalPayment(req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.svc.WithdrawWallet(c.Request.Context(), userID, req.Amount, ext)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.WalletMovementResponse{
		Entry:   dto.NewWalletEntryResponse(result.Entry),
		Payment: dto.NewPaymentResponse(result.Payment),
	})
}

// Transfer POST /api/wallet/transfer
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.TransferRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.svc.TransferWallet(c.Request.Context(), userID, req.ToUserID, req.Amount, req.Description)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.TransferResponse{
		Debit:  dto.NewWalletEntryResponse(result.Debit),
		Credit: dto.NewWalletEntryResponse(result.Credit),
	})
}

func externalPayment(req dto.WalletAmountRequest) (ledger.ExternalPayment, error) {
	paymentType, err := valueobject.ParsePaymentType(req.PaymentType)
	if err != nil {
		return ledger.ExternalPayment{}, err
	}
	return ledger.ExternalPayment{
		Type:        paymentType,
		ProviderRef: req.ProviderReference,
		Description: req.Description,
	}, nil
}
