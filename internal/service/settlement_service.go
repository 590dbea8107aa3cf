package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
	"github.com/ignatzorin/atelier-backend/internal/usecase/dispute"
	"github.com/ignatzorin/atelier-backend/internal/usecase/ledger"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
	"github.com/ignatzorin/atelier-backend/internal/usecase/quote"
	"github.com/ignatzorin/atelier-backend/internal/usecase/rfq"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tailor"
)

// SettlementConfig - параметры расчётов платформы.
type SettlementConfig struct {
	Accounts       ledger.Accounts
	CommissionRate decimal.Decimal
	DisputeWindow  time.Duration
}

// SettlementService - единая точка входа в операции заказов, торгов,
// кошельков и споров. Каждая изменяющая операция выполняется в одной транзакции.
type SettlementService struct {
	ledger *ledger.Ledger

	createOrder  *order.CreateOrderUseCase
	transition   *order.TransitionOrderStatusUseCase
	getOrder     *order.GetOrderUseCase
	queryOrders  *order.QueryOrdersUseCase
	submitQuote  *quote.SubmitQuoteUseCase
	acceptQuote  *quote.AcceptQuoteUseCase
	rejectQuote  *quote.RejectQuoteUseCase
	withdraw     *quote.WithdrawQuoteUseCase
	decision     *quote.ListQuotesForDecisionUseCase
	queryQuotes  *quote.QueryQuotesUseCase
	createRFQ    *rfq.CreateRFQUseCase
	submitBid    *rfq.SubmitBidUseCase
	selectWinner *rfq.SelectWinnerUseCase
	cancelRFQ    *rfq.CancelRFQUseCase
	listBids     *rfq.ListBidsUseCase
	queryRFQs    *rfq.QueryRFQsUseCase
	openDispute  *dispute.OpenDisputeUseCase
	review       *dispute.ReviewDisputeUseCase
	resolve      *dispute.ResolveDisputeUseCase
	disputes     *dispute.ListDisputesUseCase
	register     *tailor.RegisterTailorUseCase
	verify       *tailor.VerifyTailorUseCase
	getTailor    *tailor.GetTailorUseCase
	queryTailors *tailor.QueryTailorsUseCase
}

func NewSettlementService(deps usecase.Deps, cfg SettlementConfig) (*SettlementService, error) {
	settlement, err := ledger.NewSettlement(cfg.Accounts, cfg.CommissionRate)
	if err != nil {
		return nil, err
	}
	return &SettlementService{
		ledger:       ledger.NewLedger(deps),
		createOrder:  order.NewCreateOrderUseCase(deps),
		transition:   order.NewTransitionOrderStatusUseCase(deps, settlement),
		getOrder:     order.NewGetOrderUseCase(deps),
		queryOrders:  order.NewQueryOrdersUseCase(deps),
		submitQuote:  quote.NewSubmitQuoteUseCase(deps),
		acceptQuote:  quote.NewAcceptQuoteUseCase(deps, settlement),
		rejectQuote:  quote.NewRejectQuoteUseCase(deps),
		withdraw:     quote.NewWithdrawQuoteUseCase(deps),
		decision:     quote.NewListQuotesForDecisionUseCase(deps),
		queryQuotes:  quote.NewQueryQuotesUseCase(deps),
		createRFQ:    rfq.NewCreateRFQUseCase(deps),
		submitBid:    rfq.NewSubmitBidUseCase(deps),
		selectWinner: rfq.NewSelectWinnerUseCase(deps, settlement),
		cancelRFQ:    rfq.NewCancelRFQUseCase(deps),
		listBids:     rfq.NewListBidsUseCase(deps),
		queryRFQs:    rfq.NewQueryRFQsUseCase(deps),
		openDispute:  dispute.NewOpenDisputeUseCase(deps, cfg.DisputeWindow),
		review:       dispute.NewReviewDisputeUseCase(deps),
		resolve:      dispute.NewResolveDisputeUseCase(deps, settlement),
		disputes:     dispute.NewListDisputesUseCase(deps),
		register:     tailor.NewRegisterTailorUseCase(deps),
		verify:       tailor.NewVerifyTailorUseCase(deps),
		getTailor:    tailor.NewGetTailorUseCase(deps),
		queryTailors: tailor.NewQueryTailorsUseCase(deps),
	}, nil
}

// Заказы.

func (s *SettlementService) CreateOrder(ctx context.Context, input order.CreateOrderInput) (*entity.Order, error) {
	return s.createOrder.Execute(ctx, input)
}

func (s *SettlementService) TransitionOrderStatus(ctx context.Context, actorID, orderID uuid.UUID, to valueobject.OrderStatus) (*entity.Order, error) {
	return s.transition.Execute(ctx, actorID, orderID, to)
}

func (s *SettlementService) GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*entity.Order, error) {
	return s.getOrder.Execute(ctx, actorID, orderID)
}

func (s *SettlementService) RunOrderSpecification(ctx context.Context, spec specification.OrderSpec) ([]*entity.Order, error) {
	return s.queryOrders.Execute(ctx, spec)
}

// Предложения.

func (s *SettlementService) SubmitQuote(ctx context.Context, input quote.SubmitQuoteInput) (*entity.Quote, error) {
	return s.submitQuote.Execute(ctx, input)
}

func (s *SettlementService) AcceptQuote(ctx context.Context, customerID, quoteID uuid.UUID) (*quote.AcceptResult, error) {
	return s.acceptQuote.Execute(ctx, customerID, quoteID)
}

func (s *SettlementService) RejectQuote(ctx context.Context, customerID, quoteID uuid.UUID) (*entity.Quote, error) {
	return s.rejectQuote.Execute(ctx, customerID, quoteID)
}

func (s *SettlementService) WithdrawQuote(ctx context.Context, tailorID, quoteID uuid.UUID) error {
	return s.withdraw.Execute(ctx, tailorID, quoteID)
}

func (s *SettlementService) ListQuotesForDecision(ctx context.Context, actorID, orderID uuid.UUID) ([]*entity.Quote, error) {
	return s.decision.Execute(ctx, actorID, orderID)
}

func (s *SettlementService) RunQuoteSpecification(ctx context.Context, spec specification.QuoteSpec) ([]*entity.Quote, error) {
	return s.queryQuotes.Execute(ctx, spec)
}

// Запросы котировок.

func (s *SettlementService) CreateRFQ(ctx context.Context, input rfq.CreateRFQInput) (*entity.RFQ, error) {
	return s.createRFQ.Execute(ctx, input)
}

func (s *SettlementService) SubmitBid(ctx context.Context, input rfq.SubmitBidInput) (*entity.RFQBid, error) {
	return s.submitBid.Execute(ctx, input)
}

func (s *SettlementService) SelectWinningBid(ctx context.Context, buyerID, bidID uuid.UUID) (*rfq.SelectWinnerResult, error) {
	return s.selectWinner.Execute(ctx, buyerID, bidID)
}

func (s *SettlementService) CancelRFQ(ctx context.Context, buyerID, rfqID uuid.UUID) (*entity.RFQ, error) {
	return s.cancelRFQ.Execute(ctx, buyerID, rfqID)
}

func (s *SettlementService) ListBids(ctx context.Context, buyerID, rfqID uuid.UUID) ([]*entity.RFQBid, error) {
	return s.listBids.Execute(ctx, buyerID, rfqID)
}

func (s *SettlementService) RunRFQSpecification(ctx context.Context, spec specification.RFQSpec) ([]*entity.RFQ, error) {
	return s.queryRFQs.Execute(ctx, spec)
}

// Споры.

func (s *SettlementService) OpenDispute(ctx context.Context, input dispute.OpenDisputeInput) (*entity.Dispute, error) {
	return s.openDispute.Execute(ctx, input)
}

func (s *SettlementService) StartDisputeReview(ctx context.Context, adminID, disputeID uuid.UUID) (*entity.Dispute, error) {
	return s.review.StartReview(ctx, adminID, disputeID)
}

func (s *SettlementService) EscalateDispute(ctx context.Context, adminID, disputeID uuid.UUID) (*entity.Dispute, error) {
	return s.review.Escalate(ctx, adminID, disputeID)
}

func (s *SettlementService) ResolveDispute(ctx context.Context, input dispute.ResolveDisputeInput) (*dispute.ResolveResult, error) {
	return s.resolve.Execute(ctx, input)
}

func (s *SettlementService) ListDisputes(ctx context.Context, actorID, orderID uuid.UUID) ([]*entity.Dispute, error) {
	return s.disputes.Execute(ctx, actorID, orderID)
}

// Кошельки.

func (s *SettlementService) GetWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.ledger.GetBalance(ctx, userID)
}

func (s *SettlementService) WalletStatement(ctx context.Context, userID uuid.UUID) ([]entity.WalletEntry, error) {
	return s.ledger.Statement(ctx, userID)
}

func (s *SettlementService) OpenWallet(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	return s.ledger.OpenWallet(ctx, userID)
}

func (s *SettlementService) CreditWallet(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*entity.WalletEntry, error) {
	return s.ledger.Credit(ctx, userID, amount, description)
}

func (s *SettlementService) DebitWallet(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*entity.WalletEntry, error) {
	return s.ledger.Debit(ctx, userID, amount, description)
}

// DepositWallet зачисляет внешний платёж и сохраняет его запись.
func (s *SettlementService) DepositWallet(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ext ledger.ExternalPayment) (*ledger.MovementResult, error) {
	return s.ledger.Deposit(ctx, userID, amount, ext)
}

func (s *SettlementService) WithdrawWallet(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, ext ledger.ExternalPayment) (*ledger.MovementResult, error) {
	return s.ledger.Withdraw(ctx, userID, amount, ext)
}

func (s *SettlementService) WalletPayments(ctx context.Context, userID uuid.UUID) ([]*entity.Payment, error) {
	return s.ledger.Payments(ctx, userID)
}

func (s *SettlementService) TransferWallet(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal, description string) (*ledger.TransferResult, error) {
	return s.ledger.Transfer(ctx, from, to, amount, description)
}

// Портные.

func (s *SettlementService) RegisterTailor(ctx context.Context, params entity.NewTailorParams) (*entity.TailorProfile, error) {
	return s.register.Execute(ctx, params)
}

func (s *SettlementService) VerifyTailor(ctx context.Context, adminID, tailorID uuid.UUID) (*entity.TailorProfile, error) {
	return s.verify.Execute(ctx, adminID, tailorID)
}

func (s *SettlementService) GetTailor(ctx context.Context, tailorID uuid.UUID) (*entity.TailorProfile, error) {
	return s.getTailor.Execute(ctx, tailorID)
}

func (s *SettlementService) RunTailorSpecification(ctx context.Context, spec specification.TailorSpec) ([]*entity.TailorProfile, error) {
	return s.queryTailors.Execute(ctx, spec)
}
